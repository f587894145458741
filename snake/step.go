package snake

import (
	"github.com/hoshinonyaruko/snake-in-grid/structs"
)

// Field is what a tick needs from the level.
type Field interface {
	Occupancy
	ConsumeItemAt(cell structs.Cell) bool
	IsCleared() bool
	Occupied(cell structs.Cell) bool
}

// Step runs one tick of a round. The snake's current cell is checked before
// it moves: eating the last item wins, hitting a wall or tail segment ends
// the round, otherwise the snake advances. It is a no-op unless state is Playing.
func Step(field Field, s *Snake, state structs.RoundState, score int) (structs.RoundState, int) {
	if state != structs.Playing {
		return state, score
	}

	cell := s.Cell()
	// 吃到食物
	if field.ConsumeItemAt(cell) {
		score++
		s.Grow()
		if field.IsCleared() {
			return structs.Won, score
		}
	}

	// 撞墙或者咬到蛇身
	if field.Occupied(cell) {
		return structs.GameOver, score
	}

	s.Advance()
	return structs.Playing, score
}
