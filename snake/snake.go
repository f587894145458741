// 关于蛇的移动和蛇身
package snake

import (
	"math"

	"github.com/hoshinonyaruko/snake-in-grid/structs"
)

// Occupancy is the part of a level a snake writes its tail segments into.
type Occupancy interface {
	Occupy(e *structs.Entity)
	Vacate(e *structs.Entity)
}

// Options are the per-round actor constants.
type Options struct {
	CellSize   int     // 格子尺寸
	Speed      float64 // 每个 tick 移动的距离
	TailLength int     // 初始目标蛇身长度
}

// DefaultOptions are 32px cells, 3px per tick and a tail of 3.
func DefaultOptions() Options {
	return Options{CellSize: 32, Speed: 3, TailLength: 3}
}

// Snake is the player actor. Its continuous position moves every tick and
// its cell position is the continuous position snapped down to the grid.
type Snake struct {
	occ      Occupancy
	cellSize int
	speed    float64

	x, y       float64
	cell       structs.Cell
	direction  structs.Direction
	tail       []*structs.Entity // 最新的在前
	TailTarget int
}

// NewSnake places a snake at start heading right.
func NewSnake(occ Occupancy, start structs.Cell, opts Options) *Snake {
	return &Snake{
		occ:        occ,
		cellSize:   opts.CellSize,
		speed:      opts.Speed,
		x:          float64(start.X),
		y:          float64(start.Y),
		cell:       start,
		direction:  structs.Right,
		TailTarget: opts.TailLength,
	}
}

// SetDirection changes the heading. Anything but a unit axis vector is
// ignored. Reversing into the tail is allowed.
func (s *Snake) SetDirection(d structs.Direction) bool {
	if !d.Valid() {
		return false
	}
	s.direction = d
	return true
}

func (s *Snake) Direction() structs.Direction { return s.direction }

// Position returns the continuous position.
func (s *Snake) Position() (x, y float64) { return s.x, s.y }

// Cell returns the cell the snake's head is in.
func (s *Snake) Cell() structs.Cell { return s.cell }

// Tail returns a copy of the tail cells, most recent first.
func (s *Snake) Tail() []structs.Cell {
	cells := make([]structs.Cell, len(s.tail))
	for i, seg := range s.tail {
		cells[i] = seg.Cell
	}
	return cells
}

func (s *Snake) TailLen() int { return len(s.tail) }

// Grow asks for one more tail segment; it appears on the next cell change.
func (s *Snake) Grow() { s.TailTarget++ }

// snap 向下取整到格子原点
func (s *Snake) snap(v float64) int {
	cs := float64(s.cellSize)
	return int(math.Floor(v/cs) * cs)
}

// Advance moves the snake one tick and reports whether it entered a new cell.
func (s *Snake) Advance() bool {
	s.x += float64(s.direction.DX) * s.speed
	s.y += float64(s.direction.DY) * s.speed

	next := structs.Cell{X: s.snap(s.x), Y: s.snap(s.y)}
	if next == s.cell {
		return false
	}
	// 蛇身记录的是刚离开的格子
	s.SyncTail()
	s.cell = next
	return true
}

// SyncTail drops a segment on the current cell unless the newest segment is
// already there, then trims the oldest segment past TailTarget.
func (s *Snake) SyncTail() {
	if len(s.tail) > 0 && s.tail[0].Cell == s.cell {
		return
	}

	seg := &structs.Entity{Tag: structs.TailSegment, Cell: s.cell}
	s.tail = append(s.tail, nil)
	copy(s.tail[1:], s.tail)
	s.tail[0] = seg
	s.occ.Occupy(seg)

	if len(s.tail) > s.TailTarget {
		old := s.tail[len(s.tail)-1]
		s.tail[len(s.tail)-1] = nil
		s.tail = s.tail[:len(s.tail)-1]
		s.occ.Vacate(old)
	}
}
