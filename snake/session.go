package snake

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-in-grid/level"
	"github.com/hoshinonyaruko/snake-in-grid/logger"
	"github.com/hoshinonyaruko/snake-in-grid/structs"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Session owns one round at a time: the level, the snake, the round state
// and the score. It is not safe for concurrent use.
type Session struct {
	loader level.Loader
	opts   Options

	RoundID string
	Level   *level.Level
	Snake   *Snake
	State   structs.RoundState
	Score   int
}

// NewSession loads the first round from loader.
func NewSession(loader level.Loader, opts Options) (*Session, error) {
	if opts.Speed <= 0 || opts.Speed > float64(opts.CellSize) {
		return nil, fmt.Errorf("new session: speed %v must be in (0, %d]", opts.Speed, opts.CellSize)
	}
	s := &Session{loader: loader, opts: opts}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset loads a fresh level and snake and starts a new round. On error the
// previous round is kept as it was.
func (s *Session) Reset() error {
	lvl, err := s.loader.Load()
	if err != nil {
		return fmt.Errorf("reset round: %w", err)
	}
	if lvl == nil {
		return fmt.Errorf("reset round: %w", level.ErrNoLevel)
	}
	if lvl.CellSize() != s.opts.CellSize {
		return fmt.Errorf("reset round: level cell size %d does not match %d", lvl.CellSize(), s.opts.CellSize)
	}

	s.Level = lvl
	s.Snake = NewSnake(lvl, lvl.StartCell(), s.opts)
	s.State = structs.Playing
	s.Score = 0
	s.RoundID = uuid.NewString()

	logger.Log.WithFields(logrus.Fields{
		"round": s.RoundID,
		"items": len(lvl.Items()),
		"walls": len(lvl.Walls()),
	}).Info("round started")
	return nil
}

// Tick advances the round by one step.
func (s *Session) Tick() {
	if s.State != structs.Playing {
		return
	}
	s.State, s.Score = Step(s.Level, s.Snake, s.State, s.Score)
	if s.State != structs.Playing {
		logger.Log.WithFields(logrus.Fields{
			"round": s.RoundID,
			"state": s.State.String(),
			"score": s.Score,
		}).Info("round finished")
	}
}

// HandleSignal applies one input. Confirm restarts a finished round and is
// ignored while playing. It reports whether the signal changed anything.
func (s *Session) HandleSignal(sig structs.Signal) (bool, error) {
	if d, ok := sig.Direction(); ok {
		return s.Snake.SetDirection(d), nil
	}
	if sig != structs.SignalConfirm || s.State == structs.Playing {
		return false, nil
	}
	if err := s.Reset(); err != nil {
		return false, err
	}
	return true, nil
}

// Snapshot copies the drawable state of the current round.
func (s *Session) Snapshot() structs.Snapshot {
	cols, rows := s.Level.Size()

	walls := make([]structs.Cell, 0, len(s.Level.Walls()))
	for _, w := range s.Level.Walls() {
		walls = append(walls, w.Cell)
	}

	items := maps.Keys(s.Level.Items())
	// 从上到下，从左到右
	slices.SortFunc(items, func(a, b structs.Cell) int {
		if a.Y != b.Y {
			return b.Y - a.Y
		}
		return a.X - b.X
	})

	return structs.Snapshot{
		RoundID:    s.RoundID,
		State:      s.State,
		Score:      s.Score,
		Head:       s.Snake.Cell(),
		Direction:  s.Snake.Direction(),
		Tail:       s.Snake.Tail(),
		TailTarget: s.Snake.TailTarget,
		Walls:      walls,
		Items:      items,
		CellSize:   s.Level.CellSize(),
		Width:      cols,
		Height:     rows,
	}
}
