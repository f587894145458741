// Package tui is the terminal frontend: arrow keys in, grid out.
package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-in-grid/logger"
	"github.com/hoshinonyaruko/snake-in-grid/snake"
	"github.com/hoshinonyaruko/snake-in-grid/structs"
)

const (
	glyphWall  = '#'
	glyphItem  = 'a'
	glyphTail  = 'o'
	glyphHead  = '@'
	glyphEmpty = ' '
)

var styles = map[rune]tcell.Style{
	glyphWall: tcell.StyleDefault.Foreground(tcell.ColorGray),
	glyphItem: tcell.StyleDefault.Foreground(tcell.ColorRed),
	glyphTail: tcell.StyleDefault.Foreground(tcell.ColorGreen),
	glyphHead: tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true),
}

// UI owns the screen and the session; everything runs on the Run goroutine
// except the event poller, which only forwards events.
type UI struct {
	screen  tcell.Screen
	session *snake.Session
	tick    time.Duration
}

func New(screen tcell.Screen, session *snake.Session, tick time.Duration) *UI {
	return &UI{screen: screen, session: session, tick: tick}
}

// SignalForKey maps a key event to a game signal. quit is true for Esc, Ctrl-C and q.
func SignalForKey(ev *tcell.EventKey) (sig structs.Signal, quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return structs.SignalNone, true
	case tcell.KeyUp:
		return structs.SignalUp, false
	case tcell.KeyDown:
		return structs.SignalDown, false
	case tcell.KeyLeft:
		return structs.SignalLeft, false
	case tcell.KeyRight:
		return structs.SignalRight, false
	case tcell.KeyEnter:
		return structs.SignalConfirm, false
	case tcell.KeyRune:
		if ev.Rune() == 'q' {
			return structs.SignalNone, true
		}
	}
	return structs.SignalNone, false
}

// Run drives the session until the player quits.
func (u *UI) Run() error {
	ticker := time.NewTicker(u.tick)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	u.draw()
	for {
		select {
		case ev, ok := <-eventChan:
			if !ok {
				return nil
			}
			if !u.handleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			u.session.Tick()
			u.draw()
		}
	}
}

func (u *UI) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		sig, quit := SignalForKey(ev)
		if quit {
			return false
		}
		if sig == structs.SignalNone {
			return true
		}
		if _, err := u.session.HandleSignal(sig); err != nil {
			// 保留上一回合，等玩家修好关卡再按回车
			logger.Log.WithError(err).Error("restart failed")
		}
	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

// Layout converts a snapshot into rows of glyphs, top row first.
func Layout(snap structs.Snapshot) [][]rune {
	grid := make([][]rune, snap.Height)
	for row := range grid {
		grid[row] = make([]rune, snap.Width)
		for col := range grid[row] {
			grid[row][col] = glyphEmpty
		}
	}
	put := func(c structs.Cell, r rune) {
		col := c.X / snap.CellSize
		row := snap.Height - 1 - c.Y/snap.CellSize
		if row < 0 || row >= snap.Height || col < 0 || col >= snap.Width {
			return
		}
		grid[row][col] = r
	}
	for _, w := range snap.Walls {
		put(w, glyphWall)
	}
	for _, a := range snap.Items {
		put(a, glyphItem)
	}
	for _, t := range snap.Tail {
		put(t, glyphTail)
	}
	put(snap.Head, glyphHead)
	return grid
}

// StatusLine is the text under the grid.
func StatusLine(snap structs.Snapshot) string {
	switch snap.State {
	case structs.GameOver:
		return fmt.Sprintf("Score: %d  Game Over - Enter to restart", snap.Score)
	case structs.Won:
		return fmt.Sprintf("Score: %d  You Win! - Enter to restart", snap.Score)
	}
	return fmt.Sprintf("Score: %d", snap.Score)
}

func (u *UI) draw() {
	snap := u.session.Snapshot()
	u.screen.Clear()
	for row, line := range Layout(snap) {
		for col, r := range line {
			style, ok := styles[r]
			if !ok {
				style = tcell.StyleDefault
			}
			// 每个格子占两列，看起来更接近正方形
			u.screen.SetContent(col*2, row, r, nil, style)
			u.screen.SetContent(col*2+1, row, ' ', nil, style)
		}
	}
	for i, r := range StatusLine(snap) {
		u.screen.SetContent(i, snap.Height+1, r, nil, tcell.StyleDefault)
	}
	u.screen.Show()
}
