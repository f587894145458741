package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-in-grid/level"
	"github.com/hoshinonyaruko/snake-in-grid/snake"
	"github.com/hoshinonyaruko/snake-in-grid/structs"
)

const testLevel = `+---+
|   |
| a |
|   |
+---+
`

func newSession(t *testing.T) *snake.Session {
	t.Helper()
	s, err := snake.NewSession(level.StringLoader{Grid: testLevel, CellSize: 32}, snake.DefaultOptions())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestSignalForKey(t *testing.T) {
	cases := []struct {
		ev   *tcell.EventKey
		sig  structs.Signal
		quit bool
	}{
		{tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), structs.SignalUp, false},
		{tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), structs.SignalDown, false},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), structs.SignalLeft, false},
		{tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), structs.SignalRight, false},
		{tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), structs.SignalConfirm, false},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), structs.SignalNone, true},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), structs.SignalNone, true},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), structs.SignalNone, false},
	}
	for i, c := range cases {
		sig, quit := SignalForKey(c.ev)
		if sig != c.sig || quit != c.quit {
			t.Errorf("case %d: expected %v/%v, got %v/%v", i, c.sig, c.quit, sig, quit)
		}
	}
}

func TestLayout(t *testing.T) {
	grid := Layout(newSession(t).Snapshot())
	if len(grid) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(grid))
	}

	want := []string{
		"#####",
		"#   #",
		"#@a #",
		"#   #",
		"#####",
	}
	for row, line := range grid {
		if string(line) != want[row] {
			t.Errorf("row %d: expected %q, got %q", row, want[row], string(line))
		}
	}
}

func TestStatusLine(t *testing.T) {
	s := newSession(t)
	if got := StatusLine(s.Snapshot()); got != "Score: 0" {
		t.Errorf("Unexpected status %q", got)
	}
	s.HandleSignal(structs.SignalLeft)
	s.Tick()
	s.Tick()
	if got := StatusLine(s.Snapshot()); !strings.Contains(got, "Game Over") {
		t.Errorf("Expected game over status, got %q", got)
	}
}

func TestHandleEventDrivesSession(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(40, 10)

	s := newSession(t)
	u := New(screen, s, time.Millisecond)

	if !u.handleEvent(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)) {
		t.Fatal("Arrow key must not quit")
	}
	s.Tick()
	s.Tick()
	if s.State != structs.GameOver {
		t.Fatalf("Expected GameOver, got %v", s.State)
	}

	round := s.RoundID
	u.handleEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	if s.State != structs.Playing || s.RoundID == round {
		t.Error("Expected Enter to start a new round")
	}

	if u.handleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Expected Escape to quit")
	}
}

func TestDraw(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(40, 10)

	u := New(screen, newSession(t), time.Millisecond)
	u.draw()

	// each cell is two columns wide
	if r, _, _, _ := screen.GetContent(2, 2); r != glyphHead {
		t.Errorf("Expected head glyph at (2,2), got %q", r)
	}
	if r, _, _, _ := screen.GetContent(4, 2); r != glyphItem {
		t.Errorf("Expected item glyph at (4,2), got %q", r)
	}
	if r, _, _, _ := screen.GetContent(0, 0); r != glyphWall {
		t.Errorf("Expected wall glyph at (0,0), got %q", r)
	}
	if r, _, _, _ := screen.GetContent(0, 6); r != 'S' {
		t.Errorf("Expected status line under the grid, got %q", r)
	}
}
