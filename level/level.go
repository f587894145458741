// Package level parses level grids and tracks walls, items and the occupancy index.
package level

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hoshinonyaruko/snake-in-grid/structs"
)

// MalformedLevelError is returned when a level source cannot be read or has no cells.
type MalformedLevelError struct {
	Source string
	Reason string
	Err    error
}

func (e *MalformedLevelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed level %q: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed level %q: %s", e.Source, e.Reason)
}

func (e *MalformedLevelError) Unwrap() error { return e.Err }

// Level holds the static walls, the remaining items and the occupancy index.
// Items are kept out of occupancy because eating one is not fatal.
type Level struct {
	cellSize int
	cols     int
	rows     int

	walls     []*structs.Entity
	items     map[structs.Cell]*structs.Entity
	occupancy map[structs.Cell]*structs.Entity
}

// New returns an empty level of cols x rows cells.
func New(cols, rows, cellSize int) *Level {
	return &Level{
		cellSize:  cellSize,
		cols:      cols,
		rows:      rows,
		items:     make(map[structs.Cell]*structs.Entity),
		occupancy: make(map[structs.Cell]*structs.Entity),
	}
}

// isWall 墙的几种字符只是美术上的区别
func isWall(r rune) bool {
	switch r {
	case '+', '-', '|', '#':
		return true
	}
	return false
}

// Load parses a plain-text grid, one line per row and one rune per column.
// Short rows are padded with empty cells.
func Load(r io.Reader, source string, cellSize int) (*Level, error) {
	if cellSize <= 0 {
		return nil, &MalformedLevelError{Source: source, Reason: fmt.Sprintf("invalid cell size %d", cellSize)}
	}

	var lines [][]rune
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, []rune(strings.TrimRight(scanner.Text(), "\r")))
	}
	if err := scanner.Err(); err != nil {
		return nil, &MalformedLevelError{Source: source, Reason: "read failed", Err: err}
	}

	cols := 0
	for _, line := range lines {
		if len(line) > cols {
			cols = len(line)
		}
	}
	if len(lines) == 0 || cols == 0 {
		return nil, &MalformedLevelError{Source: source, Reason: "zero dimensions"}
	}

	lvl := New(cols, len(lines), cellSize)
	for row, line := range lines {
		for col, symbol := range line {
			cell := lvl.CellAt(col, row)
			switch {
			case isWall(symbol):
				w := &structs.Entity{Tag: structs.Wall, Cell: cell}
				lvl.walls = append(lvl.walls, w)
				lvl.occupancy[cell] = w
			case symbol == 'a':
				lvl.items[cell] = &structs.Entity{Tag: structs.Item, Cell: cell}
			}
		}
	}
	return lvl, nil
}

// LoadFile reads a level from disk.
func LoadFile(path string, cellSize int) (*Level, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &MalformedLevelError{Source: path, Reason: "open failed", Err: err}
	}
	defer file.Close()
	return Load(file, path, cellSize)
}

// Loader produces a fresh Level on every call.
type Loader interface {
	Load() (*Level, error)
}

// FileLoader re-reads Path each time a round starts.
type FileLoader struct {
	Path     string
	CellSize int
}

func (f FileLoader) Load() (*Level, error) {
	return LoadFile(f.Path, f.CellSize)
}

// StringLoader parses a fixed in-memory grid.
type StringLoader struct {
	Grid     string
	CellSize int
}

func (s StringLoader) Load() (*Level, error) {
	return Load(strings.NewReader(s.Grid), "inline", s.CellSize)
}

// CellAt converts a grid column/row to a cell coordinate; row 0 is the top.
func (l *Level) CellAt(col, row int) structs.Cell {
	return structs.Cell{
		X: col * l.cellSize,
		Y: (l.rows - 1 - row) * l.cellSize,
	}
}

// StartCell is where a new actor spawns: second column, middle row.
func (l *Level) StartCell() structs.Cell {
	return l.CellAt(1, l.rows/2)
}

func (l *Level) CellSize() int { return l.cellSize }

// Size returns the grid dimensions in cells.
func (l *Level) Size() (cols, rows int) { return l.cols, l.rows }

func (l *Level) Walls() []*structs.Entity { return l.walls }

// Items exposes the remaining items for drawing. Callers must not mutate it.
func (l *Level) Items() map[structs.Cell]*structs.Entity { return l.items }

func (l *Level) HasItem(cell structs.Cell) bool {
	_, ok := l.items[cell]
	return ok
}

// IsCleared reports whether every item has been consumed.
func (l *Level) IsCleared() bool {
	return len(l.items) == 0
}

// ConsumeItemAt removes the item at cell and reports whether one was there.
func (l *Level) ConsumeItemAt(cell structs.Cell) bool {
	if _, ok := l.items[cell]; !ok {
		return false
	}
	delete(l.items, cell)
	return true
}

// Occupant returns the wall or tail segment blocking cell, if any.
func (l *Level) Occupant(cell structs.Cell) (*structs.Entity, bool) {
	e, ok := l.occupancy[cell]
	return e, ok
}

// Occupied reports whether cell is blocked.
func (l *Level) Occupied(cell structs.Cell) bool {
	_, ok := l.occupancy[cell]
	return ok
}

// Occupy registers e at its cell, replacing any previous occupant.
func (l *Level) Occupy(e *structs.Entity) {
	l.occupancy[e.Cell] = e
}

// Vacate removes e from the index. An entry owned by another entity is left alone.
func (l *Level) Vacate(e *structs.Entity) {
	if cur, ok := l.occupancy[e.Cell]; ok && cur == e {
		delete(l.occupancy, e.Cell)
	}
}

// OccupancyLen returns the number of blocked cells.
func (l *Level) OccupancyLen() int { return len(l.occupancy) }

// ErrNoLevel is returned when a loader yields no level and no error.
var ErrNoLevel = errors.New("level not loaded")

// DefaultGrid is written to disk when no level file exists.
const DefaultGrid = `+------------------+
|                  |
|   a        a     |
|                  |
|       +--+       |
|       |  |   a   |
|  a             a |
|                  |
|     a      a     |
|       |  |       |
|       +--+    a  |
|   a              |
|           a      |
|                  |
+------------------+
`
