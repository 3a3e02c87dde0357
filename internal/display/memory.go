// SPDX-License-Identifier: MIT
package display

import "sync"

// Cell is one character cell of a Memory display.
type Cell struct {
	Rune  rune
	Style Style
}

// Memory is an in-process Display. It backs the headless mode and lets tests
// inspect exactly what was drawn. Keys can be pushed from any goroutine.
type Memory struct {
	width, height int
	colors        int
	cells         []Cell
	shown         []Cell
	shows         int

	mu     sync.Mutex
	keys   []Key
	closed bool
}

var _ Display = (*Memory)(nil)

// NewMemory returns a blank width x height display reporting colors colors.
func NewMemory(width, height, colors int) *Memory {
	m := &Memory{colors: colors}
	m.Resize(width, height)
	return m
}

// Resize changes the geometry and blanks the surface.
func (m *Memory) Resize(width, height int) {
	m.width, m.height = max(0, width), max(0, height)
	m.cells = make([]Cell, m.width*m.height)
	m.shown = make([]Cell, m.width*m.height)
}

func (m *Memory) Size() (int, int) {
	return m.width, m.height
}

func (m *Memory) Clear() {
	clear(m.cells)
}

func (m *Memory) SetCell(x, y int, r rune, style Style) error {
	if !inBounds(x, y, m.width, m.height) {
		return ErrOutOfBounds
	}
	m.cells[y*m.width+x] = Cell{Rune: r, Style: style}
	return nil
}

func (m *Memory) Show() {
	copy(m.shown, m.cells)
	m.shows++
}

// Push queues keys for PollKey.
func (m *Memory) Push(keys ...Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, keys...)
}

func (m *Memory) PollKey() (Key, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.keys) == 0 {
		return Key{}, false
	}
	k := m.keys[0]
	m.keys = m.keys[1:]
	return k, true
}

func (m *Memory) Colors() int {
	return m.colors
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Shows counts calls to Show.
func (m *Memory) Shows() int {
	return m.shows
}

// Cell returns the last shown content at (x, y).
func (m *Memory) Cell(x, y int) Cell {
	if !inBounds(x, y, m.width, m.height) {
		return Cell{}
	}
	return m.shown[y*m.width+x]
}

// Row returns the last shown row y as text, blanks rendered as spaces.
func (m *Memory) Row(y int) string {
	if y < 0 || y >= m.height {
		return ""
	}
	row := make([]rune, m.width)
	for x := range row {
		r := m.shown[y*m.width+x].Rune
		if r == 0 {
			r = ' '
		}
		row[x] = r
	}
	return string(row)
}

// Filled counts non-blank shown cells.
func (m *Memory) Filled() int {
	n := 0
	for _, c := range m.shown {
		if c.Rune != 0 && c.Rune != ' ' {
			n++
		}
	}
	return n
}
