// SPDX-License-Identifier: MIT
package display

import (
	"fmt"
	"sync"

	"termvis/internal/palette"

	"github.com/gdamore/tcell/v2"
)

// Terminal is a Display backed by a tcell screen. Events are pumped into a
// buffered channel by a background goroutine so that PollKey never blocks.
type Terminal struct {
	screen tcell.Screen
	events chan tcell.Event
	quit   chan struct{}
	once   sync.Once

	// trueColor paints cube entries as RGB so their shades do not depend on
	// the terminal's own palette.
	trueColor bool
}

var _ Display = (*Terminal)(nil)

// NewTerminal takes over the controlling terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	return newTerminal(screen)
}

func newTerminal(screen tcell.Screen) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}

	screen.SetStyle(tcell.StyleDefault)
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{
		screen: screen,
		events: make(chan tcell.Event, 64),
		quit:   make(chan struct{}),

		trueColor: screen.Colors() >= trueColors,
	}
	go screen.ChannelEvents(t.events, t.quit)

	return t, nil
}

func (t *Terminal) Size() (int, int) {
	return t.screen.Size()
}

func (t *Terminal) Clear() {
	t.screen.Clear()
}

func (t *Terminal) SetCell(x, y int, r rune, style Style) error {
	w, h := t.screen.Size()
	if !inBounds(x, y, w, h) {
		return ErrOutOfBounds
	}
	t.screen.SetContent(x, y, r, nil, toTcell(style, t.trueColor))
	return nil
}

func (t *Terminal) Show() {
	t.screen.Show()
}

// PollKey drains pending events until it finds a key. Resize events force a
// full redraw on the next Show.
func (t *Terminal) PollKey() (Key, bool) {
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				return Key{}, false
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if key, ok := fromTcell(ev); ok {
					return key, true
				}
			case *tcell.EventResize:
				t.screen.Sync()
			}
		default:
			return Key{}, false
		}
	}
}

// Push injects keys as if they had been typed. Safe from any goroutine;
// keys are dropped when the event queue is full.
func (t *Terminal) Push(keys ...Key) {
	for _, k := range keys {
		if ev, ok := toTcellKey(k); ok {
			t.screen.PostEvent(ev)
		}
	}
}

func (t *Terminal) Colors() int {
	return t.screen.Colors()
}

// Close restores the terminal. Safe to call more than once.
func (t *Terminal) Close() error {
	t.once.Do(func() {
		t.screen.Fini()
		close(t.quit)
	})
	return nil
}

const trueColors = 1 << 24

func toTcell(style Style, trueColor bool) tcell.Style {
	s := tcell.StyleDefault
	if idx := style.Color.Index; idx >= 0 {
		fg := tcell.PaletteColor(idx)
		if r, g, b, ok := palette.CubeRGB(idx); ok && trueColor {
			fg = tcell.NewRGBColor(int32(r), int32(g), int32(b))
		}
		s = s.Foreground(fg)
	}
	return s.Bold(style.Bold || style.Color.Bold).Blink(style.Blink)
}

var tcellKeys = map[tcell.Key]KeyCode{
	tcell.KeyCtrlC:      KeyCtrlC,
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyTab:        KeyTab,
	tcell.KeyBackspace:  KeyBackspace,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyLeft:       KeyLeft,
	tcell.KeyRight:      KeyRight,
}

func fromTcell(ev *tcell.EventKey) (Key, bool) {
	if ev.Key() == tcell.KeyRune {
		return RuneKey(ev.Rune()), true
	}
	if code, ok := tcellKeys[ev.Key()]; ok {
		return Key{Code: code}, true
	}
	return Key{}, false
}

func toTcellKey(k Key) (*tcell.EventKey, bool) {
	if k.Code == KeyRune {
		return tcell.NewEventKey(tcell.KeyRune, k.Rune, tcell.ModNone), true
	}
	for tk, code := range tcellKeys {
		if code == k.Code {
			return tcell.NewEventKey(tk, 0, tcell.ModNone), true
		}
	}
	return nil, false
}
