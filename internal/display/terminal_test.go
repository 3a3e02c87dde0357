// SPDX-License-Identifier: MIT
package display

import (
	"errors"
	"testing"
	"time"

	"termvis/internal/palette"

	"github.com/gdamore/tcell/v2"
)

func newSimTerminal(t *testing.T, w, h int) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	term, err := newTerminal(sim)
	if err != nil {
		t.Fatalf("newTerminal() error = %v", err)
	}
	sim.SetSize(w, h)
	t.Cleanup(func() { term.Close() })
	return term, sim
}

// waitKey polls until a key arrives from the event goroutine.
func waitKey(t *testing.T, term *Terminal) Key {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if k, ok := term.PollKey(); ok {
			return k
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for key")
	return Key{}
}

func TestTerminal_SetCell(t *testing.T) {
	term, sim := newSimTerminal(t, 10, 4)

	style := Style{Color: palette.Color{Index: 196}, Bold: true}
	if err := term.SetCell(2, 1, 'x', style); err != nil {
		t.Fatalf("SetCell in bounds error = %v", err)
	}

	for _, p := range [][2]int{{-1, 0}, {0, -1}, {10, 0}, {0, 4}, {100, 100}} {
		if err := term.SetCell(p[0], p[1], 'o', style); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("SetCell(%d, %d) error = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
	}

	term.Show()

	cells, w, _ := sim.GetContents()
	cell := cells[1*w+2]
	if len(cell.Runes) == 0 || cell.Runes[0] != 'x' {
		t.Fatalf("cell (2,1) = %q, want 'x'", cell.Runes)
	}
	fg, _, attrs := cell.Style.Decompose()
	if fg != tcell.PaletteColor(196) {
		t.Errorf("foreground = %v, want palette 196", fg)
	}
	if attrs&tcell.AttrBold == 0 {
		t.Error("expected bold attribute")
	}
}

func TestTerminal_Size(t *testing.T) {
	term, sim := newSimTerminal(t, 33, 7)
	if w, h := term.Size(); w != 33 || h != 7 {
		t.Errorf("Size() = %d x %d, want 33 x 7", w, h)
	}
	sim.SetSize(12, 5)
	if w, h := term.Size(); w != 12 || h != 5 {
		t.Errorf("Size() after resize = %d x %d, want 12 x 5", w, h)
	}
}

func TestTerminal_PollKey(t *testing.T) {
	term, sim := newSimTerminal(t, 10, 4)

	if _, ok := term.PollKey(); ok {
		t.Fatal("PollKey() returned a key with nothing injected")
	}

	sim.InjectKey(tcell.KeyRune, 'm', tcell.ModNone)
	if k := waitKey(t, term); k != RuneKey('m') {
		t.Errorf("key = %+v, want m", k)
	}

	sim.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	if k := waitKey(t, term); k.Code != KeyCtrlC {
		t.Errorf("key = %+v, want ctrl+c", k)
	}
}

func TestTerminal_Push(t *testing.T) {
	term, _ := newSimTerminal(t, 10, 4)

	term.Push(RuneKey('q'), Key{Code: KeyUp}, Key{Code: KeyNone})
	if k := waitKey(t, term); k != RuneKey('q') {
		t.Errorf("key = %+v, want q", k)
	}
	if k := waitKey(t, term); k.Code != KeyUp {
		t.Errorf("key = %+v, want up", k)
	}
}

func TestTerminal_CloseIdempotent(t *testing.T) {
	term, _ := newSimTerminal(t, 10, 4)
	if err := term.Close(); err != nil {
		t.Fatal(err)
	}
	if err := term.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestToTcell(t *testing.T) {
	tests := []struct {
		name      string
		style     Style
		trueColor bool
		fg        tcell.Color
		bold      bool
		blink     bool
	}{
		{"default", Style{Color: palette.Default}, false, tcell.ColorDefault, false, false},
		{"palette bold", Style{Color: palette.Color{Index: palette.Red, Bold: true}}, false, tcell.PaletteColor(palette.Red), true, false},
		{"blink", Style{Color: palette.Color{Index: 21}, Blink: true}, false, tcell.PaletteColor(21), false, true},
		{"cube as rgb", Style{Color: palette.Color{Index: 16 + 36*5 + 6*2 + 1}}, true, tcell.NewRGBColor(255, 102, 51), false, false},
		{"ansi stays indexed", Style{Color: palette.Color{Index: palette.Red}}, true, tcell.PaletteColor(palette.Red), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fg, _, attrs := toTcell(tt.style, tt.trueColor).Decompose()
			if fg != tt.fg {
				t.Errorf("fg = %v, want %v", fg, tt.fg)
			}
			if (attrs&tcell.AttrBold != 0) != tt.bold {
				t.Errorf("bold = %v, want %v", attrs&tcell.AttrBold != 0, tt.bold)
			}
			if (attrs&tcell.AttrBlink != 0) != tt.blink {
				t.Errorf("blink = %v, want %v", attrs&tcell.AttrBlink != 0, tt.blink)
			}
		})
	}
}
