// SPDX-License-Identifier: MIT
/*
Package display is the character-cell surface the render loop draws on.

Display is implemented by Terminal (a tcell screen) and by Memory, an
in-process grid used for headless runs and tests. Writes outside the current
geometry are reported with ErrOutOfBounds and otherwise ignored; callers are
free to discard that error.
*/
package display

import (
	"errors"

	"termvis/internal/palette"

	"github.com/mattn/go-runewidth"
)

var ErrOutOfBounds = errors.New("cell outside display bounds")

// Style is the per-cell rendering attribute set.
type Style struct {
	Color palette.Color
	Bold  bool
	Blink bool
}

// Display is the surface contract used by the session.
type Display interface {
	// Size returns the current geometry. It may change between frames.
	Size() (width, height int)
	Clear()
	SetCell(x, y int, r rune, style Style) error
	// Show flushes pending writes to the device.
	Show()
	// PollKey returns the next pending key without blocking.
	PollKey() (Key, bool)
	// Colors is the number of colors the device can render.
	Colors() int
	Close() error
}

// DrawText writes s starting at (x, y), clipped to the display width, and
// returns the column after the last cell written.
func DrawText(d Display, x, y int, s string, style Style) int {
	width, height := d.Size()
	if y < 0 || y >= height {
		return x
	}
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > width {
			break
		}
		if x >= 0 {
			d.SetCell(x, y, r, style)
		}
		x += w
	}
	return x
}

// Truncate shortens s to at most width terminal columns.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "")
}

func inBounds(x, y, width, height int) bool {
	return x >= 0 && y >= 0 && x < width && y < height
}
