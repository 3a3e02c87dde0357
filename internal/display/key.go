// SPDX-License-Identifier: MIT
package display

// KeyCode identifies a key press. Printable characters use KeyRune.
type KeyCode int

const (
	KeyNone KeyCode = iota
	KeyRune
	KeyCtrlC
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

var keyNames = map[KeyCode]string{
	KeyCtrlC:     "ctrl+c",
	KeyEscape:    "esc",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
}

// Key is a single key press.
type Key struct {
	Code KeyCode
	Rune rune
}

// RuneKey is shorthand for a printable key.
func RuneKey(r rune) Key {
	return Key{Code: KeyRune, Rune: r}
}

// String uses the same names as bubbletea key messages ("q", " ",
// "ctrl+c", "up"), so keys can be matched against key.Binding definitions.
func (k Key) String() string {
	if k.Code == KeyRune {
		return string(k.Rune)
	}
	if name, ok := keyNames[k.Code]; ok {
		return name
	}
	return ""
}
