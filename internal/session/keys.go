// SPDX-License-Identifier: MIT
package session

import (
	"termvis/internal/display"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the global bindings. Anything that matches none of them is
// offered to the active visualizer.
type keyMap struct {
	Quit  key.Binding
	Mode  key.Binding
	Pause key.Binding
	Up    key.Binding
	Down  key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Mode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "mode"),
	),
	Pause: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "pause"),
	),
	Up: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "sensitivity up"),
	),
	Down: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "sensitivity down"),
	),
}

// Bindings lists the global bindings in legend order.
func Bindings() []key.Binding {
	return []key.Binding{keys.Quit, keys.Mode, keys.Up, keys.Down, keys.Pause}
}

// handleKey applies a global binding and reports whether k was one.
func (s *Session) handleKey(k display.Key) bool {
	switch {
	case key.Matches(k, keys.Quit):
		s.state = Terminated
	case key.Matches(k, keys.Mode):
		s.index = s.registry.Cycle(s.index)
	case key.Matches(k, keys.Pause):
		if s.state == Paused {
			s.state = Running
		} else {
			s.state = Paused
		}
	case key.Matches(k, keys.Up):
		s.setSensitivity(s.sensitivity + s.step)
	case key.Matches(k, keys.Down):
		s.setSensitivity(s.sensitivity - s.step)
	default:
		return false
	}
	return true
}
