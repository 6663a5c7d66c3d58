// Package input is the device-independent input state the kernel reads.
// The host maps its devices onto it before each tick.
package input

import "sort"

// Button names an abstract button or key.
type Button string

const (
	Primary   Button = "primary"
	Secondary Button = "secondary"
	Up        Button = "up"
	Down      Button = "down"
	Left      Button = "left"
	Right     Button = "right"
)

// Mine is held to run the mining laser; it doubles as the remove button.
const Mine = Secondary

// Slot returns the button for toolbar slot n, counted from 1.
func Slot(n int) Button {
	return Button("slot" + string(rune('0'+n)))
}

// State is installed as an ECS singleton.
type State struct {
	CursorX, CursorY float64
	Held             map[Button]bool
	Scroll           float64
	// Consumed is set by a higher-priority handler to suppress lower ones
	// for the rest of the tick.
	Consumed bool
}

func (s *State) SetCursor(x, y float64) {
	s.CursorX, s.CursorY = x, y
}

func (s *State) Press(b Button) {
	if s.Held == nil {
		s.Held = make(map[Button]bool)
	}
	s.Held[b] = true
}

func (s *State) Release(b Button) {
	delete(s.Held, b)
}

// ReleaseAll clears every held button.
func (s *State) ReleaseAll() {
	clear(s.Held)
}

func (s *State) IsHeld(b Button) bool {
	return s.Held[b]
}

// Consume marks this tick's click as handled.
func (s *State) Consume() {
	s.Consumed = true
}

// BeginTick clears the per-tick flag.
func (s *State) BeginTick() {
	s.Consumed = false
}

// EndTick clears the per-tick scroll delta.
func (s *State) EndTick() {
	s.Scroll = 0
}

// HeldButtons returns the held buttons in sorted order.
func (s *State) HeldButtons() []Button {
	out := make([]Button, 0, len(s.Held))
	for b, down := range s.Held {
		if down {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Axis returns the movement direction from the held direction buttons.
// Up wins over Down and Left over Right when both are held.
func (s *State) Axis() (x, y float64) {
	switch {
	case s.IsHeld(Up):
		y = 1
	case s.IsHeld(Down):
		y = -1
	}
	switch {
	case s.IsHeld(Left):
		x = -1
	case s.IsHeld(Right):
		x = 1
	}
	return x, y
}
