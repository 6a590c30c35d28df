// Package selector lets the user pick the trim window and crop rectangle
// in mpv. An embedded Lua extension sends the picks over mpv's JSON IPC
// socket and a small state machine collects them.
package selector

import (
	"fmt"

	"webmfit/internal/model"
)

// State is the phase of one selection session.
type State int

const (
	Launching State = iota
	AwaitingSelection
	Captured
	Aborted
)

func (s State) String() string {
	switch s {
	case Launching:
		return "launching"
	case AwaitingSelection:
		return "awaiting selection"
	case Captured:
		return "captured"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Message is one action the user performed in the player.
type Message interface{ isMessage() }

// MarkStart sets the trim start. A negative T means the start of the input.
type MarkStart struct{ T float64 }

// MarkEnd sets the trim end. A negative T means the end of the input.
type MarkEnd struct{ T float64 }

// Crop is a rectangle in source pixels.
type Crop struct{ X, Y, W, H int }

// Info is the stream selection dumped from the player. Negative indexes
// and empty files mean "not selected".
type Info struct {
	VideoStream int
	AudioStream int
	AudioFile   string
	SubIndex    int
	SubFile     string
	SubDelay    float64
}

// Confirm ends the session and accepts what was picked.
type Confirm struct{}

func (MarkStart) isMessage() {}
func (MarkEnd) isMessage()   {}
func (Crop) isMessage()      {}
func (Info) isMessage()      {}
func (Confirm) isMessage()   {}

// Selection is what the user picked. Nil fields were not picked.
type Selection struct {
	Start *float64
	End   *float64
	Crop  *model.CropRect
	Info  *Info
}

// Empty reports whether nothing was picked.
func (s Selection) Empty() bool {
	return s.Start == nil && s.End == nil && s.Crop == nil && s.Info == nil
}

// Machine tracks a selection session. Later messages of the same kind
// replace earlier ones.
type Machine struct {
	state State
	sel   Selection
}

// NewMachine returns a machine in the Launching state.
func NewMachine() *Machine {
	return &Machine{state: Launching}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Selection returns what has been collected so far.
func (m *Machine) Selection() Selection { return m.sel }

// Ready moves from Launching to AwaitingSelection once the channel is open.
func (m *Machine) Ready() error {
	if m.state != Launching {
		return fmt.Errorf("selector: ready in state %s", m.state)
	}
	m.state = AwaitingSelection
	return nil
}

// Feed applies one message. It reports true once the session is captured.
func (m *Machine) Feed(msg Message) (bool, error) {
	if m.state != AwaitingSelection {
		return false, fmt.Errorf("selector: message %T in state %s", msg, m.state)
	}
	switch v := msg.(type) {
	case MarkStart:
		m.sel.Start = mark(v.T)
	case MarkEnd:
		m.sel.End = mark(v.T)
	case Crop:
		m.sel.Crop = &model.CropRect{X: v.X, Y: v.Y, W: v.W, H: v.H}
	case Info:
		info := v
		m.sel.Info = &info
	case Confirm:
		m.state = Captured
		return true, nil
	default:
		return false, fmt.Errorf("selector: unknown message %T", msg)
	}
	return false, nil
}

// Abort ends the session without a selection. It is a no-op once
// captured.
func (m *Machine) Abort() {
	if m.state != Captured {
		m.state = Aborted
		m.sel = Selection{}
	}
}

func mark(t float64) *float64 {
	if t < 0 {
		return nil
	}
	return &t
}
