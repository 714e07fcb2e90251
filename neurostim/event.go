// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

import (
	"fmt"

	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// EventKinds are the kinds of events dispatched into behavior state
// handlers.  Entry and Exit are synthesized exclusively by the machine's
// Transition protocol -- an event source must never produce them.
// Everything else originates from the per-frame sampling collaborator.
type EventKinds int

//go:generate stringer -type=EventKinds

var KiT_EventKinds = kit.Enums.AddEnum(EventKindsN, false, nil)

func (ev EventKinds) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *EventKinds) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// NoEvent is the noop: nothing relevant happened this frame, and
	// nothing is dispatched
	NoEvent EventKinds = iota

	// Entry marks a state's setup, synthesized when transitioning in
	Entry

	// Exit marks a state's teardown, synthesized when transitioning out
	Exit

	// Regular is an externally sampled event carrying a payload
	// (gaze position, key)
	Regular

	// AfterTrial is dispatched to the current state when the trial
	// ends, so machines can resolve (e.g. a held fixation succeeds)
	AfterTrial

	EventKindsN
)

// Event is one dispatched event: a kind plus, for Regular events, the
// sample payload from the collaborator that produced it.
type Event struct {

	// kind of event
	Kind EventKinds

	// sample position (gaze, touch) in the experimenter's coordinates
	Pos mat32.Vec2

	// key name for key / button events, empty if none
	Key string

	// whether the sample payload is usable (false e.g. during blinks)
	Valid bool
}

// NoopEvent returns the noop event.
func NoopEvent() Event { return Event{Kind: NoEvent} }

// PosEvent returns a Regular event carrying a sample position.
func PosEvent(pos mat32.Vec2) Event { return Event{Kind: Regular, Pos: pos, Valid: true} }

// KeyEvent returns a Regular event carrying a key name.
func KeyEvent(key string) Event { return Event{Kind: Regular, Key: key, Valid: true} }

func (e Event) String() string {
	switch e.Kind {
	case Regular:
		if e.Key != "" {
			return fmt.Sprintf("Regular(key=%v)", e.Key)
		}
		return fmt.Sprintf("Regular(%.3g,%.3g)", e.Pos.X, e.Pos.Y)
	default:
		return e.Kind.String()
	}
}
