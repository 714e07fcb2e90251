// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

import (
	"github.com/goki/mat32"
)

// Fixate state names, in addition to the universal Fail / Success.
const (
	FreeViewing = "FREEVIEWING"
	Fixating    = "FIXATING"
)

// Fixate is a behavior machine requiring the subject to acquire and hold
// gaze fixation on a target point.  The subject free-views until gaze
// lands within tolerance of the target (within the acquire deadline),
// then must hold it for the requested duration.  Breaking fixation
// before the hold completes fails the trial; holding through either the
// duration or the end of the trial succeeds.
//
// Parameters (condition-overridable): x, y (target, deg), tolerance
// (radius, deg), acquire (deadline to first land on target, ms after
// window start), duration (required hold, ms; +Inf = hold until trial
// end).
type Fixate struct {
	Machine
}

func (fx *Fixate) Init(name string) {
	fx.InitMachine(name)
	fx.Prm.Add("x", 0.0)
	fx.Prm.Add("y", 0.0)
	fx.Prm.Add("tolerance", 2.0)
	fx.Prm.Add("acquire", 500.0)
	fx.Prm.Add("duration", 1000.0)
	fx.AddState(FreeViewing, fx.freeViewing)
	fx.AddState(Fixating, fx.fixating)
	fx.Start = FreeViewing
}

// Target returns the fixation point.
func (fx *Fixate) Target() mat32.Vec2 {
	return mat32.Vec2{X: float32(fx.Prm.Float("x")), Y: float32(fx.Prm.Float("y"))}
}

// OnTarget reports whether the event carries a valid gaze position
// within tolerance of the target.
func (fx *Fixate) OnTarget(e Event) bool {
	if !e.Valid {
		return false
	}
	return e.Pos.Sub(fx.Target()).Length() <= float32(fx.Prm.Float("tolerance"))
}

func (fx *Fixate) freeViewing(t float64, e Event) {
	switch e.Kind {
	case Regular:
		if fx.OnTarget(e) {
			fx.Transition(Fixating, e)
		} else if t >= fx.On()+fx.Prm.Float("acquire") {
			fx.Transition(Fail, e)
		}
	case AfterTrial:
		fx.Transition(Fail, e)
	}
}

func (fx *Fixate) fixating(t float64, e Event) {
	switch e.Kind {
	case Regular:
		if !e.Valid { // blink: keep the fixation
			return
		}
		if !fx.OnTarget(e) {
			fx.Transition(Fail, e)
		} else if fx.CurrentStateDuration() >= fx.Prm.Float("duration") {
			fx.Transition(Success, e)
		}
	case AfterTrial:
		fx.Transition(Success, e) // held through end of trial
	}
}
