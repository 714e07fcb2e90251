// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

import (
	"fmt"
	"log"
	"math"
)

// StateFn is one named state's handler.  Handlers receive the
// trial-relative time in ms and the event being dispatched, and may call
// Transition.  They must treat Entry / Exit as setup / teardown and never
// feed them back into the transition-triggering logic.
type StateFn func(t float64, e Event)

// Universal terminal state names provided by the engine.  Every machine
// must eventually reach one of these per trial, or remain active until
// its window expires.
const (
	Fail    = "FAIL"
	Success = "SUCCESS"
)

// Machine is the generic behavior finite-state-machine engine, tracking
// one behavioral requirement (fixation, key response, ...) across a
// trial.  Concrete machines are built by registering named state handlers
// (AddState), not by subclassing the engine.
//
// Configuration lives in the parameter store so that conditions can
// override it per trial: on, off (activation window, trial-relative ms),
// required, failEndsTrial, successEndsTrial.  The current state name and
// the triggering events are logged as the "state" and "event" parameters.
type Machine struct {
	Plugin

	// name of the state entered at each trial start
	Start string

	// samples one event per active frame from the external collaborator
	// (eye tracker, keyboard, ...); must return a NoEvent quickly when
	// nothing relevant occurred, so the frame loop is never stalled
	Source func() Event

	// optional side-effect hook invoked on every committed transition
	// with (experiment, fromState, toState); it must not itself mutate
	// machine state
	TransitionHook func(ex *Experiment, from, to string)

	// print a notice for every transition
	Verbose bool

	// current state name; reset to Start at each trial start
	Cur string

	// latched fatal configuration error (illegal self-transition,
	// unknown state); the machine goes inert once set
	Err error

	// name of the state most recently left: the recursion guard record
	prvLeft string
	hasLeft bool

	lastEvent Event
	entered   map[string]float64
	states    map[string]StateFn
}

// InitMachine initializes the embedded plugin, registers the universal
// Fail / Success terminal states, declares the standard parameters and
// sets defaults.  Concrete machines call this first, then AddState their
// own states and set Start.
func (bm *Machine) InitMachine(name string) {
	bm.InitName(name, "behavior")
	bm.states = make(map[string]StateFn)
	bm.entered = make(map[string]float64)
	bm.AddState(Fail, bm.failState)
	bm.AddState(Success, bm.successState)
	bm.Prm.Add("state", "")
	bm.Prm.Add("event", "")
	bm.Defaults()
}

// Defaults sets the standard machine parameters: always-active window,
// required, fail ends the trial, success does not.
func (bm *Machine) Defaults() {
	bm.Prm.Add("on", 0.0)
	bm.Prm.Add("off", math.Inf(1))
	bm.Prm.Add("required", true)
	bm.Prm.Add("failEndsTrial", true)
	bm.Prm.Add("successEndsTrial", false)
}

// AddState registers a named state handler, replacing any previous
// handler of that name.
func (bm *Machine) AddState(name string, fn StateFn) {
	bm.states[name] = fn
}

// AsMachine returns the machine; the experiment uses this to find the
// behavior machines among its plugins.
func (bm *Machine) AsMachine() *Machine { return bm }

// On returns the activation window start, trial-relative ms.
func (bm *Machine) On() float64 { return bm.Prm.Float("on") }

// Off returns the activation window end, trial-relative ms.
func (bm *Machine) Off() float64 { return bm.Prm.Float("off") }

// Required returns whether this machine's outcome gates trial success.
func (bm *Machine) Required() bool { return bm.Prm.Bool("required") }

// FailEndsTrial returns whether entering Fail requests trial end.
func (bm *Machine) FailEndsTrial() bool { return bm.Prm.Bool("failEndsTrial") }

// SuccessEndsTrial returns whether entering Success requests trial end.
func (bm *Machine) SuccessEndsTrial() bool { return bm.Prm.Bool("successEndsTrial") }

// Transition is the only sanctioned way to change state.  It records the
// triggering event, guards against illegal self-transitions (fatal: a
// configuration error in the machine, not a runtime condition), sends
// Exit to the state being left and Entry to the future state -- the
// latter before the current-state pointer is updated, so the new state's
// Entry handler still observes the machine as being in the old state --
// invokes the user hook, then commits: pointer, logged state name, and
// the state's first-entry timestamp for this trial.
func (bm *Machine) Transition(future string, e Event) {
	if bm.Err != nil {
		return
	}
	fn := bm.states[future]
	if fn == nil {
		bm.fatal(fmt.Errorf("neurostim.Machine %v: transition to unknown state %q", bm.Nm, future))
		return
	}
	bm.lastEvent = e
	bm.Prm.SetString("event", e.String())

	// Leaving the same state twice without a commit in between means a
	// handler fed Entry / Exit back into the transition logic; a direct
	// self-transition request is the same error caught up front.
	if bm.Cur != "" {
		if future == bm.Cur || (bm.hasLeft && bm.prvLeft == bm.Cur) {
			bm.fatal(fmt.Errorf("neurostim.Machine %v: illegal self-transition on state %q (event %v)", bm.Nm, bm.Cur, e))
			return
		}
	}
	bm.prvLeft = bm.Cur
	bm.hasLeft = true

	if cur := bm.states[bm.Cur]; cur != nil {
		cur(bm.TrialTime(), Event{Kind: Exit})
	}
	fn(bm.TrialTime(), Event{Kind: Entry})
	if bm.Err != nil { // the Entry handler transitioned illegally
		return
	}
	if bm.TransitionHook != nil {
		bm.TransitionHook(bm.Exp, bm.Cur, future)
	}

	from := bm.Cur
	bm.Cur = future
	bm.Prm.SetString("state", future)
	t := bm.TrialTime()
	if _, been := bm.entered[future]; !been {
		bm.entered[future] = t
	}
	if bm.Verbose {
		fmt.Printf("%v: %v -> %v @ %.1f ms\n", bm.Nm, from, future, t)
	}
}

// BeforeFrame samples one event from the Source if the machine is within
// its [on, off) activation window, and dispatches it to the current
// state.  NoEvent samples are ignored.  This is the only path by which a
// state handler runs during normal operation; Entry / Exit happen only
// inside Transition.
func (bm *Machine) BeforeFrame(t float64) {
	if bm.Err != nil || bm.Source == nil {
		return
	}
	if t < bm.On() || t >= bm.Off() {
		return
	}
	e := bm.Source()
	switch e.Kind {
	case NoEvent:
		return
	case Entry, Exit, AfterTrial:
		bm.fatal(fmt.Errorf("neurostim.Machine %v: event source produced %v -- Entry/Exit/AfterTrial are synthesized only by the engine", bm.Nm, e.Kind))
		return
	}
	bm.dispatch(t, e)
}

// BeforeTrial resets the machine for a clean trial: current state back to
// Start (logged), recursion-guard record and first-entry table cleared.
func (bm *Machine) BeforeTrial() {
	bm.entered = make(map[string]float64)
	bm.Cur = bm.Start
	bm.prvLeft = ""
	bm.hasLeft = false
	bm.lastEvent = Event{}
	bm.entered[bm.Start] = 0
	bm.Prm.SetString("state", bm.Start)
}

// AfterTrial lets the current state see the trial end (so a machine can
// resolve, e.g. a held fixation becomes Success).  The first-entry
// timestamps survive until BeforeTrial rebuilds them, so the trial's
// outcome is still readable after this notification.
func (bm *Machine) AfterTrial() {
	bm.dispatch(bm.TrialTime(), Event{Kind: AfterTrial})
}

// TimeStateEntered returns the trial-relative time the machine first
// entered the named state this trial, +Inf if never entered.
func (bm *Machine) TimeStateEntered(state string) float64 {
	if t, ok := bm.entered[state]; ok {
		return t
	}
	return math.Inf(1)
}

// CurrentStateDuration returns how long the machine has been in its
// current state, trial-relative ms.
func (bm *Machine) CurrentStateDuration() float64 {
	return bm.TrialTime() - bm.TimeStateEntered(bm.Cur)
}

// IsSuccessful returns whether the machine is in the Success state.
func (bm *Machine) IsSuccessful() bool { return bm.Cur == Success }

// TrialStopTime returns the earlier of the Fail / Success first-entry
// times this trial; +Inf if neither terminal state was reached.
func (bm *Machine) TrialStopTime() float64 {
	return math.Min(bm.TimeStateEntered(Fail), bm.TimeStateEntered(Success))
}

// LastEvent returns the event that triggered the most recent transition.
func (bm *Machine) LastEvent() Event { return bm.lastEvent }

func (bm *Machine) dispatch(t float64, e Event) {
	if fn := bm.states[bm.Cur]; fn != nil {
		fn(t, e)
	}
}

func (bm *Machine) failState(t float64, e Event) {
	if e.Kind == Entry && bm.FailEndsTrial() && bm.Exp != nil {
		bm.Exp.EndTrial()
	}
}

func (bm *Machine) successState(t float64, e Event) {
	if e.Kind == Entry && bm.SuccessEndsTrial() && bm.Exp != nil {
		bm.Exp.EndTrial()
	}
}

func (bm *Machine) fatal(err error) {
	bm.Err = err
	if bm.Exp == nil {
		log.Println(err)
		return
	}
	bm.Exp.Fatal(err)
}
