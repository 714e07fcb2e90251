// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"fmt"
)

// BlockRows is the allocation increment for parameter history storage.
// History grows in blocks of this many rows, with a live-count cursor,
// so that logging a value is an O(1) slice write in the common case.
const BlockRows = 500

// Lookup resolves references to other parameters when a function-valued
// parameter is evaluated.  The experiment implements this over all of its
// plugins; a bare Store can use itself for single-store setups.
type Lookup interface {
	// PluginValue returns the current value of the named parameter on the
	// named plugin, or nil if no such parameter exists.  Reading a
	// function-valued parameter through here evaluates (and logs) it.
	PluginValue(plugin, name string) interface{}
}

// Fn is a function-valued (dynamic) parameter binding: a pure function of
// other parameter values, resolved through the Lookup at each access.
// Assigning an Fn to a parameter marks it dynamic; each subsequent read
// re-evaluates it and logs the computed value.
type Fn func(lk Lookup) interface{}

// NotYet is the sentinel value a function parameter yields before the
// experiment enters the running stage, when the dependency graph may not
// be fully wired yet.  It is a value, not an error.
type NotYet struct{}

func (NotYet) String() string { return "<not yet available>" }

// Param is one named, logged value owned by a plugin (or the experiment
// itself).  All state changes go through SetVal so that every mutation
// appends exactly one history row, unless NoLog is set.
type Param struct {

	// name of this parameter, unique within its owning store
	Nm string

	// name of the owning plugin / entity (for diagnostics and exports)
	Owner string

	// current value for literal parameters, or the most recently
	// computed value for function parameters
	Val interface{}

	// non-nil for dynamic parameters: the bound function, re-evaluated
	// on every read once the experiment is running
	Fn Fn

	// default value snapshot, restored at every trial start
	Def interface{}

	// default function snapshot, for parameters that default to dynamic
	DefFn Fn

	// optional validation predicate -- a failing Validate rejects the
	// set without touching the log
	Validate func(v interface{}) error

	// suspends history logging when set (mutations still apply)
	NoLog bool

	vals  []interface{}
	times []float64
	cnt   int
}

// NewParam returns a new parameter with the given name and owner.
func NewParam(name, owner string) *Param {
	return &Param{Nm: name, Owner: owner}
}

// SetVal sets the parameter from a literal value or an Fn binding, at the
// given wall-clock time.  live indicates whether the owning experiment is
// in the running stage; lk resolves cross-parameter references.
// Exactly one history row is appended per successful call: the resolved
// value for literals and live function assignments, the NotYet sentinel
// for function assignments during setup.
func (pr *Param) SetVal(v interface{}, tm float64, live bool, lk Lookup) error {
	if f, ok := v.(Fn); ok {
		pr.Fn = f
		if !live {
			pr.Val = NotYet{}
			pr.logAppend(NotYet{}, tm)
			return nil
		}
		cv := f(lk)
		if pr.Validate != nil {
			if err := pr.Validate(cv); err != nil {
				return fmt.Errorf("param: %v.%v function value rejected: %v", pr.Owner, pr.Nm, err)
			}
		}
		pr.Val = cv
		pr.logAppend(cv, tm)
		return nil
	}
	if pr.Validate != nil {
		if err := pr.Validate(v); err != nil {
			return fmt.Errorf("param: %v.%v value rejected: %v", pr.Owner, pr.Nm, err)
		}
	}
	pr.Fn = nil
	pr.Val = v
	pr.logAppend(v, tm)
	return nil
}

// GetVal returns the current value.  Literal parameters return the stored
// value without logging.  Function parameters evaluate the bound function
// and log the result -- note that this means high-frequency reads of a
// dynamic parameter grow the log proportionally (the complete audit trail
// is intentional; see Store.MemSize for the cost).
// Before the running stage, function parameters yield NotYet, unlogged.
func (pr *Param) GetVal(tm float64, live bool, lk Lookup) interface{} {
	if pr.Fn == nil {
		return pr.Val
	}
	if !live {
		return NotYet{}
	}
	v := pr.Fn(lk)
	pr.Val = v
	pr.logAppend(v, tm)
	return v
}

// SnapDefault captures the current value (or function binding) as the
// default restored at each trial start.
func (pr *Param) SnapDefault() {
	pr.Def = pr.Val
	pr.DefFn = pr.Fn
}

// RestoreDefault re-applies the default snapshot, logging the restoration
// like any other mutation.
func (pr *Param) RestoreDefault(tm float64, live bool, lk Lookup) error {
	if pr.DefFn != nil {
		return pr.SetVal(pr.DefFn, tm, live, lk)
	}
	return pr.SetVal(pr.Def, tm, live, lk)
}

// Rows returns the number of live history rows.
func (pr *Param) Rows() int { return pr.cnt }

// Cap returns the allocated history capacity, in rows.
func (pr *Param) Cap() int { return len(pr.vals) }

// Row returns the i'th history row as (value, wall-clock ms).
func (pr *Param) Row(i int) (interface{}, float64) {
	return pr.vals[i], pr.times[i]
}

// LastTime returns the wall-clock time of the most recent row, or 0 if
// the log is empty.
func (pr *Param) LastTime() float64 {
	if pr.cnt == 0 {
		return 0
	}
	return pr.times[pr.cnt-1]
}

func (pr *Param) logAppend(v interface{}, tm float64) {
	if pr.NoLog {
		return
	}
	if pr.cnt >= len(pr.vals) {
		pr.vals = append(pr.vals, make([]interface{}, BlockRows)...)
		pr.times = append(pr.times, make([]float64, BlockRows)...)
	}
	pr.vals[pr.cnt] = v
	pr.times[pr.cnt] = tm
	pr.cnt++
}
