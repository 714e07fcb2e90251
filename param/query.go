// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"fmt"
	"math"
	"sort"
)

// Trials is the trial-boundary map for one experiment run: the absolute
// start time and enclosing block of every trial, in order.  The run loop
// appends to it at each trial start; all stores of the experiment share
// one instance, and Query uses it to place absolute history times into
// (trial, trial-relative-time, block) coordinates.
type Trials struct {

	// absolute start time of each trial, ms, strictly increasing
	Starts []float64

	// block index of each trial
	Blocks []int

	// absolute end time of the final trial, 0 until the run is over
	Stop float64
}

// N returns the number of known trials.
func (tr *Trials) N() int { return len(tr.Starts) }

// Add records the start of the next trial.
func (tr *Trials) Add(start float64, block int) {
	tr.Starts = append(tr.Starts, start)
	tr.Blocks = append(tr.Blocks, block)
}

// At maps an absolute time to (trial index, trial-relative time).
// Times before the first trial map to (-1, -Inf); times at or after Stop
// (once known) map to (N(), +Inf).  These are in-band values, not errors.
func (tr *Trials) At(tm float64) (int, float64) {
	n := len(tr.Starts)
	if n == 0 || tm < tr.Starts[0] {
		return -1, math.Inf(-1)
	}
	if tr.Stop > 0 && tm >= tr.Stop {
		return n, math.Inf(1)
	}
	i := sort.SearchFloat64s(tr.Starts, tm)
	if i == n || tr.Starts[i] > tm {
		i--
	}
	return i, tm - tr.Starts[i]
}

// Start returns the absolute start time of the given trial.
func (tr *Trials) Start(trial int) float64 { return tr.Starts[trial] }

// End returns the absolute end time of the given trial: the next trial's
// start, or Stop for the final trial, or +Inf while still running.
func (tr *Trials) End(trial int) float64 {
	if trial+1 < len(tr.Starts) {
		return tr.Starts[trial+1]
	}
	if tr.Stop > 0 {
		return tr.Stop
	}
	return math.Inf(1)
}

// Block returns the block index of the given trial, -1 if out of range.
func (tr *Trials) Block(trial int) int {
	if trial < 0 || trial >= len(tr.Blocks) {
		return -1
	}
	return tr.Blocks[trial]
}

// QueryOpts selects and shapes parameter history in Store.Query.  The
// zero value selects every logged row.
type QueryOpts struct {

	// restrict to these trial indexes; nil = all trials
	Trials []int

	// trial-relative time selector, active when UseAtTime is set: for
	// each trial, return the value in effect at this time.  +Inf means
	// the last value of the trial.
	AtTime float64

	// enables the AtTime selector; 0 is a valid trial time, so the
	// selector has its own switch rather than a magic zero
	UseAtTime bool

	// after-event selector: for each trial, return the first value
	// recorded strictly after the last in-trial occurrence of this
	// other parameter; trials where it never occurred yield no row
	After string

	// drop trials whose row was carried over from an earlier trial
	// rather than recorded within the trial itself
	DataOnly bool
}

// SetAtTime enables the at-trial-time selector at the given
// trial-relative time.
func (qo *QueryOpts) SetAtTime(t float64) {
	qo.AtTime = t
	qo.UseAtTime = true
}

// QueryResult holds parallel arrays, one entry per selected history row.
type QueryResult struct {
	Values    []interface{}
	Trial     []int
	TrialTime []float64
	Time      []float64
	Block     []int
}

// Len returns the number of result rows.
func (qr *QueryResult) Len() int { return len(qr.Values) }

func (qr *QueryResult) add(v interface{}, trial int, rel, abs float64, block int) {
	qr.Values = append(qr.Values, v)
	qr.Trial = append(qr.Trial, trial)
	qr.TrialTime = append(qr.TrialTime, rel)
	qr.Time = append(qr.Time, abs)
	qr.Block = append(qr.Block, block)
}

// Query returns the selected history of the named parameter, per opts
// (nil = every logged row).  The store must have its Trials map wired.
func (st *Store) Query(name string, opts *QueryOpts) (*QueryResult, error) {
	pr := st.params[name]
	if pr == nil {
		return nil, fmt.Errorf("param: %v has no parameter %q", st.Nm, name)
	}
	if st.Trials == nil {
		return nil, fmt.Errorf("param: %v store has no trial map -- not registered with an experiment", st.Nm)
	}
	if opts == nil {
		opts = &QueryOpts{}
	}
	tr := st.Trials
	res := &QueryResult{}

	if opts.After == "" && !opts.UseAtTime {
		var sel map[int]bool
		if opts.Trials != nil {
			sel = make(map[int]bool, len(opts.Trials))
			for _, ti := range opts.Trials {
				sel[ti] = true
			}
		}
		for i := 0; i < pr.Rows(); i++ {
			v, tm := pr.Row(i)
			ti, rel := tr.At(tm)
			if sel != nil && !sel[ti] {
				continue
			}
			res.add(v, ti, rel, tm, tr.Block(ti))
		}
		return res, nil
	}

	trials := opts.Trials
	if trials == nil {
		trials = make([]int, tr.N())
		for i := range trials {
			trials[i] = i
		}
	}
	for _, ti := range trials {
		if ti < 0 || ti >= tr.N() {
			continue
		}
		start := tr.Start(ti)
		end := tr.End(ti)
		if opts.After != "" {
			ev := st.params[opts.After]
			if ev == nil {
				return nil, fmt.Errorf("param: %v has no parameter %q for After selector", st.Nm, opts.After)
			}
			evt := math.NaN()
			for i := 0; i < ev.Rows(); i++ {
				_, tm := ev.Row(i)
				if tm >= start && tm < end {
					evt = tm
				}
			}
			if math.IsNaN(evt) { // event never fired this trial
				continue
			}
			for i := 0; i < pr.Rows(); i++ {
				v, tm := pr.Row(i)
				if tm > evt && tm < end {
					res.add(v, ti, tm-start, tm, tr.Block(ti))
					break
				}
			}
			continue
		}
		// AtTime selector: last row at or before the cut is the value
		// in effect; rows from earlier trials carry forward.
		cut := start + opts.AtTime
		last := -1
		for i := 0; i < pr.Rows(); i++ {
			_, tm := pr.Row(i)
			if math.IsInf(opts.AtTime, 1) {
				if tm < end {
					last = i
				}
			} else if tm <= cut {
				last = i
			}
		}
		if last < 0 {
			continue
		}
		v, tm := pr.Row(last)
		if opts.DataOnly && (tm < start || tm >= end) {
			continue
		}
		res.add(v, ti, tm-start, tm, tr.Block(ti))
	}
	return res, nil
}
