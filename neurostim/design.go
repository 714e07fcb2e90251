// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emer/emergent/erand"
	"github.com/emer/emergent/params"
)

// Condition is one cell of an experimental design: a named set of
// parameter overrides, applied on top of the plugin defaults at the
// start of each trial that draws this condition.  The overrides use the
// params.Sheet selector machinery: each Sel targets plugins by name
// ("#gabor") or class (".stimulus"), and its Params map assigns
// parameter values by name.
type Condition struct {
	Nm    string
	Sheet params.Sheet
}

// Factor is one independently-varied dimension of a factorial design:
// a "selector/param" target and the list of level values it takes on.
type Factor struct {
	Param  string
	Levels []string
}

// Design enumerates the conditions of an experiment and hands them out
// trial by trial.  Each block presents every condition once, in
// randomized order if Randomize is set, reshuffled per block.
type Design struct {
	Nm        string
	Conds     []*Condition
	Randomize bool

	order []int
}

// NewDesign returns a named design with no conditions yet.
func NewDesign(name string) *Design {
	return &Design{Nm: name}
}

// AddCond appends a condition with the given override sheet.
func (dg *Design) AddCond(name string, sheet params.Sheet) *Condition {
	cd := &Condition{Nm: name, Sheet: sheet}
	dg.Conds = append(dg.Conds, cd)
	return cd
}

// Factorial populates the design with the full cross product of the
// given factors, one condition per combination.  Condition names are
// the concatenated level values, e.g. "ori=0:contrast=0.5".
func (dg *Design) Factorial(facs ...Factor) {
	n := 1
	for _, fc := range facs {
		n *= len(fc.Levels)
	}
	for i := 0; i < n; i++ {
		ix := i
		var nms []string
		sheet := params.Sheet{}
		for _, fc := range facs {
			lv := fc.Levels[ix%len(fc.Levels)]
			ix /= len(fc.Levels)
			sel, prm := splitTarget(fc.Param)
			sheet = append(sheet, &params.Sel{Sel: sel, Params: params.Params{prm: lv}})
			nms = append(nms, prm+"="+lv)
		}
		dg.AddCond(strings.Join(nms, ":"), sheet)
	}
}

// NTrials returns the number of trials per block: one per condition,
// minimum 1 so an empty design still runs baseline trials.
func (dg *Design) NTrials() int {
	if len(dg.Conds) == 0 {
		return 1
	}
	return len(dg.Conds)
}

// NewBlock resets the presentation order for a fresh block, shuffling
// if Randomize is set.
func (dg *Design) NewBlock() {
	dg.order = make([]int, len(dg.Conds))
	for i := range dg.order {
		dg.order[i] = i
	}
	if dg.Randomize {
		erand.PermuteInts(dg.order)
	}
}

// Cond returns the condition for the given trial index within the
// current block, nil if the design is empty.
func (dg *Design) Cond(trial int) *Condition {
	if len(dg.Conds) == 0 {
		return nil
	}
	if dg.order == nil {
		dg.NewBlock()
	}
	return dg.Conds[dg.order[trial%len(dg.order)]]
}

// Apply applies the condition's overrides to the matching plugins of
// the experiment.  A selector that matches no plugin, or a parameter
// unknown to a matched plugin, is a design configuration error.
func (cd *Condition) Apply(ex *Experiment) error {
	for _, sel := range cd.Sheet {
		matched := false
		for _, pl := range ex.Plugins {
			if !selMatch(sel.Sel, pl.AsPlugin()) {
				continue
			}
			matched = true
			for nm, vl := range sel.Params {
				if err := pl.AsPlugin().Prm.Set(nm, ParseVal(vl)); err != nil {
					return fmt.Errorf("condition %v: %v", cd.Nm, err)
				}
			}
		}
		if !matched {
			return fmt.Errorf("condition %v: selector %q matched no plugin", cd.Nm, sel.Sel)
		}
	}
	return nil
}

// selMatch reports whether a selector targets the plugin: "#name" by
// name, ".class" by class, anything else by name.
func selMatch(sel string, pl *Plugin) bool {
	switch {
	case strings.HasPrefix(sel, "#"):
		return pl.Nm == sel[1:]
	case strings.HasPrefix(sel, "."):
		return pl.Class == sel[1:]
	default:
		return pl.Nm == sel
	}
}

// splitTarget splits a "selector/param" factor target; a bare name
// selects by that plugin name with param after the slash.
func splitTarget(tg string) (sel, prm string) {
	if i := strings.LastIndex(tg, "/"); i >= 0 {
		return tg[:i], tg[i+1:]
	}
	return tg, tg
}

// ParseVal converts a condition level string to the natural typed value:
// number, bool, else string.
func ParseVal(s string) interface{} {
	if fv, err := strconv.ParseFloat(s, 64); err == nil {
		return fv
	}
	if bv, err := strconv.ParseBool(s); err == nil {
		return bv
	}
	return s
}
