// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

import "github.com/dshimaoka/neurostim/param"

// Pluginer is the interface every registered entity presents to the
// Experiment.  Notifications are delivered synchronously, in plugin
// registration order, from the single control thread -- there is no
// implicit discovery and no reentrancy.
type Pluginer interface {

	// Name returns the plugin name, unique within the experiment
	Name() string

	// AsPlugin returns the embedded base Plugin
	AsPlugin() *Plugin

	// BeforeExperiment is called once, during setup
	BeforeExperiment()

	// BeforeTrial is called at each trial start, after defaults have
	// been restored and condition overrides applied
	BeforeTrial()

	// BeforeFrame is called every frame before the swap, with the
	// trial-relative time in ms
	BeforeFrame(t float64)

	// AfterFrame is called every frame after the swap
	AfterFrame(t float64)

	// AfterTrial is called when the trial's frame loop has finished
	AfterTrial()

	// AfterExperiment is called once, before the run halts
	AfterExperiment()
}

// Plugin is the base for everything that owns logged parameters: concrete
// plugins embed it and override the lifecycle methods they care about.
type Plugin struct {

	// name of this plugin
	Nm string

	// selector class for condition specs (e.g. "behavior"), matched by
	// ".class" selectors
	Class string

	// the parameter store: the system of record for this plugin
	Prm *param.Store

	// non-owning back-reference to the experiment, set when the plugin
	// is added; used for read-only context access (clock, stage) and
	// for requesting trial / experiment stops
	Exp *Experiment
}

// InitName initializes the plugin's name, selector class and store.
func (pl *Plugin) InitName(name, class string) {
	pl.Nm = name
	pl.Class = class
	pl.Prm = param.NewStore(name)
}

func (pl *Plugin) Name() string { return pl.Nm }

func (pl *Plugin) AsPlugin() *Plugin { return pl }

// TrialTime returns the current trial-relative time in ms (0 when not
// registered with an experiment).
func (pl *Plugin) TrialTime() float64 {
	if pl.Exp != nil {
		return pl.Exp.TrialTime()
	}
	return 0
}

func (pl *Plugin) BeforeExperiment()     {}
func (pl *Plugin) BeforeTrial()          {}
func (pl *Plugin) BeforeFrame(t float64) {}
func (pl *Plugin) AfterFrame(t float64)  {}
func (pl *Plugin) AfterTrial()           {}
func (pl *Plugin) AfterExperiment()      {}
