// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

import "github.com/goki/ki/kit"

// Stages are the lifecycle stages of an Experiment.  Parameters set in
// Setup are provisional (function parameters do not evaluate); once the
// experiment is Running, function parameters evaluate and log per access.
type Stages int

//go:generate stringer -type=Stages

var KiT_Stages = kit.Enums.AddEnum(StagesN, false, nil)

func (ev Stages) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Stages) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Setup is the configuration stage, before the run loop starts
	Setup Stages = iota

	// Running is the trial / frame loop stage
	Running

	// Post is after the run loop has finished: logs are complete and
	// available for export
	Post

	StagesN
)
