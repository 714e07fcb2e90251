// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

// Display is the frame-swap collaborator.  Swap blocks until the display
// subsystem's vertical-sync swap completes -- the sole blocking operation
// in the per-frame loop -- and reports the scheduled and actual swap
// times so the run loop can detect dropped frames.  Pixel drawing is the
// collaborator's business, not the engine's.
type Display interface {

	// Swap performs the display swap, returning scheduled and actual
	// swap times in clock ms
	Swap() (sched, actual float64)

	// FrameDurMS returns the nominal frame duration in ms
	FrameDurMS() float64
}

// SimDisplay is a Display over a SimClock: each Swap advances the clock
// by one nominal frame plus any jitter programmed for that frame, which
// is how tests and headless runs produce (and drop) frames.
type SimDisplay struct {

	// the clock this display advances
	Clock *SimClock

	// nominal frame duration, ms
	FrameDur float64

	// number of frames swapped so far
	Frame int

	// extra ms added to the given frame's swap (to simulate drops)
	Jitter map[int]float64
}

// NewSimDisplay returns a simulated display at the given refresh rate
// (Hz), driving the given clock.
func NewSimDisplay(ck *SimClock, hz float64) *SimDisplay {
	dp := &SimDisplay{Clock: ck}
	dp.FrameDur = 1000.0 / hz
	return dp
}

func (dp *SimDisplay) FrameDurMS() float64 { return dp.FrameDur }

func (dp *SimDisplay) Swap() (float64, float64) {
	sched := dp.Clock.Time + dp.FrameDur
	dp.Clock.Advance(dp.FrameDur + dp.Jitter[dp.Frame])
	dp.Frame++
	return sched, dp.Clock.Time
}
