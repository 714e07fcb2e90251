// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

import "time"

// Clock is the monotonic millisecond timebase everything runs on.  All
// logged timestamps and trial-relative times derive from one Clock.
type Clock interface {

	// NowMS returns monotonic time in milliseconds
	NowMS() float64
}

// WallClock is a Clock over the host monotonic clock, relative to Start.
type WallClock struct {
	Start time.Time
}

// NewWallClock returns a wall clock starting now.
func NewWallClock() *WallClock {
	return &WallClock{Start: time.Now()}
}

func (ck *WallClock) NowMS() float64 {
	return float64(time.Since(ck.Start)) / float64(time.Millisecond)
}

// SimClock is a Clock that advances only when told to: the timebase for
// the simulated display and for tests, where a "frame" of time passes
// exactly when the display swaps.
type SimClock struct {

	// current time, ms
	Time float64
}

func (ck *SimClock) NowMS() float64 { return ck.Time }

// Advance moves the clock forward by ms.
func (ck *SimClock) Advance(ms float64) { ck.Time += ms }
