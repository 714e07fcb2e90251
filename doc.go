// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package neurostim is the overall repository for the core of the Neurostim
behavioral / neurophysiology experiment-control toolbox, implemented in the
Go language (golang).

This top-level of the repository has no functional code -- everything is organized
into the following sub-repositories:

* neurostim: the core experiment engine -- the Experiment trial / frame
run loop, the Plugin entity model, the behavior finite-state-machine engine
with its built-in FAIL / SUCCESS terminal states, and ready-made behavior
machines (fixation, key response) built by registering state handlers.

* param: the time-stamped parameter store that is the system of record for
everything an experiment does -- every parameter mutation is logged with its
wall-clock time, function-valued (dynamic) parameters are re-evaluated and
logged on every read, and the resulting history can be queried per trial,
at a trial-relative time, or relative to another logged event.

* examples: these compile into runnable programs and provide the starting
point for your own experiments.  examples/fixation runs a complete headless
fixation experiment against a simulated display and gaze source, and saves
the full parameter log as a .tsv file for analysis.

Hardware collaborators (display swap, eye tracker, keyboard, reward devices)
are abstracted behind small interfaces in the neurostim package: the engine
only needs a millisecond clock, a frame swap with timestamps, and per-frame
event sampling functions.
*/
package neurostim
