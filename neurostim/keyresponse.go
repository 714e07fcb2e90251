// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

import "strings"

// KeyResponse wait state, in addition to the universal Fail / Success.
const (
	Waiting = "WAIT"
)

// KeyResponse is a behavior machine collecting a single key press within
// the activation window.  Pressing one of the correct keys succeeds,
// any other key fails, and reaching the end of the window (or trial)
// without a press fails.
//
// Parameters (condition-overridable): keys (comma-separated list of
// correct keys, case-insensitive).
type KeyResponse struct {
	Machine
}

func (kr *KeyResponse) Init(name string) {
	kr.InitMachine(name)
	kr.Prm.Add("keys", "")
	kr.AddState(Waiting, kr.waiting)
	kr.Start = Waiting
}

// Correct reports whether key is one of the configured correct keys.
func (kr *KeyResponse) Correct(key string) bool {
	for _, k := range strings.Split(kr.Prm.String("keys"), ",") {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return true
		}
	}
	return false
}

func (kr *KeyResponse) waiting(t float64, e Event) {
	switch e.Kind {
	case Regular:
		if e.Key == "" {
			return
		}
		if kr.Correct(e.Key) {
			kr.Transition(Success, e)
		} else {
			kr.Transition(Fail, e)
		}
	case AfterTrial:
		kr.Transition(Fail, e)
	}
}
