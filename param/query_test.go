// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"math"
	"testing"
)

// queryStore builds a store with a two-trial history:
//
//	trial 0: [1000, 2000) block 0; trial 1: [2000, 3000) block 0; Stop 3000
//	state:  "WAIT"@1000  "FIX"@1150  "SUCCESS"@1600  "WAIT"@2000  "FAIL"@2500
//	reward: 1.0@1610 (trial 0 only)
//	resp:   "left"@1620 (trial 0 only)
//	bg:     "gray"@500 (before the first trial)
func queryStore() (*Store, *fakeClock) {
	fc := &fakeClock{live: true}
	st := NewStore("test")
	fc.wire(st)
	st.Trials = &Trials{}
	st.Trials.Add(1000, 0)
	st.Trials.Add(2000, 0)
	st.Trials.Stop = 3000

	fc.tm = 500
	st.Add("bg", "gray")
	st.Add("state", nil)
	st.Add("reward", nil)
	st.Add("resp", nil)
	set := func(tm float64, nm string, v interface{}) {
		fc.tm = tm
		st.Set(nm, v)
	}
	set(1000, "state", "WAIT")
	set(1150, "state", "FIX")
	set(1600, "state", "SUCCESS")
	set(1610, "reward", 1.0)
	set(1620, "resp", "left")
	set(2000, "state", "WAIT")
	set(2500, "state", "FAIL")
	return st, fc
}

func TestTrialsAt(t *testing.T) {
	tr := &Trials{}
	tr.Add(1000, 0)
	tr.Add(2000, 1)
	tr.Stop = 3000

	ti, rel := tr.At(500)
	if ti != -1 || !math.IsInf(rel, -1) {
		t.Errorf("before first trial: expected (-1, -Inf), got (%d, %g)", ti, rel)
	}
	ti, rel = tr.At(1500)
	if ti != 0 || rel != 500 {
		t.Errorf("expected (0, 500), got (%d, %g)", ti, rel)
	}
	ti, rel = tr.At(2000)
	if ti != 1 || rel != 0 {
		t.Errorf("boundary belongs to the new trial: expected (1, 0), got (%d, %g)", ti, rel)
	}
	ti, rel = tr.At(3000)
	if ti != 2 || !math.IsInf(rel, 1) {
		t.Errorf("at/after stop: expected (2, +Inf), got (%d, %g)", ti, rel)
	}
	if tr.Block(1) != 1 || tr.Block(5) != -1 {
		t.Errorf("block lookup: got %d, %d", tr.Block(1), tr.Block(5))
	}
	if tr.End(0) != 2000 || tr.End(1) != 3000 {
		t.Errorf("trial ends: got %g, %g", tr.End(0), tr.End(1))
	}
}

func TestQueryRaw(t *testing.T) {
	st, _ := queryStore()
	// the nil placeholder row plus five sets
	res, err := st.Query("state", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 6 {
		t.Fatalf("expected 6 rows, got %d", res.Len())
	}
	// row 1 is WAIT@1000: first row of trial 0
	if res.Trial[1] != 0 || res.TrialTime[1] != 0 || res.Time[1] != 1000 {
		t.Errorf("row 1: got trial %d rel %g abs %g", res.Trial[1], res.TrialTime[1], res.Time[1])
	}
	if res.Values[5].(string) != "FAIL" || res.Trial[5] != 1 || res.TrialTime[5] != 500 {
		t.Errorf("row 5: got %v trial %d rel %g", res.Values[5], res.Trial[5], res.TrialTime[5])
	}
}

func TestQueryZeroOptsMeansAllRows(t *testing.T) {
	st, _ := queryStore()
	// a zero QueryOpts must behave like nil: AtTime 0 is only a
	// selector when explicitly enabled
	res, err := st.Query("state", &QueryOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 6 {
		t.Errorf("zero opts must return every row: got %d, want 6", res.Len())
	}
	qo := &QueryOpts{}
	qo.SetAtTime(0)
	res, err = st.Query("state", qo)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 2 {
		t.Errorf("explicit at-time 0 selects one row per trial: got %d", res.Len())
	}
	if res.Values[0].(string) != "WAIT" || res.Values[1].(string) != "WAIT" {
		t.Errorf("values at trial start: got %v, %v", res.Values[0], res.Values[1])
	}
}

func TestQueryPreTrialRow(t *testing.T) {
	st, _ := queryStore()
	res, err := st.Query("bg", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", res.Len())
	}
	if res.Trial[0] != -1 || !math.IsInf(res.TrialTime[0], -1) {
		t.Errorf("pre-trial row: expected trial -1 rel -Inf, got %d %g", res.Trial[0], res.TrialTime[0])
	}
}

func TestQueryTrialFilter(t *testing.T) {
	st, _ := queryStore()
	qo := &QueryOpts{Trials: []int{1}}
	res, err := st.Query("state", qo)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 2 {
		t.Fatalf("expected 2 rows in trial 1, got %d", res.Len())
	}
	for i := 0; i < res.Len(); i++ {
		if res.Trial[i] != 1 {
			t.Errorf("row %d leaked from trial %d", i, res.Trial[i])
		}
	}
}

func TestQueryAtTime(t *testing.T) {
	st, _ := queryStore()
	qo := &QueryOpts{}
	qo.SetAtTime(200)
	res, err := st.Query("state", qo)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 2 {
		t.Fatalf("expected one row per trial, got %d", res.Len())
	}
	if res.Values[0].(string) != "FIX" {
		t.Errorf("trial 0 at 200 ms: expected FIX, got %v", res.Values[0])
	}
	if res.Values[1].(string) != "WAIT" {
		t.Errorf("trial 1 at 200 ms: expected WAIT, got %v", res.Values[1])
	}
}

func TestQueryAtTimeInf(t *testing.T) {
	st, _ := queryStore()
	qo := &QueryOpts{}
	qo.SetAtTime(math.Inf(1))
	res, err := st.Query("state", qo)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 2 {
		t.Fatalf("expected one row per trial, got %d", res.Len())
	}
	if res.Values[0].(string) != "SUCCESS" {
		t.Errorf("trial 0 last value: expected SUCCESS, got %v", res.Values[0])
	}
	if res.Values[1].(string) != "FAIL" {
		t.Errorf("trial 1 last value: expected FAIL, got %v", res.Values[1])
	}
}

func TestQueryCarryForwardAndDataOnly(t *testing.T) {
	st, _ := queryStore()
	qo := &QueryOpts{}
	qo.SetAtTime(50)
	res, err := st.Query("bg", qo)
	if err != nil {
		t.Fatal(err)
	}
	// the pre-trial value is in effect in both trials, carried forward
	if res.Len() != 2 {
		t.Fatalf("expected 2 carried rows, got %d", res.Len())
	}
	if res.Trial[1] != 1 || res.Time[1] != 500 {
		t.Errorf("carried row keeps its recording time: got trial %d abs %g", res.Trial[1], res.Time[1])
	}

	qo.DataOnly = true
	res, err = st.Query("bg", qo)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 0 {
		t.Errorf("DataOnly must drop carried rows: got %d", res.Len())
	}
}

func TestQueryAfterEvent(t *testing.T) {
	st, _ := queryStore()
	qo := &QueryOpts{After: "reward"}
	res, err := st.Query("resp", qo)
	if err != nil {
		t.Fatal(err)
	}
	// trial 0 has a response after the reward; trial 1 has no reward at
	// all and must be skipped, not zero-filled
	if res.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", res.Len())
	}
	if res.Values[0].(string) != "left" || res.Trial[0] != 0 || res.Time[0] != 1620 {
		t.Errorf("got %v trial %d abs %g", res.Values[0], res.Trial[0], res.Time[0])
	}

	qo.After = "nosuch"
	if _, err := st.Query("resp", qo); err == nil {
		t.Error("unknown After parameter must error")
	}
}
