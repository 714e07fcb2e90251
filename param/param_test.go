// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"fmt"
	"testing"
)

// fakeClock is a settable time source for store tests.
type fakeClock struct {
	tm   float64
	live bool
}

func (fc *fakeClock) wire(st *Store) {
	st.Clock = func() float64 { return fc.tm }
	st.Live = func() bool { return fc.live }
}

func TestSetLogsOneRowPerSet(t *testing.T) {
	fc := &fakeClock{live: true}
	st := NewStore("test")
	fc.wire(st)

	st.Add("lum", 0.0)
	pr := st.Param("lum")
	n := 1000 // crosses two allocation blocks
	for i := 1; i <= n; i++ {
		fc.tm = float64(i)
		if err := st.SetFloat("lum", float64(i)); err != nil {
			t.Error(err)
		}
	}
	if pr.Rows() != n+1 {
		t.Errorf("expected %d history rows, got %d", n+1, pr.Rows())
	}
	if pr.Cap()%BlockRows != 0 {
		t.Errorf("capacity %d not a multiple of the block size", pr.Cap())
	}
	prv := -1.0
	for i := 0; i < pr.Rows(); i++ {
		_, tm := pr.Row(i)
		if tm < prv {
			t.Errorf("row %d: time %g earlier than previous %g", i, tm, prv)
		}
		prv = tm
	}
	v, tm := pr.Row(pr.Rows() - 1)
	if v.(float64) != float64(n) || tm != float64(n) {
		t.Errorf("last row: expected (%d, %d), got (%v, %v)", n, n, v, tm)
	}
}

func TestGetLiteralDoesNotLog(t *testing.T) {
	fc := &fakeClock{live: true}
	st := NewStore("test")
	fc.wire(st)

	st.Add("ori", 45.0)
	rows := st.Param("ori").Rows()
	for i := 0; i < 10; i++ {
		if st.Float("ori") != 45 {
			t.Errorf("expected 45, got %v", st.Float("ori"))
		}
	}
	if st.Param("ori").Rows() != rows {
		t.Errorf("literal reads must not log: %d rows grew to %d", rows, st.Param("ori").Rows())
	}
}

func TestFnParamLogsPerRead(t *testing.T) {
	fc := &fakeClock{live: false}
	st := NewStore("test")
	fc.wire(st)

	st.Add("base", 10.0)
	st.Add("twice", Fn(func(lk Lookup) interface{} {
		v, _ := AsFloat(lk.PluginValue("", "base"))
		return 2 * v
	}))
	pr := st.Param("twice")

	// setup stage: assignment logged the sentinel, reads yield it unlogged
	v0, _ := pr.Row(0)
	if _, ok := v0.(NotYet); !ok {
		t.Errorf("setup-stage Fn assignment should log NotYet, got %v", v0)
	}
	if _, ok := st.Get("twice").(NotYet); !ok {
		t.Errorf("setup-stage Fn read should yield NotYet, got %v", st.Get("twice"))
	}
	if pr.Rows() != 1 {
		t.Errorf("setup-stage reads must not log: got %d rows", pr.Rows())
	}

	fc.live = true
	for i := 1; i <= 3; i++ {
		fc.tm = float64(100 * i)
		if got := st.Float("twice"); got != 20 {
			t.Errorf("expected 20, got %v", got)
		}
	}
	if pr.Rows() != 4 {
		t.Errorf("each live dynamic read logs: expected 4 rows, got %d", pr.Rows())
	}
	_, tm := pr.Row(3)
	if tm != 300 {
		t.Errorf("expected last dynamic row at 300, got %g", tm)
	}

	st.SetFloat("base", 50)
	if got := st.Float("twice"); got != 100 {
		t.Errorf("dynamic param must track dependency: expected 100, got %v", got)
	}
}

func TestDefaultsRestoreIdempotent(t *testing.T) {
	fc := &fakeClock{live: true}
	st := NewStore("test")
	fc.wire(st)

	st.Add("dur", 500.0)
	st.Add("color", "white")
	st.SnapDefaults()

	// trial 1: condition overrides
	st.SetFloat("dur", 900)
	st.SetString("color", "red")

	// trial 2: back to defaults
	fc.tm = 1000
	if err := st.RestoreDefaults(); err != nil {
		t.Error(err)
	}
	if st.Float("dur") != 500 || st.String("color") != "white" {
		t.Errorf("defaults not restored: dur=%v color=%v", st.Float("dur"), st.String("color"))
	}

	// restoring again must yield the same values and log again
	rows := st.Param("dur").Rows()
	fc.tm = 2000
	if err := st.RestoreDefaults(); err != nil {
		t.Error(err)
	}
	if st.Float("dur") != 500 || st.String("color") != "white" {
		t.Errorf("second restore differs: dur=%v color=%v", st.Float("dur"), st.String("color"))
	}
	if st.Param("dur").Rows() != rows+1 {
		t.Errorf("restore must log one row: %d -> %d", rows, st.Param("dur").Rows())
	}
}

func TestDefaultFnRestored(t *testing.T) {
	fc := &fakeClock{live: true}
	st := NewStore("test")
	fc.wire(st)

	st.Add("base", 3.0)
	st.Add("dep", Fn(func(lk Lookup) interface{} {
		v, _ := AsFloat(lk.PluginValue("", "base"))
		return v + 1
	}))
	st.SnapDefaults()

	st.SetFloat("dep", 99) // condition overrides to a literal
	if st.Float("dep") != 99 {
		t.Errorf("expected 99, got %v", st.Float("dep"))
	}
	if err := st.RestoreDefaults(); err != nil {
		t.Error(err)
	}
	if st.Float("dep") != 4 {
		t.Errorf("function default not restored: got %v", st.Float("dep"))
	}
}

func TestValidation(t *testing.T) {
	fc := &fakeClock{live: true}
	st := NewStore("test")
	fc.wire(st)

	_, err := st.AddValidated("contrast", 0.5, func(v interface{}) error {
		f, ok := AsFloat(v)
		if !ok || f < 0 || f > 1 {
			return fmt.Errorf("contrast must be in [0,1]: %v", v)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	pr := st.Param("contrast")
	rows := pr.Rows()
	if err := st.SetFloat("contrast", 2); err == nil {
		t.Error("out-of-range set should fail validation")
	}
	if pr.Rows() != rows {
		t.Errorf("rejected set must not log: %d -> %d", rows, pr.Rows())
	}
	if st.Float("contrast") != 0.5 {
		t.Errorf("rejected set must not change value: got %v", st.Float("contrast"))
	}
	if err := st.SetFloat("contrast", 0.8); err != nil {
		t.Error(err)
	}
}

func TestSetUnknownParam(t *testing.T) {
	st := NewStore("test")
	if err := st.Set("tyopgraphy", 1.0); err == nil {
		t.Error("setting an undeclared parameter must fail")
	}
}
