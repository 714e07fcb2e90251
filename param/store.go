// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"fmt"
	"math"

	"github.com/c2h5oh/datasize"
)

// Store is the set of logged parameters owned by one plugin or by the
// experiment itself.  The owner wires in the Clock, Live and Lk fields
// when the store is registered; until then timestamps are 0 and function
// parameters yield NotYet.
type Store struct {

	// name of the owning plugin / entity
	Nm string

	// wall-clock in ms, for history timestamps
	Clock func() float64

	// reports whether the owning experiment is in the running stage
	Live func() bool

	// resolver handed to function parameters; typically the experiment
	Lk Lookup

	// trial-boundary map shared across all stores of an experiment,
	// used by Query to place absolute times into trials
	Trials *Trials

	// parameter names in creation order, for stable exports
	Order []string

	params map[string]*Param
}

// NewStore returns a new empty store for the named owner.
func NewStore(name string) *Store {
	return &Store{Nm: name, params: make(map[string]*Param)}
}

func (st *Store) now() float64 {
	if st.Clock != nil {
		return st.Clock()
	}
	return 0
}

func (st *Store) live() bool {
	return st.Live != nil && st.Live()
}

func (st *Store) lookup() Lookup {
	if st.Lk != nil {
		return st.Lk
	}
	return st
}

// PluginValue implements Lookup over this single store, so that a bare
// store can resolve its own function parameters in tests and tools.
func (st *Store) PluginValue(plugin, name string) interface{} {
	if plugin != "" && plugin != st.Nm {
		return nil
	}
	return st.Get(name)
}

// NumParams returns the number of declared parameters.
func (st *Store) NumParams() int { return len(st.params) }

// Param returns the named parameter, or nil if not declared.
func (st *Store) Param(name string) *Param { return st.params[name] }

// Add declares a new parameter with an initial value (which is logged).
// Re-declaring an existing name just sets it.
func (st *Store) Add(name string, val interface{}) *Param {
	pr, ok := st.params[name]
	if !ok {
		pr = NewParam(name, st.Nm)
		st.params[name] = pr
		st.Order = append(st.Order, name)
	}
	pr.SetVal(val, st.now(), st.live(), st.lookup())
	return pr
}

// AddValidated declares a new parameter with a validation predicate.
// The initial value must pass validation.
func (st *Store) AddValidated(name string, val interface{}, valid func(v interface{}) error) (*Param, error) {
	pr, ok := st.params[name]
	if !ok {
		pr = NewParam(name, st.Nm)
		st.params[name] = pr
		st.Order = append(st.Order, name)
	}
	pr.Validate = valid
	err := pr.SetVal(val, st.now(), st.live(), st.lookup())
	return pr, err
}

// Set sets the named parameter to a literal value or an Fn binding.
// Unknown names are an error: parameters must be declared with Add first,
// so that condition specs cannot silently create misspelled entries.
func (st *Store) Set(name string, v interface{}) error {
	pr := st.params[name]
	if pr == nil {
		return fmt.Errorf("param: %v has no parameter %q", st.Nm, name)
	}
	return pr.SetVal(v, st.now(), st.live(), st.lookup())
}

// Get returns the current value of the named parameter, or nil if not
// declared.  Function parameters are evaluated (and logged) per access.
func (st *Store) Get(name string) interface{} {
	pr := st.params[name]
	if pr == nil {
		return nil
	}
	return pr.GetVal(st.now(), st.live(), st.lookup())
}

// SetFloat sets the named parameter to a float64 value.
func (st *Store) SetFloat(name string, v float64) error { return st.Set(name, v) }

// SetInt sets the named parameter to an int value.
func (st *Store) SetInt(name string, v int) error { return st.Set(name, v) }

// SetString sets the named parameter to a string value.
func (st *Store) SetString(name string, v string) error { return st.Set(name, v) }

// SetBool sets the named parameter to a bool value.
func (st *Store) SetBool(name string, v bool) error { return st.Set(name, v) }

// SetFn binds the named parameter to a function.
func (st *Store) SetFn(name string, fn Fn) error { return st.Set(name, fn) }

// Float returns the named parameter coerced to float64, NaN if the value
// is not numeric (or not declared).
func (st *Store) Float(name string) float64 {
	if f, ok := AsFloat(st.Get(name)); ok {
		return f
	}
	return math.NaN()
}

// Int returns the named parameter coerced to int, 0 if not numeric.
func (st *Store) Int(name string) int {
	if f, ok := AsFloat(st.Get(name)); ok {
		return int(f)
	}
	return 0
}

// String returns the named parameter as a string, rendering non-string
// values with their default format.
func (st *Store) String(name string) string {
	return ValString(st.Get(name))
}

// Bool returns the named parameter as a bool; non-bool numeric values
// count as true when non-zero.
func (st *Store) Bool(name string) bool {
	switch x := st.Get(name).(type) {
	case bool:
		return x
	default:
		f, ok := AsFloat(x)
		return ok && f != 0
	}
}

// SnapDefaults captures the current value of every parameter as its
// per-trial default.  The experiment calls this once, right after the
// first full setup pass.
func (st *Store) SnapDefaults() {
	for _, nm := range st.Order {
		st.params[nm].SnapDefault()
	}
}

// RestoreDefaults re-applies every parameter's default snapshot, in
// declaration order, logging each restoration.  The first error is
// returned but all parameters are attempted.
func (st *Store) RestoreDefaults() error {
	var ferr error
	for _, nm := range st.Order {
		err := st.params[nm].RestoreDefault(st.now(), st.live(), st.lookup())
		if err != nil && ferr == nil {
			ferr = err
		}
	}
	return ferr
}

// MemSize returns a human-readable report of history rows and allocated
// capacity across all parameters.  Bytes are estimated at 24 per row
// (boxed value header plus timestamp).  Dynamic parameters that are read
// every frame dominate this figure -- that is the cost of the complete
// audit trail.
func (st *Store) MemSize() string {
	rows := 0
	capr := 0
	for _, nm := range st.Order {
		pr := st.params[nm]
		rows += pr.Rows()
		capr += pr.Cap()
	}
	bytes := uint64(capr) * 24
	return fmt.Sprintf("%v: %d params, %d rows (cap %d, ~%v)", st.Nm, len(st.params), rows, capr, datasize.ByteSize(bytes).HumanReadable())
}

// AsFloat coerces common numeric types to float64.
func AsFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// ValString renders any logged value for reports and exports.
func ValString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
