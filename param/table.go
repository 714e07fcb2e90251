// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
)

// LogPrec is precision for saving float values in logs
const LogPrec = 4

type logRow struct {
	name  string
	val   interface{}
	tm    float64
	trial int
	rel   float64
	block int
}

// ToTable renders the complete history of every parameter in the store as
// an etable.Table with columns Name, Value, Float, Trial, TrialTime, Time,
// Block, sorted by absolute time.  Float is NaN for non-numeric values.
// This is the durable analysis artifact the core produces.
func (st *Store) ToTable() *etable.Table {
	var rows []logRow
	for _, nm := range st.Order {
		pr := st.params[nm]
		for i := 0; i < pr.Rows(); i++ {
			v, tm := pr.Row(i)
			lr := logRow{name: nm, val: v, tm: tm, trial: -1, rel: math.NaN(), block: -1}
			if st.Trials != nil {
				lr.trial, lr.rel = st.Trials.At(tm)
				lr.block = st.Trials.Block(lr.trial)
			}
			rows = append(rows, lr)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].tm < rows[j].tm })

	dt := &etable.Table{}
	dt.SetMetaData("name", st.Nm+"Log")
	dt.SetMetaData("desc", "parameter history for "+st.Nm)
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", strconv.Itoa(LogPrec))
	sch := etable.Schema{
		{Name: "Name", Type: etensor.STRING, CellShape: nil, DimNames: nil},
		{Name: "Value", Type: etensor.STRING, CellShape: nil, DimNames: nil},
		{Name: "Float", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
		{Name: "Trial", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "TrialTime", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
		{Name: "Time", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
		{Name: "Block", Type: etensor.INT64, CellShape: nil, DimNames: nil},
	}
	dt.SetFromSchema(sch, len(rows))
	for i, lr := range rows {
		dt.SetCellString("Name", i, lr.name)
		dt.SetCellString("Value", i, ValString(lr.val))
		if f, ok := AsFloat(lr.val); ok {
			dt.SetCellFloat("Float", i, f)
		} else {
			dt.SetCellFloat("Float", i, math.NaN())
		}
		dt.SetCellFloat("Trial", i, float64(lr.trial))
		dt.SetCellFloat("TrialTime", i, lr.rel)
		dt.SetCellFloat("Time", i, lr.tm)
		dt.SetCellFloat("Block", i, float64(lr.block))
	}
	return dt
}

// SaveTSV writes the full history table to a tab-separated file.
func (st *Store) SaveTSV(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	return st.ToTable().WriteCSV(f, etable.Tab, etable.Headers)
}
