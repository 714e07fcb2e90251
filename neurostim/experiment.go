// Copyright (c) 2026, The Neurostim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neurostim

import (
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/dshimaoka/neurostim/param"
	"github.com/emer/emergent/env"
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
)

// Machiner is implemented by behavior machines; the experiment uses it
// to find the machines among its plugins for outcome scoring.
type Machiner interface {
	AsMachine() *Machine
}

// Experiment is the central coordinator: it owns the plugins, the shared
// trial-boundary map, the frame-locked run loop, and its own parameter
// store (trialDuration, condition, iti).  Everything runs on the single
// control thread: plugin notifications, parameter writes, and state
// transitions are all synchronous and ordered.
type Experiment struct {

	// name of the experiment, used as log file prefix
	Nm string `desc:"name of the experiment"`

	// the experiment's own parameter store
	Prm *param.Store `desc:"experiment-level parameters: trialDuration, condition, iti"`

	// registered plugins, notified in registration order
	Plugins []Pluginer `desc:"registered plugins, notified in registration order"`

	// the conditions presented, one full pass per block
	Design *Design `desc:"the experimental design: conditions presented, one full pass per block"`

	// time source, ms; defaults to the wall clock
	Clock Clock `desc:"time source in ms"`

	// frame-swap provider; defaults to a simulated 60 Hz display
	Display Display `desc:"frame-swap provider"`

	// trial-boundary map shared by every parameter store
	Trials *param.Trials `desc:"trial-boundary map shared by every parameter store"`

	// frame-drop tolerance as a fraction of the frame duration
	FrameSlack float64 `def:"0.2" desc:"frame-drop tolerance as a fraction of the frame duration"`

	// inter-trial interval distribution, ms
	ITI erand.RndParams `desc:"inter-trial interval distribution, ms"`

	Block env.Ctr `view:"inline" desc:"block counter: one full pass through the design"`
	Trial env.Ctr `view:"inline" desc:"trial counter within the block"`

	// current lifecycle stage
	Stage Stages `inactive:"+" desc:"current lifecycle stage"`

	// first fatal error; the run unwinds once this is set
	FatalErr error `inactive:"+" desc:"first fatal error; the run unwinds once this is set"`

	TrialStats *etable.Table `view:"no-inline" desc:"per-trial outcome log"`
	FrameDrops *etable.Table `view:"no-inline" desc:"detected frame drops"`

	trialStart float64
	endTrial   bool
	stopExp    bool
	nWarn      int
}

// New returns an experiment with defaults: a simulated clock driven by a
// simulated 60 Hz display, one block, fixed 500 ms ITI, 0.2 frame slack.
// Real rigs replace Clock and Display with their hardware collaborators
// (sharing one timebase: the clock must be the one the display timestamps
// its swaps with).
func New(name string) *Experiment {
	ex := &Experiment{Nm: name}
	sc := &SimClock{}
	ex.Clock = sc
	ex.Display = NewSimDisplay(sc, 60)
	ex.Trials = &param.Trials{}
	ex.Prm = param.NewStore(name)
	ex.wireStore(ex.Prm)
	ex.Prm.Add("trialDuration", 1000.0)
	ex.Prm.Add("condition", "")
	ex.Prm.Add("iti", 0.0)
	ex.Design = NewDesign(name)
	ex.FrameSlack = 0.2
	ex.ITI = erand.RndParams{Dist: erand.Mean, Mean: 500}
	ex.Block.Scale = env.Epoch // a block is one pass through the design
	ex.Block.Max = 1
	ex.Trial.Scale = env.Trial
	return ex
}

func (ex *Experiment) wireStore(st *param.Store) {
	st.Clock = ex.Now
	st.Live = ex.Live
	st.Lk = ex
	st.Trials = ex.Trials
}

// AddPlugin registers a plugin: its store joins the experiment's clock,
// stage and trial map, and it starts receiving lifecycle notifications.
// Names must be unique.
func (ex *Experiment) AddPlugin(pl Pluginer) error {
	for _, ep := range ex.Plugins {
		if ep.Name() == pl.Name() {
			return fmt.Errorf("neurostim.Experiment %v: duplicate plugin name %q", ex.Nm, pl.Name())
		}
	}
	bp := pl.AsPlugin()
	bp.Exp = ex
	ex.wireStore(bp.Prm)
	ex.Plugins = append(ex.Plugins, pl)
	return nil
}

// Plugin returns the registered plugin of the given name, nil if none.
func (ex *Experiment) Plugin(name string) Pluginer {
	for _, pl := range ex.Plugins {
		if pl.Name() == name {
			return pl
		}
	}
	return nil
}

// Machines returns the behavior machines among the plugins, in
// registration order.
func (ex *Experiment) Machines() []*Machine {
	var ms []*Machine
	for _, pl := range ex.Plugins {
		if mr, ok := pl.(Machiner); ok {
			ms = append(ms, mr.AsMachine())
		}
	}
	return ms
}

// PluginValue implements param.Lookup: function parameters resolve
// "plugin.param" references through the experiment.  An empty plugin
// name, or the experiment's own name, addresses the experiment store.
func (ex *Experiment) PluginValue(plugin, name string) interface{} {
	if plugin == "" || plugin == ex.Nm {
		return ex.Prm.Get(name)
	}
	if pl := ex.Plugin(plugin); pl != nil {
		return pl.AsPlugin().Prm.Get(name)
	}
	return nil
}

// Now returns the experiment clock in ms.
func (ex *Experiment) Now() float64 { return ex.Clock.NowMS() }

// TrialTime returns the trial-relative time in ms.
func (ex *Experiment) TrialTime() float64 { return ex.Now() - ex.trialStart }

// Live reports whether the experiment is in its running stage; parameter
// stores use this to distinguish setup-time assignments.
func (ex *Experiment) Live() bool { return ex.Stage == Running }

// EndTrial requests a cooperative end of the current trial; the frame
// loop honors it at the next frame boundary.
func (ex *Experiment) EndTrial() { ex.endTrial = true }

// StopExperiment requests a cooperative stop of the whole run after the
// current trial finishes cleanly.
func (ex *Experiment) StopExperiment() { ex.stopExp = true }

// Fatal records the first fatal error and unwinds the run: the current
// trial ends and no further trials start.
func (ex *Experiment) Fatal(err error) {
	if ex.FatalErr == nil {
		ex.FatalErr = err
		log.Printf("%v: fatal: %v\n", ex.Nm, err)
	}
	ex.endTrial = true
	ex.stopExp = true
}

// Warn logs a non-fatal warning and counts it.
func (ex *Experiment) Warn(format string, args ...interface{}) {
	ex.nWarn++
	log.Printf("%v: warning: %v\n", ex.Nm, fmt.Sprintf(format, args...))
}

// NWarnings returns the number of warnings issued so far.
func (ex *Experiment) NWarnings() int { return ex.nWarn }

// ConfigLogs builds the per-trial outcome and frame-drop tables.
func (ex *Experiment) ConfigLogs() {
	ex.TrialStats = &etable.Table{}
	ex.TrialStats.SetMetaData("name", "TrialStats")
	ex.TrialStats.SetMetaData("desc", "per-trial outcome log")
	ex.TrialStats.SetFromSchema(etable.Schema{
		{Name: "Trial", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "Block", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "Condition", Type: etensor.STRING, CellShape: nil, DimNames: nil},
		{Name: "Success", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "StopTime", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
		{Name: "Duration", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
	}, 0)
	ex.FrameDrops = &etable.Table{}
	ex.FrameDrops.SetMetaData("name", "FrameDrops")
	ex.FrameDrops.SetMetaData("desc", "frames whose swap missed the schedule")
	ex.FrameDrops.SetFromSchema(etable.Schema{
		{Name: "Trial", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "Frame", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "Scheduled", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
		{Name: "Actual", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
		{Name: "Delta", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
	}, 0)
}

// Run executes the whole experiment: setup, Block.Max blocks of
// Design.NTrials() trials each, teardown.  It returns the first fatal
// error, nil on a clean (or cooperatively stopped) run.
func (ex *Experiment) Run() error {
	ex.setup()
	ex.Stage = Running
	for !ex.stopExp {
		ex.Design.NewBlock()
		ex.Trial.Init()
		for !ex.stopExp {
			ex.runTrial()
			if ex.Trial.Incr() {
				break
			}
		}
		if ex.Block.Incr() {
			break
		}
	}
	ex.finish()
	return ex.FatalErr
}

func (ex *Experiment) setup() {
	ex.Stage = Setup
	if ex.TrialStats == nil {
		ex.ConfigLogs()
	}
	ex.Block.Init()
	ex.Trial.Init()
	ex.Trial.Max = ex.Design.NTrials()
	for _, pl := range ex.Plugins {
		pl.BeforeExperiment()
	}
	// everything assigned up to here is the per-trial default
	ex.Prm.SnapDefaults()
	for _, pl := range ex.Plugins {
		pl.AsPlugin().Prm.SnapDefaults()
	}
}

func (ex *Experiment) finish() {
	ex.Trials.Stop = ex.Now()
	ex.Stage = Post
	for _, pl := range ex.Plugins {
		pl.AfterExperiment()
	}
}

func (ex *Experiment) runTrial() {
	ex.beforeTrial()
	if ex.stopExp && ex.FatalErr != nil {
		return
	}
	ex.frameLoop()
	ex.afterTrial()
	ex.interTrial()
}

// beforeTrial opens the trial: boundary recorded first, so every
// parameter write below lands at trial-relative time ~0; then defaults
// restored, condition overrides applied, plugins notified.
func (ex *Experiment) beforeTrial() {
	ex.endTrial = false
	ex.trialStart = ex.Now()
	ex.Trials.Add(ex.trialStart, ex.Block.Cur)
	if err := ex.Prm.RestoreDefaults(); err != nil {
		ex.Fatal(err)
		return
	}
	for _, pl := range ex.Plugins {
		if err := pl.AsPlugin().Prm.RestoreDefaults(); err != nil {
			ex.Fatal(err)
			return
		}
	}
	cond := ex.Design.Cond(ex.Trial.Cur)
	if cond != nil {
		if err := cond.Apply(ex); err != nil {
			ex.Fatal(err)
			return
		}
		ex.Prm.SetString("condition", cond.Nm)
	} else {
		ex.Prm.SetString("condition", "")
	}
	for _, pl := range ex.Plugins {
		pl.BeforeTrial()
	}
}

// frameLoop is the frame-locked heart of a trial: notify plugins, swap,
// check the swap against its schedule, notify again, until the trial
// duration elapses or a stop is requested.  Stop flags are honored at
// frame boundaries only; within a frame every plugin gets its
// notification.
func (ex *Experiment) frameLoop() {
	dur := ex.Prm.Float("trialDuration")
	frame := 0
	for !ex.endTrial && !ex.stopExp {
		t := ex.TrialTime()
		if t >= dur {
			break
		}
		for _, pl := range ex.Plugins {
			pl.BeforeFrame(t)
		}
		sched, actual := ex.Display.Swap()
		ex.checkFrame(frame, sched, actual)
		t = ex.TrialTime()
		for _, pl := range ex.Plugins {
			pl.AfterFrame(t)
		}
		frame++
	}
}

func (ex *Experiment) checkFrame(frame int, sched, actual float64) {
	fd := ex.Display.FrameDurMS()
	delta := actual - sched
	if math.Abs(delta) <= ex.FrameSlack*fd {
		return
	}
	ex.Warn("frame %d dropped: scheduled %.2f actual %.2f (delta %.2f ms)", frame, sched, actual, delta)
	row := ex.FrameDrops.Rows
	ex.FrameDrops.AddRows(1)
	ex.FrameDrops.SetCellFloat("Trial", row, float64(ex.Trials.N()-1))
	ex.FrameDrops.SetCellFloat("Frame", row, float64(frame))
	ex.FrameDrops.SetCellFloat("Scheduled", row, sched)
	ex.FrameDrops.SetCellFloat("Actual", row, actual)
	ex.FrameDrops.SetCellFloat("Delta", row, delta)
}

// afterTrial closes the trial: plugins notified (machines resolve their
// outcome here), then the outcome row is recorded.  The trial succeeds
// if every required machine reached Success.
func (ex *Experiment) afterTrial() {
	for _, pl := range ex.Plugins {
		pl.AfterTrial()
	}
	success := true
	stop := math.Inf(1)
	for _, bm := range ex.Machines() {
		if bm.Required() && !bm.IsSuccessful() {
			success = false
		}
		stop = math.Min(stop, bm.TrialStopTime())
	}
	row := ex.TrialStats.Rows
	ex.TrialStats.AddRows(1)
	ex.TrialStats.SetCellFloat("Trial", row, float64(ex.Trials.N()-1))
	ex.TrialStats.SetCellFloat("Block", row, float64(ex.Block.Cur))
	ex.TrialStats.SetCellString("Condition", row, ex.Prm.String("condition"))
	sv := 0.0
	if success {
		sv = 1
	}
	ex.TrialStats.SetCellFloat("Success", row, sv)
	ex.TrialStats.SetCellFloat("StopTime", row, stop)
	ex.TrialStats.SetCellFloat("Duration", row, ex.TrialTime())
}

// interTrial draws the ITI from its distribution, logs it, and keeps the
// display swapping until the interval elapses so the frame clock never
// stalls between trials.
func (ex *Experiment) interTrial() {
	if ex.stopExp {
		return
	}
	iti := ex.ITI.Gen(-1)
	ex.Prm.SetFloat("iti", iti)
	if iti <= 0 {
		return
	}
	deadline := ex.Now() + iti
	for ex.Now() < deadline && !ex.stopExp {
		ex.Display.Swap()
	}
}

// MemReport returns a per-store report of parameter history memory use.
func (ex *Experiment) MemReport() string {
	var sb strings.Builder
	sb.WriteString(ex.Prm.MemSize())
	for _, pl := range ex.Plugins {
		sb.WriteString("\n")
		sb.WriteString(pl.AsPlugin().Prm.MemSize())
	}
	return sb.String()
}

// SaveLogs writes every parameter store, the trial outcomes and the
// frame drops as tab-separated files under the given prefix.
func (ex *Experiment) SaveLogs(prefix string) error {
	if err := ex.Prm.SaveTSV(prefix + "_" + ex.Nm + "_params.tsv"); err != nil {
		return err
	}
	for _, pl := range ex.Plugins {
		if err := pl.AsPlugin().Prm.SaveTSV(prefix + "_" + pl.Name() + "_params.tsv"); err != nil {
			return err
		}
	}
	if err := saveTable(ex.TrialStats, prefix+"_trials.tsv"); err != nil {
		return err
	}
	return saveTable(ex.FrameDrops, prefix+"_framedrops.tsv")
}

func saveTable(dt *etable.Table, fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	return dt.WriteCSV(f, etable.Tab, etable.Headers)
}
