// Package executor implements the Machine Executor of spec.md §4.E: it
// holds the three Steppers, the Motion Planner, the current position and
// plane, and dispatches each validated gcode.Command to the right
// planning call before driving all three axes in parallel and committing
// the resulting position.
//
// Grounded on amken3d-gopper/core's command-dispatch loop shape (a
// switch over command kind feeding a fork-join worker pool) and
// original_source/machine.py's Machine class (current position/plane
// fields, load/save at program boundaries), reworked onto
// golang.org/x/sync/errgroup per spec.md §5's three-worker-thread
// fork-join model.
package executor

import (
	"context"
	"math"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cncrouter/internal/cncerr"
	"cncrouter/internal/config"
	"cncrouter/internal/driver"
	"cncrouter/internal/gcode"
	"cncrouter/internal/hal"
	"cncrouter/internal/planner"
	"cncrouter/internal/position"
	"cncrouter/internal/stepper"
	"cncrouter/internal/units"
)

// axisLetters fixes iteration order for the three linear axes.
var axisLetters = [3]byte{'X', 'Y', 'Z'}

// AxisUnit bundles one axis's Stepper with the configuration the
// Planner needs to convert that axis's mm quantities to steps/pulses.
type AxisUnit struct {
	Stepper *stepper.Stepper
	Cfg     config.AxisConfig
}

// Executor is the Machine Executor: current position, current plane,
// and the three axes it drives.
type Executor struct {
	axes    map[byte]*AxisUnit
	planner *planner.Planner
	store   *position.Store
	log     *zap.SugaredLogger

	pos   position.Position
	plane planner.Plane

	cancelled atomic.Bool
}

// New builds an Executor from a loaded Config and an open hal.Provider,
// constructing one Stepper per axis and loading the persisted position.
func New(cfg *config.Config, provider hal.Provider, planr *planner.Planner, store *position.Store, log *zap.SugaredLogger) (*Executor, error) {
	e := &Executor{
		axes:    make(map[byte]*AxisUnit, 3),
		planner: planr,
		store:   store,
		log:     log,
		plane:   planner.PlaneXY,
	}

	for _, letter := range axisLetters {
		name := string(letter)
		key := lowerAxisKey(letter)
		axisCfg, ok := cfg.Axes[key]
		if !ok {
			return nil, cncerr.Newf(cncerr.InvalidParameters, "executor: no configuration for axis %c", letter)
		}
		desc, err := driver.ByName(axisCfg.Driver)
		if err != nil {
			return nil, cncerr.Newf(cncerr.InvalidParameters, "executor: axis %c: %v", letter, err)
		}
		pins, err := openPins(provider, desc, axisCfg.GPIO)
		if err != nil {
			return nil, cncerr.Newf(cncerr.Hardware, "executor: axis %c: %v", letter, err)
		}
		st, err := stepper.New(name, desc, pins, axisCfg.InvertDir, axisCfg.Mode, true)
		if err != nil {
			return nil, err
		}
		if err := st.Enable(); err != nil {
			return nil, err
		}
		e.axes[letter] = &AxisUnit{Stepper: st, Cfg: axisCfg}
	}

	pos, err := store.Load()
	if err != nil {
		return nil, err
	}
	e.pos = pos
	return e, nil
}

func lowerAxisKey(letter byte) string {
	switch letter {
	case 'X':
		return "x"
	case 'Y':
		return "y"
	default:
		return "z"
	}
}

func openPins(provider hal.Provider, desc driver.Descriptor, gpio config.AxisGPIO) (stepper.Pins, error) {
	open := func(n int) (hal.Pin, error) { return provider.Pin(n) }

	step, err := open(gpio.Step)
	if err != nil {
		return stepper.Pins{}, err
	}
	dir, err := open(gpio.Dir)
	if err != nil {
		return stepper.Pins{}, err
	}
	enable, err := open(gpio.Enable)
	if err != nil {
		return stepper.Pins{}, err
	}
	modePinNumbers := []int{gpio.M2, gpio.M1, gpio.M0}
	if desc.Bits == 4 {
		modePinNumbers = []int{gpio.M3, gpio.M2, gpio.M1, gpio.M0}
	}
	modePins := make([]hal.Pin, 0, desc.Bits)
	for _, n := range modePinNumbers {
		p, err := open(n)
		if err != nil {
			return stepper.Pins{}, err
		}
		modePins = append(modePins, p)
	}
	return stepper.Pins{Step: step, Dir: dir, Enable: enable, Mode: modePins}, nil
}

// Position returns the executor's current committed position.
func (e *Executor) Position() position.Position { return e.pos }

// Cancel requests that any in-flight and subsequent StepSequence calls
// stop early (spec.md §7 CancelledByUser).
func (e *Executor) Cancel() {
	e.cancelled.Store(true)
	if e.log != nil {
		e.log.Warn("cancellation requested")
	}
}

func (e *Executor) isCancelled() bool { return e.cancelled.Load() }

// Shutdown disables all steppers and persists the current position. It
// is safe to call after an error and should be deferred by the caller.
func (e *Executor) Shutdown() error {
	var firstErr error
	for _, letter := range axisLetters {
		if err := e.axes[letter].Stepper.Disable(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := e.store.Save(e.pos); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Run executes a full command stream in order, stopping at the first
// error (spec.md §4.F: parse/limit errors abort before motion; hardware
// errors abort mid-run).
func (e *Executor) Run(cmds []gcode.Command) error {
	for _, cmd := range cmds {
		if e.isCancelled() {
			return cncerr.New(cncerr.CancelledByUser, "run cancelled")
		}
		if err := e.Execute(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Execute dispatches one command per the table in spec.md §4.E.
func (e *Executor) Execute(cmd gcode.Command) error {
	if e.log != nil {
		e.log.Debugw("dispatching command", "kind", cmd.Kind, "line", cmd.Line, "params", cmd.Params)
	}
	if err := e.dispatch(cmd); err != nil {
		if e.log != nil {
			e.log.Errorw("command failed", "kind", cmd.Kind, "line", cmd.Line, "error", err)
		}
		return err
	}
	return nil
}

func (e *Executor) dispatch(cmd gcode.Command) error {
	switch cmd.Kind {
	case gcode.Rapid:
		return e.execRapid(cmd)
	case gcode.LinearInterp:
		return e.execLinear(cmd)
	case gcode.ArcCW:
		return e.execArc(cmd, true)
	case gcode.ArcCCW:
		return e.execArc(cmd, false)
	case gcode.PlaneXY:
		e.plane = planner.PlaneXY
		return nil
	case gcode.PlaneXZ:
		e.plane = planner.PlaneXZ
		return nil
	case gcode.PlaneYZ:
		e.plane = planner.PlaneYZ
		return nil
	case gcode.Home:
		return e.execHome()
	case gcode.SetPosition:
		return e.execSetPosition(cmd)
	default:
		return cncerr.Newf(cncerr.InvalidParameters, "executor: unhandled command kind %v", cmd.Kind)
	}
}

func (e *Executor) execRapid(cmd gcode.Command) error {
	var deltas, rates [3]float64
	var axisParams [3]planner.AxisParams
	cur := [3]*float64{&e.pos.X, &e.pos.Y, &e.pos.Z}

	for i, letter := range axisLetters {
		unit := e.axes[letter]
		axisParams[i] = toAxisParams(unit.Cfg)
		if v, ok := cmd.Params[letter]; ok {
			deltas[i] = v - *cur[i]
		}
		rates[i] = unit.Cfg.TraversalRate
	}

	planned, err := e.planner.PlanMove(deltas, rates, axisParams)
	if err != nil {
		return err
	}
	seqs := make(map[byte]planner.PulseSequence, len(axisLetters))
	for i, letter := range axisLetters {
		seqs[letter] = planned[i]
	}
	if err := e.runAxes(seqs); err != nil {
		return err
	}
	for i := range axisLetters {
		*cur[i] += deltas[i]
	}
	return nil
}

func (e *Executor) execHome() error {
	var deltas, rates [3]float64
	var axisParams [3]planner.AxisParams
	cur := [3]*float64{&e.pos.X, &e.pos.Y, &e.pos.Z}

	for i, letter := range axisLetters {
		unit := e.axes[letter]
		axisParams[i] = toAxisParams(unit.Cfg)
		deltas[i] = unit.Cfg.LimitMin - *cur[i]
		rates[i] = unit.Cfg.TraversalRate
	}

	planned, err := e.planner.PlanMove(deltas, rates, axisParams)
	if err != nil {
		return err
	}
	seqs := make(map[byte]planner.PulseSequence, len(axisLetters))
	for i, letter := range axisLetters {
		seqs[letter] = planned[i]
	}
	if err := e.runAxes(seqs); err != nil {
		return err
	}
	for i := range axisLetters {
		*cur[i] += deltas[i]
	}
	return nil
}

func (e *Executor) execLinear(cmd gcode.Command) error {
	var given []byte
	for _, letter := range axisLetters {
		if cmd.HasParam(letter) {
			given = append(given, letter)
		}
	}
	if len(given) != 2 {
		return cncerr.NewAt(cncerr.InvalidParameters, cmd.Line, "G01 requires exactly two of X/Y/Z")
	}
	a, b := given[0], given[1]
	e.plane = planeFor(a, b)

	unitA, unitB := e.axes[a], e.axes[b]
	curA, curB := e.curPtr(a), e.curPtr(b)
	deltaA := cmd.Params[a] - *curA
	deltaB := cmd.Params[b] - *curB

	feedRate := (unitA.Cfg.FeedRate + unitB.Cfg.FeedRate) / 2
	if f, ok := cmd.Params['F']; ok {
		feedRate = f
	}

	seqA, seqB, err := e.planner.PlanInterpolatedLine(deltaA, deltaB, toAxisParams(unitA.Cfg), toAxisParams(unitB.Cfg), feedRate)
	if err != nil {
		return err
	}
	seqs := map[byte]planner.PulseSequence{a: seqA, b: seqB}
	if err := e.runAxes(seqs); err != nil {
		return err
	}
	*curA += deltaA
	*curB += deltaB
	return nil
}

func (e *Executor) execArc(cmd gcode.Command, clockwise bool) error {
	u, v, w := planeAxes(e.plane) // u, v: in-plane axis letters; w: out-of-plane axis letter (unused)
	_ = w
	if !cmd.HasParam(u) || !cmd.HasParam(v) {
		return cncerr.NewAt(cncerr.InvalidParameters, cmd.Line, "arc requires both axes of the current plane")
	}

	unitU, unitV := e.axes[u], e.axes[v]
	curU, curV := e.curPtr(u), e.curPtr(v)
	endU, endV := cmd.Params[u], cmd.Params[v]

	offsetLetterU, offsetLetterV := offsetLetters(e.plane)

	var radiusMM float64
	var centerU, centerV float64
	if r, ok := cmd.Params['R']; ok {
		radiusMM = r
		// With only a radius given, assume the center lies on the
		// perpendicular bisector toward the rotation's natural side;
		// the common CNC convention of picking the center nearest the
		// start for the commanded arc direction.
		centerU, centerV = centerFromRadius(*curU, *curV, endU, endV, radiusMM, clockwise)
	} else {
		offU := cmd.Params[offsetLetterU]
		offV := cmd.Params[offsetLetterV]
		centerU = *curU + offU
		centerV = *curV + offV
		radiusMM = math.Hypot(offU, offV)
	}

	feedRate := (unitU.Cfg.FeedRate + unitV.Cfg.FeedRate) / 2
	if f, ok := cmd.Params['F']; ok {
		feedRate = f
	}

	rSteps := stepsFromMM(radiusMM, unitU.Cfg)
	pps := ppsFromMMPerMin(feedRate, unitU.Cfg)

	endUSteps := stepsFromMM(endU-centerU, unitU.Cfg)
	endVSteps := stepsFromMM(endV-centerV, unitV.Cfg)
	endGiven := !(endU == *curU && endV == *curV)

	seqU, seqV, err := e.planner.PlanInterpolatedArc(rSteps, endUSteps, endVSteps, endGiven, pps, clockwise)
	if err != nil {
		return err
	}
	seqs := map[byte]planner.PulseSequence{u: seqU, v: seqV}
	if err := e.runAxes(seqs); err != nil {
		return err
	}
	*curU = endU
	*curV = endV
	return nil
}

func (e *Executor) execSetPosition(cmd gcode.Command) error {
	if v, ok := cmd.Params['X']; ok {
		e.pos.X = v
	}
	if v, ok := cmd.Params['Y']; ok {
		e.pos.Y = v
	}
	if v, ok := cmd.Params['Z']; ok {
		e.pos.Z = v
	}
	return nil
}

func (e *Executor) curPtr(letter byte) *float64 {
	switch letter {
	case 'X':
		return &e.pos.X
	case 'Y':
		return &e.pos.Y
	default:
		return &e.pos.Z
	}
}

// runAxes forks one goroutine per axis present in seqs, each driving its
// Stepper through its planned sequence, and joins them (spec.md §5).
func (e *Executor) runAxes(seqs map[byte]planner.PulseSequence) error {
	g, _ := errgroup.WithContext(context.Background())
	for letter, seq := range seqs {
		letter, seq := letter, seq
		unit := e.axes[letter]
		g.Go(func() error {
			return unit.Stepper.StepSequence(seq, e.isCancelled)
		})
	}
	if err := g.Wait(); err != nil {
		if e.log != nil {
			e.log.Errorw("axis motion failed, disabling all steppers", "error", err)
		}
		for _, letter := range axisLetters {
			e.axes[letter].Stepper.Disable()
		}
		return err
	}
	return nil
}

func toAxisParams(c config.AxisConfig) planner.AxisParams {
	return planner.AxisParams{
		StepAngleDeg: c.StepAngleDeg,
		Mode:         c.Mode,
		LeadMM:       c.LeadMM,
		AccelMMPerS2: c.AccelMMPerS2,
		RampType:     c.RampType,
	}
}

func stepsFromMM(mm float64, c config.AxisConfig) int64 {
	return units.MMToSteps(mm, c.StepAngleDeg, c.Mode, c.LeadMM)
}

func ppsFromMMPerMin(rate float64, c config.AxisConfig) float64 {
	return units.MMPerMinToPPS(rate, c.StepAngleDeg, c.Mode, c.LeadMM)
}

func planeFor(a, b byte) planner.Plane {
	switch {
	case a == 'X' && b == 'Y', a == 'Y' && b == 'X':
		return planner.PlaneXY
	case a == 'X' && b == 'Z', a == 'Z' && b == 'X':
		return planner.PlaneXZ
	default:
		return planner.PlaneYZ
	}
}

// planeAxes returns the two in-plane axis letters and the out-of-plane
// letter for the current plane.
func planeAxes(p planner.Plane) (u, v, w byte) {
	switch p {
	case planner.PlaneXZ:
		return 'X', 'Z', 'Y'
	case planner.PlaneYZ:
		return 'Y', 'Z', 'X'
	default:
		return 'X', 'Y', 'Z'
	}
}

// offsetLetters returns the I/J/K parameter letters that carry the
// center offset for the current plane (spec.md §4.E: "K for non-XY
// planes").
func offsetLetters(p planner.Plane) (u, v byte) {
	switch p {
	case planner.PlaneXZ:
		return 'I', 'K'
	case planner.PlaneYZ:
		return 'J', 'K'
	default:
		return 'I', 'J'
	}
}

// centerFromRadius picks the arc center for an R-form command: the
// midpoint of the chord, offset perpendicular to it by the distance
// implied by the radius, toward the side that matches the commanded
// rotation direction.
func centerFromRadius(startU, startV, endU, endV, radius float64, clockwise bool) (centerU, centerV float64) {
	midU := (startU + endU) / 2
	midV := (startV + endV) / 2
	dU := endU - startU
	dV := endV - startV
	chordHalf := math.Hypot(dU, dV) / 2
	h := math.Sqrt(math.Max(radius*radius-chordHalf*chordHalf, 0))

	// Unit vector perpendicular to the chord.
	var perpU, perpV float64
	if chordHalf > 0 {
		perpU, perpV = -dV/(2*chordHalf), dU/(2*chordHalf)
	}
	sign := 1.0
	if clockwise {
		sign = -1.0
	}
	if radius < 0 {
		sign = -sign
	}
	return midU + sign*h*perpU, midV + sign*h*perpV
}
