// Package stepper drives one axis's step/dir/mode GPIO lines (spec.md
// §4.D): enable/disable, set microstep mode, set direction, and emit a
// planned pulse sequence with the busy-wait timing discipline of
// spec.md §5.
//
// Grounded on original_source/stepper.py's Stepper class
// (set_mode/set_direction/step/busy_wait), reworked from GPIO.output
// calls keyed by name into the driver.Descriptor + hal.Pin abstraction
// so the same code runs against real GPIO or the hal.MockProvider.
package stepper

import (
	"time"

	"cncrouter/internal/cncerr"
	"cncrouter/internal/driver"
	"cncrouter/internal/hal"
	"cncrouter/internal/planner"
)

// busyWaitThreshold is the delay below which time.Sleep's scheduler
// granularity is unreliable; shorter delays busy-wait entirely, longer
// ones sleep for all but a short busy-wait tail (spec.md §5).
const busyWaitThreshold = time.Millisecond
const busyWaitTail = 200 * time.Microsecond

// dirSettleDelay is the brief pause after flipping the DIR line before
// the next STEP pulse, so the driver latches the new direction instead
// of a step issued mid-transition (spec.md §4.D; original_source/stepper.py's
// set_direction does time.sleep(0.1)).
const dirSettleDelay = time.Millisecond

// driverWakeDelay is the pause after asserting the enable line to let
// the driver complete its wake-up sequence before the first step
// (spec.md §4.D, §5).
const driverWakeDelay = 100 * time.Millisecond

// Pins names the GPIO lines one axis's driver occupies.
type Pins struct {
	Step, Dir, Enable hal.Pin
	Mode              []hal.Pin // ordered high-bit-first, length == Descriptor.Bits
}

// Stepper is one axis's stepper-motor driver state.
type Stepper struct {
	Name      string
	desc      driver.Descriptor
	pins      Pins
	invertDir bool

	mode      int
	dirCW     bool
	enabled   bool
}

// New builds a Stepper for the given driver descriptor and pin set,
// initializing to the given mode and direction (spec.md §4.D "initial
// mode and direction are applied at construction, not lazily").
func New(name string, desc driver.Descriptor, pins Pins, invertDir bool, initialMode int, initialDirCW bool) (*Stepper, error) {
	// Start from the opposite direction so SetDirection always writes the
	// DIR line here, whichever initial direction is requested.
	s := &Stepper{Name: name, desc: desc, pins: pins, invertDir: invertDir, dirCW: !initialDirCW}
	if err := s.SetMode(initialMode); err != nil {
		return nil, err
	}
	if err := s.SetDirection(initialDirCW); err != nil {
		return nil, err
	}
	return s, nil
}

// Enable drives the enable line active (spec.md §4.D: active-low on
// common stepper driver breakouts, asserted by driving the pin low).
func (s *Stepper) Enable() error {
	if s.enabled {
		return nil
	}
	if err := s.pins.Enable.SetLow(); err != nil {
		return cncerr.Newf(cncerr.Hardware, "%s: enable: %v", s.Name, err)
	}
	time.Sleep(driverWakeDelay)
	s.enabled = true
	return nil
}

// Disable drives the enable line inactive, cutting holding current.
func (s *Stepper) Disable() error {
	if !s.enabled {
		return nil
	}
	if err := s.pins.Enable.SetHigh(); err != nil {
		return cncerr.Newf(cncerr.Hardware, "%s: disable: %v", s.Name, err)
	}
	time.Sleep(driverWakeDelay)
	s.enabled = false
	return nil
}

// Mode returns the currently configured microstep mode.
func (s *Stepper) Mode() int { return s.mode }

// SetMode applies a microstep mode using the driver's bit table
// (original_source/stepper.py's set_mode). A no-op if mode is already
// current, mirroring the source's "do not change mode if unchanged".
func (s *Stepper) SetMode(mode int) error {
	if s.mode == mode {
		return nil
	}
	bits, ok := s.desc.ModeBits(mode)
	if !ok {
		return cncerr.Newf(cncerr.InvalidParameters, "%s: mode not available: 1/%d", s.Name, mode)
	}
	if len(bits) != len(s.pins.Mode) {
		return cncerr.Newf(cncerr.InvalidParameters, "%s: driver %s expects %d mode pins, got %d", s.Name, s.desc.Name, len(bits), len(s.pins.Mode))
	}
	for i, bit := range bits {
		var err error
		if bit == 1 {
			err = s.pins.Mode[i].SetHigh()
		} else {
			err = s.pins.Mode[i].SetLow()
		}
		if err != nil {
			return cncerr.Newf(cncerr.Hardware, "%s: set mode pin %d: %v", s.Name, i, err)
		}
	}
	s.mode = mode
	return nil
}

// DirectionCW reports the currently configured rotation direction.
func (s *Stepper) DirectionCW() bool { return s.dirCW }

// SetDirection drives the direction line, honoring the axis's configured
// inversion (spec.md §4.D). A no-op if direction is already current.
// Blocks briefly after a real write to let the driver latch the new
// direction before the next STEP pulse.
func (s *Stepper) SetDirection(cw bool) error {
	if s.dirCW == cw {
		return nil
	}
	high := !cw
	if s.invertDir {
		high = !high
	}
	var err error
	if high {
		err = s.pins.Dir.SetHigh()
	} else {
		err = s.pins.Dir.SetLow()
	}
	if err != nil {
		return cncerr.Newf(cncerr.Hardware, "%s: set direction: %v", s.Name, err)
	}
	s.dirCW = cw
	time.Sleep(dirSettleDelay)
	return nil
}

// StepSequence drives one pulse per entry of seq in order, honoring
// spec.md §3's direction-0 "skip tick, preserve timing" semantics and
// spec.md §5's busy-wait-below-1ms / sleep-then-busy-wait-tail timing
// discipline. It returns as soon as cancel reports true, leaving the
// remainder of seq unexecuted (spec.md §4.E "cancellation aborts
// in-flight pulses without completing the sequence").
func (s *Stepper) StepSequence(seq planner.PulseSequence, cancel func() bool) error {
	for _, p := range seq {
		if cancel != nil && cancel() {
			return nil
		}
		if p.Dir == 0 {
			wait(p.Delay)
			continue
		}
		if err := s.SetDirection(p.Dir > 0); err != nil {
			return err
		}
		if err := s.pins.Step.SetHigh(); err != nil {
			return cncerr.Newf(cncerr.Hardware, "%s: step high: %v", s.Name, err)
		}
		wait(p.Delay)
		if err := s.pins.Step.SetLow(); err != nil {
			return cncerr.Newf(cncerr.Hardware, "%s: step low: %v", s.Name, err)
		}
		wait(p.Delay)
	}
	return nil
}

// wait implements the busy-wait-below-threshold / sleep-then-busy-wait
// discipline of spec.md §5: time.Sleep's scheduler granularity cannot be
// trusted for sub-millisecond delays, but spinning the CPU for a whole
// long delay wastes a core, so longer delays sleep for all but a short
// tail and busy-wait the rest.
func wait(delaySeconds float64) {
	d := time.Duration(delaySeconds * float64(time.Second))
	if d <= busyWaitThreshold {
		busyWait(d)
		return
	}
	time.Sleep(d - busyWaitTail)
	busyWait(busyWaitTail)
}

func busyWait(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
