// Package driver describes the microstep mode tables of the stepper
// driver families the machine may be wired to. A descriptor is a pure
// mapping from microstep divisor to mode-select bits; it carries no
// GPIO state of its own (see internal/stepper for that).
//
// Grounded on original_source/stepper.py's per-driver self.modes tables
// and original_source/DRV8711.py (register layout only; SPI access is
// out of scope per spec.md's "Hardware I/O driver ... specified only
// at their interface").
package driver

import "fmt"

// Descriptor is a tagged variant: each driver family owns its own mode
// table and bit width. DRV8711 uses four mode-select bits; the rest use
// three, per spec.md §3.
type Descriptor struct {
	Name  string
	Bits  int // width of the mode-select bit vector
	Modes map[int][]int
}

// ModeBits returns the mode-select bits for the given microstep divisor.
// The returned slice has length Bits. ok is false if mode is not present
// in the descriptor's table.
func (d Descriptor) ModeBits(mode int) (bits []int, ok bool) {
	b, ok := d.Modes[mode]
	if !ok {
		return nil, false
	}
	return b, true
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%d-bit)", d.Name, d.Bits)
}

// DRV8825 has a 3-bit mode-select vector (M2, M1, M0).
var DRV8825 = Descriptor{
	Name: "DRV8825",
	Bits: 3,
	Modes: map[int][]int{
		1:  {0, 0, 0},
		2:  {0, 0, 1},
		4:  {0, 1, 0},
		8:  {0, 1, 1},
		16: {1, 0, 0},
		32: {1, 1, 0},
	},
}

// DRV8711 has a 4-bit mode-select vector programmed over its SPI control
// register in the original hardware; the pulse-timing core only needs
// the logical mode table (spec.md §3: "one of which may have four mode
// bits rather than three"), not the SPI register protocol itself.
var DRV8711 = Descriptor{
	Name: "DRV8711",
	Bits: 4,
	Modes: map[int][]int{
		1:   {0, 0, 0, 0},
		2:   {0, 0, 0, 1},
		4:   {0, 0, 1, 0},
		8:   {0, 0, 1, 1},
		16:  {0, 1, 0, 0},
		32:  {0, 1, 0, 1},
		64:  {0, 1, 1, 0},
		128: {0, 1, 1, 1},
		256: {1, 0, 0, 0},
	},
}

// TB67S249FTG has a 3-bit mode-select vector with an alternate bit
// encoding from DRV8825 for the same divisors.
var TB67S249FTG = Descriptor{
	Name: "TB67S249FTG",
	Bits: 3,
	Modes: map[int][]int{
		1:  {1, 0, 0},
		2:  {0, 1, 0}, // non-circular half step (high torque)
		4:  {1, 1, 0},
		8:  {1, 0, 1},
		16: {0, 1, 1},
		32: {1, 1, 1},
	},
}

// ByName resolves a configured driver family name to its descriptor.
func ByName(name string) (Descriptor, error) {
	switch name {
	case "DRV8825":
		return DRV8825, nil
	case "DRV8711":
		return DRV8711, nil
	case "TB67S249FTG":
		return TB67S249FTG, nil
	default:
		return Descriptor{}, fmt.Errorf("driver: unknown driver family %q", name)
	}
}
