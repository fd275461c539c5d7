//go:build linux

package hal

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPIOProvider drives real hardware pins through go-rpio, grounded on
// EdgxCloud-EdgeFlow/internal/hal/rpi.go's open/track/close pattern.
type RPIOProvider struct {
	mu   sync.Mutex
	pins map[int]rpio.Pin
}

// NewRPIOProvider opens the /dev/gpiomem (or /dev/mem) memory range used
// by go-rpio. Call Close to release it.
func NewRPIOProvider() (*RPIOProvider, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("hal: open gpio: %w", err)
	}
	return &RPIOProvider{pins: make(map[int]rpio.Pin)}, nil
}

func (p *RPIOProvider) Pin(number int) (Pin, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pin, ok := p.pins[number]
	if !ok {
		pin = rpio.Pin(number)
		pin.Output()
		pin.Low()
		p.pins[number] = pin
	}
	return rpioPin{pin: pin}, nil
}

// Close drives every opened pin low, reverts it to input, and releases
// the memory mapping, matching spec.md §5's "I/O capability must ensure
// that on any exit path ... pins are returned to a safe default."
func (p *RPIOProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pin := range p.pins {
		pin.Low()
		pin.Input()
	}
	return rpio.Close()
}

type rpioPin struct {
	pin rpio.Pin
}

func (p rpioPin) SetHigh() error {
	p.pin.High()
	return nil
}

func (p rpioPin) SetLow() error {
	p.pin.Low()
	return nil
}

func (p rpioPin) Read() (bool, error) {
	return p.pin.Read() == rpio.High, nil
}
