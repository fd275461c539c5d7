//go:build !linux

package hal

import "fmt"

// RPIOProvider is unavailable off Linux (go-rpio mmaps /dev/gpiomem,
// which only exists on Linux); NewRPIOProvider fails loudly instead of
// silently no-opping so a development host never mistakes this stub for
// working hardware access. Use MockProvider (the CLI's --debug path) on
// non-Linux hosts, matching EdgxCloud-EdgeFlow's replace-with-stub
// pattern but resolved at build-tag level instead of a go.mod replace
// directive, so the Linux build still gets the real driver.
type RPIOProvider struct{}

func NewRPIOProvider() (*RPIOProvider, error) {
	return nil, fmt.Errorf("hal: RPIOProvider requires linux (use --debug)")
}

func (p *RPIOProvider) Pin(number int) (Pin, error) {
	return nil, fmt.Errorf("hal: RPIOProvider requires linux (use --debug)")
}

func (p *RPIOProvider) Close() error { return nil }
