// Package device is the hardware boundary: anything that can emit or
// capture a raw pulse train. Codes are always lowered to their raw form
// before they reach a device; captured codes come back raw and undecoded,
// ready for identify.TryDecode.
package device

import (
	"strings"

	"github.com/irwave/ircodec/ircode"
)

// Device is an IR blaster/receiver endpoint.
type Device interface {
	// Transmit lowers code to raw and emits it.
	Transmit(code ircode.Format) error
	// Receive blocks until one code is captured and returns it raw.
	Receive() (ircode.Format, error)
	Close() error
}

// Factory constructs a device from the argument part of a "type:args" spec.
type Factory struct {
	Names []string
	New   func(args string) (Device, error)
}

// registry is immutable after startup; lookup is linear.
var registry = []Factory{
	{Names: []string{"serial"}, New: func(args string) (Device, error) { return OpenSerial(args) }},
	{Names: []string{"loopback"}, New: func(args string) (Device, error) { return NewLoopback(), nil }},
}

// Find opens a device from a "type:args" connection spec.
func Find(spec string) (Device, error) {
	name, args := spec, ""
	if idx := strings.Index(spec, ":"); idx >= 0 {
		name, args = spec[:idx], spec[idx+1:]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range registry {
		for _, n := range f.Names {
			if n == name {
				return f.New(args)
			}
		}
	}
	return nil, ircode.NewParseError("device type %q not supported", name)
}
