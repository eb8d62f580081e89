package device

import (
	"sync"

	"github.com/irwave/ircodec/ircode"
)

// Loopback is a hardware-free device: transmitted codes queue up, lowered to
// raw, and come back out of Receive in order. It backs tests and serves as
// the default device when no blaster is configured.
type Loopback struct {
	mu    sync.Mutex
	queue []*ircode.RawCode
}

// NewLoopback returns an empty loopback device.
func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) Transmit(code ircode.Format) error {
	raw, err := code.ToRaw(nil)
	if err != nil {
		return err
	}
	flat := raw.Flatten(false)
	l.mu.Lock()
	l.queue = append(l.queue, flat)
	l.mu.Unlock()
	return nil
}

func (l *Loopback) Receive() (ircode.Format, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, ircode.NewDecodeError("loopback: nothing queued")
	}
	code := l.queue[0]
	l.queue = l.queue[1:]
	return code, nil
}

func (l *Loopback) Close() error { return nil }
