package device

import (
	"bufio"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/irwave/ircodec"
	"github.com/irwave/ircodec/internal/logger"
	"github.com/irwave/ircodec/ircode"
)

// Serial talks to a USB/TTL IR blaster that speaks the raw text grammar
// line by line: each transmitted code is written as one "raw:..." line, and
// each captured code arrives as one line of either the same grammar or a
// bare comma-separated pulse list.
type Serial struct {
	port   serial.Port
	reader *bufio.Reader

	// The underlying port is not safe for concurrent use.
	mu sync.Mutex
}

// OpenSerial opens a blaster from an "port[:baud]" argument string, e.g.
// "/dev/ttyUSB0:115200".
func OpenSerial(args string) (*Serial, error) {
	port := args
	baud := 115200
	if idx := strings.LastIndex(args, ":"); idx >= 0 {
		port = args[:idx]
		b, err := strconv.Atoi(args[idx+1:])
		if err != nil || b <= 0 {
			return nil, ircode.NewParseError("invalid baud rate %q", args[idx+1:])
		}
		baud = b
	}
	if port == "" {
		return nil, ircode.NewParseError("no serial port given")
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, ircode.WrapDataError(err, "failed to open serial port %s", port)
	}
	logger.WithDevice("serial", port).Info("serial blaster opened", zap.Int("baud", baud))
	return &Serial{port: p, reader: bufio.NewReader(p)}, nil
}

func (s *Serial) Transmit(code ircode.Format) error {
	// Always lower, even when the input is already raw, so the device only
	// ever sees the flattened wire form.
	raw, err := code.ToRaw(nil)
	if err != nil {
		return err
	}
	line := ircode.ToString(raw.Flatten(false)) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.port.Write([]byte(line)); err != nil {
		return ircode.WrapDataError(err, "failed to write to serial port")
	}
	return nil
}

func (s *Serial) Receive() (ircode.Format, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.port.SetReadTimeout(60 * time.Second); err != nil {
		return nil, ircode.WrapDataError(err, "failed to arm read timeout")
	}

	line, err := s.reader.ReadString('\n')
	if err != nil {
		return nil, ircode.WrapDataError(err, "failed to read from serial port")
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ircode.NewDecodeError("empty capture")
	}

	var code ircode.Format
	if line[0] >= '0' && line[0] <= '9' {
		// Bare pulse list from simple capture firmware.
		raw := ircode.NewRawCode()
		if err := raw.SetStringData(line); err != nil {
			return nil, err
		}
		code = raw
	} else {
		code, err = ircodec.FromString(line)
		if err != nil {
			return nil, err
		}
	}

	raw, err := code.ToRaw(nil)
	if err != nil {
		return nil, err
	}
	flat := raw.Flatten(false)
	if len(flat.Data[0].Pulses) > 0 {
		// The first mark usually reads short on capture hardware.
		flat.Data[0].Pulses[0] += 128
	}

	capture := uuid.New().String()
	logger.WithCapture(capture).Debug("captured raw code",
		zap.Int("pulses", len(flat.Data[0].Pulses)), zap.Int("fc", flat.FC))
	return flat, nil
}

func (s *Serial) Close() error {
	if s.port != nil {
		return s.port.Close()
	}
	return nil
}
