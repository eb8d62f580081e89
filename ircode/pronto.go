package ircode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/irwave/ircodec/internal/pulse"
)

// ProntoClock is the reference clock of the Pronto CCF format. The official
// documentation claims 4.1455 MHz; the original hardware almost certainly
// divided a 16.5888 MHz UART crystal by four, which is 4.1472 MHz.
const ProntoClock = 4147200

// ProntoCode is the Pronto CCF ASCII format: whitespace-separated 4-digit
// hex words holding a zero header, the carrier divider, the one-shot and
// repeat pair counts, and the pulse pairs in carrier clock units. The
// carrier is a property of the packet itself, so no parameters are exposed.
type ProntoCode struct {
	Base
	// The carrier quantized by the base divider; Base.FC holds it rounded.
	fcExact float64

	Data []string
}

// NewProntoCode returns an empty ProntoCode.
func NewProntoCode() *ProntoCode {
	return &ProntoCode{Base: DefaultBase()}
}

func (c *ProntoCode) Names() []string { return []string{"pronto"} }

func (c *ProntoCode) Params() []Param { return nil }

func (c *ProntoCode) Clone(copyData bool) Format {
	clone := &ProntoCode{Base: c.Base, fcExact: c.fcExact}
	if copyData {
		clone.Data = append([]string(nil), c.Data...)
	}
	return clone
}

// Carrier returns the exact (unrounded) carrier frequency in Hz.
func (c *ProntoCode) Carrier() float64 { return c.fcExact }

func prontoWords(packet string) ([]int, error) {
	fields := strings.Fields(packet)
	words := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 64)
		if err != nil || v > 0xffff {
			return nil, NewEncodeError("invalid pronto word %q", f)
		}
		words[i] = int(v)
	}
	return words, nil
}

func (c *ProntoCode) setData(packets []string) error {
	for _, p := range packets {
		if _, _, err := prontoDecode(p); err != nil {
			return NewDataError("invalid pronto packet %q: %v", p, err)
		}
	}
	c.Data = packets
	if len(packets) > 0 {
		words, _ := prontoWords(packets[0])
		c.fcExact = float64(ProntoClock) / float64(words[1])
		c.FC = int(math.Round(c.fcExact))
	}
	return nil
}

func (c *ProntoCode) SetStringData(data string) error {
	var packets []string
	for _, seg := range strings.Split(data, ";") {
		packets = append(packets, strings.TrimSpace(seg))
	}
	return c.setData(packets)
}

func (c *ProntoCode) SetStructData(data interface{}) error {
	switch d := data.(type) {
	case string:
		return c.setData([]string{d})
	case []string:
		return c.setData(append([]string(nil), d...))
	case []interface{}:
		packets := make([]string, len(d))
		for i, v := range d {
			s, ok := v.(string)
			if !ok {
				return NewDataError("unsupported pronto packet %T", v)
			}
			packets[i] = s
		}
		return c.setData(packets)
	default:
		return NewDataError("unsupported pronto data shape %T", data)
	}
}

func (c *ProntoCode) FormatStringData() string {
	return strings.Join(c.Data, ";")
}

func (c *ProntoCode) StructData() interface{} {
	return append([]string(nil), c.Data...)
}

// prontoDecode parses one packet into its repeat count and one-shot pulses
// in microseconds.
func prontoDecode(packet string) (int, []int, error) {
	words, err := prontoWords(packet)
	if err != nil {
		return 0, nil, err
	}
	if len(words) < 4 {
		return 0, nil, NewEncodeError("packet is too short")
	}
	if words[0] != 0 {
		return 0, nil, NewEncodeError("packet header is not 0: 0x%02x", words[0])
	}
	base := words[1]
	if base == 0 {
		return 0, nil, NewEncodeError("zero carrier base")
	}
	length := words[2]
	repeatLength := words[3]
	if 2*length+2*repeatLength+4 != len(words) {
		return 0, nil, NewEncodeError("mismatched packet length")
	}

	pulses := append([]int(nil), words[4:4+length*2]...)
	// One carrier clock unit is base ticks of the reference clock.
	return 1, pulse.ScalePulses(pulses, ProntoClock, 1000000*base), nil
}

func (c *ProntoCode) encodePacket(packet string) (int, []int, error) {
	return prontoDecode(packet)
}

func (c *ProntoCode) ToRaw(state map[string]int) (*RawCode, error) {
	return encodeRaw(&c.Base, len(c.Data), func(i int) (int, []int, error) {
		return c.encodePacket(c.Data[i])
	})
}

// ParseCode renders an arbitrary raw trace as one Pronto packet, quantizing
// the carrier to the nearest reachable base divider. The repeat region is
// left empty.
func (c *ProntoCode) ParseCode(code Format) error {
	raw, err := code.ToRaw(nil)
	if err != nil {
		return WrapDecodeError(err, "pronto: cannot lower input")
	}
	if raw.FC <= 0 {
		return NewDecodeError("pronto: no carrier frequency")
	}
	base := int(math.Round(float64(ProntoClock) / float64(raw.FC)))
	if base < 1 || base > 0xffff {
		return NewDecodeError("pronto: carrier out of range")
	}
	c.fcExact = float64(ProntoClock) / float64(base)

	flat := raw.Flatten(true)
	pulses := pulse.ScalePulses(flat.Data[0].Pulses, 1000000*base, ProntoClock)

	if len(pulses)%2 != 0 {
		return NewDecodeError("pronto: odd pulse count")
	}
	if len(pulses) > 0xffff*2 {
		return NewDecodeError("pronto: packet is too long: %d pulses", len(pulses)/2)
	}

	words := []int{0, base, len(pulses) / 2, 0}
	for _, p := range pulses {
		if p < 1 {
			return NewDecodeError("pronto: pulse length < 1")
		}
		if p > 0xffff {
			return NewDecodeError("pronto: pulse length too long: %d", p)
		}
		words = append(words, p)
	}

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("%04X", w)
	}
	c.Base = DefaultBase()
	c.FC = int(math.Round(c.fcExact))
	c.Data = []string{strings.Join(parts, " ")}
	return nil
}
