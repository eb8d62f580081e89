package ircode

import (
	"encoding/base64"
	"strings"

	"github.com/irwave/ircodec/internal/pulse"
)

// BroadlinkClock is the tick rate of the Broadlink wire format.
const BroadlinkClock = 30453

// BroadlinkCode is the binary wire format spoken by Broadlink blasters,
// carried as base64: a 0x26 header byte, a repeat count, a little-endian
// payload length and tick-encoded pulses padded to a multiple of 16 bytes.
// The carrier is not configurable and the repeat count travels in each
// frame's header, so it exposes no configurable parameters.
type BroadlinkCode struct {
	Base
	Data []string
}

// NewBroadlinkCode returns an empty BroadlinkCode.
func NewBroadlinkCode() *BroadlinkCode {
	return &BroadlinkCode{Base: DefaultBase()}
}

func (b *BroadlinkCode) Names() []string { return []string{"broadlink", "b64"} }

func (b *BroadlinkCode) Params() []Param { return nil }

func (b *BroadlinkCode) Clone(copyData bool) Format {
	clone := &BroadlinkCode{Base: b.Base}
	if copyData {
		clone.Data = append([]string(nil), b.Data...)
	}
	return clone
}

func (b *BroadlinkCode) SetStringData(data string) error {
	var packets []string
	for _, seg := range strings.Split(data, ";") {
		seg = strings.TrimSpace(seg)
		if _, err := base64.StdEncoding.DecodeString(seg); err != nil {
			return NewParseError("invalid base64 data: %q", seg)
		}
		packets = append(packets, seg)
	}
	b.Data = packets
	return nil
}

func (b *BroadlinkCode) SetStructData(data interface{}) error {
	var packets []string
	appendPacket := func(entry interface{}) error {
		switch p := entry.(type) {
		case string:
			if _, err := base64.StdEncoding.DecodeString(p); err != nil {
				return NewDataError("invalid base64 data: %q", p)
			}
			packets = append(packets, p)
		case []byte:
			packets = append(packets, base64.StdEncoding.EncodeToString(p))
		default:
			return NewDataError("unsupported broadlink packet %T", entry)
		}
		return nil
	}
	switch d := data.(type) {
	case string, []byte:
		if err := appendPacket(d); err != nil {
			return err
		}
	case []string:
		for _, p := range d {
			if err := appendPacket(p); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, p := range d {
			if err := appendPacket(p); err != nil {
				return err
			}
		}
	default:
		return NewDataError("unsupported broadlink data shape %T", data)
	}
	b.Data = packets
	return nil
}

func (b *BroadlinkCode) FormatStringData() string {
	return strings.Join(b.Data, ";")
}

func (b *BroadlinkCode) StructData() interface{} {
	return append([]string(nil), b.Data...)
}

func (b *BroadlinkCode) encodePacket(packet string) (int, []int, error) {
	data, err := base64.StdEncoding.DecodeString(packet)
	if err != nil {
		return 0, nil, NewEncodeError("invalid base64 data: %q", packet)
	}
	if len(data) < 4 {
		return 0, nil, NewEncodeError("packet is too short")
	}
	if data[0] != 0x26 {
		return 0, nil, NewEncodeError("packet header is not 0x26: 0x%02x", data[0])
	}

	count := int(data[1]) + 1
	length := int(data[2]) | int(data[3])<<8
	if length > len(data)-4 {
		return 0, nil, NewEncodeError("packet is too short")
	}
	payload := data[4 : 4+length]

	var ticks []int
	p := 0
	for p < length {
		v := int(payload[p])
		p++
		if v == 0 {
			if p+2 > length {
				return 0, nil, NewEncodeError("truncated long pulse")
			}
			v = int(payload[p])<<8 | int(payload[p+1])
			p += 2
		}
		ticks = append(ticks, v)
	}

	return count, pulse.ScalePulses(ticks, BroadlinkClock, 1000000), nil
}

func (b *BroadlinkCode) ToRaw(state map[string]int) (*RawCode, error) {
	return encodeRaw(&b.Base, len(b.Data), func(i int) (int, []int, error) {
		return b.encodePacket(b.Data[i])
	})
}

// ParseCode packs an arbitrary raw trace into one Broadlink frame. The whole
// code is flattened keeping the repeat count, which the frame header carries
// natively.
func (b *BroadlinkCode) ParseCode(code Format) error {
	raw, err := code.ToRaw(nil)
	if err != nil {
		return WrapDecodeError(err, "broadlink: cannot lower input")
	}
	flat := raw.Flatten(false)

	if flat.Count > 256 {
		return NewDecodeError("broadlink format only supports up to 256 repeats (got: %d)", flat.Count)
	}

	ticks := pulse.ScalePulses(flat.Data[0].Pulses, 1000000, BroadlinkClock)

	var payload []byte
	for _, t := range ticks {
		switch {
		case t < 1:
			return NewDecodeError("broadlink: pulse length < 1")
		case t > 0xffff:
			return NewDecodeError("broadlink: pulse length too long: %d", t)
		case t > 255:
			payload = append(payload, 0, byte(t>>8), byte(t&0xff))
		default:
			payload = append(payload, byte(t))
		}
	}
	if len(payload) > 0xffff {
		return NewDecodeError("broadlink: packet is too long: %d bytes", len(payload))
	}

	frame := append([]byte{0x26, byte(flat.Count - 1), byte(len(payload) & 0xff), byte(len(payload) >> 8)}, payload...)
	if pad := len(frame) % 16; pad != 0 {
		frame = append(frame, make([]byte, 16-pad)...)
	}

	b.Base = DefaultBase()
	b.Data = []string{base64.StdEncoding.EncodeToString(frame)}
	return nil
}
