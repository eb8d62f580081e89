package ircode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/irwave/ircodec/internal/pulse"
)

// RC5Packet is one RC5 key: a 5-bit address and a 7-bit command (the
// extended RC5X scheme carries command bit 6 in the inverted second start
// bit).
type RC5Packet struct {
	Addr int
	Cmd  int
}

// RC5Code is the Manchester-encoded Philips RC5 format: 14-bit frames of
// start, field, toggle, address and command bits, separated by a long
// inter-frame pause.
type RC5Code struct {
	Base
	BitTime int

	Data []RC5Packet
}

// NewRC5Code returns an RC5Code with every parameter at its default.
func NewRC5Code() *RC5Code {
	c := &RC5Code{}
	_ = ResolveParamsFromAny(c.Params(), nil)
	return c
}

func (c *RC5Code) Names() []string { return []string{"rc5"} }

func (c *RC5Code) Params() []Param {
	params := c.Base.FCCountParams()
	return append(params,
		Param{Long: "packet_interval", Short: "ri", Get: func() int { return c.PacketInterval }, Set: func(v int) { c.PacketInterval = v }, Default: func() int { return 113788 }},
		Param{Long: "bit_time", Short: "tb", Get: func() int { return c.BitTime }, Set: func(v int) { c.BitTime = v }, Default: func() int { return 889 }},
	)
}

func (c *RC5Code) Clone(copyData bool) Format {
	clone := *c
	clone.Data = nil
	if copyData {
		clone.Data = append([]RC5Packet(nil), c.Data...)
	}
	return &clone
}

func validateRC5Packet(p RC5Packet) error {
	if p.Addr < 0 || p.Addr > 31 {
		return NewDataError("address %d not in [0..31]", p.Addr)
	}
	if p.Cmd < 0 || p.Cmd > 127 {
		return NewDataError("command %d not in [0..127]", p.Cmd)
	}
	return nil
}

func (c *RC5Code) SetStringData(data string) error {
	var packets []RC5Packet
	for _, seg := range strings.Split(data, ";") {
		parts := strings.Split(seg, ",")
		if len(parts) != 2 {
			return NewParseError("rc5 packet %q is not addr,cmd", seg)
		}
		addr, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 0, 64)
		if err != nil {
			return NewParseError("invalid rc5 address %q", parts[0])
		}
		cmd, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 0, 64)
		if err != nil {
			return NewParseError("invalid rc5 command %q", parts[1])
		}
		p := RC5Packet{Addr: int(addr), Cmd: int(cmd)}
		if err := validateRC5Packet(p); err != nil {
			return err
		}
		packets = append(packets, p)
	}
	c.Data = packets
	return nil
}

func (c *RC5Code) SetStructData(data interface{}) error {
	var packets []RC5Packet
	appendPacket := func(p RC5Packet) error {
		if err := validateRC5Packet(p); err != nil {
			return err
		}
		packets = append(packets, p)
		return nil
	}
	parseEntry := func(entry interface{}) error {
		switch e := entry.(type) {
		case RC5Packet:
			return appendPacket(e)
		case []interface{}:
			if len(e) != 2 {
				return NewDataError("rc5 packet %v is not addr,cmd", e)
			}
			addr, err1 := toInt(e[0])
			cmd, err2 := toInt(e[1])
			if err1 != nil || err2 != nil {
				return NewDataError("invalid rc5 packet %v", e)
			}
			return appendPacket(RC5Packet{Addr: addr, Cmd: cmd})
		default:
			m, ok := toAnyMap(entry)
			if !ok {
				return NewDataError("unsupported rc5 packet %v", entry)
			}
			if len(m) != 2 {
				return NewDataError("unsupported packet keys in %v (expected addr, cmd)", entry)
			}
			addrRaw, okA := m["addr"]
			cmdRaw, okC := m["cmd"]
			if !okA || !okC {
				return NewDataError("unsupported packet keys in %v (expected addr, cmd)", entry)
			}
			addr, err1 := toInt(addrRaw)
			cmd, err2 := toInt(cmdRaw)
			if err1 != nil || err2 != nil {
				return NewDataError("invalid rc5 packet %v", entry)
			}
			return appendPacket(RC5Packet{Addr: addr, Cmd: cmd})
		}
	}
	switch d := data.(type) {
	case []RC5Packet:
		for _, p := range d {
			if err := appendPacket(p); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, entry := range d {
			if err := parseEntry(entry); err != nil {
				return err
			}
		}
	case []map[string]int:
		for _, entry := range d {
			if err := parseEntry(entry); err != nil {
				return err
			}
		}
	default:
		return NewDataError("unsupported rc5 data shape %T", data)
	}
	c.Data = packets
	return nil
}

func (c *RC5Code) FormatStringData() string {
	segs := make([]string, len(c.Data))
	for i, p := range c.Data {
		segs[i] = fmt.Sprintf("%d,%d", p.Addr, p.Cmd)
	}
	return strings.Join(segs, ";")
}

func (c *RC5Code) StructData() interface{} {
	out := make([]map[string]int, len(c.Data))
	for i, p := range c.Data {
		out[i] = map[string]int{"addr": p.Addr, "cmd": p.Cmd}
	}
	return out
}

// encodePacket emits one 14-bit Manchester frame. The toggle bit persists
// across invocations through the caller-supplied state map, keyed per
// address/command pair.
func (c *RC5Code) encodePacket(p RC5Packet, state map[string]int) (int, []int, error) {
	toggle := 1
	key := fmt.Sprintf("rc5-toggle-%d-%d", p.Addr, p.Cmd)
	if state != nil {
		if v, ok := state[key]; ok {
			toggle = v
		}
	}
	toggle ^= 1

	field := 1
	if p.Cmd&0x40 != 0 {
		field = 0
	}
	bits := []int{field, toggle}
	bits = append(bits, pulse.ToBitsMSB(uint64(p.Addr), 5)...)
	bits = append(bits, pulse.ToBitsMSB(uint64(p.Cmd&0x3f), 6)...)

	// The implicit start bit leaves the line high for its second half; each
	// following bit either alternates (two fresh half-bit runs) or extends
	// the current run to a full bit time.
	pulses := []int{c.BitTime}
	last := 1
	for _, b := range bits {
		if b == last {
			pulses = append(pulses, c.BitTime, c.BitTime)
		} else {
			pulses[len(pulses)-1] += c.BitTime
			pulses = append(pulses, c.BitTime)
		}
		last = b
	}
	if last == 1 {
		pulses = append(pulses, c.BitTime)
	}

	if state != nil {
		state[key] = toggle
	}
	return 1, pulses, nil
}

func (c *RC5Code) ToRaw(state map[string]int) (*RawCode, error) {
	return encodeRaw(&c.Base, len(c.Data), func(i int) (int, []int, error) {
		return c.encodePacket(c.Data[i], state)
	})
}

type rc5Frame struct {
	toggle int
	addr   int
	cmd    int
}

// ParseCode recovers RC5 frames from a raw trace. RC5 has no framing beyond
// a long pause, so the frame split and the half-bit threshold are both
// guessed from the pulse statistics.
func (c *RC5Code) ParseCode(code Format) error {
	raw, err := code.ToRaw(nil)
	if err != nil {
		return WrapDecodeError(err, "rc5: cannot lower input")
	}
	flat := raw.Flatten(true)
	c.FC = flat.FC
	pulses := flat.Data[0].Pulses

	if len(pulses) == 0 {
		return NewDecodeError("rc5: no data")
	}

	smp := newSampler()

	maxMark := 0
	for i := 0; i < len(pulses); i += 2 {
		if pulses[i] > maxMark {
			maxMark = pulses[i]
		}
	}
	// A space longer than four of the longest marks means a new frame.
	pause := maxMark * 4

	var frames []rc5Frame
	p := 0
	lastFrameLength := 0
	for p < len(pulses)-1 {
		frameStart := p
		for p < len(pulses)-1 {
			space := pulses[p+1]
			p += 2
			if space > pause {
				break
			}
		}

		times := append([]int(nil), pulses[frameStart:p-1]...)
		sort.Ints(times)

		if len(times) < 13 {
			return NewDecodeError("rc5: frame too short")
		}
		if len(times) > 29 {
			return NewDecodeError("rc5: frame too long")
		}

		// Ignore the shortest and longest pulse, in case of noise.
		minTime := times[1]
		maxTime := times[len(times)-2]

		// If there isn't enough spread between the pulse times the frame may
		// be all-alternating or all-equal bits; bias the threshold by frame
		// length instead.
		th := float64(minTime+maxTime) / 2
		if float64(maxTime)/float64(minTime) < 1.3 {
			if len(times) <= 15 {
				th *= 0.75
			} else if len(times) >= 25 {
				th *= 1.5
			}
		}

		bits := []int{1}
		skip := false
		for _, t := range pulses[frameStart : p-1] {
			if float64(t) > th {
				if skip {
					return NewDecodeError("rc5: invalid manchester encoding")
				}
				c.BitTime = smp.add("bit_time", float64(t)/2)
				bits = append(bits, bits[len(bits)-1]^1)
			} else {
				c.BitTime = smp.add("bit_time", float64(t))
				if skip {
					skip = false
				} else {
					bits = append(bits, bits[len(bits)-1])
					skip = true
				}
			}
		}

		// Allow some garbage at the end.
		if len(bits) < 14 || len(bits) > 16 {
			return NewDecodeError("rc5: frame length invalid: %d bits", len(bits))
		}
		bits = bits[:14]

		frame := rc5Frame{
			toggle: bits[2],
			addr:   int(pulse.FromBitsMSB(bits[3:8])),
			cmd:    int(pulse.FromBitsMSB(append([]int{1 ^ bits[1]}, bits[8:14]...))),
		}
		frames = append(frames, frame)

		if lastFrameLength > 0 {
			c.PacketInterval = smp.add("packet_interval", float64(lastFrameLength))
		}
		lastFrameLength = pulseSum(pulses[frameStart:p])
	}

	if len(frames) == 0 {
		return NewDecodeError("rc5: no frames")
	}

	// A run of identical frames is one held key.
	identical := true
	for _, f := range frames[1:] {
		if f != frames[0] {
			identical = false
			break
		}
	}
	if identical {
		c.Count = len(frames)
		frames = frames[:1]
	}

	c.Data = make([]RC5Packet, len(frames))
	for i, f := range frames {
		c.Data[i] = RC5Packet{Addr: f.addr, Cmd: f.cmd}
	}
	return nil
}
