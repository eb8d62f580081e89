package ircode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/irwave/ircodec/internal/pulse"
)

// NECCode is a pulse-distance code of the NEC family: a long preamble, then
// LSB-first bytes where each bit is a fixed mark followed by a short (0) or
// long (1) space, a stop mark, and optional repeat frames. Bytes may carry
// their bitwise complement for integrity, a trailing checksum, and an
// address/data split.
type NECCode struct {
	Base
	PulseTime        int
	SpaceTime0       int
	SpaceTime1       int
	PreambleTimeHigh int
	PreambleTimeLow  int
	RepeatTimeHigh   int
	RepeatTimeLow    int
	ComplementMode   int
	AddressBytes     int
	PacketGap        int
	RepeatInterval   int
	BurstCount       int
	BurstTimeHigh    int
	BurstTimeLow     int
	BurstGap         int
	ChecksumType     int

	Data [][]byte
}

// Complement modes: which bytes are followed by their bitwise inverse.
const (
	ComplementNone    = 0
	ComplementData    = 1
	ComplementAddress = 2
	ComplementBoth    = 3
)

// Checksum types appended after the data region.
const (
	ChecksumNone = 0
	ChecksumSum  = 1
	ChecksumXor  = 2
)

// NewNECCode returns an NECCode with every parameter at its default.
func NewNECCode() *NECCode {
	n := &NECCode{}
	_ = ResolveParamsFromAny(n.Params(), nil)
	return n
}

func (n *NECCode) Names() []string { return []string{"nec"} }

func (n *NECCode) Params() []Param {
	rangeCheck := func(lo, hi int) func(int) error {
		return func(v int) error {
			if v < lo || v > hi {
				return fmt.Errorf("not in [%d..%d]", lo, hi)
			}
			return nil
		}
	}
	params := n.Base.FCCountParams()
	return append(params,
		Param{Long: "pulse_time", Short: "tp", Get: func() int { return n.PulseTime }, Set: func(v int) { n.PulseTime = v }, Default: func() int { return 563 }},
		Param{Long: "space_time_0", Short: "t0", Get: func() int { return n.SpaceTime0 }, Set: func(v int) { n.SpaceTime0 = v }, Default: func() int { return n.PulseTime }},
		Param{Long: "space_time_1", Short: "t1", Get: func() int { return n.SpaceTime1 }, Set: func(v int) { n.SpaceTime1 = v }, Default: func() int { return n.PulseTime * 3 }},
		Param{Long: "preamble_time_high", Short: "ph", Get: func() int { return n.PreambleTimeHigh }, Set: func(v int) { n.PreambleTimeHigh = v }, Default: func() int { return n.PulseTime * 16 }},
		Param{Long: "preamble_time_low", Short: "pl", Get: func() int { return n.PreambleTimeLow }, Set: func(v int) { n.PreambleTimeLow = v }, Default: func() int { return n.PreambleTimeHigh / 2 }},
		Param{Long: "repeat_time_high", Short: "rh", Get: func() int { return n.RepeatTimeHigh }, Set: func(v int) { n.RepeatTimeHigh = v }, Default: func() int { return n.PreambleTimeHigh }},
		Param{Long: "repeat_time_low", Short: "rl", Get: func() int { return n.RepeatTimeLow }, Set: func(v int) { n.RepeatTimeLow = v }, Default: func() int { return n.PreambleTimeLow / 2 }},
		Param{Long: "complement_mode", Short: "cm", Get: func() int { return n.ComplementMode }, Set: func(v int) { n.ComplementMode = v }, Default: func() int { return ComplementNone }, Check: rangeCheck(0, 3)},
		Param{Long: "address_bytes", Short: "a", Get: func() int { return n.AddressBytes }, Set: func(v int) { n.AddressBytes = v }, Default: func() int { return [4]int{-1, 2, 2, 1}[n.ComplementMode] }, Check: func(v int) error {
			if v < -1 {
				return fmt.Errorf("not in [-1..]")
			}
			return nil
		}},
		Param{Long: "packet_gap", Short: "pg", Get: func() int { return n.PacketGap }, Set: func(v int) { n.PacketGap = v }, Default: func() int { return 0 }},
		Param{Long: "packet_interval", Short: "pi", Get: func() int { return n.PacketInterval }, Set: func(v int) { n.PacketInterval = v }, Default: func() int {
			if n.PacketGap == 0 {
				return n.PulseTime * 192
			}
			return 0
		}},
		Param{Long: "repeat_interval", Short: "ri", Get: func() int { return n.RepeatInterval }, Set: func(v int) { n.RepeatInterval = v }, Default: func() int { return n.PacketInterval }},
		Param{Long: "burst_count", Short: "b", Get: func() int { return n.BurstCount }, Set: func(v int) { n.BurstCount = v }, Default: func() int { return 0 }},
		Param{Long: "burst_time_high", Short: "bh", Get: func() int { return n.BurstTimeHigh }, Set: func(v int) { n.BurstTimeHigh = v }, Default: func() int { return n.PulseTime }},
		Param{Long: "burst_time_low", Short: "bl", Get: func() int { return n.BurstTimeLow }, Set: func(v int) { n.BurstTimeLow = v }, Default: func() int { return n.PulseTime }},
		Param{Long: "burst_gap", Short: "bg", Get: func() int { return n.BurstGap }, Set: func(v int) { n.BurstGap = v }, Default: func() int { return n.PulseTime * 60 }},
		Param{Long: "checksum_type", Short: "ct", Get: func() int { return n.ChecksumType }, Set: func(v int) { n.ChecksumType = v }, Default: func() int { return ChecksumNone }, Check: rangeCheck(0, 2)},
	)
}

func (n *NECCode) Clone(copyData bool) Format {
	clone := *n
	clone.Data = nil
	if copyData {
		clone.Data = make([][]byte, len(n.Data))
		for i, p := range n.Data {
			clone.Data[i] = append([]byte(nil), p...)
		}
	}
	return &clone
}

func (n *NECCode) SetStringData(data string) error {
	var packets [][]byte
	for _, seg := range strings.Split(data, ";") {
		var packet []byte
		for _, b := range strings.Split(seg, ",") {
			v, err := strconv.ParseUint(strings.TrimSpace(b), 16, 64)
			if err != nil {
				return NewParseError("invalid hex byte %q", b)
			}
			if v > 255 {
				return NewDataError("invalid data byte: %#x", v)
			}
			packet = append(packet, byte(v))
		}
		packets = append(packets, packet)
	}
	n.Data = packets
	return nil
}

func (n *NECCode) SetStructData(data interface{}) error {
	var packets [][]byte
	appendPacket := func(entry interface{}) error {
		switch p := entry.(type) {
		case []byte:
			packets = append(packets, append([]byte(nil), p...))
		case []int:
			packet := make([]byte, len(p))
			for i, v := range p {
				if v < 0 || v > 255 {
					return NewDataError("invalid data byte: %d", v)
				}
				packet[i] = byte(v)
			}
			packets = append(packets, packet)
		case []interface{}:
			packet := make([]byte, len(p))
			for i, raw := range p {
				v, err := toInt(raw)
				if err != nil || v < 0 || v > 255 {
					return NewDataError("invalid data byte: %v", raw)
				}
				packet[i] = byte(v)
			}
			packets = append(packets, packet)
		default:
			return NewDataError("unsupported nec packet %v", entry)
		}
		return nil
	}
	list, ok := data.([]interface{})
	if !ok {
		switch d := data.(type) {
		case [][]byte:
			for _, p := range d {
				if err := appendPacket(p); err != nil {
					return err
				}
			}
			n.Data = packets
			return nil
		case [][]int:
			for _, p := range d {
				if err := appendPacket(p); err != nil {
					return err
				}
			}
			n.Data = packets
			return nil
		default:
			return NewDataError("unsupported nec data shape %T", data)
		}
	}
	for _, entry := range list {
		if err := appendPacket(entry); err != nil {
			return err
		}
	}
	n.Data = packets
	return nil
}

func (n *NECCode) FormatStringData() string {
	segs := make([]string, len(n.Data))
	for i, p := range n.Data {
		parts := make([]string, len(p))
		for j, b := range p {
			parts[j] = fmt.Sprintf("%02x", b)
		}
		segs[i] = strings.Join(parts, ",")
	}
	return strings.Join(segs, ";")
}

func (n *NECCode) StructData() interface{} {
	out := make([][]int, len(n.Data))
	for i, p := range n.Data {
		packet := make([]int, len(p))
		for j, b := range p {
			packet[j] = int(b)
		}
		out[i] = packet
	}
	return out
}

// wireBytes expands one payload packet into the bytes actually transmitted:
// checksum appended to the data region, then complements inserted per mode.
func (n *NECCode) wireBytes(packet []byte) ([]byte, error) {
	addr, data := []byte{}, packet
	if n.AddressBytes >= 0 {
		if n.AddressBytes > len(packet) {
			return nil, NewEncodeError("packet shorter than %d address bytes", n.AddressBytes)
		}
		addr, data = packet[:n.AddressBytes], packet[n.AddressBytes:]
	}

	switch n.ChecksumType {
	case ChecksumSum:
		var sum byte
		for _, b := range data {
			sum += b
		}
		data = append(append([]byte(nil), data...), sum)
	case ChecksumXor:
		var x byte
		for _, b := range data {
			x ^= b
		}
		data = append(append([]byte(nil), data...), x)
	}

	var wire []byte
	for _, b := range addr {
		wire = append(wire, b)
		if n.ComplementMode == ComplementAddress || n.ComplementMode == ComplementBoth {
			wire = append(wire, b^0xff)
		}
	}
	for _, b := range data {
		wire = append(wire, b)
		if n.ComplementMode == ComplementData || n.ComplementMode == ComplementBoth {
			wire = append(wire, b^0xff)
		}
	}
	return wire, nil
}

func (n *NECCode) encodePacket(packet []byte) (int, []int, error) {
	wire, err := n.wireBytes(packet)
	if err != nil {
		return 0, nil, err
	}

	pulses := []int{n.PreambleTimeHigh, n.PreambleTimeLow}
	for _, b := range wire {
		for _, bit := range pulse.ToBitsLSB(uint64(b), 8) {
			pulses = append(pulses, n.PulseTime)
			if bit != 0 {
				pulses = append(pulses, n.SpaceTime1)
			} else {
				pulses = append(pulses, n.SpaceTime0)
			}
		}
	}
	pulses = append(pulses, n.PulseTime)
	pulses = append(pulses, maxInt(n.PulseTime, n.PacketGap))
	return 1, pulses, nil
}

func (n *NECCode) ToRaw(state map[string]int) (*RawCode, error) {
	raw, err := encodeRaw(&n.Base, len(n.Data), func(i int) (int, []int, error) {
		return n.encodePacket(n.Data[i])
	})
	if err != nil {
		return nil, err
	}
	raw.PacketInterval = 0

	if n.BurstCount > 0 {
		burst := make([]int, 0, n.BurstCount*2)
		for i := 0; i < n.BurstCount; i++ {
			burst = append(burst, n.BurstTimeHigh, n.BurstTimeLow)
		}
		burst[len(burst)-1] = n.BurstGap
		raw.Data = append([]RawPacket{{Count: 1, Pulses: burst}}, raw.Data...)
	}

	if n.Count > 1 {
		gap := maxInt(n.PulseTime, n.RepeatInterval-n.RepeatTimeHigh-n.RepeatTimeLow-n.PulseTime)
		raw.Data = append(raw.Data, RawPacket{
			Count:  n.Count - 1,
			Pulses: []int{n.RepeatTimeHigh, n.RepeatTimeLow, n.PulseTime, gap},
		})
		raw.Count = 1
	}
	return raw, nil
}

// ParseCode recovers NEC structure from an arbitrary raw trace: optional
// leading burst, preamble and bit timings by running-mean sampling, repeat
// frames, then the complement scheme, address split and checksum from the
// decoded bytes.
func (n *NECCode) ParseCode(code Format) error {
	raw, err := code.ToRaw(nil)
	if err != nil {
		return WrapDecodeError(err, "nec: cannot lower input")
	}
	flat := raw.Flatten(true)
	n.FC = flat.FC
	pulses := flat.Data[0].Pulses

	smp := newSampler()
	var packets [][]byte
	p := 0
	repeats := 0

	// Leading steady burst: four near-equal pulses that are too uniform to
	// be a preamble.
	if len(pulses) >= 4 {
		bmin := minInt(pulses[1], minInt(pulses[2], pulses[3]))
		bmax := pulses[0]
		bavg := 0.0
		for _, v := range pulses[:4] {
			if v > bmax {
				bmax = v
			}
			bavg += float64(v)
		}
		bavg /= 4
		if float64(pulses[0]) < bavg*1.5 &&
			absFloat(float64(bmin)-bavg)/bavg < 0.3 &&
			(float64(bmax)-bavg)/bavg < 0.3 {
			for p < len(pulses)-1 {
				bh, bl := pulses[p], pulses[p+1]
				if float64(bh) > 2*bavg {
					n.BurstGap = smp.add("burst_gap", float64(pulses[p-1]))
					break
				}
				n.BurstTimeHigh = smp.add("burst_time_high", float64(bh))
				n.BurstCount++
				p += 2
				if float64(bl) > 2*bavg {
					n.BurstGap = smp.add("burst_gap", float64(bl))
					break
				}
				n.BurstTimeLow = smp.add("burst_time_low", float64(bl))
			}
		}
	}

	if len(pulses) <= p {
		return NewDecodeError("nec: no data")
	}

	lastPacketLength := 0
	for p < len(pulses)-1 {
		packetStart := p
		hh, hl := pulses[p], pulses[p+1]
		p += 2

		if p >= len(pulses) {
			// runt end pulse
			if len(packets) == 0 {
				return NewDecodeError("nec: no data")
			}
			break
		}

		if len(packets) > 0 && repeats == 0 {
			n.PacketGap = smp.add("packet_gap", float64(pulses[p-3]))
		}

		var bits []int
		for p < len(pulses)-1 {
			mark, space := pulses[p], pulses[p+1]
			if (len(bits) > 0 || len(packets) > 0) && mark > n.PulseTime*2 {
				break
			}
			p += 2
			n.PulseTime = smp.add("pulse_time", float64(mark))
			if space < n.PulseTime*2 {
				bits = append(bits, 0)
				n.SpaceTime0 = smp.add("space_time_0", float64(space))
			} else if space < n.PulseTime*6 {
				bits = append(bits, 1)
				n.SpaceTime1 = smp.add("space_time_1", float64(space))
			} else {
				bits = append(bits, 0) // end bit
				break
			}
		}

		if len(bits)%8 != 1 {
			return NewDecodeError("nec: bit count not an even number of bytes")
		}

		if len(bits) > 1 {
			n.PreambleTimeHigh = smp.add("preamble_time_high", float64(hh))
			n.PreambleTimeLow = smp.add("preamble_time_low", float64(hl))
			if repeats > 0 {
				return NewDecodeError("nec: data packet after a repeat packet")
			}
			packet := make([]byte, 0, (len(bits)-1)/8)
			for i := 0; i+8 <= len(bits)-1; i += 8 {
				packet = append(packet, byte(pulse.FromBitsLSB(bits[i:i+8])))
			}
			packets = append(packets, packet)
			if lastPacketLength > 0 {
				n.PacketInterval = smp.add("packet_interval", float64(lastPacketLength))
			}
		} else {
			n.RepeatTimeHigh = smp.add("repeat_time_high", float64(hh))
			n.RepeatTimeLow = smp.add("repeat_time_low", float64(hl))
			if len(packets) == 0 {
				return NewDecodeError("nec: repeat packet with no data packet")
			}
			if repeats > 0 {
				n.RepeatInterval = smp.add("repeat_interval", float64(lastPacketLength))
			} else {
				n.PacketInterval = smp.add("packet_interval", float64(lastPacketLength))
			}
			repeats++
		}

		lastPacketLength = pulseSum(pulses[packetStart:p])
	}

	if len(packets) == 0 {
		return NewDecodeError("nec: no data")
	}

	// Packet spacing can be specified with either an interval or a gap.
	// Keep whichever set of samples has the lower variance; with only two
	// packets, go with the gap.
	if smp.seen("packet_interval") && smp.seen("packet_gap") {
		if smp.count("packet_interval") > 1 && smp.count("packet_gap") > 1 {
			if smp.variance("packet_interval") > smp.variance("packet_gap") {
				smp.drop("packet_interval")
			} else {
				smp.drop("packet_gap")
			}
		} else {
			smp.drop("packet_interval")
		}
	}

	if !smp.seen("packet_gap") {
		n.PacketGap = 0
	}
	if !smp.seen("packet_interval") {
		if n.PacketGap == 0 {
			n.PacketInterval = n.PulseTime * 192
		} else {
			n.PacketInterval = 0
		}
	}
	if !smp.seen("repeat_interval") {
		n.RepeatInterval = n.PacketInterval
	}
	if !smp.seen("repeat_time_high") {
		n.RepeatTimeHigh = n.PreambleTimeHigh
	}
	if !smp.seen("repeat_time_low") {
		n.RepeatTimeLow = n.PreambleTimeLow / 2
	}
	if !smp.seen("burst_time_high") {
		n.BurstTimeHigh = n.PulseTime
	}
	if !smp.seen("burst_time_low") {
		n.BurstTimeLow = n.PulseTime
	}
	if !smp.seen("burst_gap") {
		n.BurstGap = n.PulseTime * 60
	}

	n.ComplementMode, n.AddressBytes, packets = recoverStructure(packets)
	n.ChecksumType, packets = recoverChecksum(packets, n.AddressBytes)

	n.Data = packets
	n.Count = repeats + 1
	return nil
}

// recoverStructure classifies the complement scheme from the decoded wire
// bytes and strips the complement bytes from the payload.
func recoverStructure(packets [][]byte) (int, int, [][]byte) {
	hcMin, hnMax := int(^uint(0)>>1), 0
	full := true
	for _, packet := range packets {
		hc := headComplements(packet)
		sc := tailComplements(packet)
		hn := len(packet) - 2*sc
		if hc < hcMin {
			hcMin = hc
		}
		if hn > hnMax {
			hnMax = hn
		}
		if 2*hc != len(packet) {
			full = false
		}
	}

	mode, ab := ComplementNone, -1
	switch {
	case full:
		mode = ComplementBoth
		ab = clampInt(2*hcMin-1, 0, 2)
	case hcMin > 1:
		mode = ComplementAddress
		ab = hcMin
	case hnMax > 1:
		mode = ComplementData
		ab = hnMax
	}

	if mode == ComplementNone {
		return mode, ab, packets
	}

	stripped := make([][]byte, len(packets))
	for i, packet := range packets {
		payload, ok := stripComplements(packet, mode, ab)
		if !ok {
			return ComplementNone, -1, packets
		}
		stripped[i] = payload
	}

	// Every packet must still contain the address region plus some data for
	// the address/data split to mean anything.
	if mode == ComplementData || mode == ComplementAddress {
		for _, payload := range stripped {
			if len(payload) <= ab {
				return ComplementNone, -1, packets
			}
		}
	}

	return mode, ab, stripped
}

func headComplements(packet []byte) int {
	count := 0
	for i := 0; 2*i+1 < len(packet); i++ {
		if packet[2*i+1] != packet[2*i]^0xff {
			break
		}
		count++
	}
	return count
}

func tailComplements(packet []byte) int {
	count := 0
	for i := len(packet); i >= 2; i -= 2 {
		if packet[i-1] != packet[i-2]^0xff {
			break
		}
		count++
	}
	return count
}

func stripComplements(packet []byte, mode, ab int) ([]byte, bool) {
	switch mode {
	case ComplementBoth:
		payload := make([]byte, 0, len(packet)/2)
		for i := 0; i < len(packet); i += 2 {
			payload = append(payload, packet[i])
		}
		return payload, true
	case ComplementAddress:
		if len(packet) < 2*ab {
			return nil, false
		}
		payload := make([]byte, 0, len(packet)-ab)
		for i := 0; i < 2*ab; i += 2 {
			payload = append(payload, packet[i])
		}
		payload = append(payload, packet[2*ab:]...)
		return payload, true
	case ComplementData:
		if len(packet) < ab || (len(packet)-ab)%2 != 0 {
			return nil, false
		}
		payload := append([]byte(nil), packet[:ab]...)
		for i := ab; i < len(packet); i += 2 {
			payload = append(payload, packet[i])
		}
		return payload, true
	}
	return packet, true
}

// recoverChecksum checks whether every packet's last data byte is the sum or
// the xor of the data region before it, and strips it when so.
func recoverChecksum(packets [][]byte, addressBytes int) (int, [][]byte) {
	ab := addressBytes
	if ab < 0 {
		ab = 0
	}
	matches := func(kind int) bool {
		for _, packet := range packets {
			data := packet[minInt(ab, len(packet)):]
			if len(data) < 2 {
				return false
			}
			var acc byte
			for _, b := range data[:len(data)-1] {
				if kind == ChecksumSum {
					acc += b
				} else {
					acc ^= b
				}
			}
			if acc != data[len(data)-1] {
				return false
			}
		}
		return true
	}

	kind := ChecksumNone
	if matches(ChecksumSum) {
		kind = ChecksumSum
	} else if matches(ChecksumXor) {
		kind = ChecksumXor
	}
	if kind == ChecksumNone {
		return kind, packets
	}
	stripped := make([][]byte, len(packets))
	for i, packet := range packets {
		stripped[i] = append([]byte(nil), packet[:len(packet)-1]...)
	}
	return kind, stripped
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
