package ircode

import (
	"fmt"
	"strconv"
	"strings"
)

// RawPacket is one burst of alternating mark/space durations in microseconds,
// repeated back-to-back Count times as part of a single emission.
type RawPacket struct {
	Pulses []int
	Count  int
}

func (p RawPacket) count() int {
	if p.Count < 1 {
		return 1
	}
	return p.Count
}

// RawCode is the canonical timing representation every other format lowers
// to: an ordered list of raw packets plus carrier, repeat count and minimum
// inter-repeat interval.
type RawCode struct {
	Base
	Data []RawPacket
}

// NewRawCode returns a RawCode with default parameters and no packets.
func NewRawCode() *RawCode {
	return &RawCode{Base: DefaultBase()}
}

func (r *RawCode) Names() []string { return []string{"raw", "rawpm"} }

func (r *RawCode) Params() []Param { return r.Base.Params() }

func (r *RawCode) Clone(copyData bool) Format {
	clone := &RawCode{Base: r.Base}
	if copyData {
		clone.Data = clonePackets(r.Data)
	}
	return clone
}

func clonePackets(packets []RawPacket) []RawPacket {
	out := make([]RawPacket, len(packets))
	for i, p := range packets {
		out[i] = RawPacket{Pulses: append([]int(nil), p.Pulses...), Count: p.Count}
	}
	return out
}

// ToRaw on a raw code is the identity.
func (r *RawCode) ToRaw(state map[string]int) (*RawCode, error) { return r, nil }

// ParseCode lowers any other code to its raw form and adopts it.
func (r *RawCode) ParseCode(code Format) error {
	raw, err := code.ToRaw(nil)
	if err != nil {
		return err
	}
	r.Base = raw.Base
	r.Data = clonePackets(raw.Data)
	return nil
}

// Flatten returns a semantically equivalent raw code with exactly one packet
// and a canonical trailing gap. With noRepeats the code-level repeat count is
// expanded into the pulse list as well.
func (r *RawCode) Flatten(noRepeats bool) *RawCode {
	var flat *RawCode
	if len(r.Data) == 1 {
		flat = r.Clone(true).(*RawCode)
		if flat.Data[0].Count > 1 {
			flat.Count *= flat.Data[0].Count
			flat.Data[0].Count = 0
		}
	} else {
		flat = r.Clone(false).(*RawCode)
		var pulses []int
		for _, p := range r.Data {
			for i := 0; i < p.count(); i++ {
				pulses = append(pulses, p.Pulses...)
			}
		}
		flat.Data = []RawPacket{{Pulses: pulses}}
	}

	pulses := flat.Data[0].Pulses
	if length := pulseSum(pulses); flat.Count > 1 && length < flat.PacketInterval && len(pulses) > 0 {
		pulses[len(pulses)-1] += flat.PacketInterval - length
	}

	if noRepeats && flat.Count > 1 {
		repeated := make([]int, 0, len(pulses)*flat.Count)
		for i := 0; i < flat.Count; i++ {
			repeated = append(repeated, pulses...)
		}
		flat.Data[0].Pulses = repeated
		flat.Count = 1
	}

	flat.PacketInterval = 0
	return flat
}

func pulseSum(pulses []int) int {
	total := 0
	for _, p := range pulses {
		total += p
	}
	return total
}

var rawBrackets = strings.NewReplacer("[", " ", "]", " ", ",", " ")

// parsePulseList parses one packet segment of the raw text grammar:
// "[n/]p1,p2,...", commas or whitespace separated, optionally bracketed. A
// trailing odd pulse count receives an implicit 1000us final space.
func parsePulseList(s string) (RawPacket, error) {
	s = strings.TrimSpace(s)
	packet := RawPacket{}
	if idx := strings.Index(s, "/"); idx >= 0 {
		count, err := strconv.Atoi(strings.TrimSpace(s[:idx]))
		if err != nil || count < 1 {
			return packet, NewParseError("invalid packet count prefix %q", s[:idx])
		}
		packet.Count = count
		s = s[idx+1:]
	}
	fields := strings.Fields(rawBrackets.Replace(s))
	if len(fields) == 0 {
		return packet, NewParseError("empty pulse list")
	}
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return packet, NewParseError("invalid pulse %q", f)
		}
		if n < 0 {
			return packet, NewDataError("negative pulse %d", n)
		}
		packet.Pulses = append(packet.Pulses, n)
	}
	if len(packet.Pulses)%2 != 0 {
		packet.Pulses = append(packet.Pulses, 1000)
	}
	return packet, nil
}

func (r *RawCode) SetStringData(data string) error {
	var packets []RawPacket
	for _, seg := range strings.Split(data, ";") {
		p, err := parsePulseList(seg)
		if err != nil {
			return err
		}
		packets = append(packets, p)
	}
	r.Data = packets
	return nil
}

func (r *RawCode) SetStructData(data interface{}) error {
	packets, err := parseRawStructData(data)
	if err != nil {
		return err
	}
	for _, p := range packets {
		if len(p.Pulses)%2 != 0 {
			return NewDataError("pulse data length not a multiple of 2")
		}
	}
	r.Data = packets
	return nil
}

func parseRawStructData(data interface{}) ([]RawPacket, error) {
	switch d := data.(type) {
	case []RawPacket:
		return clonePackets(d), nil
	case []int:
		return []RawPacket{{Pulses: append([]int(nil), d...)}}, nil
	case []map[string]interface{}:
		var packets []RawPacket
		for _, entry := range d {
			p, err := parseRawStructPacket(entry)
			if err != nil {
				return nil, err
			}
			packets = append(packets, p)
		}
		return packets, nil
	case []interface{}:
		if len(d) == 0 {
			return nil, NewDataError("packet with no pulses")
		}
		// A flat list of numbers is a single packet.
		if isNumber(d[0]) {
			pulses, err := toIntSlice(d)
			if err != nil {
				return nil, err
			}
			return []RawPacket{{Pulses: pulses}}, nil
		}
		var packets []RawPacket
		for _, entry := range d {
			p, err := parseRawStructPacket(entry)
			if err != nil {
				return nil, err
			}
			packets = append(packets, p)
		}
		return packets, nil
	default:
		return nil, NewDataError("unsupported raw data shape %T", data)
	}
}

func parseRawStructPacket(entry interface{}) (RawPacket, error) {
	var packet RawPacket
	m, ok := toAnyMap(entry)
	if !ok {
		return packet, NewDataError("unsupported raw packet %v", entry)
	}
	for key, v := range m {
		switch key {
		case "pulses":
			list, ok := v.([]interface{})
			if !ok {
				ints, ok := v.([]int)
				if !ok {
					return packet, NewDataError("unsupported pulses value %v", v)
				}
				packet.Pulses = append([]int(nil), ints...)
				continue
			}
			pulses, err := toIntSlice(list)
			if err != nil {
				return packet, err
			}
			packet.Pulses = pulses
		case "count":
			n, err := toInt(v)
			if err != nil {
				return packet, NewDataError("invalid packet count %v", v)
			}
			packet.Count = n
		default:
			return packet, NewDataError("unsupported key: %q", key)
		}
	}
	if packet.Pulses == nil {
		return packet, NewDataError("packet with no pulses: %v", entry)
	}
	return packet, nil
}

func toAnyMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[string]int:
		out := make(map[string]interface{}, len(m))
		for k, n := range m {
			out[k] = n
		}
		return out, true
	default:
		return nil, false
	}
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	}
	return false
}

func toIntSlice(list []interface{}) ([]int, error) {
	out := make([]int, len(list))
	for i, v := range list {
		n, err := toInt(v)
		if err != nil {
			return nil, NewDataError("invalid pulse value %v", v)
		}
		if n < 0 {
			return nil, NewDataError("negative pulse %d", n)
		}
		out[i] = n
	}
	return out, nil
}

func (r *RawCode) FormatStringData() string {
	segs := make([]string, len(r.Data))
	for i, p := range r.Data {
		parts := make([]string, len(p.Pulses))
		for j, v := range p.Pulses {
			parts[j] = strconv.Itoa(v)
		}
		s := strings.Join(parts, ",")
		if p.count() > 1 {
			s = fmt.Sprintf("%d/%s", p.Count, s)
		}
		segs[i] = s
	}
	return strings.Join(segs, ";")
}

func (r *RawCode) StructData() interface{} {
	out := make([]map[string]interface{}, len(r.Data))
	for i, p := range r.Data {
		m := map[string]interface{}{"pulses": append([]int(nil), p.Pulses...)}
		if p.count() > 1 {
			m["count"] = p.Count
		}
		out[i] = m
	}
	return out
}

// encodeRaw is the shared lowering loop: one raw packet per payload packet,
// with the final space of each padded up to packet_interval when the code as
// a whole repeats or carries multiple packets.
func encodeRaw(b *Base, n int, encode func(i int) (int, []int, error)) (*RawCode, error) {
	raw := &RawCode{Base: Base{FC: b.FC, Count: b.Count, PacketInterval: 0}}
	for i := 0; i < n; i++ {
		count, pulses, err := encode(i)
		if err != nil {
			return nil, err
		}
		if (b.Count > 1 || n > 1) && len(pulses) > 0 {
			if total := pulseSum(pulses); total < b.PacketInterval {
				pulses[len(pulses)-1] += b.PacketInterval - total
			}
		}
		raw.Data = append(raw.Data, RawPacket{Pulses: pulses, Count: count})
	}
	return raw, nil
}
