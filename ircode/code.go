package ircode

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Format is the contract every named IR code type implements: NAMES, the
// parameter descriptor list, the lowering to a raw pulse train, and the
// string/struct payload shape. Payload storage itself is concrete per type
// (NEC keeps [][]byte, RC5 keeps a slice of address/command pairs, and so
// on) rather than part of this interface, matching the "dynamic payload
// shape" design note: the framework is parametric on payload type by being
// an interface boundary around it, not by carrying the payload itself.
type Format interface {
	// Names returns the accepted lowercase type tags; the first is
	// canonical and used on output.
	Names() []string

	// Params enumerates this instance's parameter descriptors, in the
	// order later defaults may depend on earlier ones.
	Params() []Param

	// ToRaw lowers this code to its raw pulse-train form. state is an
	// optional caller-owned scratch map (used by RC5 to persist a toggle
	// bit); it may be nil.
	ToRaw(state map[string]int) (*RawCode, error)

	// SetStringData parses a semicolon-joined payload string, appending
	// one packet per segment, replacing any existing payload.
	SetStringData(data string) error

	// SetStructData parses a native struct-form payload value (its shape
	// is format-specific), replacing any existing payload.
	SetStructData(data interface{}) error

	// FormatStringData renders the current payload back to its
	// semicolon-joined string form.
	FormatStringData() string

	// StructData renders the current payload to its native struct-form
	// shape.
	StructData() interface{}

	// Clone returns a deep copy of the payload (when copyData is true)
	// and a shallow copy of the parameters.
	Clone(copyData bool) Format
}

// Decoder is implemented by formats that can recover a typed code from an
// arbitrary other code's raw pulse train.
type Decoder interface {
	Format
	// ParseCode populates the receiver from code, failing with a
	// DecodeError if the structure cannot be recognized. It never
	// partially commits: either the receiver ends up fully populated, or
	// an error is returned and the receiver must be discarded by the
	// caller.
	ParseCode(code Format) error
}

// ResolveParamsFromStrings applies values (short-name keyed, string
// values) to params, defaulting any parameter not present in values, in
// Params() order so later defaults may observe earlier fields that this
// same call already resolved. Keys left over in values after every
// parameter has been considered are reported as an unknown-option
// DataError.
func ResolveParamsFromStrings(params []Param, values map[string]string) error {
	m := make(map[string]interface{}, len(values))
	for k, v := range values {
		m[k] = v
	}
	return resolveParams(params, m, true, true)
}

// ResolveParamsFromAny applies values (long-name keyed, native Go values -
// int, int64, float64, or string) to params the same way
// ResolveParamsFromStrings does.
func ResolveParamsFromAny(params []Param, values map[string]interface{}) error {
	return resolveParams(params, values, false, false)
}

func resolveParams(params []Param, values map[string]interface{}, short, fromString bool) error {
	used := map[string]bool{}
	for _, p := range params {
		key := p.Long
		if short {
			key = p.Short
		}
		if raw, ok := values[key]; ok {
			n, err := toInt(raw)
			if err != nil {
				if fromString {
					return NewParseError("invalid value %v for %s: %v", raw, key, err)
				}
				return NewDataError("invalid value %v for %s: %v", raw, key, err)
			}
			if p.Check != nil {
				if err := p.Check(n); err != nil {
					return NewDataError("invalid value %d for %s: %v", n, key, err)
				}
			}
			p.Set(n)
			used[key] = true
		} else {
			p.Set(p.Default())
		}
	}
	var unknown []string
	for k := range values {
		if !used[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return NewDataError("unknown options: %v", unknown)
	}
	return nil
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		s := strings.TrimSpace(t)
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			base = 16
			s = s[2:]
		}
		n, err := strconv.ParseInt(s, base, 64)
		if err != nil {
			return 0, err
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

// ParseOptionString splits a "k=v,k=v" option string into a map; every
// entry is stored, later duplicates of a key overriding earlier ones.
func ParseOptionString(options string) (map[string]string, error) {
	values := map[string]string{}
	if options == "" {
		return values, nil
	}
	for _, opt := range strings.Split(options, ",") {
		kv := strings.SplitN(opt, "=", 2)
		if len(kv) != 2 {
			return nil, NewParseError("could not parse option %q", opt)
		}
		values[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return values, nil
}

// FromString populates f (a freshly constructed, default-valued instance)
// from the "[params:]data" form of the shared text grammar (the type tag
// itself has already been stripped by the caller).
func FromString(f Format, code string) error {
	var optionsStr, data string
	if idx := strings.Index(code, ":"); idx >= 0 {
		optionsStr, data = code[:idx], code[idx+1:]
	} else {
		data = code
	}
	values, err := ParseOptionString(optionsStr)
	if err != nil {
		return err
	}
	if err := ResolveParamsFromStrings(f.Params(), values); err != nil {
		return err
	}
	if data == "" {
		return nil
	}
	return f.SetStringData(data)
}

// ToString renders f using the shared "type[:params]:data" text grammar.
func ToString(f Format) string {
	name := f.Names()[0]
	var kvs []string
	for _, p := range f.Params() {
		if v := p.Get(); v != p.Default() {
			kvs = append(kvs, fmt.Sprintf("%s=%d", p.Short, v))
		}
	}
	data := f.FormatStringData()
	if len(kvs) == 0 {
		return fmt.Sprintf("%s::%s", name, data)
	}
	return fmt.Sprintf("%s:%s:%s", name, strings.Join(kvs, ","), data)
}

// FromStruct populates f (a freshly constructed, default-valued instance)
// from the struct form: a map with a "format" tag, optional long-name
// parameter keys, and a "data" key.
func FromStruct(f Format, s map[string]interface{}) error {
	fmtVal, ok := s["format"]
	if !ok {
		return NewDataError("no format defined")
	}
	name, _ := fmtVal.(string)
	found := false
	for _, n := range f.Names() {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return NewDataError("format mismatch: %q expected one of %v", name, f.Names())
	}
	data, ok := s["data"]
	if !ok {
		return NewDataError("no data in struct")
	}
	rest := make(map[string]interface{}, len(s))
	for k, v := range s {
		if k == "format" || k == "data" {
			continue
		}
		rest[k] = v
	}
	if err := ResolveParamsFromAny(f.Params(), rest); err != nil {
		return err
	}
	return f.SetStructData(data)
}

// ToStruct renders f to its struct form. When full is false (the common
// case) only parameters differing from their default are included.
func ToStruct(f Format, full bool) map[string]interface{} {
	s := map[string]interface{}{"format": f.Names()[0]}
	for _, p := range f.Params() {
		v := p.Get()
		if full || v != p.Default() {
			s[p.Long] = v
		}
	}
	s["data"] = f.StructData()
	return s
}

// FromCode builds a Format of newEmpty's concrete type from code: if code
// is already that concrete type, it is cloned; otherwise newEmpty's
// ParseCode (it must implement Decoder) is used to recover it.
func FromCode(newEmpty func() Format, code Format) (Format, error) {
	empty := newEmpty()
	if reflect.TypeOf(code) == reflect.TypeOf(empty) {
		return code.Clone(true), nil
	}
	dec, ok := empty.(Decoder)
	if !ok {
		return nil, NewDecodeError("format %s does not support decoding", empty.Names()[0])
	}
	if err := dec.ParseCode(code); err != nil {
		return nil, err
	}
	return dec, nil
}
