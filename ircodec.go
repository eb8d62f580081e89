// Package ircodec ties the IR code formats together: a fixed format
// registry, the shared text/struct parsers, and the generic input dispatch.
package ircodec

import (
	"strings"

	"github.com/irwave/ircodec/ircode"
)

// formats is the fixed decode order; earlier entries win ties in
// auto-identification, except that raw ranks behind any structured format
// with the same score.
var formats = []func() ircode.Format{
	func() ircode.Format { return ircode.NewRawCode() },
	func() ircode.Format { return ircode.NewRC5Code() },
	func() ircode.Format { return ircode.NewNECCode() },
	func() ircode.Format { return ircode.NewBroadlinkCode() },
	func() ircode.Format { return ircode.NewProntoCode() },
}

// Formats returns the format constructors in registry order.
func Formats() []func() ircode.Format {
	return append([]func() ircode.Format(nil), formats...)
}

// FindFormat resolves a type tag to its format constructor.
func FindFormat(name string) (func() ircode.Format, error) {
	for _, newFormat := range formats {
		for _, n := range newFormat().Names() {
			if n == name {
				return newFormat, nil
			}
		}
	}
	return nil, ircode.NewParseError("format type %q not supported", name)
}

// FromString parses the "type[:params]:data" text grammar.
func FromString(s string) (ircode.Format, error) {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return nil, ircode.NewParseError("not an IR code: %q", s)
	}
	newFormat, err := FindFormat(strings.ToLower(strings.TrimSpace(s[:idx])))
	if err != nil {
		return nil, err
	}
	f := newFormat()
	if err := ircode.FromString(f, s[idx+1:]); err != nil {
		return nil, err
	}
	return f, nil
}

// FromStruct parses the struct form: a map with a "format" tag, long-name
// parameter keys, and the format's native "data" payload.
func FromStruct(s map[string]interface{}) (ircode.Format, error) {
	name, ok := s["format"].(string)
	if !ok {
		return nil, ircode.NewDataError("no format defined")
	}
	newFormat, err := FindFormat(name)
	if err != nil {
		return nil, err
	}
	f := newFormat()
	if err := ircode.FromStruct(f, s); err != nil {
		return nil, err
	}
	return f, nil
}

// FromTemplateAndData builds a code from a "type[:params]" template string
// and a native payload value.
func FromTemplateAndData(template string, data interface{}) (ircode.Format, error) {
	name, params := template, ""
	if idx := strings.Index(template, ":"); idx >= 0 {
		name, params = template[:idx], template[idx+1:]
	}
	return FromNamedTemplateAndData(name, params, data)
}

// FromNamedTemplateAndData builds a code from a format name, a "k=v,k=v"
// parameter string and a native payload value.
func FromNamedTemplateAndData(name, params string, data interface{}) (ircode.Format, error) {
	newFormat, err := FindFormat(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return nil, err
	}
	f := newFormat()
	values, err := ircode.ParseOptionString(params)
	if err != nil {
		return nil, err
	}
	if err := ircode.ResolveParamsFromStrings(f.Params(), values); err != nil {
		return nil, err
	}
	if data != nil {
		if err := f.SetStructData(data); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// TemplateData pairs a "type[:params]" template with a native payload, the
// 2-tuple shape of the generic entry point.
type TemplateData struct {
	Template string
	Data     interface{}
}

// NamedTemplateData is the 3-tuple shape: format name, parameter string and
// native payload.
type NamedTemplateData struct {
	Format string
	Params string
	Data   interface{}
}

// FromGeneric accepts any of the supported input shapes: a text code string,
// a template/data pair, a named template triple, a struct map, or an already
// constructed code (returned unchanged).
func FromGeneric(v interface{}) (ircode.Format, error) {
	switch d := v.(type) {
	case string:
		return FromString(d)
	case TemplateData:
		return FromTemplateAndData(d.Template, d.Data)
	case NamedTemplateData:
		return FromNamedTemplateAndData(d.Format, d.Params, d.Data)
	case map[string]interface{}:
		return FromStruct(d)
	case ircode.Format:
		return d, nil
	default:
		return nil, ircode.NewParseError("unknown code structure: %v", v)
	}
}
