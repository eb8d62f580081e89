package ircode

// Param describes one named, integer-valued parameter of a code format.
// Every parameter in this toolkit is numeric (carrier frequency, repeat
// counts, timing constants, enumerated mode selectors), so a single
// descriptor shape serves every format: Get/Set close over the concrete
// format's own fields, and Default is a closure that may read any
// parameter already resolved earlier in the same Params() call. This is
// how "preamble_time_low defaults to preamble_time_high/2" et al. are
// realized without a separate expression language.
type Param struct {
	Long    string
	Short   string
	Get     func() int
	Set     func(int)
	Default func() int
	// Check, when set, rejects out-of-range values supplied by the caller.
	Check func(int) error
}

// SimplifyParams snaps every parameter in params whose current value lies
// within the tolerance band around its default back to that default.
// Parameters whose default is zero are left untouched, since a zero default
// has no meaningful relative band.
func SimplifyParams(params []Param, tolerance float64) {
	for _, p := range params {
		def := p.Default()
		if def == 0 {
			continue
		}
		val := float64(p.Get())
		lo := float64(def) * (1 - tolerance)
		hi := float64(def) * (1 + tolerance)
		if val >= lo && val <= hi {
			p.Set(def)
		}
	}
}

// FindParam looks up a parameter by its long or short name.
func FindParam(params []Param, name string, short bool) (Param, bool) {
	for _, p := range params {
		if (short && p.Short == name) || (!short && p.Long == name) {
			return p, true
		}
	}
	return Param{}, false
}

// Base holds the three parameters every format shares: carrier frequency,
// repeat count, and the minimum inter-repeat gap. Concrete formats embed it
// and splice its descriptors into their own Params() implementation,
// dropping or overriding whichever ones they redefine (NEC and RC5 both
// redefine packet_interval with a format-specific default; Broadlink and
// Pronto expose none of them as configurable parameters at all).
type Base struct {
	FC             int
	Count          int
	PacketInterval int
}

// DefaultBase returns a Base populated with the shared defaults (fc=38000,
// count=1, packet_interval=0).
func DefaultBase() Base {
	return Base{FC: 38000, Count: 1, PacketInterval: 0}
}

// Params returns the three shared descriptors in fc, count, packet_interval
// order.
func (b *Base) Params() []Param {
	return []Param{
		{Long: "fc", Short: "f", Get: func() int { return b.FC }, Set: func(v int) { b.FC = v }, Default: func() int { return 38000 }},
		{Long: "count", Short: "c", Get: func() int { return b.Count }, Set: func(v int) { b.Count = v }, Default: func() int { return 1 }},
		{Long: "packet_interval", Short: "pi", Get: func() int { return b.PacketInterval }, Set: func(v int) { b.PacketInterval = v }, Default: func() int { return 0 }},
	}
}

// FCCountParams returns only the fc and count descriptors, for formats that
// redefine packet_interval themselves.
func (b *Base) FCCountParams() []Param {
	p := b.Params()
	return p[:2]
}
