package ircode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProntoDecodeText(t *testing.T) {
	p := NewProntoCode()
	require.NoError(t, p.SetStringData("0000 006D 0002 0000 0158 00AC 0015 0040"))

	// fc quantizes to CLOCK/base
	assert.Equal(t, 38048, p.FC)
	assert.InDelta(t, 38047.7, p.Carrier(), 0.1)

	raw, err := p.ToRaw(nil)
	require.NoError(t, err)
	require.Len(t, raw.Data, 1)
	pulses := raw.Data[0].Pulses
	require.Len(t, pulses, 4)
	// 0x158 units at 26.28us per unit
	assert.InDelta(t, 9041, pulses[0], 1)
	assert.InDelta(t, 4522, pulses[1], 1)
}

func TestProntoParseFromRaw(t *testing.T) {
	r := NewRawCode()
	require.NoError(t, r.SetStringData("9024,4512,563,1687"))

	p := NewProntoCode()
	require.NoError(t, p.ParseCode(r))
	require.Len(t, p.Data, 1)

	words := strings.Fields(p.Data[0])
	require.Len(t, words, 8)
	assert.Equal(t, "0000", words[0])
	assert.Equal(t, "006D", words[1]) // round(4147200/38000)
	assert.Equal(t, "0002", words[2])
	assert.Equal(t, "0000", words[3])
}

func TestProntoRoundTripWithinOneUnit(t *testing.T) {
	in := []int{9024, 4512, 563, 1687}
	r := NewRawCode()
	require.NoError(t, r.SetStructData(in))

	p := NewProntoCode()
	require.NoError(t, p.ParseCode(r))

	raw, err := p.ToRaw(nil)
	require.NoError(t, err)
	out := raw.Data[0].Pulses
	require.Len(t, out, len(in))
	// One carrier clock unit at 38kHz is about 26us.
	for i := range in {
		assert.InDelta(t, in[i], out[i], 27, "element %d", i)
	}
}

func TestProntoRejectsOddPulseCount(t *testing.T) {
	r := NewRawCode()
	r.Data = []RawPacket{{Pulses: []int{9024, 4512, 563}}}

	err := NewProntoCode().ParseCode(r)
	assert.IsType(t, &DecodeError{}, err)
}

func TestProntoBadHeader(t *testing.T) {
	p := NewProntoCode()
	err := p.SetStringData("0001 006D 0001 0000 0158 00AC")
	assert.IsType(t, &DataError{}, err)
}

func TestProntoMismatchedLength(t *testing.T) {
	p := NewProntoCode()
	err := p.SetStringData("0000 006D 0003 0000 0158 00AC")
	assert.IsType(t, &DataError{}, err)
}

func TestProntoStringRoundTrip(t *testing.T) {
	r := NewRawCode()
	require.NoError(t, r.SetStringData("9024,4512,563,1687"))

	p := NewProntoCode()
	require.NoError(t, p.ParseCode(r))

	s := ToString(p)
	p2 := NewProntoCode()
	require.NoError(t, FromString(p2, s[len("pronto:"):]))
	assert.Equal(t, p, p2)
}
