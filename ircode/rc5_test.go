package ircode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rc5FromString(t *testing.T, code string) *RC5Code {
	t.Helper()
	c := NewRC5Code()
	require.NoError(t, FromString(c, code))
	return c
}

func TestRC5EncodeStandard(t *testing.T) {
	c := rc5FromString(t, "5,35")

	raw, err := c.ToRaw(nil)
	require.NoError(t, err)
	require.Len(t, raw.Data, 1)
	pulses := raw.Data[0].Pulses

	// 14 Manchester bits, 28 half-bit intervals of signal
	assert.Equal(t, 28*889, pulseSum(pulses))
	assert.Equal(t, 889, pulses[0])
	assert.Equal(t, 0, len(pulses)%2)
	for _, p := range pulses {
		assert.Contains(t, []int{889, 1778}, p)
	}
}

func TestRC5ToggleStatePersists(t *testing.T) {
	c := rc5FromString(t, "5,35")
	state := map[string]int{}

	first, err := c.ToRaw(state)
	require.NoError(t, err)
	assert.Equal(t, 0, state["rc5-toggle-5-35"])

	second, err := c.ToRaw(state)
	require.NoError(t, err)
	assert.Equal(t, 1, state["rc5-toggle-5-35"])

	// Toggle flip changes the frame shape but not its duration.
	assert.NotEqual(t, first.Data[0].Pulses, second.Data[0].Pulses)
	assert.Equal(t, pulseSum(first.Data[0].Pulses), pulseSum(second.Data[0].Pulses))
}

func TestRC5DecodeStandard(t *testing.T) {
	raw, err := rc5FromString(t, "5,35").ToRaw(nil)
	require.NoError(t, err)

	c := NewRC5Code()
	require.NoError(t, c.ParseCode(raw))
	assert.Equal(t, []RC5Packet{{Addr: 5, Cmd: 35}}, c.Data)
	assert.Equal(t, 889, c.BitTime)
	assert.Equal(t, 1, c.Count)
}

func TestRC5DecodeExtendedCommand(t *testing.T) {
	// Command bit 6 travels in the inverted second start bit.
	raw, err := rc5FromString(t, "17,100").ToRaw(nil)
	require.NoError(t, err)

	c := NewRC5Code()
	require.NoError(t, c.ParseCode(raw))
	assert.Equal(t, []RC5Packet{{Addr: 17, Cmd: 100}}, c.Data)
}

func TestRC5IdenticalFramesCollapse(t *testing.T) {
	src := rc5FromString(t, "c=2:5,35")
	raw, err := src.ToRaw(nil)
	require.NoError(t, err)

	c := NewRC5Code()
	require.NoError(t, c.ParseCode(raw))
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, []RC5Packet{{Addr: 5, Cmd: 35}}, c.Data)
	assert.Equal(t, 113788, c.PacketInterval)
}

func TestRC5DistinctFramesKept(t *testing.T) {
	src := rc5FromString(t, "5,35;5,36")
	raw, err := src.ToRaw(nil)
	require.NoError(t, err)

	c := NewRC5Code()
	require.NoError(t, c.ParseCode(raw))
	assert.Equal(t, 1, c.Count)
	assert.Equal(t, []RC5Packet{{Addr: 5, Cmd: 35}, {Addr: 5, Cmd: 36}}, c.Data)
}

func TestRC5RangeValidation(t *testing.T) {
	c := NewRC5Code()
	assert.IsType(t, &DataError{}, c.SetStringData("32,1"))
	assert.IsType(t, &DataError{}, c.SetStringData("1,128"))
	assert.IsType(t, &ParseError{}, c.SetStringData("1"))
}

func TestRC5HexInput(t *testing.T) {
	c := NewRC5Code()
	require.NoError(t, c.SetStringData("0x1f,0x23"))
	assert.Equal(t, []RC5Packet{{Addr: 31, Cmd: 35}}, c.Data)
}

func TestRC5DecodeRejectsShortFrame(t *testing.T) {
	r := NewRawCode()
	require.NoError(t, r.SetStringData("889,889,889,889"))

	err := NewRC5Code().ParseCode(r)
	assert.Error(t, err)
}

func TestRC5StructRoundTrip(t *testing.T) {
	c := rc5FromString(t, "tb=900:5,35;1,2")

	c2 := NewRC5Code()
	require.NoError(t, FromStruct(c2, ToStruct(c, false)))
	assert.Equal(t, c, c2)
}
