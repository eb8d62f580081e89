package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irwave/ircodec"
	"github.com/irwave/ircodec/ircode"
)

func TestLoopbackLowersToRaw(t *testing.T) {
	code, err := ircodec.FromString("nec::12,34")
	require.NoError(t, err)

	dev := NewLoopback()
	require.NoError(t, dev.Transmit(code))

	got, err := dev.Receive()
	require.NoError(t, err)
	raw, ok := got.(*ircode.RawCode)
	require.True(t, ok)

	want, err := code.ToRaw(nil)
	require.NoError(t, err)
	assert.Equal(t, want.Flatten(false).Data, raw.Data)
}

func TestLoopbackOrdering(t *testing.T) {
	a, err := ircodec.FromString("raw::100,200")
	require.NoError(t, err)
	b, err := ircodec.FromString("raw::300,400")
	require.NoError(t, err)

	dev := NewLoopback()
	require.NoError(t, dev.Transmit(a))
	require.NoError(t, dev.Transmit(b))

	first, err := dev.Receive()
	require.NoError(t, err)
	second, err := dev.Receive()
	require.NoError(t, err)

	assert.Equal(t, []int{100, 200}, first.(*ircode.RawCode).Data[0].Pulses)
	assert.Equal(t, []int{300, 400}, second.(*ircode.RawCode).Data[0].Pulses)
}

func TestLoopbackEmpty(t *testing.T) {
	dev := NewLoopback()
	_, err := dev.Receive()
	assert.Error(t, err)
}

func TestFindUnknownDevice(t *testing.T) {
	_, err := Find("hyperblaster:whatever")
	assert.IsType(t, &ircode.ParseError{}, err)
}

func TestFindLoopback(t *testing.T) {
	dev, err := Find("loopback:")
	require.NoError(t, err)
	defer dev.Close()
	assert.IsType(t, &Loopback{}, dev)
}
