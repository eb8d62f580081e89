package ircode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionStringKeepsEveryOption(t *testing.T) {
	values, err := ParseOptionString("tp=550,c=2,cm=3")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tp": "550", "c": "2", "cm": "3"}, values)
}

func TestParseOptionStringMalformed(t *testing.T) {
	_, err := ParseOptionString("tp")
	assert.IsType(t, &ParseError{}, err)
}

func TestResolveParamsUnknownOption(t *testing.T) {
	n := NewNECCode()
	err := ResolveParamsFromStrings(n.Params(), map[string]string{"zz": "1"})
	assert.IsType(t, &DataError{}, err)
}

func TestResolveParamsHexValue(t *testing.T) {
	n := NewNECCode()
	require.NoError(t, ResolveParamsFromStrings(n.Params(), map[string]string{"tp": "0x233"}))
	assert.Equal(t, 0x233, n.PulseTime)
}

func TestResolveParamsRangeCheck(t *testing.T) {
	n := NewNECCode()
	err := ResolveParamsFromStrings(n.Params(), map[string]string{"cm": "7"})
	assert.IsType(t, &DataError{}, err)
}

func TestDependentDefaultsFollowEarlierParams(t *testing.T) {
	n := NewNECCode()
	require.NoError(t, ResolveParamsFromStrings(n.Params(), map[string]string{"tp": "500"}))

	assert.Equal(t, 500, n.SpaceTime0)
	assert.Equal(t, 1500, n.SpaceTime1)
	assert.Equal(t, 8000, n.PreambleTimeHigh)
	assert.Equal(t, 4000, n.PreambleTimeLow)
	assert.Equal(t, 2000, n.RepeatTimeLow)
	assert.Equal(t, 96000, n.PacketInterval)
	assert.Equal(t, 96000, n.RepeatInterval)
}

func TestAddressBytesDefaultTracksComplementMode(t *testing.T) {
	for cm, want := range map[int]int{0: -1, 1: 2, 2: 2, 3: 1} {
		n := NewNECCode()
		require.NoError(t, ResolveParamsFromAny(n.Params(), map[string]interface{}{"complement_mode": cm}))
		assert.Equal(t, want, n.AddressBytes, "complement_mode=%d", cm)
	}
}

func TestSimplifyParamsSnapsNearDefaults(t *testing.T) {
	n := NewNECCode()
	n.PulseTime = 580 // within 5% of 563
	n.PreambleTimeHigh = 12000

	SimplifyParams(n.Params(), 0.05)
	assert.Equal(t, 563, n.PulseTime)
	assert.Equal(t, 12000, n.PreambleTimeHigh) // way off 16*t, untouched
}

func TestSimplifyParamsZeroDefaultUntouched(t *testing.T) {
	n := NewNECCode()
	n.BurstCount = 1
	SimplifyParams(n.Params(), 0.25)
	assert.Equal(t, 1, n.BurstCount)
}

func TestToStringOmitsDefaultParams(t *testing.T) {
	n := NewNECCode()
	require.NoError(t, n.SetStringData("12,34"))
	assert.Equal(t, "nec::12,34", ToString(n))
}

func TestFromStructRequiresData(t *testing.T) {
	err := FromStruct(NewNECCode(), map[string]interface{}{"format": "nec"})
	assert.IsType(t, &DataError{}, err)
}

func TestFromStructFormatMismatch(t *testing.T) {
	err := FromStruct(NewNECCode(), map[string]interface{}{
		"format": "rc5",
		"data":   [][]int{{1}},
	})
	assert.IsType(t, &DataError{}, err)
}

func TestCloneWithoutData(t *testing.T) {
	n := NewNECCode()
	require.NoError(t, n.SetStringData("12,34"))
	n.PulseTime = 600

	clone := n.Clone(false).(*NECCode)
	assert.Nil(t, clone.Data)
	assert.Equal(t, 600, clone.PulseTime)
}

func TestCloneDeepCopiesData(t *testing.T) {
	n := NewNECCode()
	require.NoError(t, n.SetStringData("12,34"))

	clone := n.Clone(true).(*NECCode)
	clone.Data[0][0] = 0xff
	assert.Equal(t, byte(0x12), n.Data[0][0])
}

func TestFromCodeSameTypeClones(t *testing.T) {
	n := NewNECCode()
	require.NoError(t, n.SetStringData("12,34"))

	got, err := FromCode(func() Format { return NewNECCode() }, n)
	require.NoError(t, err)
	assert.Equal(t, n, got)
	assert.NotSame(t, n, got)
}
