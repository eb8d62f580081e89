package ircode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRaw(t *testing.T, data string) *RawCode {
	t.Helper()
	r := NewRawCode()
	require.NoError(t, r.SetStringData(data))
	return r
}

func TestRawStringData(t *testing.T) {
	r := parseRaw(t, "100,200,300,400")
	require.Len(t, r.Data, 1)
	assert.Equal(t, []int{100, 200, 300, 400}, r.Data[0].Pulses)
}

func TestRawStringDataWhitespaceAndBrackets(t *testing.T) {
	r := parseRaw(t, "[100 200 300 400]")
	require.Len(t, r.Data, 1)
	assert.Equal(t, []int{100, 200, 300, 400}, r.Data[0].Pulses)
}

func TestRawStringDataCountPrefix(t *testing.T) {
	r := parseRaw(t, "3/100,200;50,60")
	require.Len(t, r.Data, 2)
	assert.Equal(t, 3, r.Data[0].Count)
	assert.Equal(t, []int{100, 200}, r.Data[0].Pulses)
	assert.Equal(t, []int{50, 60}, r.Data[1].Pulses)
}

func TestRawStringDataImplicitFinalSpace(t *testing.T) {
	r := parseRaw(t, "100,200,300")
	assert.Equal(t, []int{100, 200, 300, 1000}, r.Data[0].Pulses)
}

func TestRawStringDataBadPulse(t *testing.T) {
	r := NewRawCode()
	err := r.SetStringData("100,abc")
	assert.Error(t, err)
	assert.IsType(t, &ParseError{}, err)
}

func TestRawStructDataOddLength(t *testing.T) {
	r := NewRawCode()
	err := r.SetStructData([]interface{}{100, 200, 300})
	assert.IsType(t, &DataError{}, err)
}

func TestRawStructDataUnknownKey(t *testing.T) {
	r := NewRawCode()
	err := r.SetStructData([]interface{}{
		map[string]interface{}{"pulses": []interface{}{100, 200}, "bogus": 1},
	})
	assert.IsType(t, &DataError{}, err)
}

func TestRawToRawIsSelf(t *testing.T) {
	r := parseRaw(t, "100,200")
	raw, err := r.ToRaw(nil)
	require.NoError(t, err)
	assert.Same(t, r, raw)
}

func TestFlattenSinglePacketAbsorbsCount(t *testing.T) {
	r := parseRaw(t, "2/100,200")
	r.Count = 3

	flat := r.Flatten(false)
	assert.Equal(t, 6, flat.Count)
	assert.Equal(t, []int{100, 200}, flat.Data[0].Pulses)
	assert.Equal(t, 0, flat.PacketInterval)
}

func TestFlattenMergesPackets(t *testing.T) {
	r := parseRaw(t, "2/100,200;300,400")
	flat := r.Flatten(true)
	require.Len(t, flat.Data, 1)
	assert.Equal(t, []int{100, 200, 100, 200, 300, 400}, flat.Data[0].Pulses)
	assert.Equal(t, 1, flat.Count)
}

func TestFlattenPadsPacketInterval(t *testing.T) {
	r := parseRaw(t, "100,200")
	r.Count = 2
	r.PacketInterval = 1000

	flat := r.Flatten(false)
	assert.Equal(t, []int{100, 900}, flat.Data[0].Pulses)
	assert.Equal(t, 2, flat.Count)
}

func TestFlattenNoRepeatsExpands(t *testing.T) {
	r := parseRaw(t, "100,200")
	r.Count = 2

	flat := r.Flatten(true)
	assert.Equal(t, []int{100, 200, 100, 200}, flat.Data[0].Pulses)
	assert.Equal(t, 1, flat.Count)
}

func TestFlattenIdempotent(t *testing.T) {
	r := parseRaw(t, "3/100,200;300,400,500,600")
	r.Count = 2
	r.PacketInterval = 5000

	once := r.Flatten(true)
	twice := once.Flatten(true)
	assert.Equal(t, once, twice)
}

func TestRawStringRoundTrip(t *testing.T) {
	r := parseRaw(t, "2/100,200;300,400")
	r.FC = 36000

	s := ToString(r)
	assert.Equal(t, "raw:f=36000:2/100,200;300,400", s)

	r2 := NewRawCode()
	require.NoError(t, FromString(r2, s[len("raw:"):]))
	assert.Equal(t, r, r2)
}

func TestRawStructRoundTrip(t *testing.T) {
	r := parseRaw(t, "2/100,200;300,400")
	r.Count = 4

	s := ToStruct(r, false)
	assert.Equal(t, "raw", s["format"])

	r2 := NewRawCode()
	require.NoError(t, FromStruct(r2, s))
	assert.Equal(t, r, r2)
}
