package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitPackRoundTrip(t *testing.T) {
	for k := 1; k <= 32; k++ {
		var limit uint64 = 1 << uint(k)
		step := limit/37 + 1
		for n := uint64(0); n < limit; n += step {
			t.Run("", func(t *testing.T) {
				assert.Equal(t, n, FromBitsLSB(ToBitsLSB(n, k)))
				assert.Equal(t, n, FromBitsMSB(ToBitsMSB(n, k)))
			})
		}
	}
}

func TestToBitsLSBOrder(t *testing.T) {
	assert.Equal(t, []int{1, 0, 1, 0}, ToBitsLSB(0x5, 4))
}

func TestToBitsMSBOrder(t *testing.T) {
	assert.Equal(t, []int{0, 1, 0, 1}, ToBitsMSB(0x5, 4))
}

func TestScalePulsesIdentity(t *testing.T) {
	in := []int{9024, 4512, 563, 563, 563, 1687}
	out := ScalePulses(in, 1000000, 1000000)
	assert.Equal(t, in, out)
}

func TestScalePulsesMonotonicRoundTrip(t *testing.T) {
	in := []int{9024, 4512, 563, 1687, 563, 40000}
	up := ScalePulses(in, 1000000, 38000)
	back := ScalePulses(up, 38000, 1000000)

	var totalIn, totalBack int
	for i := range in {
		totalIn += in[i]
		totalBack += back[i]
		assert.InDelta(t, in[i], back[i], 30, "element %d drifted too far", i)
	}
	assert.InDelta(t, totalIn, totalBack, 30)
}

func TestScalePulsesNoDrift(t *testing.T) {
	in := make([]int, 200)
	for i := range in {
		in[i] = 500 + i%37
	}
	out := ScalePulses(in, 1000000, 30453)

	var sumIn, sumOut int
	for _, v := range in {
		sumIn += v
	}
	for _, v := range out {
		sumOut += v
	}
	expected := float64(sumIn) * 30453.0 / 1000000.0
	assert.InDelta(t, expected, float64(sumOut), 1.0)
}
