// Package identify scores candidate decodings of an unknown IR trace
// against its raw form and ranks the formats that explain it best.
package identify

import (
	"math"
	"sort"

	"github.com/irwave/ircodec"
	"github.com/irwave/ircodec/ircode"
)

// Thresholds sweeps progressively coarser parameter simplification during
// identification; the sweep stops the first time the simplified candidate's
// score drops below SimplifyMinScore.
var Thresholds = []float64{0.05, 0.10, 0.15, 0.20, 0.25}

const (
	// MinScore is the similarity below which a candidate decoding is not
	// reported at all.
	MinScore = 0.5
	// SimplifyMinScore bounds how much fidelity a simplification pass may
	// cost before the sweep stops.
	SimplifyMinScore = 0.7
)

// Guess is one candidate decoding with its round-trip similarity score.
type Guess struct {
	Score float64
	Code  ircode.Format
}

// Compare computes the asymmetric similarity of two codes by their flattened
// raw pulse trains, with a (reference) as ground truth.
func Compare(a, b ircode.Format) (float64, error) {
	pa, err := flatPulses(a)
	if err != nil {
		return 0, err
	}
	pb, err := flatPulses(b)
	if err != nil {
		return 0, err
	}
	return comparePulses(pa, pb), nil
}

func flatPulses(code ircode.Format) ([]int, error) {
	raw, err := code.ToRaw(nil)
	if err != nil {
		return nil, err
	}
	return raw.Flatten(true).Data[0].Pulses, nil
}

// comparePulses measures the worst per-pulse relative deviation, slightly
// de-weighting pulses below the reference median, and applies a geometric
// penalty for length mismatch.
func comparePulses(a, b []int) float64 {
	if len(a) == 0 {
		return 0
	}
	sorted := append([]int(nil), a...)
	sort.Ints(sorted)
	median := sorted[len(sorted)/2]

	worst := 0.0
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n-1; i++ {
		if a[i] <= 0 {
			return 0
		}
		diff := math.Abs(float64(b[i]-a[i])) / float64(a[i])
		weight := float64(median) / float64(a[i])
		if weight > 1 {
			weight = 1
		}
		diff *= math.Pow(weight, 0.1)
		if diff > worst {
			worst = diff
		}
	}

	score := 1.0 - math.Min(worst, 1.0)
	lengthDiff := len(a) - len(b)
	if lengthDiff < 0 {
		lengthDiff = -lengthDiff
	}
	if lengthDiff > 1 {
		score *= math.Pow(0.8, float64(lengthDiff-1))
	}
	return score
}

// TryDecode attempts every registered format against the code's raw trace
// and returns the surviving candidates sorted by descending score. Each
// surviving candidate is additionally offered with progressively simplified
// parameters while the simplification keeps the score above
// SimplifyMinScore. Decode failures of individual formats are not errors;
// they just drop the candidate.
func TryDecode(code ircode.Format) ([]Guess, error) {
	raw, err := code.ToRaw(nil)
	if err != nil {
		return nil, err
	}
	ref := raw.Flatten(true).Data[0].Pulses

	var guesses []Guess
	for _, newFormat := range ircodec.Formats() {
		ncode, err := ircode.FromCode(newFormat, code)
		if err != nil {
			continue
		}
		pulses, err := flatPulses(ncode)
		if err != nil {
			continue
		}
		score := comparePulses(ref, pulses)
		if score < MinScore {
			continue
		}
		guesses = append(guesses, Guess{Score: score, Code: ncode})

		for _, threshold := range Thresholds {
			scode := ncode.Clone(true)
			ircode.SimplifyParams(scode.Params(), threshold)
			spulses, err := flatPulses(scode)
			if err != nil {
				break
			}
			sscore := comparePulses(ref, spulses)
			if sscore < SimplifyMinScore {
				break
			}
			// A simplification that scores exactly like the previous entry
			// adds nothing; replace it instead of duplicating.
			if len(guesses) > 0 && guesses[len(guesses)-1].Score == sscore {
				guesses = guesses[:len(guesses)-1]
			}
			guesses = append(guesses, Guess{Score: sscore, Code: scode})
		}
	}

	// Raw reconstructs any trace perfectly; on a tied score a structured
	// decode explains strictly more, so it ranks first.
	sort.SliceStable(guesses, func(i, j int) bool {
		if guesses[i].Score != guesses[j].Score {
			return guesses[i].Score > guesses[j].Score
		}
		_, iRaw := guesses[i].Code.(*ircode.RawCode)
		_, jRaw := guesses[j].Code.(*ircode.RawCode)
		return !iRaw && jRaw
	})
	return guesses, nil
}
