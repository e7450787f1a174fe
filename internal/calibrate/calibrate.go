// Package calibrate maps the model's raw confidence into a fixed band per
// ripeness label. Raw scores are not comparable across labels, so each label
// gets its own band and the score is rescaled into it, jittered by up to ±10%
// and clamped back.
package calibrate

import (
	"math"
	"math/rand"
)

const (
	Rotten = "rotten"
	Unripe = "unripe"
	Ripe   = "ripe"
)

// Band is a closed confidence interval.
type Band struct {
	Min float64
	Max float64
}

func (b Band) Clamp(v float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

var bands = map[string]Band{
	Rotten: {Min: 0.01, Max: 0.19},
	Unripe: {Min: 0.20, Max: 0.69},
	Ripe:   {Min: 0.70, Max: 1.00},
}

// BandFor returns the band for a label. Labels without a band are passed
// through uncalibrated.
func BandFor(label string) (Band, bool) {
	b, ok := bands[label]
	return b, ok
}

// Jitter steps are hundredths in [-MaxJitterSteps, MaxJitterSteps].
const MaxJitterSteps = 10

// Source draws an integer in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

type globalSource struct{}

func (globalSource) Intn(n int) int { return rand.Intn(n) }

// Calibrator is safe for concurrent use as long as its Source is.
type Calibrator struct {
	Source Source
}

func New(src Source) Calibrator {
	return Calibrator{Source: src}
}

// Calibrate returns the calibrated confidence for a prediction.
func (c Calibrator) Calibrate(ripeness string, confidence float64, probs map[string]float64) float64 {
	base := Base(ripeness, confidence, probs)
	band, ok := BandFor(ripeness)
	if !ok {
		return base
	}
	return Apply(band, base, c.jitter())
}

func (c Calibrator) jitter() float64 {
	src := c.Source
	if src == nil {
		src = globalSource{}
	}
	step := src.Intn(2*MaxJitterSteps+1) - MaxJitterSteps
	return float64(step) / 100
}

// Base picks the score to calibrate: the label's own probability when the
// model reported one, otherwise the top-level confidence. The result is in
// [0, 1].
func Base(ripeness string, confidence float64, probs map[string]float64) float64 {
	base := confidence
	if p, ok := probs[ripeness]; ok {
		base = p
	}
	if math.IsNaN(base) {
		return 0
	}
	return math.Max(0, math.Min(1, base))
}

// Apply rescales base into band, perturbs it by jitter (a fraction such as
// 0.05), clamps to the band and rounds to 2 decimals.
func Apply(band Band, base, jitter float64) float64 {
	adjusted := band.Min + base*(band.Max-band.Min)
	perturbed := adjusted + adjusted*jitter
	return band.Clamp(Round2(band.Clamp(perturbed)))
}

// Round2 rounds half away from zero to 2 decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
