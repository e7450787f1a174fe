package calibrate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixedSource always draws the given jitter step.
type fixedSource int

func (s fixedSource) Intn(n int) int { return int(s) + MaxJitterSteps }

func TestApply_StaysInBand(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, label := range []string{Rotten, Unripe, Ripe} {
		band, ok := BandFor(label)
		require.True(t, ok)

		samples := []float64{0, 1, 0.5}
		for i := 0; i < 500; i++ {
			samples = append(samples, rng.Float64())
		}
		for _, c := range samples {
			for step := -MaxJitterSteps; step <= MaxJitterSteps; step++ {
				got := Apply(band, c, float64(step)/100)
				require.Truef(t, band.Contains(got), "%s c=%v step=%d got %v", label, c, step, got)
			}
		}
	}
}

func TestApply_Deterministic(t *testing.T) {
	band, _ := BandFor(Unripe)
	for step := -MaxJitterSteps; step <= MaxJitterSteps; step++ {
		j := float64(step) / 100
		require.Equal(t, Apply(band, 0.37, j), Apply(band, 0.37, j))
	}
}

func TestCalibrate_RipeNoJitter(t *testing.T) {
	c := New(fixedSource(0))
	require.Equal(t, 0.85, c.Calibrate(Ripe, 0.5, nil))
}

func TestCalibrate_RottenMaxJitter(t *testing.T) {
	// 0.01 + 0.9*0.18 = 0.172, *1.10 = 0.1892
	c := New(fixedSource(10))
	require.Equal(t, 0.19, c.Calibrate(Rotten, 0.9, nil))
}

func TestCalibrate_ClampsToBandTop(t *testing.T) {
	c := New(fixedSource(10))
	require.Equal(t, 1.0, c.Calibrate(Ripe, 1.0, nil))
	require.Equal(t, 0.69, c.Calibrate(Unripe, 0.95, nil))
}

func TestCalibrate_ClampsToBandBottom(t *testing.T) {
	c := New(fixedSource(-10))
	require.Equal(t, 0.7, c.Calibrate(Ripe, 0, nil))
	require.Equal(t, 0.2, c.Calibrate(Unripe, 0, nil))
	require.Equal(t, 0.01, c.Calibrate(Rotten, 0, nil))
}

func TestCalibrate_UnknownLabelPassesThrough(t *testing.T) {
	c := New(fixedSource(10))
	require.Equal(t, 0.537, c.Calibrate("unknown", 0.537, nil))
	require.Equal(t, 0.42, c.Calibrate("overripe", 0.9, map[string]float64{"overripe": 0.42}))
}

func TestCalibrate_PrefersLabelProbability(t *testing.T) {
	c := New(fixedSource(0))
	// 0.20 + 0.2*0.49 = 0.298
	require.Equal(t, 0.3, c.Calibrate(Unripe, 0.9, map[string]float64{"unripe": 0.2, "ripe": 0.7}))
	// label missing from the map: falls back to confidence
	require.Equal(t, 0.85, c.Calibrate(Ripe, 0.5, map[string]float64{"unripe": 0.2}))
}

func TestCalibrate_DefaultSource(t *testing.T) {
	var c Calibrator
	band, _ := BandFor(Ripe)
	for i := 0; i < 200; i++ {
		require.True(t, band.Contains(c.Calibrate(Ripe, 0.66, nil)))
	}
}

func TestCalibrate_SeededSourceRepeats(t *testing.T) {
	a := New(rand.New(rand.NewSource(7)))
	b := New(rand.New(rand.NewSource(7)))
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Calibrate(Unripe, 0.4, nil), b.Calibrate(Unripe, 0.4, nil))
	}
}

func TestBase_Clamps(t *testing.T) {
	require.Equal(t, 1.0, Base(Ripe, 1.7, nil))
	require.Equal(t, 0.0, Base(Ripe, -0.2, nil))
	require.Equal(t, 0.0, Base(Ripe, math.NaN(), nil))
	require.Equal(t, 1.0, Base(Ripe, 0.1, map[string]float64{Ripe: 3}))

	c := New(fixedSource(10))
	require.Equal(t, 1.0, c.Calibrate(Ripe, 5, nil))
	require.Equal(t, 0.01, New(fixedSource(-10)).Calibrate(Rotten, -1, nil))
}

func TestRound2(t *testing.T) {
	require.Equal(t, 0.19, Round2(0.1892))
	require.Equal(t, 0.13, Round2(0.125))
	require.Equal(t, -0.13, Round2(-0.125))
}
