package montecarlo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_4ByteSuccessRate(t *testing.T) {
	iterations := 8
	if testing.Short() {
		iterations = 2
	}
	agg := Run(Config{
		Iterations: iterations,
		Workers:    2,
		SecretSize: 4,
		Seed:       1234,
	})

	require.Equal(t, iterations, agg.Trials)
	require.Equal(t, iterations, agg.Successes, "every trial against a legal random secret should succeed")
	require.Equal(t, 1.0, agg.SuccessRate())
	require.Greater(t, agg.TotalBytesWrittenToVictim, int64(0))
	require.Greater(t, agg.TotalCacheLinesLoaded, int64(0))
}

func TestRun_DeterministicUnderFixedSeed(t *testing.T) {
	if testing.Short() {
		t.Skip("replays several full attacks; skipped in -short mode")
	}
	cfg := Config{Iterations: 4, Workers: 1, SecretSize: 4, Seed: 99}

	first := Run(cfg)
	second := Run(cfg)

	require.Equal(t, first.Successes, second.Successes)
	require.Equal(t, first.TotalBytesWrittenToVictim, second.TotalBytesWrittenToVictim)
	require.Equal(t, first.TotalSetEvictions, second.TotalSetEvictions)
}
