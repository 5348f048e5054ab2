package subsampler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avery-hale/sharpline/internal/subsampler"
)

func TestShouldPollHighTierEveryCycle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	commence := now.Add(90 * time.Minute)
	for i := 1; i <= 5; i++ {
		require.True(t, subsampler.ShouldPoll(now, commence, i))
	}
}

func TestShouldPollMediumTierEvenCyclesOnly(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	commence := now.Add(6 * time.Hour)
	require.False(t, subsampler.ShouldPoll(now, commence, 1))
	require.True(t, subsampler.ShouldPoll(now, commence, 2))
	require.False(t, subsampler.ShouldPoll(now, commence, 3))
	require.True(t, subsampler.ShouldPoll(now, commence, 4))
}

func TestShouldPollLowTierEveryFourthCycle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	commence := now.Add(24 * time.Hour)
	for i := 1; i <= 8; i++ {
		want := i%4 == 0
		require.Equal(t, want, subsampler.ShouldPoll(now, commence, i))
	}
}

func TestShouldPollParseFailureFailsSafeToHigh(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, subsampler.ShouldPoll(now, time.Time{}, 3))
}

func TestFilterPreservesOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	events := []subsampler.Event{
		{ID: "near", CommenceTime: now.Add(time.Hour)},
		{ID: "far", CommenceTime: now.Add(20 * time.Hour)},
		{ID: "soon", CommenceTime: now.Add(30 * time.Minute)},
	}
	out := subsampler.Filter(now, events, 1)
	require.Len(t, out, 2)
	require.Equal(t, "near", out[0].ID)
	require.Equal(t, "soon", out[1].ID)
}
