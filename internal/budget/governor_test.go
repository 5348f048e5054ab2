package budget_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avery-hale/sharpline/internal/budget"
	"github.com/avery-hale/sharpline/internal/store"
	"github.com/avery-hale/sharpline/pkg/contracts"
	"github.com/avery-hale/sharpline/pkg/models"
)

type fakeSink struct{ sent []contracts.AlertRecord }

func (f *fakeSink) Send(_ context.Context, r contracts.AlertRecord) error {
	f.sent = append(f.sent, r)
	return nil
}

func TestShouldPollBootstrapsTrue(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	g := budget.NewGovernor(s, &fakeSink{}, 20000, 10)

	ok, err := g.ShouldPoll(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestShouldPollDeniesBelowFloorAndNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	sink := &fakeSink{}
	g := budget.NewGovernor(s, sink, 20000, 500)

	require.NoError(t, s.RecordAPIUsage(ctx, models.ApiUsage{
		Timestamp: time.Now(), Endpoint: "odds", CreditsUsed: 19900, CreditsRemaining: 100,
	}))

	ok, err := g.ShouldPoll(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, sink.sent, 1)

	ok, err = g.ShouldPoll(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, sink.sent, 1, "low-budget notification fires only once per process lifetime")
}

func TestShouldPollAllowsAboveFloor(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	g := budget.NewGovernor(s, &fakeSink{}, 20000, 10)

	require.NoError(t, s.RecordAPIUsage(ctx, models.ApiUsage{
		Timestamp: time.Now(), Endpoint: "odds", CreditsUsed: 100, CreditsRemaining: 10000,
	}))

	ok, err := g.ShouldPoll(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}
