// Package budget implements the Budget Governor (spec §4.7): a credit-aware
// gate in front of each poll cycle. Grounded on
// alert-service/internal/ratelimit.TokenBucket's shape (a small stateful
// gatekeeper consulted once per cycle) but backed by the ApiUsage ledger
// rather than a Redis counter, since credits_remaining here is a fact
// reported by the upstream API, not something this process spends down.
package budget

import (
	"context"
	"fmt"
	"sync"

	"github.com/avery-hale/sharpline/pkg/contracts"
)

// Governor decides whether a poll cycle may proceed given the most recent
// reported credit balance.
type Governor struct {
	store        contracts.Store
	monthlyLimit int
	creditsPerPoll int
	sink         contracts.AlertSink

	mu          sync.Mutex
	deniedOnce  bool
}

func NewGovernor(store contracts.Store, sink contracts.AlertSink, monthlyLimit, creditsPerPoll int) *Governor {
	return &Governor{store: store, sink: sink, monthlyLimit: monthlyLimit, creditsPerPoll: creditsPerPoll}
}

// ShouldPoll implements spec §4.7's policy: true on bootstrap (no ledger
// rows yet), true when credits_remaining clears the floor, false otherwise.
// The first denial in the process lifetime fires a one-shot low-budget
// alert.
func (g *Governor) ShouldPoll(ctx context.Context) (bool, error) {
	remaining, hasRows, err := g.store.CreditsRemaining(ctx)
	if err != nil {
		return false, fmt.Errorf("read credits remaining: %w", err)
	}
	if !hasRows {
		return true, nil
	}

	floor := g.monthlyLimit / 5 // 20% of monthly_limit
	if g.creditsPerPoll > floor {
		floor = g.creditsPerPoll
	}

	if remaining > floor {
		return true, nil
	}

	g.notifyLowBudget(ctx, remaining, floor)
	return false, nil
}

func (g *Governor) notifyLowBudget(ctx context.Context, remaining, floor int) {
	g.mu.Lock()
	alreadyNotified := g.deniedOnce
	g.deniedOnce = true
	g.mu.Unlock()

	if alreadyNotified || g.sink == nil {
		return
	}

	record := contracts.AlertRecord{
		Title:       "Odds API budget low",
		Description: fmt.Sprintf("credits_remaining=%d is at or below the polling floor (%d); polling is paused until the next billing cycle's usage is reported.", remaining, floor),
	}
	if err := g.sink.Send(ctx, record); err != nil {
		fmt.Printf("⚠️  low-budget notification failed: %v\n", err)
	}
}
