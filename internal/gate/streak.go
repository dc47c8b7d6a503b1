package gate

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/perfci/slogate/internal/history"
	"github.com/perfci/slogate/internal/store"
)

// CountConsecutivePasses resolves the pass streak with a two-strategy
// lookup: remote first, local run log only when the remote strategy
// yields exactly zero (no signal). The two sources are never summed, so
// a run can't be counted twice.
func CountConsecutivePasses(ctx context.Context, provider history.Provider, log *store.RunLog, configurationID string, lookback int) int {
	count := 0
	if provider != nil {
		outcomes, err := provider.RecentOutcomes(ctx, configurationID, lookback)
		if err != nil {
			logrus.Warnf("remote run history unavailable for %s: %v", configurationID, err)
		} else {
			count = countStreak(outcomes)
		}
	}
	if count == 0 && log != nil {
		local, err := log.ConsecutivePasses(configurationID)
		if err != nil {
			logrus.Warnf("local run history unavailable for %s: %v", configurationID, err)
			return 0
		}
		count = local
	}
	return count
}

// countStreak walks outcomes newest first. Unrelated runs are skipped;
// the first related run that did not verifiably pass ends the streak.
func countStreak(outcomes []history.RunOutcome) int {
	count := 0
	for _, o := range outcomes {
		if !o.Related {
			continue
		}
		if !o.Passed {
			break
		}
		count++
	}
	return count
}
