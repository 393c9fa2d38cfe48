package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/hemantobora/azsnap/internal/azure"
)

// SearchOptions bound one snapshot search.
type SearchOptions struct {
	From        time.Time
	To          time.Time
	Filter      *Filter
	Concurrency int
}

// SearchResult is the outcome of scanning one subscription.
type SearchResult struct {
	Account   azure.Account
	Snapshots []azure.Snapshot
	Err       error
}

// DefaultConcurrency caps in-flight az calls across the tool.
const DefaultConcurrency = 10

// Search scans every account for snapshots created inside the window,
// applying the filter. Accounts are scanned concurrently; one account's
// failure is recorded in its result and never aborts the others.
func Search(ctx context.Context, client azure.Client, logger *zap.Logger, accounts []azure.Account, opts SearchOptions) []SearchResult {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]SearchResult, len(accounts))

	pool := pond.NewPool(concurrency)
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i, account := range accounts {
		i, account := i, account
		group.Submit(func() {
			results[i] = searchAccount(groupCtx, client, logger, account, opts)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		logger.Warn("snapshot search group encountered error", zap.Error(err))
	}
	pool.StopAndWait()

	return results
}

func searchAccount(ctx context.Context, client azure.Client, logger *zap.Logger, account azure.Account, opts SearchOptions) SearchResult {
	result := SearchResult{Account: account}

	snapshots, err := client.ListSnapshots(ctx, account.ID, opts.From, opts.To)
	if err != nil {
		logger.Warn("failed to list snapshots",
			zap.String("subscription", account.Name),
			zap.Error(err))
		result.Err = err
		return result
	}

	for _, s := range snapshots {
		if opts.Filter != nil {
			ok, err := opts.Filter.Match(s)
			if err != nil {
				result.Err = err
				return result
			}
			if !ok {
				continue
			}
		}
		result.Snapshots = append(result.Snapshots, s)
	}

	logger.Info("scanned subscription",
		zap.String("subscription", account.Name),
		zap.Int("snapshots", len(result.Snapshots)))

	return result
}

// DefaultWindow returns the current calendar month in UTC, the window the
// tool searches when the operator does not supply one.
func DefaultWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}
