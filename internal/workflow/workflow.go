// Package workflow implements the locked-resource bulk deletion workflow:
// validate the requested snapshot IDs, suspend the CanNotDelete locks that
// would block deletion, delete under bounded concurrency, then restore the
// locks — whether or not the deletions succeeded.
package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hemantobora/azsnap/internal/azure"
	"github.com/hemantobora/azsnap/internal/report"
	"github.com/hemantobora/azsnap/internal/snapshot"
)

// Workflow-fatal errors. Both fire before any mutation, so failing fast on
// them is always safe; everything past authentication is per-item.
var (
	ErrNotLoggedIn = errors.New("not logged in to Azure, please run 'az login'")
	ErrNoAccounts  = errors.New("failed to enumerate subscriptions")
)

// Options configure one workflow run.
type Options struct {
	// Strategy is the concurrency policy for validation and deletion.
	// Defaults to a bounded pool of MaxWorkers.
	Strategy Strategy
	// LogDir receives the persistent summary log. Empty means "logs".
	LogDir string
	// DryRun validates and reports but performs no mutation at all:
	// no lock is touched and no snapshot is deleted.
	DryRun bool
}

// Result is everything one run produces: the merged report, the lock ledger
// for audit, and the path of the persistent summary log.
type Result struct {
	Report  *report.Report
	Ledger  LockLedger
	LogPath string
}

// Coordinator sequences one run. It owns the report and the ledger for the
// lifetime of the run and keeps no state across runs.
type Coordinator struct {
	client   azure.Client
	logger   *zap.Logger
	strategy Strategy
	names    map[string]string
	dryRun   bool
}

// Run executes the full workflow over the requested snapshot IDs with an
// already-authenticated client. Lock restoration runs on every path that
// removed a lock, including an executor panic and caller cancellation.
func Run(ctx context.Context, client azure.Client, logger *zap.Logger, ids []string, opts Options) (*Result, error) {
	if !client.AccountExists(ctx) {
		return nil, ErrNotLoggedIn
	}

	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		return nil, errors.Join(ErrNoAccounts, err)
	}

	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}

	strategy := opts.Strategy
	if strategy == nil {
		strategy = PoolStrategy{Workers: MaxWorkers}
	}

	c := &Coordinator{
		client:   client,
		logger:   logger,
		strategy: strategy,
		names:    names,
		dryRun:   opts.DryRun,
	}

	start := time.Now()
	result := c.run(ctx, ids)
	result.Report.Elapsed = time.Since(start)

	logDir := opts.LogDir
	if logDir == "" {
		logDir = "logs"
	}
	logPath, err := report.WriteSummaryLog(logDir, result.Report, time.Now())
	if err != nil {
		logger.Error("failed to write summary log", zap.Error(err))
	} else {
		result.LogPath = logPath
	}

	return result, nil
}

// run drives the phase sequence:
//
//	Validating → (no valid items) Reporting
//	Validating → LockSuspending → Executing → LockRestoring → Reporting
func (c *Coordinator) run(ctx context.Context, ids []string) *Result {
	result := &Result{}

	valid, rep := c.validate(ctx, ids)
	result.Report = rep

	if len(valid) == 0 {
		// nothing to delete; never touch locks with zero targets
		return result
	}

	if c.dryRun {
		rep.Merge(c.executeDryRun(valid))
		return result
	}

	execReport := c.suspendExecuteRestore(ctx, valid, result)
	rep.Merge(execReport)
	return result
}

// suspendExecuteRestore brackets the destructive phase with the compensating
// lock restoration. The restore is deferred so it runs even when the
// executor faults, and it uses a cancel-detached context so a caller timeout
// during execution cannot skip it.
func (c *Coordinator) suspendExecuteRestore(ctx context.Context, valid []snapshot.ResourceID, result *Result) *report.Report {
	removed := c.suspendLocks(ctx, valid)
	result.Ledger.Removed = removed

	defer func() {
		restoreCtx := context.WithoutCancel(ctx)
		restored, orphaned := c.restoreLocks(restoreCtx, removed)
		result.Ledger.Restored = restored
		result.Ledger.Orphaned = orphaned

		for _, lock := range orphaned {
			c.logger.Warn("lock was removed but could not be restored",
				zap.String("lock", lock.Name),
				zap.String("resource_group", lock.ResourceGroup),
				zap.String("subscription", lock.Account))
		}
	}()

	return c.execute(ctx, valid)
}
