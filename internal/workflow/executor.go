package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/hemantobora/azsnap/internal/report"
	"github.com/hemantobora/azsnap/internal/snapshot"
)

// deletionOutcome is the result of one destructive call.
type deletionOutcome struct {
	account string
	name    string
	deleted bool
	reason  string
}

// execute deletes every valid snapshot under the concurrency strategy. Each
// identifier is handled independently; one failure never blocks or cancels
// the rest. The client call carries its own retry policy, so no retry is
// layered on top here — the final outcome is simply recorded.
func (c *Coordinator) execute(ctx context.Context, ids []snapshot.ResourceID) *report.Report {
	outcomes := make([]deletionOutcome, len(ids))

	c.strategy.Run(ctx, len(ids), func(ctx context.Context, i int) {
		outcomes[i] = c.deleteOne(ctx, ids[i])
	})

	rep := report.New()
	for _, out := range outcomes {
		acct := rep.Account(out.account)
		if out.deleted {
			acct.Deleted = append(acct.Deleted, out.name)
		} else {
			acct.Failed = append(acct.Failed, report.Failure{Resource: out.name, Reason: out.reason})
		}
	}
	return rep
}

func (c *Coordinator) deleteOne(ctx context.Context, id snapshot.ResourceID) deletionOutcome {
	account := c.accountName(id.Subscription)

	if err := c.client.DeleteSnapshot(ctx, id.Raw); err != nil {
		c.logger.Error("failed to delete snapshot",
			zap.String("snapshot", id.Name),
			zap.String("subscription", account),
			zap.Error(err))
		return deletionOutcome{account: account, name: id.Name, reason: clientMessage(err)}
	}

	c.logger.Info("deleted snapshot",
		zap.String("snapshot", id.Name),
		zap.String("subscription", account))
	return deletionOutcome{account: account, name: id.Name, deleted: true}
}

// executeDryRun reports every valid snapshot as failed with a dry-run marker
// so the operator sees exactly what a real run would touch.
func (c *Coordinator) executeDryRun(ids []snapshot.ResourceID) *report.Report {
	rep := report.New()
	for _, id := range ids {
		acct := rep.Account(c.accountName(id.Subscription))
		acct.Failed = append(acct.Failed, report.Failure{Resource: id.Name, Reason: "dry-run: deletion skipped"})
	}
	return rep
}
