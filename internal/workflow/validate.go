package workflow

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hemantobora/azsnap/internal/azure"
	"github.com/hemantobora/azsnap/internal/report"
	"github.com/hemantobora/azsnap/internal/snapshot"
)

// validationOutcome is the classification of one requested identifier.
type validationOutcome struct {
	account string // display name, or raw subscription ID when unknown
	id      snapshot.ResourceID
	status  string
	reason  string
}

const (
	statusValid       = "valid"
	statusNonExistent = "non-existent"
	statusMalformed   = "invalid"
	statusError       = "error"
)

// validate classifies every requested identifier. Malformed IDs never reach
// the client; a definitive not-found is kept distinct from any other client
// failure (a permission error is an error, never "valid" and never "gone").
// Running it twice against unchanged state yields identical outcomes.
func (c *Coordinator) validate(ctx context.Context, ids []string) ([]snapshot.ResourceID, *report.Report) {
	outcomes := make([]validationOutcome, len(ids))

	c.strategy.Run(ctx, len(ids), func(ctx context.Context, i int) {
		outcomes[i] = c.validateOne(ctx, ids[i])
	})

	rep := report.New()
	var valid []snapshot.ResourceID
	for _, out := range outcomes {
		acct := rep.Account(out.account)
		switch out.status {
		case statusValid:
			acct.Valid = append(acct.Valid, out.id.Name)
			valid = append(valid, out.id)
		case statusNonExistent:
			acct.NonExistent = append(acct.NonExistent, out.id.Name)
		case statusMalformed:
			acct.Malformed = append(acct.Malformed, report.Failure{Resource: out.id.Raw, Reason: out.reason})
		case statusError:
			acct.Errors = append(acct.Errors, report.Failure{Resource: out.id.Raw, Reason: out.reason})
		}
	}
	return valid, rep
}

func (c *Coordinator) validateOne(ctx context.Context, raw string) validationOutcome {
	id, err := snapshot.ParseResourceID(raw)
	if err != nil {
		c.logger.Error("invalid snapshot ID format", zap.String("id", raw))
		return validationOutcome{
			account: "",
			id:      snapshot.ResourceID{Raw: raw},
			status:  statusMalformed,
			reason:  "Invalid snapshot ID format",
		}
	}

	account := c.accountName(id.Subscription)

	exists, err := c.client.SnapshotExists(ctx, id.Raw)
	if err != nil {
		c.logger.Error("error checking snapshot",
			zap.String("snapshot", id.Name),
			zap.Error(err))
		return validationOutcome{account: account, id: id, status: statusError, reason: clientMessage(err)}
	}
	if !exists {
		return validationOutcome{account: account, id: id, status: statusNonExistent}
	}
	return validationOutcome{account: account, id: id, status: statusValid}
}

// accountName resolves a subscription ID to its display name, falling back
// to the raw ID. The lookup is populated once per run from ListAccounts.
func (c *Coordinator) accountName(subscriptionID string) string {
	if name, ok := c.names[subscriptionID]; ok && name != "" {
		return name
	}
	return subscriptionID
}

// clientMessage extracts the provider's human-readable message for reports.
func clientMessage(err error) string {
	var cmdErr *azure.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Message()
	}
	return err.Error()
}
