package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/hemantobora/azsnap/internal/azure"
)

// VMTarget is one line of the VM input file: a VM resource ID and its name.
type VMTarget struct {
	ResourceID string
	VMName     string
}

// CreateOutcome records the result of snapshotting one VM's OS disk.
type CreateOutcome struct {
	VMName       string
	SnapshotName string
	SnapshotID   string
	Err          error
}

// CreateOptions bound one snapshot-creation run. ChangeNumber is the change
// ticket baked into every snapshot name.
type CreateOptions struct {
	ChangeNumber string
	Timestamp    time.Time
	Concurrency  int
}

// SnapshotName builds the conventional name for a VM's snapshot:
// RH_<chg>_<vm>_<timestamp>.
func (o CreateOptions) SnapshotName(vmName string) string {
	return fmt.Sprintf("RH_%s_%s_%s", o.ChangeNumber, vmName, o.Timestamp.Format("20060102150405"))
}

// ReadVMList parses a whitespace-delimited "resourceID vmName" file. Lines
// that do not carry both fields are skipped with a warning.
func ReadVMList(path string, logger *zap.Logger) ([]VMTarget, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open VM list %s: %w", path, err)
	}
	defer f.Close()

	var targets []VMTarget
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			logger.Warn("skipping invalid line in VM list", zap.String("line", line))
			continue
		}
		targets = append(targets, VMTarget{ResourceID: fields[0], VMName: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read VM list %s: %w", path, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no valid VM entries found in %s", path)
	}
	return targets, nil
}

// CreateAll snapshots every target's OS disk under bounded concurrency,
// grouped by subscription so the sticky account switch happens once per
// group. One VM's failure never blocks the others.
func CreateAll(ctx context.Context, client azure.Client, logger *zap.Logger, targets []VMTarget, opts CreateOptions) []CreateOutcome {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	grouped := groupBySubscription(targets)

	outcomes := make([]CreateOutcome, 0, len(targets))
	pool := pond.NewPool(concurrency)
	defer pool.StopAndWait()

	for subscription, vms := range grouped {
		if err := client.SetActiveAccount(ctx, subscription); err != nil {
			logger.Error("failed to set subscription, skipping its VMs",
				zap.String("subscription", subscription),
				zap.Error(err))
			for _, vm := range vms {
				outcomes = append(outcomes, CreateOutcome{
					VMName: vm.VMName,
					Err:    fmt.Errorf("failed to set subscription: %w", err),
				})
			}
			continue
		}

		results := make([]CreateOutcome, len(vms))
		group := pool.NewGroupContext(ctx)
		groupCtx := group.Context()
		for i, vm := range vms {
			i, vm := i, vm
			group.Submit(func() {
				results[i] = createOne(groupCtx, client, logger, subscription, vm, opts)
			})
		}
		if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
			logger.Warn("snapshot creation group encountered error",
				zap.String("subscription", subscription),
				zap.Error(err))
		}
		outcomes = append(outcomes, results...)
	}

	return outcomes
}

func createOne(ctx context.Context, client azure.Client, logger *zap.Logger, subscription string, target VMTarget, opts CreateOptions) CreateOutcome {
	outcome := CreateOutcome{VMName: target.VMName}

	vm, err := client.ShowVM(ctx, target.ResourceID)
	if err != nil {
		logger.Error("failed to get VM details",
			zap.String("vm", target.VMName),
			zap.Error(err))
		outcome.Err = fmt.Errorf("failed to get VM details: %w", err)
		return outcome
	}

	outcome.SnapshotName = opts.SnapshotName(target.VMName)

	id, err := client.CreateSnapshot(ctx, subscription, vm.ResourceGroup, outcome.SnapshotName, vm.OSDiskID)
	if err != nil {
		logger.Error("failed to create snapshot",
			zap.String("vm", target.VMName),
			zap.String("snapshot", outcome.SnapshotName),
			zap.Error(err))
		outcome.Err = fmt.Errorf("failed to create snapshot: %w", err)
		return outcome
	}
	if id == "" {
		outcome.Err = fmt.Errorf("could not extract snapshot resource ID for %s", outcome.SnapshotName)
		return outcome
	}

	// confirm the snapshot actually landed before handing its ID out
	exists, err := client.SnapshotExists(ctx, id)
	if err != nil {
		outcome.Err = fmt.Errorf("failed to verify snapshot %s: %w", outcome.SnapshotName, err)
		return outcome
	}
	if !exists {
		outcome.Err = fmt.Errorf("snapshot %s was created but could not be found", outcome.SnapshotName)
		return outcome
	}

	outcome.SnapshotID = id
	logger.Info("snapshot created",
		zap.String("vm", target.VMName),
		zap.String("snapshot", outcome.SnapshotName))
	return outcome
}

// WriteSnapshotIDs appends created snapshot resource IDs to a file that can
// be fed straight back into the bulk deletion workflow.
func WriteSnapshotIDs(path string, outcomes []CreateOutcome) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	for _, o := range outcomes {
		if o.Err != nil || o.SnapshotID == "" {
			continue
		}
		if _, err := fmt.Fprintln(f, o.SnapshotID); err != nil {
			return fmt.Errorf("failed to write snapshot ID: %w", err)
		}
	}
	return nil
}

func groupBySubscription(targets []VMTarget) map[string][]VMTarget {
	grouped := make(map[string][]VMTarget)
	for _, t := range targets {
		parts := strings.Split(t.ResourceID, "/")
		if len(parts) <= subscriptionSegment {
			grouped[""] = append(grouped[""], t)
			continue
		}
		grouped[parts[subscriptionSegment]] = append(grouped[parts[subscriptionSegment]], t)
	}
	return grouped
}
