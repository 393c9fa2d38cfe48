package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hemantobora/azsnap/internal/retry"
)

// runFunc executes one az invocation and returns its stdout. Swappable so
// tests can run the CLI client without an az binary on PATH.
type runFunc func(ctx context.Context, args ...string) (string, error)

// CLI implements Client by shelling out to the Azure CLI, one process per
// call. Mutating calls are retried with backoff; definitive provider answers
// (not found, authorization denied) are never retried.
type CLI struct {
	logger *zap.Logger
	retry  retry.Config
	run    runFunc
}

// NewCLI returns a Client backed by the `az` binary.
func NewCLI(logger *zap.Logger) *CLI {
	c := &CLI{
		logger: logger,
		retry:  retry.DefaultConfig(),
	}
	c.run = c.execAz
	return c
}

func (c *CLI) execAz(ctx context.Context, args ...string) (string, error) {
	c.logger.Debug("running az command", zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, "az", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		c.logger.Error("az command failed",
			zap.Strings("args", args),
			zap.String("stderr", msg))
		return "", &CommandError{Args: args, Stderr: msg}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// transient reports whether an az failure is worth retrying. Definitive
// provider answers (not found, authorization denied, bad request) are
// permanent; anything else could be throttling or a network blip.
func transient(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return true
	}
	for _, marker := range []string{"NotFound", "AuthorizationFailed", "InvalidResource", "BadRequest"} {
		if strings.Contains(cmdErr.Stderr, marker) {
			return false
		}
	}
	return true
}

// AccountExists checks for a live az session.
func (c *CLI) AccountExists(ctx context.Context) bool {
	_, err := c.run(ctx, "account", "show")
	return err == nil
}

// ListAccounts enumerates visible subscriptions.
func (c *CLI) ListAccounts(ctx context.Context) ([]Account, error) {
	out, err := c.run(ctx, "account", "list", "--query", "[].{id:id, name:name}", "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	var accounts []Account
	if err := json.Unmarshal([]byte(out), &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse account list: %w", err)
	}
	return accounts, nil
}

// SetActiveAccount switches the CLI's sticky subscription context.
func (c *CLI) SetActiveAccount(ctx context.Context, accountID string) error {
	if _, err := c.run(ctx, "account", "set", "--subscription", accountID); err != nil {
		return fmt.Errorf("failed to switch to subscription %s: %w", accountID, err)
	}
	c.logger.Info("switched subscription", zap.String("subscription", accountID))
	return nil
}

// SnapshotExists distinguishes "definitively absent" (false, nil) from every
// other failure (false, err). Permission errors come back as errors, never as
// a not-found answer.
func (c *CLI) SnapshotExists(ctx context.Context, resourceID string) (bool, error) {
	_, err := c.run(ctx, "snapshot", "show", "--ids", resourceID)
	if err == nil {
		return true, nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && isNotFound(cmdErr.Stderr) {
		return false, nil
	}
	return false, err
}

// DeleteSnapshot removes one snapshot by resource ID, with retry.
func (c *CLI) DeleteSnapshot(ctx context.Context, resourceID string) error {
	_, err := c.runMutating(ctx, "delete snapshot", "snapshot", "delete", "--ids", resourceID)
	return err
}

// ListSnapshots lists snapshots in one subscription created inside [from, to].
func (c *CLI) ListSnapshots(ctx context.Context, accountID string, from, to time.Time) ([]Snapshot, error) {
	query := fmt.Sprintf(
		"[?timeCreated >= '%s' && timeCreated <= '%s'].{name:name, resourceGroup:resourceGroup, timeCreated:timeCreated, diskState:diskState, id:id, createdBy:tags.createdBy}",
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	out, err := c.run(ctx, "snapshot", "list", "--subscription", accountID, "--query", query, "-o", "json")
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Stderr, "AuthorizationFailed") {
			c.logger.Warn("no permission to list snapshots, skipping subscription",
				zap.String("subscription", accountID))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots in %s: %w", accountID, err)
	}
	var snapshots []Snapshot
	if err := json.Unmarshal([]byte(out), &snapshots); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot list for %s: %w", accountID, err)
	}
	return snapshots, nil
}

// CreateSnapshot creates a snapshot from a source disk and returns its ID.
func (c *CLI) CreateSnapshot(ctx context.Context, accountID, resourceGroup, name, sourceDiskID string) (string, error) {
	out, err := c.runMutating(ctx, "create snapshot",
		"snapshot", "create",
		"--subscription", accountID,
		"--resource-group", resourceGroup,
		"--name", name,
		"--source", sourceDiskID,
		"--query", "id", "-o", "tsv")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ShowVM fetches the resource group and OS disk ID for a VM resource ID.
func (c *CLI) ShowVM(ctx context.Context, resourceID string) (VM, error) {
	out, err := c.run(ctx, "vm", "show", "--ids", resourceID,
		"--query", "{resourceGroup:resourceGroup, diskId:storageProfile.osDisk.managedDisk.id}", "-o", "json")
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && isNotFound(cmdErr.Stderr) {
			return VM{}, fmt.Errorf("vm %s: %w", resourceID, ErrNotFound)
		}
		return VM{}, fmt.Errorf("failed to show vm %s: %w", resourceID, err)
	}
	var vm VM
	if err := json.Unmarshal([]byte(out), &vm); err != nil {
		return VM{}, fmt.Errorf("failed to parse vm details for %s: %w", resourceID, err)
	}
	return vm, nil
}

// ListLocks lists management locks on one resource group.
func (c *CLI) ListLocks(ctx context.Context, accountID, resourceGroup string) ([]Lock, error) {
	out, err := c.run(ctx,
		"lock", "list",
		"--subscription", accountID,
		"--resource-group", resourceGroup,
		"--query", "[].{name:name, level:level}", "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("failed to list locks in %s: %w", resourceGroup, err)
	}
	var locks []Lock
	if err := json.Unmarshal([]byte(out), &locks); err != nil {
		return nil, fmt.Errorf("failed to parse lock list for %s: %w", resourceGroup, err)
	}
	return locks, nil
}

// DeleteLock removes one management lock.
func (c *CLI) DeleteLock(ctx context.Context, accountID, resourceGroup, name string) error {
	_, err := c.runMutating(ctx, "delete lock",
		"lock", "delete",
		"--subscription", accountID,
		"--resource-group", resourceGroup,
		"--name", name)
	return err
}

// CreateLock recreates a management lock at the given level.
func (c *CLI) CreateLock(ctx context.Context, accountID, resourceGroup, name, level string) error {
	_, err := c.runMutating(ctx, "create lock",
		"lock", "create",
		"--subscription", accountID,
		"--resource-group", resourceGroup,
		"--name", name,
		"--lock-type", level)
	return err
}

// runMutating retries transient failures and passes permanent ones through.
func (c *CLI) runMutating(ctx context.Context, operation string, args ...string) (string, error) {
	var out string
	var permanent error
	err := retry.WithBackoff(ctx, c.retry, c.logger, operation, func() error {
		var runErr error
		out, runErr = c.run(ctx, args...)
		if runErr != nil && !transient(runErr) {
			permanent = runErr
			return nil
		}
		return runErr
	})
	if err != nil {
		return "", err
	}
	if permanent != nil {
		return "", permanent
	}
	return out, nil
}

func isNotFound(stderr string) bool {
	for _, marker := range []string{"ResourceNotFound", "NotFound", "was not found", "could not be found"} {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}
