package azure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Lock levels as reported by `az lock list`. Only CanNotDelete locks block
// snapshot deletion; ReadOnly locks are left alone.
const (
	LockLevelCanNotDelete = "CanNotDelete"
	LockLevelReadOnly     = "ReadOnly"
)

// Account is one subscription the signed-in principal can see.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Lock is a management lock on a resource group.
type Lock struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Snapshot is the subset of `az snapshot list` output the tool works with.
type Snapshot struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ResourceGroup string `json:"resourceGroup"`
	TimeCreated   string `json:"timeCreated"`
	DiskState     string `json:"diskState"`
	CreatedBy     string `json:"createdBy"`
}

// Created parses the snapshot's creation timestamp. Azure emits RFC 3339 with
// fractional seconds; a zero time is returned when the field is unparseable.
func (s Snapshot) Created() time.Time {
	t, err := time.Parse(time.RFC3339Nano, s.TimeCreated)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AgeDays is the snapshot age in whole days at the time of the call.
func (s Snapshot) AgeDays() int {
	created := s.Created()
	if created.IsZero() {
		return 0
	}
	return int(time.Since(created).Hours() / 24)
}

// VM holds the VM details needed to snapshot its OS disk.
type VM struct {
	ResourceGroup string `json:"resourceGroup"`
	OSDiskID      string `json:"diskId"`
}

// ErrNotFound reports that the target resource definitively does not exist.
// Anything else that goes wrong with a client call is NOT ErrNotFound; callers
// rely on this to keep "already gone" distinct from "could not tell".
var ErrNotFound = errors.New("resource not found")

// CommandError is a failed az invocation with the provider's own message.
type CommandError struct {
	Args   []string
	Stderr string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("az %s: %s", strings.Join(e.Args, " "), e.Stderr)
}

// Message returns the human-readable provider message for reports.
func (e *CommandError) Message() string {
	return e.Stderr
}

// Client is the resource-client surface the workflow depends on. Every method
// takes the target identifier or account explicitly; the only sticky state is
// the active account, which SetActiveAccount mutates and which the lock
// coordinator is responsible for sequencing.
type Client interface {
	// Session and accounts.
	AccountExists(ctx context.Context) bool
	ListAccounts(ctx context.Context) ([]Account, error)
	SetActiveAccount(ctx context.Context, accountID string) error

	// Snapshots.
	SnapshotExists(ctx context.Context, resourceID string) (bool, error)
	DeleteSnapshot(ctx context.Context, resourceID string) error
	ListSnapshots(ctx context.Context, accountID string, from, to time.Time) ([]Snapshot, error)
	CreateSnapshot(ctx context.Context, accountID, resourceGroup, name, sourceDiskID string) (string, error)
	ShowVM(ctx context.Context, resourceID string) (VM, error)

	// Resource-group management locks.
	ListLocks(ctx context.Context, accountID, resourceGroup string) ([]Lock, error)
	DeleteLock(ctx context.Context, accountID, resourceGroup, name string) error
	CreateLock(ctx context.Context, accountID, resourceGroup, name, level string) error
}
