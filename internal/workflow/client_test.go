package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hemantobora/azsnap/internal/azure"
)

// fakeClient is a scriptable azure.Client that records every call in order.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	loggedIn bool
	accounts []azure.Account

	// existing snapshots by resource ID; validation answers from this set
	snapshots map[string]bool
	// existence-check errors by resource ID (permission denied etc.)
	existsErr map[string]error
	// deletion failures by resource ID
	deleteErr map[string]error
	// panic during deletion, to simulate an executor fault
	deletePanic bool

	// locks per "account/resourceGroup"
	locks map[string][]azure.Lock
	// lock ops that should fail, keyed by lock name
	deleteLockErr map[string]error
	createLockErr map[string]error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		loggedIn:      true,
		snapshots:     make(map[string]bool),
		existsErr:     make(map[string]error),
		deleteErr:     make(map[string]error),
		locks:         make(map[string][]azure.Lock),
		deleteLockErr: make(map[string]error),
		createLockErr: make(map[string]error),
	}
}

func (f *fakeClient) record(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeClient) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeClient) AccountExists(ctx context.Context) bool {
	f.record("accountExists")
	return f.loggedIn
}

func (f *fakeClient) ListAccounts(ctx context.Context) ([]azure.Account, error) {
	f.record("listAccounts")
	if f.accounts == nil {
		return nil, fmt.Errorf("account listing unavailable")
	}
	return f.accounts, nil
}

func (f *fakeClient) SetActiveAccount(ctx context.Context, accountID string) error {
	f.record("setAccount %s", accountID)
	return nil
}

func (f *fakeClient) SnapshotExists(ctx context.Context, resourceID string) (bool, error) {
	f.record("exists %s", resourceID)
	if err := f.existsErr[resourceID]; err != nil {
		return false, err
	}
	return f.snapshots[resourceID], nil
}

func (f *fakeClient) DeleteSnapshot(ctx context.Context, resourceID string) error {
	if f.deletePanic {
		panic("executor fault")
	}
	f.record("delete %s", resourceID)
	if err := f.deleteErr[resourceID]; err != nil {
		return err
	}
	return nil
}

func (f *fakeClient) ListSnapshots(ctx context.Context, accountID string, from, to time.Time) ([]azure.Snapshot, error) {
	f.record("listSnapshots %s", accountID)
	return nil, nil
}

func (f *fakeClient) CreateSnapshot(ctx context.Context, accountID, resourceGroup, name, sourceDiskID string) (string, error) {
	f.record("createSnapshot %s", name)
	return "", nil
}

func (f *fakeClient) ShowVM(ctx context.Context, resourceID string) (azure.VM, error) {
	f.record("showVM %s", resourceID)
	return azure.VM{}, nil
}

func (f *fakeClient) ListLocks(ctx context.Context, accountID, resourceGroup string) ([]azure.Lock, error) {
	f.record("listLocks %s/%s", accountID, resourceGroup)
	return f.locks[accountID+"/"+resourceGroup], nil
}

func (f *fakeClient) DeleteLock(ctx context.Context, accountID, resourceGroup, name string) error {
	f.record("deleteLock %s/%s/%s", accountID, resourceGroup, name)
	return f.deleteLockErr[name]
}

func (f *fakeClient) CreateLock(ctx context.Context, accountID, resourceGroup, name, level string) error {
	f.record("createLock %s/%s/%s", accountID, resourceGroup, name)
	return f.createLockErr[name]
}
