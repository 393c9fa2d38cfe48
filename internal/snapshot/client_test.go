package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hemantobora/azsnap/internal/azure"
)

// fakeClient covers the client surface the snapshot package touches.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	snapshotsByAccount map[string][]azure.Snapshot
	listErr            map[string]error

	vms           map[string]azure.VM
	createErr     map[string]error
	setAccountErr map[string]error
	created       map[string]bool
	lostOnVerify  map[string]bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		snapshotsByAccount: make(map[string][]azure.Snapshot),
		listErr:            make(map[string]error),
		vms:                make(map[string]azure.VM),
		createErr:          make(map[string]error),
		setAccountErr:      make(map[string]error),
		created:            make(map[string]bool),
		lostOnVerify:       make(map[string]bool),
	}
}

func (f *fakeClient) record(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeClient) AccountExists(ctx context.Context) bool { return true }

func (f *fakeClient) ListAccounts(ctx context.Context) ([]azure.Account, error) {
	return nil, nil
}

func (f *fakeClient) SetActiveAccount(ctx context.Context, accountID string) error {
	f.record("setAccount %s", accountID)
	return f.setAccountErr[accountID]
}

func (f *fakeClient) SnapshotExists(ctx context.Context, resourceID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lostOnVerify[resourceID] {
		return false, nil
	}
	return f.created[resourceID], nil
}

func (f *fakeClient) DeleteSnapshot(ctx context.Context, resourceID string) error {
	return nil
}

func (f *fakeClient) ListSnapshots(ctx context.Context, accountID string, from, to time.Time) ([]azure.Snapshot, error) {
	f.record("listSnapshots %s", accountID)
	if err := f.listErr[accountID]; err != nil {
		return nil, err
	}
	return f.snapshotsByAccount[accountID], nil
}

func (f *fakeClient) CreateSnapshot(ctx context.Context, accountID, resourceGroup, name, sourceDiskID string) (string, error) {
	f.record("createSnapshot %s/%s", resourceGroup, name)
	if err := f.createErr[name]; err != nil {
		return "", err
	}
	id := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Compute/snapshots/%s", accountID, resourceGroup, name)
	f.mu.Lock()
	f.created[id] = true
	f.mu.Unlock()
	return id, nil
}

func (f *fakeClient) ShowVM(ctx context.Context, resourceID string) (azure.VM, error) {
	f.record("showVM %s", resourceID)
	vm, ok := f.vms[resourceID]
	if !ok {
		return azure.VM{}, fmt.Errorf("vm %s: %w", resourceID, azure.ErrNotFound)
	}
	return vm, nil
}

func (f *fakeClient) ListLocks(ctx context.Context, accountID, resourceGroup string) ([]azure.Lock, error) {
	return nil, nil
}

func (f *fakeClient) DeleteLock(ctx context.Context, accountID, resourceGroup, name string) error {
	return nil
}

func (f *fakeClient) CreateLock(ctx context.Context, accountID, resourceGroup, name, level string) error {
	return nil
}

func testLogger() *zap.Logger { return zap.NewNop() }
