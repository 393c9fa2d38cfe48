package workflow

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemantobora/azsnap/internal/azure"
	"github.com/hemantobora/azsnap/internal/snapshot"
)

func mustParse(t *testing.T, raw string) snapshot.ResourceID {
	t.Helper()
	id, err := snapshot.ParseResourceID(raw)
	require.NoError(t, err)
	return id
}

func TestScopesOfDedup(t *testing.T) {
	ids := []snapshot.ResourceID{
		mustParse(t, snapID("111", "rg1", "snap-a")),
		mustParse(t, snapID("111", "rg1", "snap-b")),
		mustParse(t, snapID("111", "rg2", "snap-c")),
		mustParse(t, snapID("222", "rg1", "snap-d")),
	}

	scopes := scopesOf(ids)

	require.Len(t, scopes, 3)
	assert.Equal(t, scope{account: "111", resourceGroup: "rg1"}, scopes[0])
	assert.Equal(t, scope{account: "111", resourceGroup: "rg2"}, scopes[1])
	assert.Equal(t, scope{account: "222", resourceGroup: "rg1"}, scopes[2])
}

func TestSuspendRemovesOnlyCanNotDeleteLocks(t *testing.T) {
	client := newFakeClient()
	client.locks["111/rg1"] = []azure.Lock{
		{Name: "keep-safe", Level: azure.LockLevelCanNotDelete},
		{Name: "read-only", Level: azure.LockLevelReadOnly},
	}

	c := newTestCoordinator(client)
	removed := c.suspendLocks(context.Background(), []snapshot.ResourceID{
		mustParse(t, snapID("111", "rg1", "snap-a")),
	})

	require.Len(t, removed, 1)
	assert.Equal(t, ScopeLock{Account: "111", ResourceGroup: "rg1", Name: "keep-safe"}, removed[0])

	for _, call := range client.callLog() {
		assert.NotEqual(t, "deleteLock 111/rg1/read-only", call)
	}
}

func TestSuspendFailedRemovalStaysOutOfLedger(t *testing.T) {
	client := newFakeClient()
	client.locks["111/rg1"] = []azure.Lock{
		{Name: "stubborn", Level: azure.LockLevelCanNotDelete},
		{Name: "removable", Level: azure.LockLevelCanNotDelete},
	}
	client.deleteLockErr["stubborn"] = fmt.Errorf("lock removal denied")

	c := newTestCoordinator(client)
	removed := c.suspendLocks(context.Background(), []snapshot.ResourceID{
		mustParse(t, snapID("111", "rg1", "snap-a")),
	})

	// only what was actually removed may be restored later
	require.Len(t, removed, 1)
	assert.Equal(t, "removable", removed[0].Name)
}

func TestSuspendSwitchesAccountOncePerGroup(t *testing.T) {
	client := newFakeClient()
	client.locks["111/rg1"] = nil
	client.locks["111/rg2"] = nil
	client.locks["222/rg1"] = nil

	c := newTestCoordinator(client)
	c.suspendLocks(context.Background(), []snapshot.ResourceID{
		mustParse(t, snapID("111", "rg1", "snap-a")),
		mustParse(t, snapID("111", "rg2", "snap-b")),
		mustParse(t, snapID("222", "rg1", "snap-c")),
	})

	switches := 0
	for _, call := range client.callLog() {
		if strings.HasPrefix(call, "setAccount") {
			switches++
		}
	}
	assert.Equal(t, 2, switches, "one switch per account group")
}

func TestRestoreAccountsForEveryLedgerEntry(t *testing.T) {
	client := newFakeClient()
	client.createLockErr["broken"] = fmt.Errorf("lock create failed")

	removed := []ScopeLock{
		{Account: "111", ResourceGroup: "rg1", Name: "ok-1"},
		{Account: "111", ResourceGroup: "rg1", Name: "broken"},
		{Account: "222", ResourceGroup: "rg2", Name: "ok-2"},
	}

	c := newTestCoordinator(client)
	restored, orphaned := c.restoreLocks(context.Background(), removed)

	// the union of restored and orphaned covers the ledger exactly
	assert.Len(t, restored, 2)
	require.Len(t, orphaned, 1)
	assert.Equal(t, "broken", orphaned[0].Name)
	assert.ElementsMatch(t, removed, append(append([]ScopeLock{}, restored...), orphaned...))

	// every entry was attempted exactly once
	attempts := 0
	for _, call := range client.callLog() {
		if strings.HasPrefix(call, "createLock") {
			attempts++
		}
	}
	assert.Equal(t, len(removed), attempts)
}
