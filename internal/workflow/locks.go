package workflow

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/hemantobora/azsnap/internal/azure"
	"github.com/hemantobora/azsnap/internal/snapshot"
)

// ScopeLock identifies one CanNotDelete lock the coordinator removed:
// which subscription, which resource group, which lock name.
type ScopeLock struct {
	Account       string
	ResourceGroup string
	Name          string
}

// LockLedger accounts for every lock the suspend phase removed. After a run,
// Restored and Orphaned together cover Removed exactly; an orphaned entry is
// a lock that could not be recreated and needs manual attention.
type LockLedger struct {
	Removed  []ScopeLock
	Restored []ScopeLock
	Orphaned []ScopeLock
}

// scope is one distinct (subscription, resource group) pair implicated by the
// valid identifier set.
type scope struct {
	account       string
	resourceGroup string
}

// scopesOf dedups the (subscription, resource group) pairs of the valid set,
// sorted so lock operations group by account and the sticky account switch
// happens once per group.
func scopesOf(ids []snapshot.ResourceID) []scope {
	seen := make(map[scope]struct{})
	var scopes []scope
	for _, id := range ids {
		s := scope{account: id.Subscription, resourceGroup: id.ResourceGroup}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool {
		if scopes[i].account != scopes[j].account {
			return scopes[i].account < scopes[j].account
		}
		return scopes[i].resourceGroup < scopes[j].resourceGroup
	})
	return scopes
}

// suspendLocks removes every CanNotDelete lock in the implicated resource
// groups and returns exactly the set it removed. A lock that cannot be
// removed is logged and left in place; its resources will then legitimately
// fail deletion. The whole phase is serialized because the account switch is
// a global side effect on the client.
func (c *Coordinator) suspendLocks(ctx context.Context, ids []snapshot.ResourceID) []ScopeLock {
	var removed []ScopeLock
	currentAccount := ""

	for _, s := range scopesOf(ids) {
		if s.account != currentAccount {
			if err := c.client.SetActiveAccount(ctx, s.account); err != nil {
				c.logger.Error("failed to switch subscription, leaving its locks in place",
					zap.String("subscription", s.account),
					zap.Error(err))
				continue
			}
			currentAccount = s.account
		}

		locks, err := c.client.ListLocks(ctx, s.account, s.resourceGroup)
		if err != nil {
			c.logger.Error("failed to list locks",
				zap.String("resource_group", s.resourceGroup),
				zap.Error(err))
			continue
		}

		for _, lock := range locks {
			if lock.Level != azure.LockLevelCanNotDelete {
				continue
			}
			if err := c.client.DeleteLock(ctx, s.account, s.resourceGroup, lock.Name); err != nil {
				c.logger.Error("failed to remove lock",
					zap.String("lock", lock.Name),
					zap.String("resource_group", s.resourceGroup),
					zap.Error(err))
				continue
			}
			removed = append(removed, ScopeLock{
				Account:       s.account,
				ResourceGroup: s.resourceGroup,
				Name:          lock.Name,
			})
			c.logger.Info("removed lock",
				zap.String("lock", lock.Name),
				zap.String("resource_group", s.resourceGroup))
		}
	}

	return removed
}

// restoreLocks recreates every ledger entry at the CanNotDelete level, in the
// same account-grouped serialization as the suspend phase. Every entry is
// attempted exactly once; a failed restoration lands in orphaned, never
// silently dropped.
func (c *Coordinator) restoreLocks(ctx context.Context, removed []ScopeLock) (restored, orphaned []ScopeLock) {
	currentAccount := ""

	for _, lock := range removed {
		if lock.Account != currentAccount {
			if err := c.client.SetActiveAccount(ctx, lock.Account); err != nil {
				c.logger.Error("failed to switch subscription during lock restore",
					zap.String("subscription", lock.Account),
					zap.Error(err))
				orphaned = append(orphaned, lock)
				continue
			}
			currentAccount = lock.Account
		}

		if err := c.client.CreateLock(ctx, lock.Account, lock.ResourceGroup, lock.Name, azure.LockLevelCanNotDelete); err != nil {
			c.logger.Error("failed to restore lock",
				zap.String("lock", lock.Name),
				zap.String("resource_group", lock.ResourceGroup),
				zap.Error(err))
			orphaned = append(orphaned, lock)
			continue
		}

		restored = append(restored, lock)
		c.logger.Info("restored lock",
			zap.String("lock", lock.Name),
			zap.String("resource_group", lock.ResourceGroup))
	}

	return restored, orphaned
}
