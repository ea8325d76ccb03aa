// Package auth provides chat ID-based authorization for bot commands.
package auth

import (
	"slices"
	"sync"
)

// Authorizer validates whether a chat ID is allowed to run tasks.
type Authorizer interface {
	// IsAllowed returns true if the chat ID is in the allowlist.
	IsAllowed(chatID int64) bool

	// Reload replaces the allowlist with a new set of chat IDs.
	Reload(allowedIDs []int64)
}

// Allowlist implements Authorizer using a set of permitted chat IDs.
type Allowlist struct {
	mu      sync.RWMutex
	allowed map[int64]struct{}
}

// NewAllowlist creates an Authorizer that permits only the specified chat IDs.
func NewAllowlist(allowedIDs []int64) *Allowlist {
	a := &Allowlist{}
	a.Reload(allowedIDs)
	return a
}

// IsAllowed returns true if the chat ID is in the allowlist.
func (a *Allowlist) IsAllowed(chatID int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.allowed[chatID]
	return ok
}

// Reload replaces the allowlist with a new set of chat IDs.
func (a *Allowlist) Reload(allowedIDs []int64) {
	newAllowed := make(map[int64]struct{}, len(allowedIDs))
	for _, id := range allowedIDs {
		newAllowed[id] = struct{}{}
	}

	a.mu.Lock()
	a.allowed = newAllowed
	a.mu.Unlock()
}

// Chats returns the allowed chat IDs in ascending order. The bot announces
// itself to these chats on startup.
func (a *Allowlist) Chats() []int64 {
	a.mu.RLock()
	ids := make([]int64, 0, len(a.allowed))
	for id := range a.allowed {
		ids = append(ids, id)
	}
	a.mu.RUnlock()

	slices.Sort(ids)
	return ids
}
