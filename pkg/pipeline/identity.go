package pipeline

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/tinyland-inc/obridge/pkg/platform"
)

// opaquePrefix marks identifiers that live in the platform's internal
// address space and need resolution. Anything else is assumed to already
// be a stable numeric identifier.
const opaquePrefix = "u_"

// IdentityCache resolves opaque uids to stable uins, remembering every
// successful resolution for the process lifetime. Entries are never
// evicted or invalidated; the mapping is immutable on the platform side.
//
// Concurrent resolutions of the same uid are not coalesced. Two in-flight
// lookups for a hot identity both hit the core; the second cache write is
// idempotent, so this costs a duplicate query, not correctness.
type IdentityCache struct {
	users platform.UserAPI

	mu   sync.Mutex
	uins map[string]int64
}

func NewIdentityCache(users platform.UserAPI) *IdentityCache {
	return &IdentityCache{
		users: users,
		uins:  make(map[string]int64),
	}
}

// Resolve maps uid to its stable uin. Failed lookups are not cached; the
// caller decides whether the failure drops the event or degrades to zero.
func (c *IdentityCache) Resolve(ctx context.Context, uid string) (int64, error) {
	if !strings.HasPrefix(uid, opaquePrefix) {
		return strconv.ParseInt(uid, 10, 64)
	}

	c.mu.Lock()
	if uin, ok := c.uins[uid]; ok {
		c.mu.Unlock()
		return uin, nil
	}
	c.mu.Unlock()

	info, err := c.users.GetUserInfo(ctx, uid)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.uins[uid] = info.Uin
	c.mu.Unlock()
	return info.Uin, nil
}

// Cached reports whether uid already has a resolved mapping.
func (c *IdentityCache) Cached(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.uins[uid]
	return ok
}
