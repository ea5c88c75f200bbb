package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheTTL keeps gate decisions hot for a short window. Subscription rows
// change rarely, but the TTL must stay small so an expiry taking effect at
// a day boundary is observed promptly.
const cacheTTL = 60 * time.Second

// Gate decides whether an organization's paid access window is currently
// valid. Only student exam-taking paths consult it; admin and instructor
// CRUD is never subscription gated.
type Gate struct {
	repo   Repository
	cache  *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewGate constructs a Gate. The cache client is optional; without one
// every decision hits the data store.
func NewGate(repo Repository, cache *redis.Client, logger *slog.Logger) *Gate {
	return &Gate{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// IsAccessible reports whether the organization may currently be served.
// Inactive organizations are denied outright; an active organization with
// no subscription row at all is allowed (grandfathered, it predates
// billing); otherwise the current subscription's end date decides. An
// organization whose subscription rows exist but are no longer active is
// expired, not grandfathered.
func (g *Gate) IsAccessible(ctx context.Context, orgID int64) (Access, error) {
	if access, ok := g.cached(ctx, orgID); ok {
		return access, nil
	}

	org, err := g.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return Access{}, err
	}
	if org.Status != OrgStatusActive {
		return g.store(ctx, orgID, Access{Allowed: false, Reason: ReasonOrgInactive}), nil
	}

	sub, err := g.repo.CurrentSubscription(ctx, orgID)
	if err != nil {
		return Access{}, err
	}
	if sub == nil {
		exists, err := g.repo.HasSubscription(ctx, orgID)
		if err != nil {
			return Access{}, err
		}
		if exists {
			return g.store(ctx, orgID, Access{Allowed: false, Reason: ReasonSubscriptionExpired}), nil
		}
		return g.store(ctx, orgID, Access{Allowed: true, Reason: ReasonGrandfathered}), nil
	}
	if sub.EndDate.Before(g.now()) {
		return g.store(ctx, orgID, Access{Allowed: false, Reason: ReasonSubscriptionExpired}), nil
	}
	return g.store(ctx, orgID, Access{Allowed: true}), nil
}

func (g *Gate) cached(ctx context.Context, orgID int64) (Access, bool) {
	if g.cache == nil {
		return Access{}, false
	}
	data, err := g.cache.Get(ctx, cacheKey(orgID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && g.logger != nil {
			g.logger.Warn("gate cache read", slog.Any("error", err))
		}
		return Access{}, false
	}
	var access Access
	if err := json.Unmarshal(data, &access); err != nil {
		return Access{}, false
	}
	return access, true
}

func (g *Gate) store(ctx context.Context, orgID int64, access Access) Access {
	if g.cache == nil {
		return access
	}
	data, err := json.Marshal(access)
	if err != nil {
		return access
	}
	if err := g.cache.Set(ctx, cacheKey(orgID), data, cacheTTL).Err(); err != nil && g.logger != nil {
		g.logger.Warn("gate cache write", slog.Any("error", err))
	}
	return access
}

// Invalidate drops the cached decision, used when subscription rows change.
func (g *Gate) Invalidate(ctx context.Context, orgID int64) {
	if g.cache == nil {
		return
	}
	_ = g.cache.Del(ctx, cacheKey(orgID)).Err()
}

func cacheKey(orgID int64) string {
	return fmt.Sprintf("billing:access:%d", orgID)
}
