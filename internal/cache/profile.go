// Package cache puts a Redis read-through cache in front of repo lookups that
// are hit on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pkordes/fleet-scheduler/internal/domain"
	"github.com/pkordes/fleet-scheduler/internal/repo"
)

const profileKeyPrefix = "profile:"

// ProfileCache implements repo.ProfileRepo by caching another ProfileRepo in Redis.
// Redis failures are logged and fall through to the underlying repo, so the
// cache can never make a lookup fail that the database would have answered.
// Missing profiles are not cached.
type ProfileCache struct {
	rdb  goredis.UniversalClient
	next repo.ProfileRepo
	ttl  time.Duration
	log  *slog.Logger
}

// NewProfileCache wraps next with a Redis cache whose entries live for ttl.
func NewProfileCache(rdb goredis.UniversalClient, next repo.ProfileRepo, ttl time.Duration, log *slog.Logger) *ProfileCache {
	return &ProfileCache{rdb: rdb, next: next, ttl: ttl, log: log}
}

// cachedProfile is the JSON shape stored in Redis.
type cachedProfile struct {
	UID      string `json:"uid"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

// GetByUID returns the cached profile, or loads it from the underlying repo and
// stores it.
func (c *ProfileCache) GetByUID(ctx context.Context, uid string) (domain.Profile, error) {
	key := profileKeyPrefix + uid

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cp cachedProfile
		if err := json.Unmarshal(raw, &cp); err == nil {
			return domain.Profile{
				UID:      cp.UID,
				Name:     cp.Name,
				Email:    cp.Email,
				Role:     domain.ParseRole(cp.Role),
				TenantID: cp.TenantID,
			}, nil
		}
		c.log.WarnContext(ctx, "profile cache: corrupt entry", "uid", uid)
	case errors.Is(err, goredis.Nil):
	default:
		c.log.WarnContext(ctx, "profile cache: get failed", "uid", uid, "error", err)
	}

	p, err := c.next.GetByUID(ctx, uid)
	if err != nil {
		return domain.Profile{}, err
	}

	data, err := json.Marshal(cachedProfile{
		UID:      p.UID,
		Name:     p.Name,
		Email:    p.Email,
		Role:     string(p.Role),
		TenantID: p.TenantID,
	})
	if err != nil {
		return p, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "profile cache: set failed", "uid", uid, "error", err)
	}
	return p, nil
}

// compile-time check: ProfileCache must satisfy repo.ProfileRepo.
var _ repo.ProfileRepo = (*ProfileCache)(nil)
