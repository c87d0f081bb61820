package userdir

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const profileKeyPrefix = "msg:profile:"

// CachedDirectory caches profiles in Redis in front of another Directory.
// A nil client disables caching and everything goes straight through.
type CachedDirectory struct {
	next Directory
	rdb  redis.UniversalClient
	ttl  time.Duration
}

// NewCachedDirectory wraps next with a Redis profile cache.
func NewCachedDirectory(next Directory, rdb redis.UniversalClient, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedDirectory{next: next, rdb: rdb, ttl: ttl}
}

func (d *CachedDirectory) GetUser(ctx context.Context, id string) (Profile, error) {
	if p, ok := d.cached(ctx, id); ok {
		return p, nil
	}
	p, err := d.next.GetUser(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	d.store(ctx, p)
	return p, nil
}

func (d *CachedDirectory) BulkUsers(ctx context.Context, ids []string) ([]Profile, error) {
	profiles := make([]Profile, 0, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := d.cached(ctx, id); ok {
			profiles = append(profiles, p)
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return profiles, nil
	}

	fetched, err := d.next.BulkUsers(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, p := range fetched {
		d.store(ctx, p)
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (d *CachedDirectory) cached(ctx context.Context, id string) (Profile, bool) {
	if d.rdb == nil {
		return Profile{}, false
	}
	raw, err := d.rdb.Get(ctx, profileKeyPrefix+id).Bytes()
	if err != nil {
		return Profile{}, false
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, false
	}
	return p, true
}

func (d *CachedDirectory) store(ctx context.Context, p Profile) {
	if d.rdb == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	d.rdb.Set(ctx, profileKeyPrefix+p.ID, raw, d.ttl)
}
