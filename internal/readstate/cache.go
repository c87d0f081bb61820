package readstate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Edura-Academy/edura-sub002/internal/observability"
)

const unreadTTL = 60 * time.Second

// unreadCache keeps derived unread counts in Redis so the conversation list
// does not recount on every poll-driven refresh. A nil client disables the
// cache; counts then always come from the store. The TTL bounds staleness
// if an invalidation is ever lost.
type unreadCache struct {
	rdb redis.UniversalClient
}

func newUnreadCache(rdb redis.UniversalClient) *unreadCache {
	return &unreadCache{rdb: rdb}
}

func unreadKey(conversationID, userID string) string {
	return fmt.Sprintf("msg:unread:%s:%s", conversationID, userID)
}

func (c *unreadCache) get(ctx context.Context, conversationID, userID string) (int, bool) {
	if c.rdb == nil {
		return 0, false
	}
	raw, err := c.rdb.Get(ctx, unreadKey(conversationID, userID)).Result()
	if err != nil {
		observability.IncUnreadCache(false)
		return 0, false
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	observability.IncUnreadCache(true)
	return count, true
}

func (c *unreadCache) set(ctx context.Context, conversationID, userID string, count int) {
	if c.rdb == nil {
		return
	}
	c.rdb.Set(ctx, unreadKey(conversationID, userID), strconv.Itoa(count), unreadTTL)
}

func (c *unreadCache) invalidate(ctx context.Context, conversationID string, userIDs []string) {
	if c.rdb == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, unreadKey(conversationID, userID))
	}
	c.rdb.Del(ctx, keys...)
}
