package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/logging"
	"github.com/iliyamo/soulspace-ledger/internal/model"
)

// TodayCache keeps each user's quote for the current day in Redis. Entries
// expire at the next midnight in the resolver's zone, so a stale day can
// never be served. Redis errors are logged and treated as misses.
type TodayCache struct {
	rdb    *redis.Client
	days   *daykey.Resolver
	prefix string
	log    logging.Logger
}

func NewTodayCache(rdb *redis.Client, days *daykey.Resolver, prefix string, log logging.Logger) *TodayCache {
	if prefix == "" {
		prefix = "quote"
	}
	return &TodayCache{rdb: rdb, days: days, prefix: prefix, log: log}
}

type cachedQuote struct {
	ID         uint64    `json:"id"`
	ExternalID string    `json:"external_id"`
	Content    string    `json:"content"`
	Author     string    `json:"author"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *TodayCache) key(userID uint64, day daykey.Key) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, userID, day)
}

func (c *TodayCache) Get(ctx context.Context, userID uint64, day daykey.Key) (model.QuoteRecord, bool) {
	raw, err := c.rdb.Get(ctx, c.key(userID, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.QuoteRecord{}, false
	}
	if err != nil {
		c.log.Warn(ctx, "quote cache get failed", "user_id", userID, "err", err)
		return model.QuoteRecord{}, false
	}
	var cq cachedQuote
	if err := json.Unmarshal(raw, &cq); err != nil {
		c.log.Warn(ctx, "quote cache entry unreadable", "user_id", userID, "err", err)
		return model.QuoteRecord{}, false
	}
	tags := cq.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.QuoteRecord{
		ID:         cq.ID,
		UserID:     userID,
		ExternalID: cq.ExternalID,
		Content:    cq.Content,
		Author:     cq.Author,
		Tags:       tags,
		DayKey:     day,
		CreatedAt:  cq.CreatedAt,
	}, true
}

// Set stores rec until the end of its day. Records for any day other than
// today are not cached.
func (c *TodayCache) Set(ctx context.Context, rec model.QuoteRecord) {
	now := c.days.Now()
	if rec.DayKey != c.days.Of(now) {
		return
	}
	raw, err := json.Marshal(cachedQuote{
		ID:         rec.ID,
		ExternalID: rec.ExternalID,
		Content:    rec.Content,
		Author:     rec.Author,
		Tags:       rec.Tags,
		CreatedAt:  rec.CreatedAt,
	})
	if err != nil {
		return
	}
	ttl := c.days.UntilNextDay(now)
	if err := c.rdb.Set(ctx, c.key(rec.UserID, rec.DayKey), raw, ttl).Err(); err != nil {
		c.log.Warn(ctx, "quote cache set failed", "user_id", rec.UserID, "err", err)
	}
}
