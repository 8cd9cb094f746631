package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"loyaltypush/internal/model"
)

const (
	// ScheduleKey holds every pending scheduled notification, scored by due time.
	ScheduleKey = "schedule:notifications"

	// ScheduleTTL bounds how long an undelivered schedule set survives.
	ScheduleTTL = 7 * 24 * time.Hour
)

// ScheduleCache stores delayed notifications until they fall due.
type ScheduleCache interface {
	// Add stores n with its DueAt as score.
	Add(ctx context.Context, n model.ScheduledNotification) error

	// PopDue claims up to limit notifications due at or before now.
	// A notification is returned to exactly one caller across instances.
	PopDue(ctx context.Context, now time.Time, limit int64) ([]model.ScheduledNotification, error)

	// Size returns the number of pending notifications.
	Size(ctx context.Context) (int64, error)
}

// RedisScheduleCache implements ScheduleCache with a Redis sorted set.
type RedisScheduleCache struct {
	client *redis.Client
	key    string
}

// NewScheduleCache creates a ScheduleCache backed by Redis.
func NewScheduleCache(client *redis.Client) ScheduleCache {
	return &RedisScheduleCache{client: client, key: ScheduleKey}
}

// Add stores the notification as a JSON member. Pipeline: ZADD + EXPIRE.
func (c *RedisScheduleCache) Add(ctx context.Context, n model.ScheduledNotification) error {
	member, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal scheduled notification: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, c.key, redis.Z{
		Score:  float64(n.DueAt),
		Member: string(member),
	})
	pipe.Expire(ctx, c.key, ScheduleTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[ScheduleCache] Add FAILED: id=%s user=%s err=%v", n.ID, n.UserID, err)
		return fmt.Errorf("add scheduled notification: %w", err)
	}

	log.Printf("[ScheduleCache] Add OK: id=%s user=%s due=%d", n.ID, n.UserID, n.DueAt)
	return nil
}

// PopDue reads due members then claims each with ZREM; only the caller whose
// ZREM removed the member gets it.
func (c *RedisScheduleCache) PopDue(ctx context.Context, now time.Time, limit int64) ([]model.ScheduledNotification, error) {
	members, err := c.client.ZRangeByScore(ctx, c.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		log.Printf("[ScheduleCache] PopDue FAILED: err=%v", err)
		return nil, fmt.Errorf("range due notifications: %w", err)
	}

	var due []model.ScheduledNotification
	for _, m := range members {
		removed, err := c.client.ZRem(ctx, c.key, m).Result()
		if err != nil {
			return due, fmt.Errorf("claim scheduled notification: %w", err)
		}
		if removed == 0 {
			continue // claimed elsewhere
		}

		var n model.ScheduledNotification
		if err := json.Unmarshal([]byte(m), &n); err != nil {
			log.Printf("[ScheduleCache] PopDue parse error: member=%q err=%v", m, err)
			continue
		}
		due = append(due, n)
	}

	if len(due) > 0 {
		log.Printf("[ScheduleCache] PopDue OK: claimed=%d", len(due))
	}
	return due, nil
}

// Size returns the number of pending notifications.
func (c *RedisScheduleCache) Size(ctx context.Context) (int64, error) {
	size, err := c.client.ZCard(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("get schedule size: %w", err)
	}
	return size, nil
}
