package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	journalTTL  = 24 * time.Hour
	journalKeep = 50
)

// Journal keeps the most recent finished games per room in Redis.
type Journal struct {
	rdb *redis.Client
}

// NewJournal connects to redisURL (redis:// or rediss://) and pings it.
func NewJournal(redisURL string) (*Journal, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for journal")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Journal{rdb: rdb}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.rdb == nil {
		return nil
	}
	return j.rdb.Close()
}

func journalKey(room string) string { return "lanchess:archive:" + strings.TrimSpace(room) }

// Save pushes rec to the front of its room's list, trims the list and
// refreshes the TTL in one transaction.
func (j *Journal) Save(ctx context.Context, rec Record) error {
	if j == nil || j.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	key := journalKey(rec.Room)
	_, err = j.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, raw)
		pipe.LTrim(ctx, key, 0, journalKeep-1)
		pipe.Expire(ctx, key, journalTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal save: %w", err)
	}
	return nil
}

// Recent returns up to n records for room, newest first. Entries that no
// longer decode are skipped.
func (j *Journal) Recent(ctx context.Context, room string, n int) ([]Record, error) {
	if j == nil || j.rdb == nil || n <= 0 {
		return nil, nil
	}
	raws, err := j.rdb.LRange(ctx, journalKey(room), 0, int64(n-1)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("journal recent: %w", err)
	}
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
