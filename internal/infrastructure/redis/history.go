package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aavetx/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	defaultHistoryKey  = "aavetx:lookups:recent"
	defaultHistorySize = 50
)

type HistoryConfig struct {
	Addr string
	Key  string
	Size int
}

// History keeps the most recent lookups in a capped redis list, newest first.
type History struct {
	client redis.Cmdable
	close  func() error
	key    string
	size   int
}

func NewHistory(cfg HistoryConfig) (*History, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return newHistory(client, client.Close, cfg), nil
}

func newHistory(client redis.Cmdable, closeFn func() error, cfg HistoryConfig) *History {
	if cfg.Key == "" {
		cfg.Key = defaultHistoryKey
	}
	if cfg.Size <= 0 {
		cfg.Size = defaultHistorySize
	}
	return &History{client: client, close: closeFn, key: cfg.Key, size: cfg.Size}
}

func (h *History) Name() string {
	return "redis"
}

func (h *History) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

func (h *History) RecordLookup(ctx context.Context, record domain.LookupRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := h.client.LPush(ctx, h.key, payload).Err(); err != nil {
		return fmt.Errorf("push lookup: %w", err)
	}
	if err := h.client.LTrim(ctx, h.key, 0, int64(h.size-1)).Err(); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

// RecentLookups returns at most limit entries, newest first. Entries that
// no longer decode are skipped.
func (h *History) RecentLookups(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	if limit <= 0 || limit > h.size {
		limit = h.size
	}
	items, err := h.client.LRange(ctx, h.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	records := make([]domain.LookupRecord, 0, len(items))
	for _, item := range items {
		var record domain.LookupRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			slog.Warn("skip undecodable history entry", "key", h.key, "err", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (h *History) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
