package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rickgao/coinboard/internal/model"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "coinboard:"

// RedisStore persists snapshots in Redis.
//
// Keys (relative to the prefix):
//   - current: list of JSON records, swapped in with RENAME
//   - history:<coinId>: sorted set scored by timestamp (µs since epoch)
//   - history-index: set of coin ids that have history
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps a connected client.
func NewRedisStore(rdb *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		rdb:    rdb,
		prefix: prefix,
		logger: logger,
	}
}

// historyEntry is the sorted set member. The id keeps identical snapshots
// from collapsing into one member.
type historyEntry struct {
	ID string `json:"id"`
	model.CoinRecord
}

func (s *RedisStore) currentKey() string            { return s.prefix + "current" }
func (s *RedisStore) historyKey(coin string) string { return s.prefix + "history:" + coin }
func (s *RedisStore) historyIndexKey() string       { return s.prefix + "history-index" }

func (s *RedisStore) ReplaceCurrent(ctx context.Context, records []model.CoinRecord) error {
	members := make([]any, 0, len(records))
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return wrap("replace current", err)
		}
		members = append(members, data)
	}

	staging := s.prefix + "current:" + uuid.NewString()
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(members) == 0 {
			pipe.Del(ctx, s.currentKey())
			return nil
		}
		pipe.RPush(ctx, staging, members...)
		pipe.Rename(ctx, staging, s.currentKey())
		return nil
	})
	if err != nil {
		return wrap("replace current", err)
	}

	s.logger.Debug("replaced current snapshot", "count", len(records))
	return nil
}

func (s *RedisStore) Current(ctx context.Context) ([]model.CoinRecord, error) {
	vals, err := s.rdb.LRange(ctx, s.currentKey(), 0, -1).Result()
	if err != nil {
		return nil, wrap("current", err)
	}

	records := make([]model.CoinRecord, 0, len(vals))
	for _, v := range vals {
		var r model.CoinRecord
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, wrap("current", err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *RedisStore) AppendHistory(ctx context.Context, records []model.CoinRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range records {
			data, err := json.Marshal(historyEntry{ID: uuid.NewString(), CoinRecord: r})
			if err != nil {
				return err
			}
			pipe.ZAdd(ctx, s.historyKey(r.CoinID), redis.Z{
				Score:  float64(r.Timestamp.UnixMicro()),
				Member: data,
			})
			pipe.SAdd(ctx, s.historyIndexKey(), r.CoinID)
		}
		return nil
	})
	if err != nil {
		return 0, wrap("append history", err)
	}
	return len(records), nil
}

func (s *RedisStore) History(ctx context.Context, coinID string, q HistoryQuery) ([]model.CoinRecord, error) {
	by := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !q.Since.IsZero() {
		by.Min = strconv.FormatInt(q.Since.UnixMicro(), 10)
	}
	if !q.Until.IsZero() {
		by.Max = "(" + strconv.FormatInt(q.Until.UnixMicro(), 10)
	}
	if q.Limit > 0 {
		by.Count = int64(q.Limit)
	}

	vals, err := s.rdb.ZRangeByScore(ctx, s.historyKey(coinID), by).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, wrap("history", err)
	}

	records := make([]model.CoinRecord, 0, len(vals))
	for _, v := range vals {
		var e historyEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, wrap("history", err)
		}
		records = append(records, e.CoinRecord)
	}
	// Equal scores come back in member order; restore timestamp order.
	model.SortRecordsByTime(records)
	return records, nil
}

func (s *RedisStore) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	coins, err := s.rdb.SMembers(ctx, s.historyIndexKey()).Result()
	if err != nil {
		return 0, wrap("prune history", err)
	}

	upper := "(" + strconv.FormatInt(before.UnixMicro(), 10)
	cmds := make([]*redis.IntCmd, 0, len(coins))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, coin := range coins {
			cmds = append(cmds, pipe.ZRemRangeByScore(ctx, s.historyKey(coin), "-inf", upper))
		}
		return nil
	})
	if err != nil {
		return 0, wrap("prune history", err)
	}

	var pruned int64
	for _, cmd := range cmds {
		pruned += cmd.Val()
	}
	return pruned, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return wrap("ping", s.rdb.Ping(ctx).Err())
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
