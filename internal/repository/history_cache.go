package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tush00nka/chitchat/internal/model"

	"github.com/redis/go-redis/v9"
)

// HistoryCache кеширует историю переписки целиком по паре пользователей.
// Get при промахе возвращает ok == false и текущую версию пары. Put пишет под
// версией, прочитанной до загрузки из хранилища: загрузка, с которой
// разминулся Invalidate, читаться уже не будет.
type HistoryCache interface {
	Get(ctx context.Context, a, b string) (messages []model.Message, version int64, ok bool, err error)
	Put(ctx context.Context, a, b string, version int64, messages []model.Message) error
	Invalidate(ctx context.Context, a, b string) error
}

type historyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewHistoryCache(rdb *redis.Client, ttl time.Duration) HistoryCache {
	return &historyCache{rdb: rdb, ttl: ttl}
}

// pairID симметричен: (a, b) и (b, a) дают одну запись
func pairID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// versionKey хранит счётчик инвалидаций пары, без TTL
func versionKey(a, b string) string {
	return "history:version:" + pairID(a, b)
}

func historyKey(a, b string, version int64) string {
	return fmt.Sprintf("history:%s:v%d", pairID(a, b), version)
}

func (c *historyCache) version(ctx context.Context, a, b string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(a, b)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get history version from redis: %w", err)
	}
	return v, nil
}

func (c *historyCache) Get(ctx context.Context, a, b string) ([]model.Message, int64, bool, error) {
	version, err := c.version(ctx, a, b)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := c.rdb.Get(ctx, historyKey(a, b, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, version, false, nil
		}
		return nil, 0, false, fmt.Errorf("failed to get history from redis: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		// Битая запись: считаем промахом
		return nil, version, false, nil
	}

	return messages, version, true, nil
}

func (c *historyCache) Put(ctx context.Context, a, b string, version int64, messages []model.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := c.rdb.Set(ctx, historyKey(a, b, version), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save history to redis: %w", err)
	}

	return nil
}

// Invalidate увеличивает версию пары. Записи старых версий больше не
// читаются и истекают по TTL.
func (c *historyCache) Invalidate(ctx context.Context, a, b string) error {
	if err := c.rdb.Incr(ctx, versionKey(a, b)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

type noopHistoryCache struct{}

// NewNoopHistoryCache используется, когда REDIS_URL не задан
func NewNoopHistoryCache() HistoryCache {
	return noopHistoryCache{}
}

func (noopHistoryCache) Get(context.Context, string, string) ([]model.Message, int64, bool, error) {
	return nil, 0, false, nil
}

func (noopHistoryCache) Put(context.Context, string, string, int64, []model.Message) error {
	return nil
}

func (noopHistoryCache) Invalidate(context.Context, string, string) error {
	return nil
}
