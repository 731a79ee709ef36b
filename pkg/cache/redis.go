// Пакет cache предоставляет обёртку для работы с Redis как кешем страниц и записей
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss возвращается, когда запрошенный ключ отсутствует в кеше Redis.
var ErrCacheMiss = errors.New("cache miss")

// scanCount - подсказка Redis, сколько ключей отдавать за один SCAN
const scanCount = 100

// RedisClient - обёртка над *redis.Client для Set, Get и инвалидации ключей
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient создаёт новый RedisClient с заданными опциями подключения
func NewRedisClient(opts *redis.Options) *RedisClient {
	return &RedisClient{client: redis.NewClient(opts)}
}

// Wrap использует уже открытый клиент, например общий с хранилищем сессий
func Wrap(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Set сохраняет значение value под ключом key с временем жизни expiration
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Get возвращает значение по ключу; при промахе ErrCacheMiss
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Invalidate удаляет ключ key из кеша
func (r *RedisClient) Invalidate(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// InvalidatePrefix удаляет все ключи, начинающиеся с prefix.
// Ключи перебираются через SCAN, чтобы не блокировать Redis командой KEYS.
// Возвращает число удалённых ключей
func (r *RedisClient) InvalidatePrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", scanCount).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// Ping проверяет доступность Redis, используется в /readyz
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close закрывает соединение
func (r *RedisClient) Close() error {
	return r.client.Close()
}
