// Пакет auth хранит сессии администратора в Redis и проверяет учётные данные
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"PortfolioCMS/internal/model"
)

const sessionPrefix = "session:"

// SessionStore хранит сессии в Redis под ключом session:<token> с TTL
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

// NewSessionStore создаёт хранилище сессий
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Create открывает новую сессию для email
func (s *SessionStore) Create(ctx context.Context, email string) (*model.Session, error) {
	now := s.now().UTC()
	sess := &model.Session{
		Token:     s.newToken(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionPrefix+sess.Token, data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return sess, nil
}

// GetSession возвращает сессию по токену. Нет сессии - nil, nil
func (s *SessionStore) GetSession(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	data, err := s.client.Get(ctx, sessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Delete закрывает сессию; отсутствие ключа не ошибка
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, sessionPrefix+token).Err()
}
