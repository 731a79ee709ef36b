package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"PortfolioCMS/internal/model"
	"PortfolioCMS/pkg/logger"
)

// SettingsStore - доступ к таблице settings
type SettingsStore interface {
	ListSettings(ctx context.Context) ([]model.SettingRow, error)
	UpsertSettings(ctx context.Context, values map[string]string, at time.Time) error
}

// SettingsService отдаёт и меняет настройки сайта
type SettingsService struct {
	store SettingsStore
	cache Cache
	pub   Publisher
	log   *slog.Logger
	ttl   time.Duration
	now   func() time.Time
}

// NewSettingsService создаёт сервис настроек
func NewSettingsService(store SettingsStore, c Cache, p Publisher, log *slog.Logger, ttl time.Duration) *SettingsService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &SettingsService{store: store, cache: c, pub: p, log: log, ttl: ttl, now: time.Now}
}

// Get возвращает все известные ключи; отсутствующие в таблице заполняются значениями по умолчанию
func (s *SettingsService) Get(ctx context.Context) (model.Settings, error) {
	if data, err := s.cache.Get(ctx, settingsKey); err == nil {
		var cached model.Settings
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}
	rows, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	settings, unknown := model.SettingsFromRows(rows)
	if len(unknown) > 0 {
		s.log.Warn("ignoring unknown settings keys", "keys", unknown)
	}
	if data, err := json.Marshal(settings); err == nil {
		if err := s.cache.Set(ctx, settingsKey, data, s.ttl); err != nil {
			s.log.Warn("cache set failed", "key", settingsKey, logger.Err(err))
		}
	}
	return settings, nil
}

// Update записывает частичный набор ключей одной транзакцией.
// Неизвестные ключи отклоняются целиком, ничего не записывается
func (s *SettingsService) Update(ctx context.Context, values map[string]string, actor string) (model.Settings, error) {
	var unknown []string
	for k := range values {
		if !model.IsKnownSetting(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, validationf("unknown settings keys: %s", strings.Join(unknown, ", "))
	}
	if len(values) == 0 {
		return s.Get(ctx)
	}
	at := s.now().UTC()
	if err := s.store.UpsertSettings(ctx, values, at); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, settingsKey); err != nil {
		s.log.Warn("settings cache invalidation failed", logger.Err(err))
	}
	payload, _ := json.Marshal(values)
	event := model.EntityEvent{Type: model.EventSettings, Collection: "settings", Payload: payload, Actor: actor, At: at}
	if err := s.pub.PublishJSON(event); err != nil {
		s.log.Error("failed to publish settings event", logger.Err(err))
	}
	return s.Get(ctx)
}
