// Пакет logger настраивает slog: цветной вывод tint для консоли или JSON для сборщика логов
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New создаёт логгер, пишущий в stdout
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter создаёт логгер с произвольным приёмником.
// format "json" даёт slog.JSONHandler, всё остальное - tint
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.TimeOnly,
			NoColor:    w != os.Stdout,
		})
	}
	return slog.New(handler)
}

// ParseLevel переводит строку уровня в slog.Level; неизвестное значение - info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Err - атрибут ошибки в едином для всех пакетов виде
func Err(err error) slog.Attr {
	return tint.Err(err)
}

// Discard возвращает логгер, который ничего не пишет. Удобен в тестах
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
