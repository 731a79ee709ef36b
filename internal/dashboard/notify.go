package dashboard

import "log/slog"

// Notifier показывает пользователю состояние операции
type Notifier interface {
	Pending(msg string)
	Success(msg string)
	Failure(msg string)
}

// LogNotifier выводит уведомления в slog
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Pending(msg string) { n.log.Info(msg, "status", "pending") }
func (n *LogNotifier) Success(msg string) { n.log.Info(msg, "status", "success") }
func (n *LogNotifier) Failure(msg string) { n.log.Error(msg, "status", "failed") }
