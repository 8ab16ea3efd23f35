package settings

import (
	"context"
	"log/slog"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier shows transient messages to the user. Notifications are never
// persisted.
type Notifier interface {
	Notify(ctx context.Context, level Level, msg string)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, level Level, msg string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	l := slog.LevelInfo
	if level == LevelError {
		l = slog.LevelWarn
	}
	logger.Log(ctx, l, msg, "level", string(level))
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, level Level, msg string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, level Level, msg string) {
	f(ctx, level, msg)
}
