package storefront

import (
	"context"
	"log/slog"
)

// ToastLevel classifies user-facing notifications.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
)

// Toast is a transient message surfaced after an action settles.
type Toast struct {
	Level    ToastLevel
	Message  string
	Resource string
	RecordID string
}

// Notifier surfaces toasts to whatever presentation layer hosts the component.
type Notifier interface {
	Notify(ctx context.Context, toast Toast)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, toast Toast)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, toast Toast) {
	if f != nil {
		f(ctx, toast)
	}
}

// LogNotifier writes toasts to a structured logger. Useful for CLIs.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, toast Toast) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if toast.Level == ToastError {
		level = slog.LevelError
	}
	logger.Log(ctx, level, toast.Message,
		slog.String("resource", toast.Resource),
		slog.String("record_id", toast.RecordID),
	)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Toast) {}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func normalizeLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
