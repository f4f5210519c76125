// Package publisher delivers announcement text to the public channel and
// operational notices to admins.
package publisher

//go:generate mockgen -destination=mocks/publisher_mock.go -package=mocks github.com/oggyb/crushconnect/internal/publisher ChannelPublisher,AdminNotifier

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ChannelPublisher posts text to the public channel and returns a reference
// to the posted message.
type ChannelPublisher interface {
	Post(ctx context.Context, text string) (string, error)
}

// AdminNotifier is fire-and-forget; implementations log their own failures.
type AdminNotifier interface {
	Notify(ctx context.Context, text string)
}

// Log writes everything to a logger. Used when no IRC server is configured.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log.With("subsystem", "publisher")}
}

func (l *Log) Post(_ context.Context, text string) (string, error) {
	ref := uuid.NewString()
	l.log.Info("channel post", "ref", ref, "text", text)
	return ref, nil
}

func (l *Log) Notify(_ context.Context, text string) {
	l.log.Info("admin notice", "text", text)
}
