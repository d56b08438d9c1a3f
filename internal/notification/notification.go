// Package notification delivers operator notifications about sync outcomes.
// Every message is stored in the database and fanned out to the optional
// telegram and webhook channels.
package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/metrics"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

type Message struct {
	Level     string
	Title     string
	Body      string
	SyncType  models.SyncType
	SyncLogID *uint64
	Data      map[string]any
}

func (m Message) text() string {
	if m.Body == "" {
		return m.Title
	}
	return m.Title + "\n\n" + m.Body
}

type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

type Notifier interface {
	Notify(ctx context.Context, msgs ...Message) error
}

type Dispatcher struct {
	Channels []Channel
	Logger   *zap.Logger
}

// Notify sends every message to every channel. A failing channel does not stop
// delivery to the others; all failures are returned joined.
func (d *Dispatcher) Notify(ctx context.Context, msgs ...Message) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, msg := range msgs {
		if msg.Level == "" {
			msg.Level = models.NotificationLevelInfo
		}
		for _, ch := range d.Channels {
			if ch == nil {
				continue
			}
			if err := ch.Send(ctx, msg); err != nil {
				metrics.NotificationsSent.WithLabelValues(msg.Level, ch.Name()+"_error").Inc()
				if d.Logger != nil {
					d.Logger.Warn("notification delivery failed",
						zap.String("channel", ch.Name()),
						zap.String("title", msg.Title),
						zap.Error(err),
					)
				}
				errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
				continue
			}
			metrics.NotificationsSent.WithLabelValues(msg.Level, ch.Name()).Inc()
		}
	}
	return errors.Join(errs...)
}
