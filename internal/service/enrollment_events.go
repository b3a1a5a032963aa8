package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// LifecycleEvent describes a single enrollment lifecycle transition for
// downstream consumers (audit sinks, mailers, dashboards on other nodes).
type LifecycleEvent struct {
	Action     string    `json:"action"`
	RequestID  uint      `json:"request_id,omitempty"`
	StudentID  uint      `json:"student_id"`
	CourseID   uint      `json:"course_id"`
	Status     string    `json:"status,omitempty"`
	ActorID    uint      `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher emits lifecycle events. Publishing is best effort: the
// lifecycle transaction has already committed when an event goes out.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent)
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSEventPublisher builds a publisher for the given subject base. A nil
// connection yields a no-op publisher so tests and single-node deployments
// run without a broker.
func NewNATSEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) EventPublisher {
	subject := ""
	if subjectBase != "" {
		subject = strings.ReplaceAll(subjectBase, ":", ".") + ".enrollment"
	}

	return &natsEventPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(ctx context.Context, event LifecycleEvent) {
	if p.conn == nil || p.subject == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode lifecycle event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", p.subject).Msg("failed to publish lifecycle event")
	}
}
