package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// GradingSavedEvent is published after a grading reaches the backend.
type GradingSavedEvent struct {
	Type                 string    `json:"type"`
	SubmissionQuestionID int64     `json:"submission_question_id"`
	SubmissionID         int64     `json:"submission_id,omitempty"`
	ReceivedWeight       float64   `json:"received_weight"`
	MaxWeight            float64   `json:"max_weight"`
	Highlights           int       `json:"highlights"`
	AIAssisted           bool      `json:"ai_assisted"`
	CorrelationID        string    `json:"correlation_id,omitempty"`
	OccurredAt           time.Time `json:"occurred_at"`
}

// EventPublisher broadcasts grading events. Publishing is best effort.
type EventPublisher interface {
	PublishGradingSaved(ctx context.Context, event GradingSavedEvent) error
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher publishes events on subject + ".saved". A nil connection
// yields a publisher that only logs.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "grading_events").Logger(),
	}
}

func (p *natsPublisher) PublishGradingSaved(_ context.Context, event GradingSavedEvent) error {
	event.Type = "grading.saved"
	if p.conn == nil || p.subject == "" {
		p.logger.Debug().Int64("submission_question_id", event.SubmissionQuestionID).Msg("grading event not published, nats disabled")
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject+".saved", payload); err != nil {
		p.logger.Warn().Err(err).Msg("failed to publish grading event")
		return err
	}
	return nil
}
