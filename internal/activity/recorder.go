// Package activity records the audit trail of everything the automation does:
// every row is persisted to the activity log and mirrored onto the event
// stream for live consumers.
package activity

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tomerlv/outreach-be/internal/domain"
)

// Store persists activity entries.
type Store interface {
	SaveActivity(ctx context.Context, entry *domain.ActivityEntry) error
}

// Publisher pushes activity events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
	IsConnected() bool
}

// Event is the wire format of one activity entry on the event stream.
type Event struct {
	ActionType  string         `json:"action_type"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	JobID       string         `json:"job_id,omitempty"`
}

// Recorder writes activity entries to the database and publishes them to
// RabbitMQ. Publishing is best-effort: a broker outage must never fail a
// workflow run, so publish errors are only logged.
type Recorder struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

// NewRecorder creates a Recorder. The publisher may be nil, in which case
// entries are only persisted.
func NewRecorder(store Store, publisher Publisher, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Record persists one activity entry and mirrors it to the event stream.
func (r *Recorder) Record(ctx context.Context, actionType, description string, details map[string]any, jobID string) {
	entry := &domain.ActivityEntry{
		ActionType:  actionType,
		Description: description,
	}
	if jobID != "" {
		entry.JobID = &jobID
	}

	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			r.logger.Error("Failed to encode activity details",
				slog.String("action_type", actionType),
				slog.Any("error", err),
			)
		} else {
			entry.Details = raw
		}
	}

	if err := r.store.SaveActivity(ctx, entry); err != nil {
		r.logger.Error("Failed to save activity entry",
			slog.String("action_type", actionType),
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
	}

	r.publish(ctx, actionType, description, details, jobID)
}

func (r *Recorder) publish(ctx context.Context, actionType, description string, details map[string]any, jobID string) {
	if r.publisher == nil || !r.publisher.IsConnected() {
		return
	}

	body, err := json.Marshal(Event{
		ActionType:  actionType,
		Description: description,
		Details:     details,
		JobID:       jobID,
	})
	if err != nil {
		r.logger.Error("Failed to encode activity event", slog.Any("error", err))
		return
	}

	if err := r.publisher.Publish(ctx, body, "application/json"); err != nil {
		r.logger.Warn("Failed to publish activity event",
			slog.String("action_type", actionType),
			slog.Any("error", err),
		)
	}
}
