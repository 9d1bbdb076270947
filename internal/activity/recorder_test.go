package activity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomerlv/outreach-be/internal/domain"
)

type stubStore struct {
	entries []*domain.ActivityEntry
	err     error
}

func (s *stubStore) SaveActivity(_ context.Context, entry *domain.ActivityEntry) error {
	s.entries = append(s.entries, entry)
	return s.err
}

type stubPublisher struct {
	connected bool
	err       error
	published [][]byte
}

func (p *stubPublisher) Publish(_ context.Context, body []byte, _ string) error {
	p.published = append(p.published, body)
	return p.err
}

func (p *stubPublisher) IsConnected() bool { return p.connected }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_Record(t *testing.T) {
	store := &stubStore{}
	publisher := &stubPublisher{connected: true}
	recorder := NewRecorder(store, publisher, discardLogger())

	recorder.Record(context.Background(), domain.ActionMessageSent, "Message sent to Dana Levi",
		map[string]any{"name": "Dana Levi"}, "job-1")

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, domain.ActionMessageSent, entry.ActionType)
	require.NotNil(t, entry.JobID)
	assert.Equal(t, "job-1", *entry.JobID)
	assert.JSONEq(t, `{"name":"Dana Levi"}`, string(entry.Details))

	require.Len(t, publisher.published, 1)
	var event Event
	require.NoError(t, json.Unmarshal(publisher.published[0], &event))
	assert.Equal(t, domain.ActionMessageSent, event.ActionType)
	assert.Equal(t, "job-1", event.JobID)
	assert.Equal(t, "Dana Levi", event.Details["name"])
}

func TestRecorder_Record_NoJobID(t *testing.T) {
	store := &stubStore{}
	recorder := NewRecorder(store, nil, discardLogger())

	recorder.Record(context.Background(), domain.ActionError, "something broke", nil, "")

	require.Len(t, store.entries, 1)
	assert.Nil(t, store.entries[0].JobID)
	assert.Nil(t, store.entries[0].Details)
}

func TestRecorder_Record_NilPublisher(t *testing.T) {
	store := &stubStore{}
	recorder := NewRecorder(store, nil, discardLogger())

	assert.NotPanics(t, func() {
		recorder.Record(context.Background(), domain.ActionJobSubmitted, "Job submitted", nil, "job-1")
	})
	assert.Len(t, store.entries, 1)
}

func TestRecorder_Record_DisconnectedBroker(t *testing.T) {
	publisher := &stubPublisher{connected: false}
	recorder := NewRecorder(&stubStore{}, publisher, discardLogger())

	recorder.Record(context.Background(), domain.ActionJobSubmitted, "Job submitted", nil, "job-1")

	assert.Empty(t, publisher.published)
}

func TestRecorder_Record_BestEffort(t *testing.T) {
	// Neither a store failure nor a publish failure may surface to the caller.
	store := &stubStore{err: errors.New("db down")}
	publisher := &stubPublisher{connected: true, err: errors.New("broker down")}
	recorder := NewRecorder(store, publisher, discardLogger())

	assert.NotPanics(t, func() {
		recorder.Record(context.Background(), domain.ActionError, "boom", nil, "job-1")
	})
	assert.Len(t, store.entries, 1)
	assert.Len(t, publisher.published, 1)
}
