package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/drfirst/go-soap/pkg/idempotency"
)

// EventType represents the type of published session event
type EventType string

const (
	EventDocumentExported EventType = "DocumentExported"
)

// AggregateType tags session events in the outbox
const AggregateType = "Session"

// DocumentExported is published once per distinct exported document
type DocumentExported struct {
	ExportID       string    `json:"export_id"`
	SessionID      string    `json:"session_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	Document       string    `json:"document"`
	ProblemCount   int       `json:"problem_count"`
	CommitCount    int       `json:"commit_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Export snapshots the current document as an export event
func (s *Session) Export() *DocumentExported {
	doc := s.Document()
	return &DocumentExported{
		ExportID:       uuid.New().String(),
		SessionID:      s.id,
		IdempotencyKey: idempotency.GenerateKey(s.id, doc),
		Document:       doc,
		ProblemCount:   len(s.problems),
		CommitCount:    len(s.commits),
		CreatedAt:      time.Now().UTC(),
	}
}

// Payload encodes the event for the outbox
func (e *DocumentExported) Payload() (json.RawMessage, error) {
	return json.Marshal(e)
}
