package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamEvents is the JetStream stream holding assistant telemetry.
const StreamEvents = "FOLIO_EVENTS"

// Subject constants.
const (
	SubjectPrefix       = "folio.events"
	SubjectChat         = "folio.events.chat"
	SubjectStageFailure = "folio.events.failure"
)

// FetchTimeout bounds one batch fetch from a durable consumer.
const FetchTimeout = 2 * time.Second

// ChatEvent is published once per handled chat request.
type ChatEvent struct {
	ID               uuid.UUID `json:"id"`
	SessionID        string    `json:"session_id"`
	QueryType        string    `json:"query_type"`
	Language         string    `json:"language"`
	Confidence       float64   `json:"confidence"`
	SubQueries       int       `json:"sub_queries"`
	FailedStages     []string  `json:"failed_stages,omitempty"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	Timestamp        time.Time `json:"timestamp"`
}

// StageFailureEvent is published for every stage that fell back to degraded
// output while handling a request.
type StageFailureEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	SessionID string    `json:"session_id"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatEvent fills in the id and timestamp of a chat event.
func NewChatEvent(sessionID, queryType, lang string, confidence float64, subQueries int) ChatEvent {
	return ChatEvent{
		ID:         uuid.New(),
		SessionID:  sessionID,
		QueryType:  queryType,
		Language:   lang,
		Confidence: confidence,
		SubQueries: subQueries,
		Timestamp:  time.Now().UTC(),
	}
}
