package events

import (
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
)

// EventEnvelope is the shared envelope for every published event.
type EventEnvelope struct {
	EventName     string          `json:"eventName"`
	EventVersion  int             `json:"eventVersion"`
	EventID       string          `json:"eventId"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Producer      string          `json:"producer"`
	PartitionKey  string          `json:"partitionKey"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Schema        string          `json:"schema"`
	Payload       json.RawMessage `json:"payload"`
}

// Validate checks the routing fields consumers rely on. Publisher runs it on
// every envelope before it goes on the wire.
func (e EventEnvelope) Validate(expectedName string, expectedVersion int) error {
	if e.EventName == "" {
		return errors.New("missing eventName")
	}
	if e.EventName != expectedName {
		return errors.Errorf("unexpected eventName %q", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return errors.Errorf("unexpected eventVersion %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return errors.New("missing partitionKey")
	}
	if e.EventID == "" {
		return errors.New("missing eventId")
	}
	return nil
}
