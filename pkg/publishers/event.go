package publishers

import (
	"time"

	"github.com/google/uuid"
)

// Event describes one fetch outcome published downstream.
type Event struct {
	ID         string    `json:"id"`
	TargetID   string    `json:"target_id"`
	URL        string    `json:"url"`
	Label      string    `json:"label"`
	Kind       string    `json:"kind"`
	Result     string    `json:"result,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	BodyBytes  int       `json:"body_bytes"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// NewEvent constructs an Event with a fresh id and the current time.
func NewEvent(targetID, url, label, kind, result string) Event {
	return Event{
		ID:        uuid.NewString(),
		TargetID:  targetID,
		URL:       url,
		Label:     label,
		Kind:      kind,
		Result:    result,
		FetchedAt: time.Now().UTC(),
	}
}
