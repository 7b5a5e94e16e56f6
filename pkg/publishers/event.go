package publishers

import (
	"time"

	"github.com/samvad-hq/areweheadlessyet/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	Source      string            `json:"source"`
	Change      domain.PageChange `json:"change"`
	PublishedAt time.Time         `json:"published_at"`
}

// NewEvent constructs an Event for a detected page change.
func NewEvent(source string, change domain.PageChange) Event {
	return Event{
		Source:      source,
		Change:      change,
		PublishedAt: time.Now().UTC(),
	}
}

// Attributes returns the routing attributes attached to queued messages.
// Empty values are left out since SQS and SNS reject them.
func (e Event) Attributes() map[string]string {
	attrs := make(map[string]string, 3)
	for k, v := range map[string]string{
		"page_key":  e.Change.Key,
		"page_kind": e.Change.Kind,
		"page_slug": e.Change.Slug,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}
