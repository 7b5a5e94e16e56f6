// Package domain holds the models shared by the sync pipeline.
package domain

import "time"

// PageChange describes a CMS page whose content differs from the last sync.
type PageChange struct {
	Key         string    `json:"key"`
	PageID      string    `json:"page_id"`
	Kind        string    `json:"kind"`
	Slug        string    `json:"slug,omitempty"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Previous    string    `json:"previous_fingerprint,omitempty"`
	DetectedAt  time.Time `json:"detected_at"`
}

// Page kinds tracked by the sync pipeline.
const (
	KindHomePage  = "home_page"
	KindTopicPage = "topic_page"
)

// IsNew reports whether the page had no stored fingerprint.
func (c PageChange) IsNew() bool { return c.Previous == "" }

// KnownKind reports whether kind is one of the tracked page kinds.
func KnownKind(kind string) bool {
	return kind == KindHomePage || kind == KindTopicPage
}
