package tracker

import (
	"context"

	"github.com/samvad-hq/areweheadlessyet/pkg/cms"
	"github.com/samvad-hq/areweheadlessyet/pkg/publishers"
)

// PageSource yields the CMS pages the tracker watches.
type PageSource interface {
	HomePage(ctx context.Context) (cms.HomePage, error)
	TopicPages(ctx context.Context) ([]cms.TopicPage, error)
}

// FingerprintStore remembers the last published fingerprint per page key.
type FingerprintStore interface {
	Fingerprint(key string) (string, bool, error)
	SaveFingerprint(key, fingerprint string) error
}

// EventPublisher publishes page changes downstream and reports how many
// publishers accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Recorder receives one sync result per page.
type Recorder interface {
	RecordPage(result string)
}
