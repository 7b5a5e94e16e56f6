// Package tracker detects content changes on AreWeHeadlessYet pages and
// publishes them downstream.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/areweheadlessyet/internal/domain"
	"github.com/samvad-hq/areweheadlessyet/internal/logger"
	"github.com/samvad-hq/areweheadlessyet/internal/metrics"
	"github.com/samvad-hq/areweheadlessyet/pkg/cms"
	"github.com/samvad-hq/areweheadlessyet/pkg/publishers"
	"github.com/samvad-hq/areweheadlessyet/pkg/richtext"
)

const (
	// EventSource is stamped on every published event.
	EventSource = "areweheadlessyet"

	homeKey         = "home"
	excerptMaxRunes = 280
)

// Summary counts page results of one Run.
type Summary struct {
	Checked   int `json:"checked"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Service compares CMS pages against stored fingerprints and publishes the
// ones that changed.
type Service struct {
	source    PageSource
	store     FingerprintStore
	publisher EventPublisher
	log       logger.Logger
	recorder  Recorder
	now       func() time.Time
}

// NewService wires a tracker. Nil store, publisher, logger or recorder are
// replaced with no-ops.
func NewService(src PageSource, store FingerprintStore, pub EventPublisher, log logger.Logger, rec Recorder) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		source:    src,
		store:     store,
		publisher: pub,
		log:       log,
		recorder:  rec,
		now:       time.Now,
	}
}

// snapshot is one fetched page ready for comparison.
type snapshot struct {
	key     string
	kind    string
	id      cms.PageID
	slug    string
	title   string
	url     string
	excerpt string
	body    any
}

// Run executes a single sync pass over the home page and every topic page.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	if s == nil || s.source == nil {
		return sum, fmt.Errorf("tracker service is not initialized")
	}

	var errs []error
	snaps, fetchErrs := s.collect(ctx)
	for _, err := range fetchErrs {
		sum.Failed++
		s.recorder.RecordPage(metrics.ResultFailed)
		errs = append(errs, err)
	}

	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sum.Checked++
		changed, err := s.process(ctx, snap)
		switch {
		case err != nil:
			sum.Failed++
			s.recorder.RecordPage(metrics.ResultFailed)
			errs = append(errs, err)
			s.log.ErrorObj("page sync failed", "page_error", map[string]any{
				"page_key": snap.key,
				"error":    err.Error(),
			})
		case changed:
			sum.Changed++
			s.recorder.RecordPage(metrics.ResultChanged)
		default:
			sum.Unchanged++
			s.recorder.RecordPage(metrics.ResultUnchanged)
		}
	}

	return sum, errors.Join(errs...)
}

// collect fetches the home page and topic pages. A failure on one source
// does not prevent the other from being checked.
func (s *Service) collect(ctx context.Context) ([]snapshot, []error) {
	var (
		snaps []snapshot
		errs  []error
	)

	home, err := s.source.HomePage(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("fetch home page: %w", err))
	} else {
		snaps = append(snaps, homeSnapshot(home))
	}

	if err := ctx.Err(); err != nil {
		return snaps, append(errs, err)
	}

	pages, err := s.source.TopicPages(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("fetch topic pages: %w", err))
		return snaps, errs
	}
	for _, p := range pages {
		snaps = append(snaps, topicSnapshot(p))
	}
	return snaps, errs
}

// process reports whether the page changed and was handed to publishers.
func (s *Service) process(ctx context.Context, snap snapshot) (bool, error) {
	fp, err := Fingerprint(snap.body)
	if err != nil {
		return false, fmt.Errorf("fingerprint %s: %w", snap.key, err)
	}

	previous := s.previousFingerprint(snap.key)
	if previous == fp {
		s.log.DebugObj("page unchanged", "page_meta", map[string]any{
			"page_key":    snap.key,
			"fingerprint": fp,
		})
		return false, nil
	}

	change := domain.PageChange{
		Key:         snap.key,
		PageID:      snap.id.String(),
		Kind:        snap.kind,
		Slug:        snap.slug,
		Title:       snap.title,
		URL:         snap.url,
		Excerpt:     snap.excerpt,
		Fingerprint: fp,
		Previous:    previous,
		DetectedAt:  s.now().UTC(),
	}

	delivered, pubErr := s.publish(ctx, change)
	if pubErr != nil && delivered == 0 {
		return false, fmt.Errorf("publish %s: %w", snap.key, pubErr)
	}
	if pubErr != nil {
		s.log.WarnObj("page change partially published", "page_publish", map[string]any{
			"page_key":  snap.key,
			"delivered": delivered,
			"error":     pubErr.Error(),
		})
	}

	if s.store != nil {
		if err := s.store.SaveFingerprint(snap.key, fp); err != nil {
			return true, fmt.Errorf("save fingerprint %s: %w", snap.key, err)
		}
	}

	s.log.InfoObj("page change detected", "page_change", map[string]any{
		"page_key":  snap.key,
		"kind":      change.Kind,
		"new":       change.IsNew(),
		"delivered": delivered,
	})
	return true, nil
}

// previousFingerprint returns the stored fingerprint, or "" when none is
// stored or the lookup fails. A failed lookup treats the page as new.
func (s *Service) previousFingerprint(key string) string {
	if s.store == nil {
		return ""
	}
	fp, found, err := s.store.Fingerprint(key)
	if err != nil {
		s.log.WarnObj("fingerprint lookup failed", "storage_error", map[string]any{
			"page_key": key,
			"error":    err.Error(),
		})
		return ""
	}
	if !found {
		return ""
	}
	return fp
}

func (s *Service) publish(ctx context.Context, change domain.PageChange) (int, error) {
	if s.publisher == nil {
		return 0, nil
	}
	return s.publisher.Publish(ctx, publishers.NewEvent(EventSource, change))
}

func homeSnapshot(home cms.HomePage) snapshot {
	return snapshot{
		key:     homeKey,
		kind:    domain.KindHomePage,
		id:      home.ID(),
		title:   home.Title(),
		url:     metaString(home, "htmlUrl"),
		excerpt: excerptOf(stringField(home, "introduction"), stringField(home, "body")),
		body:    map[string]any(home),
	}
}

func topicSnapshot(p cms.TopicPage) snapshot {
	key := "topic:" + p.Slug()
	if p.Slug() == "" {
		key = "topic-id:" + p.ID.String()
	}
	return snapshot{
		key:     key,
		kind:    domain.KindTopicPage,
		id:      p.ID,
		slug:    p.Slug(),
		title:   p.Title,
		url:     p.Meta.HTMLURL,
		excerpt: excerptOf(p.Introduction),
		body:    p,
	}
}

func excerptOf(candidates ...string) string {
	html := richtext.FirstNonEmpty(candidates...)
	text, err := richtext.Excerpt(html, excerptMaxRunes)
	if err != nil {
		return ""
	}
	return text
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func metaString(m map[string]any, key string) string {
	meta, _ := m["meta"].(map[string]any)
	return stringField(meta, key)
}

type nopRecorder struct{}

func (nopRecorder) RecordPage(string) {}
