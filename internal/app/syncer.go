package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/areweheadlessyet/internal/config"
	"github.com/samvad-hq/areweheadlessyet/internal/logger"
	"github.com/samvad-hq/areweheadlessyet/internal/metrics"
	"github.com/samvad-hq/areweheadlessyet/internal/storage"
	"github.com/samvad-hq/areweheadlessyet/internal/tracker"
	"github.com/samvad-hq/areweheadlessyet/pkg/cms"
	"github.com/samvad-hq/areweheadlessyet/pkg/httpclient"
	"github.com/samvad-hq/areweheadlessyet/pkg/publishers"
)

// Syncer is the page sync runtime. It owns the sync loop and the resources
// the tracker depends on: the CMS client, publishers, storage and metrics.
type Syncer struct {
	cfg          *config.Config
	fanout       *publishers.Fanout
	tracker      *tracker.Service
	metrics      *metrics.Metrics
	syncInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewSyncer builds a syncer runtime from config.
func NewSyncer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Syncer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m := metrics.New()
	client, err := cms.New(cfg.CMS(),
		cms.WithHTTPClient(httpclient.NewRestyClient(cfg.RequestTimeout)),
		cms.WithLogger(log),
		cms.WithObserver(m),
	)
	if err != nil {
		return nil, fmt.Errorf("init cms client: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		FingerprintTTL:  cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"fingerprint_ttl_seconds":  int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Syncer{
		cfg:          cfg,
		fanout:       fanout,
		tracker:      tracker.NewService(client, store, fanout, log, m),
		metrics:      m,
		syncInterval: cfg.SyncInterval,
		log:          log,
		store:        store,
	}, nil
}

// buildFanout loads the publishers file. A blank path means change events
// are only logged.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.WarnObj("no publishers file configured; changes will only be logged", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	publisherSummaries := make([]map[string]any, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]any{
			"id":    pubCfg.ID,
			"type":  pubCfg.Type,
			"kinds": pubCfg.Kinds,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run starts the sync loop until the context is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	if s == nil || s.tracker == nil {
		return fmt.Errorf("syncer is not initialized")
	}
	defer s.close()

	if s.cfg.MetricsAddr != "" {
		go func() {
			if err := s.metrics.Serve(ctx, s.cfg.MetricsAddr); err != nil {
				s.log.ErrorObj("metrics server failed", "error", err)
			}
		}()
	}

	s.log.InfoObj("sync loop starting", "syncer_state", map[string]any{
		"base_url":         s.cfg.BaseURL,
		"instance":         s.cfg.Instance,
		"publishers_count": s.fanout.Size(),
		"sync_interval":    s.syncInterval.String(),
		"metrics_addr":     s.cfg.MetricsAddr,
	})

	if err := s.runOnce(ctx); err != nil {
		s.log.ErrorObj("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.InfoObj("sync loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil {
				s.log.ErrorObj("scheduled sync failed", "error", err)
			}
		}
	}
}

// runOnce performs a single sync pass.
func (s *Syncer) runOnce(ctx context.Context) error {
	start := time.Now()
	s.log.InfoObj("sync started", "sync_meta", map[string]any{
		"started_at": start.UTC(),
	})
	sum, err := s.tracker.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	s.metrics.RecordRun(time.Now())
	s.log.InfoObj("sync completed", "sync_meta", map[string]any{
		"summary":    sum,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return err
}

// close releases publishers and the storage backend, logging any errors.
func (s *Syncer) close() {
	if s == nil {
		return
	}
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publishers close failed", "error", err)
	}
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.log.ErrorObj("storage close failed", "error", err)
	}
}
