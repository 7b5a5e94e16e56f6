package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// Builder creates a Publisher from a validated config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher types to builders. It is populated once at startup.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// DefaultRegistry knows every publisher type shipped with the syncer.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(TypeHTTP, newHTTPPublisher).
		Register(TypeSQS, newSQSPublisher).
		Register(TypeSNS, newSNSPublisher).
		Register(TypeGCPPubSub, newGCPPubSubPublisher)
}

// Register binds builder to typ, replacing any previous binding.
func (r *Registry) Register(typ string, builder Builder) *Registry {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ != "" && builder != nil {
		r.builders[typ] = builder
	}
	return r
}

// Types lists the registered publisher types in sorted order.
func (r *Registry) Types() []string {
	return slices.Sorted(maps.Keys(r.builders))
}

// Build creates the publisher for cfg. Entries with a kinds list are wrapped
// so the fanout only hands them changes of those page kinds.
func (r *Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	builder, ok := r.builders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("publisher %q: unknown type %q (known: %s)", cfg.ID, cfg.Type, strings.Join(r.Types(), ", "))
	}
	pub, err := builder(ctx, cfg, ensureLogger(log))
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	if len(cfg.Kinds) > 0 {
		pub = &kindFilter{Publisher: pub, kinds: slices.Clone(cfg.Kinds)}
	}
	return pub, nil
}

// BuildAll builds every entry in order. On failure the publishers built so
// far are closed.
func BuildAll(ctx context.Context, reg *Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(err, NewFanout(pubs).Close())
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// kindAware is implemented by publishers restricted to some page kinds.
type kindAware interface {
	Accepts(kind string) bool
}

type kindFilter struct {
	Publisher
	kinds []string
}

func (k *kindFilter) Accepts(kind string) bool {
	return slices.Contains(k.kinds, kind)
}

func (k *kindFilter) Close() error {
	if c, ok := k.Publisher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
