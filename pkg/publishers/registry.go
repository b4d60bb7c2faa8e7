package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Builder creates a Publisher from a prepared config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Builders maps a publisher type to the Builder that constructs it.
type Builders map[string]Builder

// DefaultBuilders covers every type the publishers file accepts.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:      newHTTPPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
	}
}

// Build constructs the publisher for cfg. A configured filter wraps the
// result so Fanout skips events the publisher does not want.
func (b Builders) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typ == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}
	build, ok := b[typ]
	if !ok || build == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}

	pub, err := build(ctx, cfg, ensureLogger(log))
	if err != nil {
		return nil, err
	}
	if cfg.Filter == nil {
		return pub, nil
	}
	filter, err := cfg.Filter.compile()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("publisher %q: %w", cfg.ID, err), filtered{Publisher: pub}.Close())
	}
	return filtered{Publisher: pub, filter: filter}, nil
}

// BuildAll builds every config in order. On failure the publishers built so
// far are closed.
func BuildAll(ctx context.Context, b Builders, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	log = ensureLogger(log)
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("build publisher %q: %w", cfg.ID, err), NewFanout(pubs).Close())
		}
		log.DebugObj("publisher built", "publisher_meta", map[string]any{
			"id":       cfg.ID,
			"type":     pub.Type(),
			"filtered": cfg.Filter != nil,
		})
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
