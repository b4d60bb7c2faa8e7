package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/webrequest/internal/config"
	"github.com/samvad-hq/webrequest/internal/logger"
	"github.com/samvad-hq/webrequest/internal/runner"
	"github.com/samvad-hq/webrequest/internal/storage"
	"github.com/samvad-hq/webrequest/pkg/httpclient"
	"github.com/samvad-hq/webrequest/pkg/publishers"
	"github.com/samvad-hq/webrequest/pkg/targets"
	"github.com/samvad-hq/webrequest/pkg/webrequest"
)

// Poller fetches the configured targets on an interval, keeping outcome
// history and publishing outcome events.
type Poller struct {
	cfg      *config.Config
	targets  []targets.Target
	fanout   *publishers.Fanout
	runner   *runner.Service
	interval time.Duration
	log      logger.Logger
	store    storage.Store
}

// NewHTTPClient builds the shared transport from config.
func NewHTTPClient(cfg *config.Config) httpclient.Client {
	return httpclient.NewRestyClient(httpclient.Options{
		Timeout:      cfg.HTTPTimeout,
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.HTTPMaxBodyBytes,
	})
}

// NewRequester builds a requester for one-off commands.
func NewRequester(cfg *config.Config, log logger.Logger) *webrequest.Requester {
	return webrequest.New(NewHTTPClient(cfg), log, webrequest.WithLegacyResults(cfg.LegacyResults))
}

// OpenStore opens the configured history store.
func OpenStore(cfg *config.Config) (storage.Store, error) {
	return storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		HistoryTTL:      cfg.HistoryTTL,
		CleanupInterval: cfg.HistoryCleanupInterval,
		Limit:           cfg.HistoryLimit,
	})
}

// NewPoller builds a poller runtime from config files.
func NewPoller(ctx context.Context, cfg *config.Config, log logger.Logger) (*Poller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	targetReg, err := targets.LoadRegistry(cfg.TargetsFile)
	if err != nil {
		return nil, fmt.Errorf("load targets registry: %w", err)
	}
	targetList := targetReg.All()
	targetIDs := make([]string, 0, len(targetList))
	for _, t := range targetList {
		targetIDs = append(targetIDs, t.ID)
	}
	log.InfoObj("targets registry loaded", "targets_meta", map[string]any{
		"count": len(targetIDs),
		"ids":   targetIDs,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"history_ttl_seconds":      int(cfg.HistoryTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.HistoryCleanupInterval.Seconds()),
		"history_limit":            cfg.HistoryLimit,
	})

	svc := runner.NewService(NewHTTPClient(cfg), store, fanout, log, runner.Options{
		Concurrency:   cfg.MaxConcurrency,
		LegacyResults: cfg.LegacyResults,
	})

	return &Poller{
		cfg:      cfg,
		targets:  targetList,
		fanout:   fanout,
		runner:   svc,
		interval: cfg.PollInterval,
		log:      log,
		store:    store,
	}, nil
}

// buildFanout loads enabled publishers; no publishers file means no sinks.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultBuilders(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range enabled {
		summary := map[string]any{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		}
		if pubCfg.Filter != nil {
			summary["filter_kinds"] = pubCfg.Filter.Kinds
			summary["filter_targets"] = pubCfg.Filter.Targets
		}
		summaries = append(summaries, summary)
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	if p == nil || p.runner == nil {
		return fmt.Errorf("poller is not initialized")
	}
	defer p.Close()

	p.log.InfoObj("poller loop starting", "poller_state", map[string]any{
		"targets_count":    len(p.targets),
		"publishers_count": p.fanout.Size(),
		"poll_interval":    p.interval.String(),
	})

	if _, err := p.RunOnce(ctx); err != nil {
		p.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("poller loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil {
				p.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

// RunOnce fetches every target a single time.
func (p *Poller) RunOnce(ctx context.Context) ([]runner.Result, error) {
	start := time.Now()
	p.log.InfoObj("poll started", "poll_meta", map[string]any{
		"targets_count": len(p.targets),
		"started_at":    start.UTC(),
	})

	results, err := p.runner.Run(ctx, p.targets)

	failed := 0
	for _, r := range results {
		if r.Kind != webrequest.KindSuccess {
			failed++
		}
	}
	p.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"targets_count": len(p.targets),
		"failed_count":  failed,
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return results, err
}

// Close releases storage and publisher resources, logging any errors encountered.
func (p *Poller) Close() {
	if p == nil {
		return
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.log.ErrorObj("storage close failed", "error", err)
		}
		p.store = nil
	}
	if p.fanout != nil {
		if err := p.fanout.Close(); err != nil {
			p.log.ErrorObj("publishers close failed", "error", err)
		}
		p.fanout = nil
	}
}
