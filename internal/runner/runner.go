package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/webrequest/internal/storage"
	"github.com/samvad-hq/webrequest/pkg/httpclient"
	"github.com/samvad-hq/webrequest/pkg/publishers"
	"github.com/samvad-hq/webrequest/pkg/targets"
	"github.com/samvad-hq/webrequest/pkg/webrequest"
)

const defaultConcurrency = 8

// Options tunes a Service.
type Options struct {
	Concurrency   int
	LegacyResults bool
}

// Result is what one target produced in a run. Text is the body or sentinel
// delivered to the callback and is only set for json-mode targets.
type Result struct {
	TargetID   string
	URL        string
	Kind       webrequest.Kind
	Text       string
	StatusCode int
	Detail     string
	BodyBytes  int
}

// Service fetches every target concurrently; targets never affect each other.
type Service struct {
	client    httpclient.Client
	store     HistoryStore
	publisher EventPublisher
	log       Logger
	opts      Options
	now       func() time.Time
}

// NewService wires a runner. store, publisher and log may be nil.
func NewService(client httpclient.Client, store HistoryStore, publisher EventPublisher, log Logger, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Service{
		client:    client,
		store:     store,
		publisher: publisher,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// Run fetches all targets and returns one Result per target in input order.
// The error aggregates history and publish failures; fetch failures are
// reported through each Result.
func (s *Service) Run(ctx context.Context, list []targets.Target) ([]Result, error) {
	if s == nil {
		return nil, fmt.Errorf("runner service is not initialized")
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no targets configured for fetching")
	}

	results := make([]Result, len(list))
	var (
		mu   sync.Mutex
		errs []error
	)

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for i, t := range list {
		g.Go(func() error {
			res := s.runTarget(ctx, t)
			results[i] = res
			if err := s.persist(ctx, t, res); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				s.log.ErrorObj("target bookkeeping failed", "target_error", map[string]any{
					"target_id": t.ID,
					"error":     err.Error(),
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

func (s *Service) runTarget(ctx context.Context, t targets.Target) Result {
	req := webrequest.New(s.client, s.log,
		webrequest.WithHeaders(targets.Headers(t)),
		webrequest.WithLegacyResults(s.opts.LegacyResults),
	)
	res := Result{TargetID: t.ID, URL: t.URL}

	out := req.Fetch(ctx, t.URL)
	res.Kind = out.Kind
	res.StatusCode = out.StatusCode
	res.Detail = out.Detail
	res.BodyBytes = len(out.Body)

	if t.Mode == targets.ModeLog {
		req.LogOutcome(out)
		return res
	}

	req.Deliver(out, func(text string) {
		res.Text = text
	})
	return res
}

func (s *Service) persist(ctx context.Context, t targets.Target, res Result) error {
	var errs []error

	if s.store != nil {
		rec := storage.Record{
			Kind:       res.Kind.String(),
			Result:     res.Kind.Code(),
			StatusCode: res.StatusCode,
			Detail:     res.Detail,
			BodyBytes:  res.BodyBytes,
			FetchedAt:  s.now().UTC(),
		}
		if err := s.store.Record(t.URL, rec); err != nil {
			errs = append(errs, fmt.Errorf("record history for %s: %w", t.ID, err))
		}
	}

	if s.publisher != nil {
		evt := publishers.NewEvent(t.ID, t.URL, webrequest.Label(t.URL), res.Kind.String(), res.Kind.Code())
		evt.StatusCode = res.StatusCode
		evt.Detail = res.Detail
		evt.BodyBytes = res.BodyBytes
		if _, err := s.publisher.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("publish outcome for %s: %w", t.ID, err))
		}
	}

	return errors.Join(errs...)
}

type nopLogger struct{}

func (nopLogger) InfoObj(string, string, interface{})  {}
func (nopLogger) WarnObj(string, string, interface{})  {}
func (nopLogger) ErrorObj(string, string, interface{}) {}
