// Package webrequest issues single GET requests and hands the caller either
// the response body or a fixed error sentinel. Failures are never returned as
// errors: a callback always receives text, and callers tell bodies from
// sentinels with ResultCode.
package webrequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/webrequest/pkg/httpclient"
)

// Logger is the logging surface the requester writes diagnostics to.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

// Requester performs fetches over an injected transport. It holds no
// per-call state and is safe for concurrent use.
type Requester struct {
	client  httpclient.Client
	log     Logger
	headers map[string]string
	legacy  bool
}

// Option customizes a Requester.
type Option func(*Requester)

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(r *Requester) {
		if len(headers) == 0 {
			r.headers = nil
			return
		}
		cp := make(map[string]string, len(headers))
		for k, v := range headers {
			cp[k] = v
		}
		r.headers = cp
	}
}

// WithLegacyResults mirrors older engine builds that only detect network
// errors: HTTP and body failures are delivered as a successful body.
func WithLegacyResults(enabled bool) Option {
	return func(r *Requester) { r.legacy = enabled }
}

// DefaultHTTPClient returns the resty transport used when none is injected.
func DefaultHTTPClient() httpclient.Client {
	return httpclient.NewRestyClient(httpclient.Options{Timeout: 15 * time.Second})
}

// New builds a Requester. A nil client falls back to DefaultHTTPClient and a
// nil log discards diagnostics.
func New(client httpclient.Client, log Logger, opts ...Option) *Requester {
	if client == nil {
		client = DefaultHTTPClient()
	}
	if log == nil {
		log = noopLogger{}
	}
	r := &Requester{client: client, log: log}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Fetch performs one GET and classifies the result. It blocks until the
// transport reports completion.
func (r *Requester) Fetch(ctx context.Context, url string) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	out := Outcome{Label: Label(url)}

	resp, err := r.client.Get(ctx, url, r.headers)
	if err != nil {
		var bodyErr *httpclient.BodyError
		if !errors.As(err, &bodyErr) {
			out.Kind = KindConnectionError
			out.Detail = err.Error()
			return out
		}
		out.Kind = KindDataProcessingError
		out.Detail = err.Error()
		out.StatusCode = bodyErr.StatusCode
		if resp != nil {
			out.Body = string(resp.Body())
		}
		return r.applyLegacy(out)
	}
	if resp == nil {
		out.Kind = KindConnectionError
		out.Detail = "transport returned no response"
		return out
	}

	out.StatusCode = resp.StatusCode()
	out.Body = string(resp.Body())
	if out.StatusCode < 200 || out.StatusCode > 299 {
		out.Kind = KindProtocolError
		out.Detail = resp.Status()
		if out.Detail == "" {
			out.Detail = fmt.Sprintf("HTTP %d", out.StatusCode)
		}
	}
	return r.applyLegacy(out)
}

// applyLegacy folds HTTP and body failures into success when legacy results
// are enabled. Connection failures are kept.
func (r *Requester) applyLegacy(out Outcome) Outcome {
	if !r.legacy {
		return out
	}
	if out.Kind == KindProtocolError || out.Kind == KindDataProcessingError {
		out.Kind = KindSuccess
	}
	return out
}

// FetchJSON fetches url and calls onComplete exactly once with the body on
// success or with one of the Result* sentinels on failure. Failures are
// logged; successful bodies are not.
func (r *Requester) FetchJSON(ctx context.Context, url string, onComplete func(string)) {
	r.Deliver(r.Fetch(ctx, url), onComplete)
}

// Deliver hands out to onComplete the way FetchJSON does, logging failures.
// Callers that need the status code or error detail next to the delivered
// text use Fetch followed by Deliver.
func (r *Requester) Deliver(out Outcome, onComplete func(string)) {
	if out.Kind != KindSuccess {
		r.logFailure(out)
	}
	if onComplete != nil {
		onComplete(out.Text())
	}
}

// FetchJSONAsync runs FetchJSON on its own goroutine. The returned channel is
// closed once onComplete has returned.
func (r *Requester) FetchJSONAsync(ctx context.Context, url string, onComplete func(string)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.FetchJSON(ctx, url, onComplete)
	}()
	return done
}

// FetchAndLog fetches url and writes the outcome, including a successful
// body, to the log.
func (r *Requester) FetchAndLog(ctx context.Context, url string) {
	r.LogOutcome(r.Fetch(ctx, url))
}

// LogOutcome writes out to the log the way FetchAndLog does.
func (r *Requester) LogOutcome(out Outcome) {
	if out.Kind != KindSuccess {
		r.logFailure(out)
		return
	}
	r.log.InfoObj("webrequest success", "webrequest_result", map[string]any{
		"label":    out.Label,
		"status":   out.StatusCode,
		"received": out.Body,
	})
}

func (r *Requester) logFailure(out Outcome) {
	fields := map[string]any{
		"label": out.Label,
		"code":  out.Kind.Code(),
	}
	switch out.Kind {
	case KindConnectionError:
		fields["error"] = out.Detail
		r.log.ErrorObj("webrequest connection error", "webrequest_error", fields)
	case KindDataProcessingError:
		fields["error"] = out.Detail
		r.log.ErrorObj("webrequest data processing error", "webrequest_error", fields)
	case KindProtocolError:
		fields["http_error"] = out.Detail
		fields["status"] = out.StatusCode
		r.log.ErrorObj("webrequest protocol error", "webrequest_error", fields)
	}
}
