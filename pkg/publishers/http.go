package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/webrequest/pkg/httpclient"
)

// Headers set on every delivered event so receivers can route without
// decoding the body.
const (
	HeaderEventID   = "X-Webrequest-Event-Id"
	HeaderEventKind = "X-Webrequest-Kind"
	HeaderTargetID  = "X-Webrequest-Target"
)

const maxRejectionSnippet = 512

// httpPublisher sends each outcome event as a JSON request body.
type httpPublisher struct {
	id     string
	cfg    HTTPPublisherConfig
	client *resty.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	hc := *cfg.HTTP
	hc.normalize()

	client := httpclient.NewRestyHTTPClient(time.Duration(hc.TimeoutSeconds) * time.Second).
		SetHeaders(hc.Headers).
		SetHeader("Content-Type", "application/json")

	return &httpPublisher{id: cfg.ID, cfg: hc, client: client, log: ensureLogger(log)}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := marshalEvent(evt)
	if err != nil {
		return err
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader(HeaderEventID, evt.ID).
		SetHeader(HeaderEventKind, evt.Kind).
		SetHeader(HeaderTargetID, evt.TargetID).
		SetBody(payload).
		Execute(h.cfg.Method, h.cfg.URL)
	if err != nil {
		h.log.ErrorObj("http publisher send failed", "publisher_http_error", map[string]any{
			"publisher_id": h.id,
			"event_id":     evt.ID,
			"error":        err.Error(),
		})
		return fmt.Errorf("deliver event %s: %w", evt.ID, err)
	}

	if resp.IsError() {
		h.log.WarnObj("http publisher rejected event", "publisher_http_error", map[string]any{
			"publisher_id": h.id,
			"event_id":     evt.ID,
			"status":       resp.StatusCode(),
		})
		return fmt.Errorf("event %s rejected with %s: %s", evt.ID, resp.Status(), rejectionSnippet(resp.Body()))
	}

	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"event_id":     evt.ID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func rejectionSnippet(body []byte) string {
	if len(body) > maxRejectionSnippet {
		body = body[:maxRejectionSnippet]
	}
	return strings.TrimSpace(string(body))
}
