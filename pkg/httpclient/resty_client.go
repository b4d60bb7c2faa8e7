package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tunes the resty-backed client.
type Options struct {
	Timeout time.Duration
	// UserAgent is sent on every request unless a per-request header overrides it.
	UserAgent string
	// MaxBodyBytes rejects larger bodies with a *BodyError; zero disables the check.
	MaxBodyBytes int64
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client       *resty.Client
	maxBodyBytes int64
}

// NewRestyClient creates a new RestyClient with the specified options.
func NewRestyClient(opts Options) *RestyClient {
	c := newRestyBaseClient(opts.Timeout)
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	return &RestyClient{client: c, maxBodyBytes: opts.MaxBodyBytes}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
// Retries stay disabled: every Get is a single attempt.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		// resty hands back the response when the connection succeeded but
		// reading the body failed.
		if resp != nil && resp.RawResponse != nil {
			adapted := &restyResponseAdapter{resp: resp}
			return adapted, &BodyError{StatusCode: resp.StatusCode(), Err: err}
		}
		return nil, err
	}

	adapted := &restyResponseAdapter{resp: resp}
	if r.maxBodyBytes > 0 && int64(len(resp.Body())) > r.maxBodyBytes {
		return adapted, &BodyError{
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("body of %d bytes exceeds limit of %d", len(resp.Body()), r.maxBodyBytes),
		}
	}
	return adapted, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Status() string  { return r.resp.Status() }
