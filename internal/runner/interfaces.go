package runner

import (
	"context"

	"github.com/samvad-hq/webrequest/internal/storage"
	"github.com/samvad-hq/webrequest/pkg/publishers"
)

// HistoryStore records fetch outcomes per URL.
type HistoryStore interface {
	Record(url string, rec storage.Record) error
}

// EventPublisher publishes outcome events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Logger is the logging surface the runner needs; it also feeds the requester.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}
