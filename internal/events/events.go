// Package events announces completed index builds so that downstream
// consumers (cache purgers, deploy hooks) can react.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// TypeIndexBuilt is the type of IndexBuilt events.
const TypeIndexBuilt = "index.built"

// IndexBuilt describes a finished index build.
type IndexBuilt struct {
	Type      string    `json:"type"`
	BuildID   string    `json:"build_id"`
	Timestamp time.Time `json:"timestamp"`
	Records   int       `json:"records"`
	Eligible  int       `json:"eligible"`
	Failures  int       `json:"failures"`
	IndexPath string    `json:"index_path"`
	FeedPath  string    `json:"feed_path,omitempty"`
	BasePath  string    `json:"base_path"`
}

// Marshal encodes the event, filling Type and Timestamp when unset.
func (e IndexBuilt) Marshal() ([]byte, error) {
	if e.Type == "" {
		e.Type = TypeIndexBuilt
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return json.Marshal(e)
}

// Publisher delivers build events.
type Publisher interface {
	PublishIndexBuilt(ctx context.Context, e IndexBuilt) error
	Close() error
}

// NoopPublisher discards events (default when events.nats_url is unset).
type NoopPublisher struct{}

func (NoopPublisher) PublishIndexBuilt(context.Context, IndexBuilt) error { return nil }
func (NoopPublisher) Close() error                                        { return nil }
