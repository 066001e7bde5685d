package events

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/observability"
)

// NATSPublisher publishes events on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url. Connection failures are retryable
// events errors.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("postbuilder"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEvents, "failed to connect to NATS").
			WithContext("url", url).
			Retryable().
			Build()
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishIndexBuilt publishes e and waits for the server to acknowledge the
// flush, so the event is not lost when the process exits right after.
func (p *NATSPublisher) PublishIndexBuilt(ctx context.Context, e IndexBuilt) error {
	data, err := e.Marshal()
	if err != nil {
		return errors.WrapError(err, errors.CategoryEvents, "failed to marshal event").Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryEvents, "failed to publish event").
			WithContext("subject", p.subject).
			Retryable().
			Build()
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryEvents, "failed to flush NATS connection").
			WithContext("subject", p.subject).
			Retryable().
			Build()
	}

	observability.DebugContext(ctx, "Published build event",
		logfields.BuildID(e.BuildID),
		logfields.Count(e.Records))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
