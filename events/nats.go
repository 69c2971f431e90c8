package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eldertales_api/tools"

	"cloud.google.com/go/logging"
	"github.com/nats-io/nats.go"
)

type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	ClientName    string
	// SubjectPrefix is prepended to every subject, e.g. "eldertales.".
	SubjectPrefix string
}

type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes events as JSON to core NATS subjects.
type NATSPublisher struct {
	conn   natsConn
	closer *nats.Conn
	prefix string
}

func NewNATSPublisher(cfg NATSConfig, logger tools.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Log(logging.Entry{
					Severity: logging.Warning,
					Payload:  "NATS disconnected",
					Labels:   map[string]string{"error": err.Error()},
				})
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log(logging.Entry{
				Severity: logging.Info,
				Payload:  "NATS reconnected to " + nc.ConnectedUrl(),
			})
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}

	return &NATSPublisher{conn: conn, closer: conn, prefix: cfg.SubjectPrefix}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.prefix+event.Subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.closer != nil {
		p.closer.Drain()
	}
}
