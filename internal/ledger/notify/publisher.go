// Package notify publishes transaction status changes to NATS.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix is followed by the target status, e.g. ledger.status.confirmed.
const DefaultSubjectPrefix = "ledger.status"

// Config contains the arguments required to connect to NATS.
type Config struct {
	Address       string
	Name          string
	Token         string
	SubjectPrefix string
}

// Publisher pushes status events to the pub/sub queue.
type Publisher struct {
	conn   conn
	prefix string
	logger *zap.Logger
}

// Connect dials NATS using cfg.
func Connect(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if cfg.Address == "" {
		return nil, errors.New("nats address is required")
	}
	if _, err := url.Parse(cfg.Address); err != nil {
		return nil, fmt.Errorf("parse nats address: %w", err)
	}

	opts := []nats.Option{nats.Name(cfg.Name)}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newPublisher(nc, cfg.SubjectPrefix, logger), nil
}

func newPublisher(c conn, prefix string, logger *zap.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: c, prefix: prefix, logger: logger.Named("notify")}
}

// Subject returns the subject ev is published on.
func (p *Publisher) Subject(ev model.StatusEvent) string {
	return p.prefix + "." + string(ev.To)
}

// Publish sends ev as JSON.
func (p *Publisher) Publish(ctx context.Context, ev model.StatusEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	subject := p.Subject(ev)
	if err := p.conn.Publish(subject, msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("status event published", zap.String("subject", subject), zap.String("hash", ev.Hash))
	return nil
}

// Close drains pending messages and disconnects.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
