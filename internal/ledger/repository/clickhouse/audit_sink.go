package clickhouse

import (
	"context"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/pkg/batcher"
	"go.uber.org/zap"
)

const (
	defaultAuditFlushSize     = 500
	defaultAuditFlushInterval = 2 * time.Second
	defaultAuditFlushRPS      = 10
)

type eventWriter interface {
	InsertStatusEvents(ctx context.Context, events []model.StatusEvent) error
}

// AuditSink buffers status events and writes them in batches.
type AuditSink struct {
	events *batcher.Batcher[model.StatusEvent]
}

// NewAuditSink creates a sink over writer. Zero sizes select defaults.
func NewAuditSink(writer eventWriter, flushSize int, flushInterval time.Duration, logger *zap.Logger) *AuditSink {
	if flushSize <= 0 {
		flushSize = defaultAuditFlushSize
	}
	if flushInterval <= 0 {
		flushInterval = defaultAuditFlushInterval
	}
	return &AuditSink{
		events: batcher.New[model.StatusEvent](
			logger.Named("audit_sink"),
			writer.InsertStatusEvents,
			flushSize,
			flushInterval,
			defaultAuditFlushRPS,
		),
	}
}

// Start begins flushing in the background until ctx is done or Stop is called.
func (s *AuditSink) Start(ctx context.Context) {
	s.events.Start(ctx)
}

// Stop flushes buffered events and waits for the flush loop to exit.
func (s *AuditSink) Stop() {
	s.events.Stop()
}

// Record queues ev for the next flush.
func (s *AuditSink) Record(ctx context.Context, ev model.StatusEvent) error {
	return s.events.Add(ctx, ev)
}
