package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
)

// InsertStatusEvents stores transition rows in ClickHouse.
func (r *Repository) InsertStatusEvents(ctx context.Context, events []model.StatusEvent) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_status_events", err, start)
	}()

	if len(events) == 0 {
		return nil
	}

	const query = `
INSERT INTO ledger_status_events (
	record_id,
	hash,
	type,
	source_type,
	source_id,
	from_status,
	to_status,
	details,
	occurred_at
) VALUES`

	b, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare status events batch: %w", err)
	}

	for _, ev := range events {
		if err = b.Append(
			ev.RecordID,
			ev.Hash,
			string(ev.Type),
			string(ev.SourceType),
			ev.SourceID,
			string(ev.From),
			string(ev.To),
			ev.Details,
			ev.OccurredAt,
		); err != nil {
			_ = b.Abort()
			return fmt.Errorf("append status event: %w", err)
		}
	}

	if err = b.Send(); err != nil {
		return fmt.Errorf("insert status events: %w", err)
	}
	return nil
}
