// Package txrecord owns the persisted lifecycle of ledger transactions.
package txrecord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 30 * time.Second

	// maxUpdateConflicts bounds re-reads after losing a conditional update.
	maxUpdateConflicts = 3
)

var ErrNoChecker = errors.New("status checker is not configured")

// Config tunes the service. Zero values fall back to defaults.
type Config struct {
	// PollInterval is the window GetPendingTransactions uses when maxAge is not positive.
	PollInterval time.Duration
}

// UpdateExtra carries optional inputs of UpdateTransactionStatus.
type UpdateExtra struct {
	Force         bool
	LedgerDetails *model.LedgerDetails
}

// CreateResult is the boundary result of CreateTransaction.
type CreateResult struct {
	Success       bool
	TransactionID string
	Record        model.TransactionRecord
	Err           error
}

// UpdateResult is the boundary result of UpdateTransactionStatus.
type UpdateResult struct {
	Success bool
	// Applied is false for no-op updates and lost races.
	Applied bool
	Record  model.TransactionRecord
	// PropagationErr reports a failed source record sync. The transition itself stands.
	PropagationErr error
	Err            error
}

// CheckResult is the boundary result of CheckTransactionStatus.
type CheckResult struct {
	Success bool
	Record  model.TransactionRecord
	Err     error
}

// Service implements the transaction status state machine on top of a Store.
type Service struct {
	store     Store
	publisher Publisher
	audit     AuditSink
	checker   Checker
	metrics   Metrics
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
	newID     func() string
}

// New constructs a Service. publisher and audit may be nil.
func New(store Store, publisher Publisher, audit AuditSink, metrics Metrics, cfg Config, logger *zap.Logger) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Service{
		store:     store,
		publisher: publisher,
		audit:     audit,
		metrics:   metrics,
		logger:    logger.Named("txrecord"),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// AttachChecker sets the reconciler used by CheckTransactionStatus.
func (s *Service) AttachChecker(c Checker) {
	s.checker = c
}

// CreateTransaction persists a new record in pending.
func (s *Service) CreateTransaction(ctx context.Context, rec model.TransactionRecord) CreateResult {
	if err := validateNew(rec); err != nil {
		return CreateResult{Err: err}
	}

	now := s.now()
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	rec.Status = model.StatusPending
	rec.StatusHistory = []model.StatusEntry{{Status: model.StatusPending, Timestamp: now}}
	rec.FeeCharged = 0
	rec.LedgerDetails = nil
	rec.CreatedAt, rec.UpdatedAt, rec.LastChecked = now, now, now

	if err := s.store.InsertRecord(ctx, rec); err != nil {
		return CreateResult{Err: fmt.Errorf("insert record: %w", err)}
	}
	s.logger.Debug("transaction record created",
		zap.String("record_id", rec.ID),
		zap.String("hash", rec.Hash),
		zap.String("type", string(rec.Type)))
	return CreateResult{Success: true, TransactionID: rec.ID, Record: rec}
}

func validateNew(rec model.TransactionRecord) error {
	if !rec.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", model.ErrValidation, rec.Type)
	}
	if rec.SourceID == "" || rec.SourceType == "" {
		return fmt.Errorf("%w: source id and type are required", model.ErrValidation)
	}
	if rec.Amount != "" {
		amount, err := decimal.NewFromString(rec.Amount)
		if err != nil || !amount.IsPositive() {
			return fmt.Errorf("%w: amount %q must be a positive decimal", model.ErrValidation, rec.Amount)
		}
	}
	if rec.Asset != "" {
		if _, err := model.ParseAsset(string(rec.Asset)); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTransactionStatus moves the record with hash to status.
func (s *Service) UpdateTransactionStatus(ctx context.Context, hash string, status model.TxStatus, details string, extra UpdateExtra) UpdateResult {
	if !status.Valid() {
		return UpdateResult{Err: fmt.Errorf("%w: unknown status %q", model.ErrValidation, status)}
	}
	logger := s.logger.With(zap.String("hash", hash), zap.String("status", string(status)))

	rec, err := s.store.RecordByHash(ctx, hash)
	if err != nil {
		return UpdateResult{Err: fmt.Errorf("load record: %w", err)}
	}

	for conflict := 0; ; conflict++ {
		if rec.Status == status && !extra.Force {
			return UpdateResult{Success: true, Record: rec}
		}
		if rec.Status != status && !model.CanTransition(rec.Status, status) {
			return UpdateResult{
				Record: rec,
				Err:    fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, rec.Status, status),
			}
		}

		entry := model.StatusEntry{
			Status:    status,
			Timestamp: model.NextEntryTime(rec.StatusHistory, s.now()),
			Details:   details,
		}
		applied, err := s.store.UpdateRecordStatus(ctx, hash, model.StatusUpdate{
			From:          rec.Status,
			To:            status,
			Entry:         entry,
			LedgerDetails: extra.LedgerDetails,
			UpdatedAt:     entry.Timestamp,
		})
		if err != nil {
			return UpdateResult{Record: rec, Err: fmt.Errorf("update status: %w", err)}
		}
		if applied {
			from := rec.Status
			rec = applyEntry(rec, entry, extra.LedgerDetails)
			return s.afterTransition(ctx, logger, rec, from, entry)
		}

		if conflict >= maxUpdateConflicts {
			return UpdateResult{Record: rec, Err: fmt.Errorf("update status of %s: concurrent updates did not settle", hash)}
		}
		logger.Debug("conditional update lost, reloading", zap.String("from", string(rec.Status)))
		if rec, err = s.store.RecordByHash(ctx, hash); err != nil {
			return UpdateResult{Err: fmt.Errorf("reload record: %w", err)}
		}
		// A concurrent writer reached the requested status first.
		if rec.Status == status {
			return UpdateResult{Success: true, Record: rec}
		}
	}
}

func applyEntry(rec model.TransactionRecord, entry model.StatusEntry, details *model.LedgerDetails) model.TransactionRecord {
	history := make([]model.StatusEntry, 0, len(rec.StatusHistory)+1)
	history = append(history, rec.StatusHistory...)
	rec.StatusHistory = append(history, entry)
	rec.Status = entry.Status
	rec.UpdatedAt = entry.Timestamp
	if details != nil {
		d := *details
		rec.LedgerDetails = &d
		rec.FeeCharged = d.FeeCharged
	}
	return rec
}

func (s *Service) afterTransition(ctx context.Context, logger *zap.Logger, rec model.TransactionRecord, from model.TxStatus, entry model.StatusEntry) UpdateResult {
	s.metrics.ObserveTransition(from, entry.Status)
	logger.Info("transaction status changed",
		zap.String("record_id", rec.ID),
		zap.String("from", string(from)))

	s.emit(ctx, logger, model.NewStatusEvent(rec, from, entry))

	res := UpdateResult{Success: true, Applied: true, Record: rec}
	if entry.Status == model.StatusConfirmed || entry.Status == model.StatusFailed {
		res.PropagationErr = s.propagate(ctx, logger, rec, entry.Timestamp)
	}
	return res
}

func (s *Service) propagate(ctx context.Context, logger *zap.Logger, rec model.TransactionRecord, at time.Time) error {
	err := s.store.UpdateSourceStatus(ctx, rec.SourceType, rec.SourceID, rec.Hash, model.SourceStatusFor(rec.Status), at)
	s.metrics.ObservePropagation(rec.SourceType, err)
	if err != nil {
		logger.Error("source record not updated",
			zap.String("source_type", string(rec.SourceType)),
			zap.String("source_id", rec.SourceID),
			zap.Error(err))
		return fmt.Errorf("propagate to %s %s: %w", rec.SourceType, rec.SourceID, err)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, logger *zap.Logger, ev model.StatusEvent) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			logger.Warn("status event not published", zap.Error(err))
		}
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, ev); err != nil {
			logger.Warn("status event not audited", zap.Error(err))
		}
	}
}

// AssignHash records the hash of a submitted transaction and moves its record from pending to submitted.
func (s *Service) AssignHash(ctx context.Context, id, hash string) (model.TransactionRecord, error) {
	if id == "" || hash == "" {
		return model.TransactionRecord{}, fmt.Errorf("%w: record id and hash are required", model.ErrValidation)
	}
	logger := s.logger.With(zap.String("record_id", id), zap.String("hash", hash))

	rec, err := s.store.RecordByID(ctx, id)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("load record: %w", err)
	}
	if rec.Hash == hash {
		return rec, nil
	}

	entry := model.StatusEntry{
		Status:    model.StatusSubmitted,
		Timestamp: model.NextEntryTime(rec.StatusHistory, s.now()),
		Details:   "submitted to ledger",
	}
	applied, err := s.store.AssignRecordHash(ctx, id, hash, entry)
	if err != nil {
		return rec, fmt.Errorf("assign hash: %w", err)
	}
	if !applied {
		return rec, fmt.Errorf("%w: record %s is %s with hash %q", model.ErrInvalidTransition, id, rec.Status, rec.Hash)
	}

	from := rec.Status
	rec.Hash = hash
	rec = applyEntry(rec, entry, nil)
	s.metrics.ObserveTransition(from, entry.Status)
	logger.Info("transaction submitted")
	s.emit(ctx, logger, model.NewStatusEvent(rec, from, entry))
	return rec, nil
}

// FailTransaction moves a record that never received a hash from pending to failed.
// Submissions rejected before reaching the ledger end here.
func (s *Service) FailTransaction(ctx context.Context, id, details string) UpdateResult {
	if id == "" {
		return UpdateResult{Err: fmt.Errorf("%w: record id is required", model.ErrValidation)}
	}
	logger := s.logger.With(zap.String("record_id", id), zap.String("status", string(model.StatusFailed)))

	rec, err := s.store.RecordByID(ctx, id)
	if err != nil {
		return UpdateResult{Err: fmt.Errorf("load record: %w", err)}
	}
	if rec.Status == model.StatusFailed {
		return UpdateResult{Success: true, Record: rec}
	}
	if rec.Status != model.StatusPending || rec.Hash != "" {
		return UpdateResult{
			Record: rec,
			Err:    fmt.Errorf("%w: record %s is %s with hash %q", model.ErrInvalidTransition, id, rec.Status, rec.Hash),
		}
	}

	entry := model.StatusEntry{
		Status:    model.StatusFailed,
		Timestamp: model.NextEntryTime(rec.StatusHistory, s.now()),
		Details:   details,
	}
	applied, err := s.store.UpdateRecordStatusByID(ctx, id, model.StatusUpdate{
		From:      model.StatusPending,
		To:        model.StatusFailed,
		Entry:     entry,
		UpdatedAt: entry.Timestamp,
	})
	if err != nil {
		return UpdateResult{Record: rec, Err: fmt.Errorf("update status: %w", err)}
	}
	if !applied {
		return UpdateResult{Record: rec, Err: fmt.Errorf("%w: record %s changed concurrently", model.ErrInvalidTransition, id)}
	}
	rec = applyEntry(rec, entry, nil)
	return s.afterTransition(ctx, logger, rec, model.StatusPending, entry)
}

// GetTransaction returns the record with hash or model.ErrNotFound.
func (s *Service) GetTransaction(ctx context.Context, hash string) (model.TransactionRecord, error) {
	return s.store.RecordByHash(ctx, hash)
}

// GetPendingTransactions returns pending and submitted records not checked within maxAge,
// least recently checked first. maxAge <= 0 uses the poll interval.
func (s *Service) GetPendingTransactions(ctx context.Context, maxAge time.Duration, limit int) ([]model.TransactionRecord, error) {
	if maxAge <= 0 {
		maxAge = s.cfg.PollInterval
	}
	return s.store.UnresolvedRecords(ctx, s.now().Add(-maxAge), limit)
}

// MarkChecked stamps LastChecked of the record with hash.
func (s *Service) MarkChecked(ctx context.Context, hash string) error {
	return s.store.TouchRecord(ctx, hash, s.now())
}

// CountByStatus returns the number of records in status.
func (s *Service) CountByStatus(ctx context.Context, status model.TxStatus) (int64, error) {
	return s.store.CountRecords(ctx, status)
}

// CheckTransactionStatus reconciles hash against the ledger now.
func (s *Service) CheckTransactionStatus(ctx context.Context, hash string) CheckResult {
	if s.checker == nil {
		return CheckResult{Err: ErrNoChecker}
	}
	rec, err := s.checker.Check(ctx, hash)
	if err != nil {
		return CheckResult{Record: rec, Err: err}
	}
	return CheckResult{Success: true, Record: rec}
}
