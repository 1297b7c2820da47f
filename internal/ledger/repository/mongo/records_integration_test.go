package mongo

import (
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
)

func (s *RepositorySuite) TestInsertRecordRoundTrip() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	rec := newRecord("r1", "h1", model.StatusSubmitted, now)
	rec.StatusHistory = []model.StatusEntry{
		{Status: model.StatusPending, Timestamp: now},
		{Status: model.StatusSubmitted, Timestamp: now.Add(time.Nanosecond), Details: "hash assigned"},
	}

	s.expectObserve("insert_record", 1)
	s.expectObserve("record_by_hash", 1)
	s.expectObserve("record_by_id", 1)

	s.Require().NoError(s.repo.InsertRecord(s.testCtx, rec))

	byHash, err := s.repo.RecordByHash(s.testCtx, "h1")
	s.Require().NoError(err)
	s.Equal(rec, byHash)

	byID, err := s.repo.RecordByID(s.testCtx, "r1")
	s.Require().NoError(err)
	s.Equal(rec, byID)
}

func (s *RepositorySuite) TestInsertRecordDuplicateHash() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.expectObserve("insert_record", 3)

	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r1", "h1", model.StatusSubmitted, now)))
	s.ErrorIs(s.repo.InsertRecord(s.testCtx, newRecord("r2", "h1", model.StatusSubmitted, now)), model.ErrDuplicate)
	s.ErrorIs(s.repo.InsertRecord(s.testCtx, newRecord("r1", "h2", model.StatusSubmitted, now)), model.ErrDuplicate)
}

func (s *RepositorySuite) TestInsertRecordsWithoutHash() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.expectObserve("insert_record", 2)

	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r1", "", model.StatusPending, now)))
	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r2", "", model.StatusPending, now)))
}

func (s *RepositorySuite) TestRecordByHashNotFound() {
	s.expectObserve("record_by_hash", 1)

	_, err := s.repo.RecordByHash(s.testCtx, "missing")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *RepositorySuite) TestUpdateRecordStatusConditional() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	closed := now.Add(-time.Minute)

	s.expectObserve("insert_record", 1)
	s.expectObserve("update_record_status", 2)
	s.expectObserve("record_by_hash", 1)

	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r1", "h1", model.StatusSubmitted, now)))

	details := &model.LedgerDetails{Ledger: 42, OperationCount: 1, Successful: true, FeeCharged: 100, ClosedAt: closed}
	upd := model.StatusUpdate{
		From:          model.StatusSubmitted,
		To:            model.StatusConfirmed,
		Entry:         model.StatusEntry{Status: model.StatusConfirmed, Timestamp: now.Add(time.Nanosecond)},
		LedgerDetails: details,
		UpdatedAt:     now.Add(time.Second),
	}
	applied, err := s.repo.UpdateRecordStatus(s.testCtx, "h1", upd)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.repo.UpdateRecordStatus(s.testCtx, "h1", upd)
	s.Require().NoError(err)
	s.False(applied)

	got, err := s.repo.RecordByHash(s.testCtx, "h1")
	s.Require().NoError(err)
	s.Equal(model.StatusConfirmed, got.Status)
	s.Len(got.StatusHistory, 2)
	s.Equal(now.Add(time.Nanosecond), got.StatusHistory[1].Timestamp)
	s.Require().NotNil(got.LedgerDetails)
	s.Equal(uint32(42), got.LedgerDetails.Ledger)
	s.Equal(int64(100), got.FeeCharged)
}

func (s *RepositorySuite) TestAssignRecordHash() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	entry := model.StatusEntry{Status: model.StatusSubmitted, Timestamp: now.Add(time.Second)}

	s.expectObserve("insert_record", 2)
	s.expectObserve("assign_record_hash", 3)
	s.expectObserve("record_by_id", 1)

	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r1", "", model.StatusPending, now)))
	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r2", "", model.StatusPending, now)))

	applied, err := s.repo.AssignRecordHash(s.testCtx, "r1", "h1", entry)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.repo.AssignRecordHash(s.testCtx, "r1", "h2", entry)
	s.Require().NoError(err)
	s.False(applied)

	_, err = s.repo.AssignRecordHash(s.testCtx, "r2", "h1", entry)
	s.ErrorIs(err, model.ErrDuplicate)

	got, err := s.repo.RecordByID(s.testCtx, "r1")
	s.Require().NoError(err)
	s.Equal("h1", got.Hash)
	s.Equal(model.StatusSubmitted, got.Status)
	s.Len(got.StatusHistory, 2)
}

func (s *RepositorySuite) TestUpdateRecordStatusByID() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.expectObserve("insert_record", 2)
	s.expectObserve("update_record_status_by_id", 3)
	s.expectObserve("record_by_id", 1)

	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r1", "", model.StatusPending, now)))
	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r2", "", model.StatusPending, now)))

	upd := model.StatusUpdate{
		From:      model.StatusPending,
		To:        model.StatusFailed,
		Entry:     model.StatusEntry{Status: model.StatusFailed, Timestamp: now.Add(time.Second), Details: "rejected"},
		UpdatedAt: now.Add(time.Second),
	}
	applied, err := s.repo.UpdateRecordStatusByID(s.testCtx, "r1", upd)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.repo.UpdateRecordStatusByID(s.testCtx, "r1", upd)
	s.Require().NoError(err)
	s.False(applied)

	applied, err = s.repo.UpdateRecordStatusByID(s.testCtx, "missing", upd)
	s.Require().NoError(err)
	s.False(applied)

	got, err := s.repo.RecordByID(s.testCtx, "r1")
	s.Require().NoError(err)
	s.Equal(model.StatusFailed, got.Status)
	s.Empty(got.Hash)
	s.Len(got.StatusHistory, 2)
}

func (s *RepositorySuite) TestUnresolvedRecordsOrdersByLastChecked() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	older := newRecord("r1", "h1", model.StatusSubmitted, now.Add(-time.Hour))
	newer := newRecord("r2", "h2", model.StatusPending, now.Add(-time.Minute))
	confirmed := newRecord("r3", "h3", model.StatusConfirmed, now.Add(-time.Hour))
	unhashed := newRecord("r4", "", model.StatusPending, now.Add(-time.Hour))
	fresh := newRecord("r5", "h5", model.StatusSubmitted, now)

	s.expectObserve("insert_record", 5)
	s.expectObserve("unresolved_records", 2)
	s.expectObserve("touch_record", 1)

	for _, rec := range []model.TransactionRecord{older, newer, confirmed, unhashed, fresh} {
		s.Require().NoError(s.repo.InsertRecord(s.testCtx, rec))
	}

	got, err := s.repo.UnresolvedRecords(s.testCtx, now.Add(-time.Second), 0)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("r1", got[0].ID)
	s.Equal("r2", got[1].ID)

	s.Require().NoError(s.repo.TouchRecord(s.testCtx, "h1", now))

	got, err = s.repo.UnresolvedRecords(s.testCtx, now.Add(-time.Second), 1)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("r2", got[0].ID)
}

func (s *RepositorySuite) TestTouchRecordNotFound() {
	s.expectObserve("touch_record", 1)

	s.ErrorIs(s.repo.TouchRecord(s.testCtx, "missing", time.Now()), model.ErrNotFound)
}

func (s *RepositorySuite) TestCountRecords() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.expectObserve("insert_record", 3)
	s.expectObserve("count_records", 2)

	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r1", "h1", model.StatusSubmitted, now)))
	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r2", "h2", model.StatusSubmitted, now)))
	s.Require().NoError(s.repo.InsertRecord(s.testCtx, newRecord("r3", "h3", model.StatusConfirmed, now)))

	n, err := s.repo.CountRecords(s.testCtx, model.StatusSubmitted)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.repo.CountRecords(s.testCtx, model.StatusFailed)
	s.Require().NoError(err)
	s.Zero(n)
}
