package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"newsquant/src/model"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestConfigRepositoryGetActive(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &ConfigRepository{db: mockDB}

	t.Run("no active snapshot yet", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "config_snapshots" WHERE status = $1 ORDER BY version DESC,"config_snapshots"."id" LIMIT $2`)).
			WithArgs(model.ConfigStatusActive, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		snapshot, err := repo.GetActive(context.Background())
		if err != nil {
			t.Fatalf("expected no error when nothing is active, got %v", err)
		}
		if snapshot != nil {
			t.Fatalf("expected nil snapshot, got %+v", snapshot)
		}
	})

	t.Run("active snapshot decodes", func(t *testing.T) {
		draft, err := model.NewConfigSnapshot(0, "run-1", model.DefaultScoringConfig(), nil)
		if err != nil {
			t.Fatalf("failed to build snapshot: %v", err)
		}

		rows := sqlmock.NewRows([]string{"id", "version", "status", "run_id", "payload"}).
			AddRow(3, 3, model.ConfigStatusActive, "run-1", draft.Payload)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "config_snapshots" WHERE status = $1 ORDER BY version DESC,"config_snapshots"."id" LIMIT $2`)).
			WithArgs(model.ConfigStatusActive, 1).
			WillReturnRows(rows)

		snapshot, err := repo.GetActive(context.Background())
		if err != nil {
			t.Fatalf("unexpected error fetching active snapshot: %v", err)
		}
		if snapshot == nil || snapshot.Version != 3 {
			t.Fatalf("unexpected snapshot: %+v", snapshot)
		}

		cfg, err := snapshot.Config()
		if err != nil {
			t.Fatalf("failed to decode snapshot payload: %v", err)
		}
		if cfg.Gates.AlphaMin != 70 {
			t.Fatalf("expected default alpha gate after round trip, got %.2f", cfg.Gates.AlphaMin)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestConfigRepositoryPromote(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &ConfigRepository{db: mockDB}

	t.Run("promotes and supersedes", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "config_snapshots" SET "status"=$1,"updated_at"=$2 WHERE version = $3 AND status IN ($4,$5)`)).
			WithArgs(model.ConfigStatusActive, sqlmock.AnyArg(), 5, model.ConfigStatusDraft, model.ConfigStatusReviewed).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "config_snapshots" SET "status"=$1,"updated_at"=$2 WHERE status = $3 AND version <> $4`)).
			WithArgs(model.ConfigStatusSuperseded, sqlmock.AnyArg(), model.ConfigStatusActive, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := repo.Promote(context.Background(), 5); err != nil {
			t.Fatalf("unexpected error promoting snapshot: %v", err)
		}
	})

	t.Run("missing draft is rejected", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "config_snapshots" SET "status"=$1,"updated_at"=$2 WHERE version = $3 AND status IN ($4,$5)`)).
			WithArgs(model.ConfigStatusActive, sqlmock.AnyArg(), 99, model.ConfigStatusDraft, model.ConfigStatusReviewed).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Promote(context.Background(), 99)
		if !errors.Is(err, ErrNoDraft) {
			t.Fatalf("expected ErrNoDraft for unknown version, got %v", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}
