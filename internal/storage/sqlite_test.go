package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
)

func TestSQLiteStorage_StoreClaim(t *testing.T) {
	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "claims.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer storage.Close()

	ctx := context.Background()
	rec := testRecord(t)

	err = storage.StoreClaim(ctx, rec)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	count, err := storage.ClaimCount(ctx, "drop-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 claim, got %d", count)
	}

	// ids are unique
	err = storage.StoreClaim(ctx, rec)
	if err == nil {
		t.Error("expected duplicate id to fail")
	}
}

func TestSQLiteStorage_ReopenKeepsClaims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.db")

	first, err := NewSQLiteStorage(path, zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := first.StoreClaim(context.Background(), testRecord(t)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("expected no error on close, got %v", err)
	}

	second, err := NewSQLiteStorage(path, zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer second.Close()

	count, err := second.ClaimCount(context.Background(), "drop-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 claim after reopen, got %d", count)
	}
}

func TestSQLiteStorage_SchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS drop_claims").
		WillReturnError(context.DeadlineExceeded)

	_, err = newSQLiteStorage(db, zap.NewNop())
	if err == nil {
		t.Fatal("expected schema error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
