package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const sqliteClaimsSchema = `
	CREATE TABLE IF NOT EXISTS drop_claims (
		id            TEXT PRIMARY KEY,
		drop_id       TEXT NOT NULL,
		drop_name     TEXT NOT NULL,
		campaign_id   TEXT NOT NULL,
		campaign_name TEXT NOT NULL,
		game_name     TEXT NOT NULL,
		channel_login TEXT NOT NULL DEFAULT '',
		rewards       TEXT NOT NULL,
		claimed_at    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS drop_claims_drop_id ON drop_claims (drop_id);
`

// SQLiteStorage implements Storage on a local SQLite file.
type SQLiteStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at path.
func NewSQLiteStorage(path string, logger *zap.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite serializes writers
	db.SetMaxOpenConns(1)

	storage, err := newSQLiteStorage(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("sqlite-storage-opened", zap.String("path", path))

	return storage, nil
}

func newSQLiteStorage(db *sql.DB, logger *zap.Logger) (*SQLiteStorage, error) {
	_, err := db.ExecContext(context.Background(), sqliteClaimsSchema)
	if err != nil {
		return nil, fmt.Errorf("create drop_claims table: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		logger: logger,
	}, nil
}

// StoreClaim inserts a claimed drop into drop_claims.
func (s *SQLiteStorage) StoreClaim(ctx context.Context, rec *ClaimRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drop_claims (
			id, drop_id, drop_name, campaign_id, campaign_name,
			game_name, channel_login, rewards, claimed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.DropID,
		rec.DropName,
		rec.CampaignID,
		rec.CampaignName,
		rec.GameName,
		rec.ChannelLogin,
		rec.Rewards,
		rec.ClaimedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}

	s.logger.Debug("claim-stored",
		zap.String("claim-id", rec.ID),
		zap.String("drop-id", rec.DropID))

	return nil
}

// ClaimCount returns how many claims are recorded for dropID.
func (s *SQLiteStorage) ClaimCount(ctx context.Context, dropID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drop_claims WHERE drop_id = ?`, dropID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}

	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	s.logger.Info("closing-sqlite-storage")
	return s.db.Close()
}
