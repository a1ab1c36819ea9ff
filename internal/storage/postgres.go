package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const claimsSchema = `
	CREATE TABLE IF NOT EXISTS drop_claims (
		id            UUID PRIMARY KEY,
		drop_id       TEXT NOT NULL,
		drop_name     TEXT NOT NULL,
		campaign_id   TEXT NOT NULL,
		campaign_name TEXT NOT NULL,
		game_name     TEXT NOT NULL,
		channel_login TEXT NOT NULL DEFAULT '',
		rewards       TEXT NOT NULL,
		claimed_at    TIMESTAMPTZ NOT NULL
	)
`

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	storage := &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}

	err = storage.EnsureSchema(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return storage, nil
}

// EnsureSchema creates the drop_claims table if it does not exist.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, claimsSchema)
	if err != nil {
		return fmt.Errorf("create drop_claims table: %w", err)
	}
	return nil
}

// StoreClaim inserts a claimed drop into drop_claims.
func (p *PostgresStorage) StoreClaim(ctx context.Context, rec *ClaimRecord) error {
	query := `
		INSERT INTO drop_claims (
			id, drop_id, drop_name, campaign_id, campaign_name,
			game_name, channel_login, rewards, claimed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		rec.ID,
		rec.DropID,
		rec.DropName,
		rec.CampaignID,
		rec.CampaignName,
		rec.GameName,
		rec.ChannelLogin,
		rec.Rewards,
		rec.ClaimedAt,
	)

	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}

	p.logger.Debug("claim-stored",
		zap.String("claim-id", rec.ID),
		zap.String("drop-id", rec.DropID),
		zap.String("campaign-id", rec.CampaignID))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
