package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/halverson/concierge-bot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db}
	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}
	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}
	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStorage) SaveDispatch(ctx context.Context, record *models.DispatchRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO dispatches (id, user_id, category, thread_id, run_id, tool_function, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.Category,
		record.ThreadID,
		record.RunID,
		record.ToolFunction,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving dispatch: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetUserDispatches(ctx context.Context, userID int64, limit, offset int) ([]*models.DispatchRecord, error) {
	query := `
		SELECT id, user_id, category, thread_id, run_id, tool_function, created_at
		FROM dispatches
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying dispatches: %w", err)
	}
	defer rows.Close()

	var records []*models.DispatchRecord
	for rows.Next() {
		record := &models.DispatchRecord{}
		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Category,
			&record.ThreadID,
			&record.RunID,
			&record.ToolFunction,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning dispatch: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *PostgresStorage) AddCategory(ctx context.Context, userID int64, category string) error {
	query := `
		INSERT INTO user_metadata (user_id, categories, last_used_at)
		VALUES ($1, ARRAY[$2], now())
		ON CONFLICT (user_id) DO UPDATE
		SET categories = (
			SELECT ARRAY(SELECT DISTINCT unnest(user_metadata.categories || $2))
		),
		last_used_at = now()`

	if _, err := s.db.ExecContext(ctx, query, userID, category); err != nil {
		return fmt.Errorf("error saving category: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetUserMetadata(ctx context.Context, userID int64) (*models.UserMetadata, error) {
	query := `
		SELECT user_id, categories, last_used_at
		FROM user_metadata
		WHERE user_id = $1`

	metadata := &models.UserMetadata{}
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&metadata.UserID,
		pq.Array(&metadata.Categories),
		&metadata.LastUsedAt,
	)
	if err == sql.ErrNoRows {
		return &models.UserMetadata{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying user metadata: %w", err)
	}
	return metadata, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
