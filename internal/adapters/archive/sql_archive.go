package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/shortlist-watcher/internal/core"
	"go.uber.org/zap"
)

// artifactRow is the persisted shape of a match artifact
type artifactRow struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	MessageID string    `db:"message_id"`
	MatchType string    `db:"match_type"`
	Payload   string    `db:"payload"`
}

type dialect struct {
	driver  string
	schema  []string
	timeFmt func(time.Time) any
}

var sqliteDialect = dialect{
	driver: "sqlite3",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS match_artifacts (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			message_id TEXT NOT NULL,
			match_type TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_artifacts_created_at ON match_artifacts(created_at)`,
	},
	// sqlite compares timestamps as text, so store a sortable fixed-width form
	timeFmt: func(t time.Time) any { return t.UTC().Format("2006-01-02T15:04:05.000000000Z") },
}

var mysqlDialect = dialect{
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS match_artifacts (
			id VARCHAR(36) PRIMARY KEY,
			created_at DATETIME(6) NOT NULL,
			message_id VARCHAR(255) NOT NULL,
			match_type VARCHAR(32) NOT NULL,
			payload LONGTEXT NOT NULL,
			INDEX idx_created_at (created_at)
		)`,
	},
	timeFmt: func(t time.Time) any { return t.UTC() },
}

// SQLArchive stores artifacts as JSON payloads in a SQL table
type SQLArchive struct {
	db        *sqlx.DB
	dialect   dialect
	retention time.Duration
	logger    *zap.Logger
	cleaner   *cleaner
}

// NewSQLiteArchive opens (or creates) a SQLite archive at dbPath
func NewSQLiteArchive(dbPath string, retention, cleanupFreq time.Duration, logger *zap.Logger) (*SQLArchive, error) {
	return newSQLArchive(sqliteDialect, dbPath, retention, cleanupFreq, logger)
}

// NewMySQLArchive connects to a MySQL archive
func NewMySQLArchive(dsn string, retention, cleanupFreq time.Duration, logger *zap.Logger) (*SQLArchive, error) {
	return newSQLArchive(mysqlDialect, dsn, retention, cleanupFreq, logger)
}

func newSQLArchive(d dialect, dsn string, retention, cleanupFreq time.Duration, logger *zap.Logger) (*SQLArchive, error) {
	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.driver, err)
	}

	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	a := &SQLArchive{
		db:        db,
		dialect:   d,
		retention: retention,
		logger:    logger,
		cleaner:   newCleaner(cleanupFreq, logger),
	}
	a.cleaner.start(retention, a.Cleanup)
	return a, nil
}

// Store inserts the artifact
func (a *SQLArchive) Store(ctx context.Context, artifact *core.MatchArtifact) error {
	prepare(artifact)
	payload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO match_artifacts (id, created_at, message_id, match_type, payload)
		VALUES (?, ?, ?, ?, ?)
	`, artifact.ID, a.dialect.timeFmt(artifact.Timestamp), artifact.Email.MessageID, string(artifact.MatchType), string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}
	return nil
}

// Recent returns the newest artifacts first
func (a *SQLArchive) Recent(ctx context.Context, limit int) ([]core.MatchArtifact, error) {
	if limit <= 0 {
		limit = 100
	}
	var payloads []string
	err := a.db.SelectContext(ctx, &payloads, `
		SELECT payload FROM match_artifacts
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}

	out := make([]core.MatchArtifact, 0, len(payloads))
	for _, p := range payloads {
		var artifact core.MatchArtifact
		if err := json.Unmarshal([]byte(p), &artifact); err != nil {
			a.logger.Warn("Skipping unreadable artifact", zap.Error(err))
			continue
		}
		out = append(out, artifact)
	}
	return out, nil
}

// Get returns a single artifact by id
func (a *SQLArchive) Get(ctx context.Context, id string) (*core.MatchArtifact, error) {
	var row artifactRow
	err := a.db.GetContext(ctx, &row, `
		SELECT id, message_id, match_type, payload FROM match_artifacts WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query artifact: %w", err)
	}
	var artifact core.MatchArtifact
	if err := json.Unmarshal([]byte(row.Payload), &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	return &artifact, nil
}

// Cleanup removes artifacts older than the retention period
func (a *SQLArchive) Cleanup(ctx context.Context) error {
	if a.retention <= 0 {
		return nil
	}
	cutoff := a.dialect.timeFmt(time.Now().Add(-a.retention))
	result, err := a.db.ExecContext(ctx, `DELETE FROM match_artifacts WHERE created_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up artifacts: %w", err)
	}

	count, _ := result.RowsAffected()
	a.logger.Debug("Cleaned up match artifacts", zap.Int64("expired_count", count))
	return nil
}

// Stop stops the cleanup task and closes the database
func (a *SQLArchive) Stop() {
	a.cleaner.stop()
	a.db.Close()
}
