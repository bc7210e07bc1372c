// Package sqlite implements store.Store on SQLite via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yamdb/yamdb-server/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store provides SQLite-backed persistence for the YaMDb server.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	mu            sync.RWMutex
	searchIndexer store.SearchIndexer
}

var _ store.Store = (*Store)(nil)

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	// Pragmas in the DSN apply to every pooled connection, not just the first one.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{
		db:            db,
		logger:        logger,
		now:           time.Now,
		searchIndexer: store.NewNoopSearchIndexer(),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SetSearchIndexer sets the search indexer used for maintaining the search index.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchIndexer = indexer
}

// SetClock replaces the clock used for pub_date and date_joined.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) indexer() store.SearchIndexer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchIndexer
}

// reindexTitle refreshes one title in the search index. Index failures are logged,
// never returned: the database stays the source of truth and reindex repairs drift.
func (s *Store) reindexTitle(ctx context.Context, id int64) {
	t, err := s.GetTitle(ctx, id)
	if err != nil {
		s.logger.Warn("reload title for indexing failed", "title_id", id, "error", err)
		return
	}
	if err := s.indexer().IndexTitle(ctx, t); err != nil {
		s.logger.Warn("index title failed", "title_id", id, "error", err)
	}
}

// withTx runs fn inside a transaction.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// formatTime formats a time.Time for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// mapError converts driver errors into store sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	msg := err.Error()
	if i := strings.Index(msg, "UNIQUE constraint failed: "); i >= 0 {
		return store.ErrAlreadyExists.WithField(uniqueField(msg[i+len("UNIQUE constraint failed: "):])).WithCause(err)
	}
	return err
}

// uniqueField extracts the column from "users.email" or the last column of
// "reviews.title_id, reviews.author_id".
func uniqueField(cols string) string {
	cols = strings.TrimSpace(cols)
	if i := strings.Index(cols, " ("); i >= 0 {
		cols = cols[:i]
	}
	parts := strings.Split(cols, ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	if _, col, ok := strings.Cut(last, "."); ok {
		return col
	}
	return last
}

// likePattern builds a case-insensitive LIKE pattern matching substring.
func likePattern(substring string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(substring)) + "%"
}

// limitClause renders LIMIT/OFFSET. SQLite treats LIMIT -1 as unbounded.
func limitClause(page store.Page) (string, []any) {
	limit := page.Limit
	if limit <= 0 {
		limit = -1
	}
	return " LIMIT ? OFFSET ?", []any{limit, page.Offset}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
