package history

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
)

// Entry is one persisted check outcome for a single reference.
type Entry struct {
	ID         int64
	Reference  string
	CurrentTag string
	NewerTags  []string
	LatestTag  string
	UpdateType types.UpdateType
	Error      string
	CheckedAt  time.Time
}

// ListOptions filters the entries returned by List.
type ListOptions struct {
	Reference string
	Limit     int
}

// Store persists check results in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (or creates) the history database at the given path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrapf("history.NewStore", errors.ErrHistoryUnavailable, "creating database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf("history.NewStore", errors.ErrHistoryUnavailable, "opening database %s: %v", path, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS check_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reference TEXT NOT NULL,
			current_tag TEXT NOT NULL,
			newer_tags TEXT NOT NULL DEFAULT '',
			latest_tag TEXT NOT NULL DEFAULT '',
			update_type TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			checked_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_reference ON check_history(reference);
		CREATE INDEX IF NOT EXISTS idx_history_checked_at ON check_history(checked_at);
	`)
	if err != nil {
		return errors.Wrapf("history.initSchema", errors.ErrHistoryUnavailable, "creating schema: %v", err)
	}
	return nil
}

// SaveResult stores one history row per report in the result.
func (s *Store) SaveResult(result *types.CheckResult) error {
	if result == nil || len(result.Reports) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrapf("history.SaveResult", err, "starting transaction")
	}

	stmt, err := tx.Prepare(`
		INSERT INTO check_history (
			reference, current_tag, newer_tags, latest_tag, update_type, error, checked_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrapf("history.SaveResult", err, "preparing insert")
	}
	defer stmt.Close()

	for _, report := range result.Reports {
		checkedAt := report.CheckedAt
		if checkedAt.IsZero() {
			checkedAt = result.CheckedAt
		}

		_, err := stmt.Exec(
			report.Reference,
			report.Image.Tag,
			strings.Join(report.NewerTags, ","),
			report.LatestTag,
			string(report.UpdateType),
			report.Error,
			checkedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			tx.Rollback()
			return errors.Wrapf("history.SaveResult", err, "inserting entry for %s", report.Reference)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf("history.SaveResult", err, "committing transaction")
	}

	s.logger.Debug("Saved check history", "entries", len(result.Reports))
	return nil
}

// List returns stored entries, newest first.
func (s *Store) List(opts ListOptions) ([]Entry, error) {
	query := `SELECT id, reference, current_tag, newer_tags, latest_tag, update_type, error, checked_at
	          FROM check_history`

	var args []interface{}
	if opts.Reference != "" {
		query += " WHERE reference = ?"
		args = append(args, opts.Reference)
	}

	query += " ORDER BY checked_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf("history.List", err, "querying history")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var newerTags, updateType, checkedAt string

		err := rows.Scan(
			&entry.ID,
			&entry.Reference,
			&entry.CurrentTag,
			&newerTags,
			&entry.LatestTag,
			&updateType,
			&entry.Error,
			&checkedAt,
		)
		if err != nil {
			return nil, errors.Wrapf("history.List", err, "scanning history entry")
		}

		if newerTags != "" {
			entry.NewerTags = strings.Split(newerTags, ",")
		}
		entry.UpdateType = types.UpdateType(updateType)

		entry.CheckedAt, err = time.Parse(time.RFC3339, checkedAt)
		if err != nil {
			return nil, errors.Wrapf("history.List", err, "parsing checked_at %q", checkedAt)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf("history.List", err, "iterating history rows")
	}

	return entries, nil
}

// Prune deletes entries older than the given age and reports how many went away.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(time.RFC3339)

	result, err := s.db.Exec("DELETE FROM check_history WHERE checked_at < ?", cutoff)
	if err != nil {
		return 0, errors.Wrapf("history.Prune", err, "deleting entries older than %s", olderThan)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrapf("history.Prune", err, "counting deleted rows")
	}

	if deleted > 0 {
		s.logger.Debug("Pruned check history", "deleted", deleted, "older_than", olderThan.String())
	}

	return deleted, nil
}
