package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS replies (
	id                 TEXT PRIMARY KEY,
	target_id          TEXT NOT NULL,
	target_author      TEXT NOT NULL,
	text               TEXT NOT NULL,
	approach           TEXT NOT NULL DEFAULT '',
	niche              TEXT NOT NULL DEFAULT '',
	eligibility_score  REAL NOT NULL DEFAULT 0,
	monetization_score REAL NOT NULL DEFAULT 0,
	dry_run            INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_replies_created_at ON replies(created_at);
CREATE INDEX IF NOT EXISTS idx_replies_target_id ON replies(target_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordReply(ctx context.Context, r *Reply) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO replies
		 (id, target_id, target_author, text, approach, niche, eligibility_score, monetization_score, dry_run, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TargetID, r.TargetAuthor, r.Text, r.Approach, r.Niche,
		r.EligibilityScore, r.MonetizationScore, boolToInt(r.DryRun), r.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert reply")
}

func (s *SQLiteStore) CountSince(ctx context.Context, cutoff time.Time) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM replies WHERE dry_run = 0 AND created_at >= ?`,
		cutoff.UTC(),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count replies")
	}
	return n, nil
}

func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]Reply, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target_id, target_author, text, approach, niche,
		        eligibility_score, monetization_score, dry_run, created_at
		 FROM replies ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list replies")
	}
	defer rows.Close()

	var replies []Reply
	for rows.Next() {
		var r Reply
		var dryRun int
		if err := rows.Scan(
			&r.ID, &r.TargetID, &r.TargetAuthor, &r.Text, &r.Approach, &r.Niche,
			&r.EligibilityScore, &r.MonetizationScore, &dryRun, &r.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reply")
		}
		r.DryRun = dryRun != 0
		replies = append(replies, r)
	}
	return replies, eris.Wrap(rows.Err(), "sqlite: list replies iterate")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
