// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists finished review reports in SQLite and serves
// history listings and full-text search over past reviews.
// Implements: prd009-archive (R1-R5);
//
//	docs/ARCHITECTURE § Archive.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/litreview/pkg/types"
)

// ErrNotFound is returned when no archived review matches the given ID.
var ErrNotFound = errors.New("review not found")

// timeFormat is RFC3339 with fixed-width nanoseconds so stored strings
// sort lexicographically in chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the review archive SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the archive database at cfg.Path. It creates
// the schema if it does not exist.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("archive path not configured")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reviews (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			domain TEXT,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			duration_ms INTEGER,
			paper_count INTEGER,
			limitation_count INTEGER,
			gap_count INTEGER,
			summary TEXT,
			gap_titles TEXT,
			report TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reviews_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE reviews_fts USING fts5(topic, summary, gap_titles, content=reviews, content_rowid=rowid)`,
			`CREATE TRIGGER reviews_ai AFTER INSERT ON reviews BEGIN
				INSERT INTO reviews_fts(rowid, topic, summary, gap_titles)
				VALUES (new.rowid, new.topic, new.summary, new.gap_titles);
			END`,
			`CREATE TRIGGER reviews_ad AFTER DELETE ON reviews BEGIN
				INSERT INTO reviews_fts(reviews_fts, rowid, topic, summary, gap_titles)
				VALUES('delete', old.rowid, old.topic, old.summary, old.gap_titles);
			END`,
			`CREATE TRIGGER reviews_au AFTER UPDATE ON reviews BEGIN
				INSERT INTO reviews_fts(reviews_fts, rowid, topic, summary, gap_titles)
				VALUES('delete', old.rowid, old.topic, old.summary, old.gap_titles);
				INSERT INTO reviews_fts(rowid, topic, summary, gap_titles)
				VALUES (new.rowid, new.topic, new.summary, new.gap_titles);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save stores a finished report, replacing any previous review with the
// same ID.
func (s *Store) Save(ctx context.Context, report types.ResearchReport) error {
	if report.ID == "" {
		return errors.New("report has no ID")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	gapTitles := make([]string, len(report.Gaps))
	for i, g := range report.Gaps {
		gapTitles[i] = g.Title
	}

	createdAt := report.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, topic, domain, status, created_at, duration_ms,
			paper_count, limitation_count, gap_count, summary, gap_titles, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			topic=excluded.topic, domain=excluded.domain, status=excluded.status,
			created_at=excluded.created_at, duration_ms=excluded.duration_ms,
			paper_count=excluded.paper_count,
			limitation_count=excluded.limitation_count,
			gap_count=excluded.gap_count, summary=excluded.summary,
			gap_titles=excluded.gap_titles, report=excluded.report`,
		report.ID, report.Query.Topic, report.Query.Domain, string(report.Status),
		createdAt.UTC().Format(timeFormat), report.Stats.Duration.Milliseconds(),
		len(report.Papers), len(report.Limitations), len(report.Gaps),
		report.ExecutiveSummary, strings.Join(gapTitles, "\n"), string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("saving review: %w", err)
	}

	return tx.Commit()
}

// Get loads the full report for one archived review.
func (s *Store) Get(ctx context.Context, id string) (*types.ResearchReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM reviews WHERE id = ?`, id,
	).Scan(&reportJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("looking up review: %w", err)
	}

	var report types.ResearchReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &report, nil
}

// Entry is one archived review in a listing.
type Entry struct {
	ID              string             `json:"id" yaml:"id"`
	Topic           string             `json:"topic" yaml:"topic"`
	Domain          string             `json:"domain,omitempty" yaml:"domain,omitempty"`
	Status          types.ReportStatus `json:"status" yaml:"status"`
	CreatedAt       time.Time          `json:"created_at" yaml:"created_at"`
	Duration        time.Duration      `json:"duration" yaml:"duration"`
	PaperCount      int                `json:"paper_count" yaml:"paper_count"`
	LimitationCount int                `json:"limitation_count" yaml:"limitation_count"`
	GapCount        int                `json:"gap_count" yaml:"gap_count"`
}

const entryColumns = `id, topic, domain, status, created_at, duration_ms,
	paper_count, limitation_count, gap_count`

// List returns the most recent reviews, newest first. A non-positive
// limit uses the store default.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM reviews ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Search runs an FTS5 full-text query over topics, executive summaries,
// and gap titles. Empty query text falls back to List.
func (s *Store) Search(ctx context.Context, text string, limit int) ([]Entry, error) {
	if strings.TrimSpace(text) == "" {
		return s.List(ctx, limit)
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.topic, r.domain, r.status, r.created_at, r.duration_ms,
			r.paper_count, r.limitation_count, r.gap_count
		 FROM reviews_fts
		 JOIN reviews r ON r.rowid = reviews_fts.rowid
		 WHERE reviews_fts MATCH ?
		 ORDER BY reviews_fts.rank
		 LIMIT ?`, text, limit)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Delete removes one review from the archive.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			domain     sql.NullString
			createdAt  string
			durationMS int64
		)
		if err := rows.Scan(
			&e.ID, &e.Topic, &domain, &e.Status, &createdAt, &durationMS,
			&e.PaperCount, &e.LimitationCount, &e.GapCount,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if domain.Valid {
			e.Domain = domain.String
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond

		entries = append(entries, e)
	}
	return entries, rows.Err()
}
