// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists resolved topic lists in SQLite. It maps each topic
// code to a generated row id and resolves parent codes to parent ids in one
// pass per document, so callers never deal with storage identifiers.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/curriculum-engine/internal/engine"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

const (
	dbFile    = "curriculum.db"
	exportDir = "export"
)

// Store manages the curriculum SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open opens or creates the database at cfg.DataDir/curriculum.db and creates
// the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data directory not configured")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time per database file.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dataDir: cfg.DataDir}
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
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			dialect TEXT NOT NULL,
			parsed_at TEXT NOT NULL,
			total_topics INTEGER NOT NULL,
			discarded_duplicates INTEGER NOT NULL,
			discarded_orphans INTEGER NOT NULL,
			dropped_tokens INTEGER NOT NULL,
			excluded_topics INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS topics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			code TEXT NOT NULL,
			title TEXT NOT NULL,
			level INTEGER NOT NULL,
			parent_code TEXT NOT NULL DEFAULT '',
			parent_id INTEGER REFERENCES topics(id) ON DELETE SET NULL,
			UNIQUE (document_id, code)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_topics_parent ON topics(document_id, parent_code)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS topics_fts USING fts4(title)`,
		`CREATE TRIGGER IF NOT EXISTS topics_ai AFTER INSERT ON topics BEGIN
			INSERT INTO topics_fts(docid, title) VALUES (new.id, new.title);
		END`,
		`CREATE TRIGGER IF NOT EXISTS topics_ad AFTER DELETE ON topics BEGIN
			DELETE FROM topics_fts WHERE docid = old.id;
		END`,
		`CREATE TRIGGER IF NOT EXISTS topics_au AFTER UPDATE OF title ON topics BEGIN
			UPDATE topics_fts SET title = new.title WHERE docid = old.id;
		END`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save writes all topics of one run in a single transaction, replacing any
// earlier run of the same document, then resolves parent ids from parent
// codes in one statement.
func (s *Store) Save(ctx context.Context, run *engine.Run) error {
	if run == nil || run.DocumentID == "" {
		return fmt.Errorf("saving run: missing document id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM topics WHERE document_id = ?`, run.DocumentID); err != nil {
		return fmt.Errorf("deleting old topics: %w", err)
	}

	sum := run.Summary
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, dialect, parsed_at, total_topics, discarded_duplicates,
			discarded_orphans, dropped_tokens, excluded_topics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			dialect=excluded.dialect, parsed_at=excluded.parsed_at,
			total_topics=excluded.total_topics, discarded_duplicates=excluded.discarded_duplicates,
			discarded_orphans=excluded.discarded_orphans, dropped_tokens=excluded.dropped_tokens,
			excluded_topics=excluded.excluded_topics`,
		run.DocumentID, run.Dialect, time.Now().UTC().Format(time.RFC3339),
		sum.TotalTopics, sum.DiscardedDuplicates, sum.DiscardedOrphans,
		sum.DroppedTokens, sum.ExcludedTopics,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO topics (document_id, position, code, title, level, parent_code)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range run.Topics {
		if _, err := stmt.ExecContext(ctx, run.DocumentID, i, t.Code, t.Title, t.Level, t.ParentCode); err != nil {
			return fmt.Errorf("inserting topic %s: %w", t.Code, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE topics SET parent_id = (
			SELECT p.id FROM topics p
			WHERE p.document_id = topics.document_id AND p.code = topics.parent_code
		 )
		 WHERE document_id = ? AND parent_code <> ''`, run.DocumentID)
	if err != nil {
		return fmt.Errorf("resolving parent ids: %w", err)
	}

	return tx.Commit()
}

// SaveSummary counts the outcomes of a batch save.
type SaveSummary struct {
	Saved  int
	Failed int
}

// Total returns the number of runs processed.
func (s SaveSummary) Total() int {
	return s.Saved + s.Failed
}

// SaveAll saves every successful run of a batch, one transaction per
// document. Failed parses are skipped; they were already reported by the
// engine.
func (s *Store) SaveAll(ctx context.Context, outcomes []engine.Outcome, w io.Writer) (SaveSummary, error) {
	var summary SaveSummary
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}
		if err := s.Save(ctx, o.Run); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", o.DocumentID, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "stored  %s (%d topics)\n", o.DocumentID, len(o.Run.Topics))
		summary.Saved++
	}
	fmt.Fprintf(w, "\nstored: %d, failed: %d\n", summary.Saved, summary.Failed)
	return summary, nil
}
