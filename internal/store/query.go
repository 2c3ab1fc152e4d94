// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// StoredTopic is a persisted topic with its generated identifiers.
type StoredTopic struct {
	types.Topic `yaml:",inline"`
	ID          int64  `json:"id" yaml:"id"`
	ParentID    int64  `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	DocumentID  string `json:"document_id" yaml:"document_id"`
}

// DocumentInfo is the stored summary of one parsed document.
type DocumentInfo struct {
	ID       string             `json:"id" yaml:"id"`
	Dialect  string             `json:"dialect" yaml:"dialect"`
	ParsedAt string             `json:"parsed_at" yaml:"parsed_at"`
	Summary  types.ParseSummary `json:"summary" yaml:"summary"`
}

// SearchOptions holds parameters for full-text topic search.
type SearchOptions struct {
	// Query is the FTS4 match expression over topic titles.
	Query string

	// DocumentID restricts results to one document.
	DocumentID string

	// MaxResults limits result count. Zero means 20.
	MaxResults int
}

const topicColumns = `t.id, t.document_id, t.code, t.title, t.level, t.parent_code, t.parent_id`

// Documents lists stored documents ordered by id. Per-level counts are
// recomputed from the stored topics.
func (s *Store) Documents(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dialect, parsed_at, total_topics, discarded_duplicates,
			discarded_orphans, dropped_tokens, excluded_topics
		 FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		sum := &d.Summary
		if err := rows.Scan(&d.ID, &d.Dialect, &d.ParsedAt, &sum.TotalTopics,
			&sum.DiscardedDuplicates, &sum.DiscardedOrphans, &sum.DroppedTokens, &sum.ExcludedTopics,
		); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range docs {
		levels, err := s.levelCounts(ctx, docs[i].ID)
		if err != nil {
			return nil, err
		}
		docs[i].Summary.PerLevel = levels
	}
	return docs, nil
}

func (s *Store) levelCounts(ctx context.Context, documentID string) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT level, count(*) FROM topics WHERE document_id = ? GROUP BY level`, documentID)
	if err != nil {
		return nil, fmt.Errorf("counting levels: %w", err)
	}
	defer rows.Close()

	levels := make(map[int]int)
	for rows.Next() {
		var lvl, n int
		if err := rows.Scan(&lvl, &n); err != nil {
			return nil, fmt.Errorf("scanning level count: %w", err)
		}
		levels[lvl] = n
	}
	return levels, rows.Err()
}

// Topics returns every topic of a document in document order.
func (s *Store) Topics(ctx context.Context, documentID string) ([]StoredTopic, error) {
	return s.queryTopics(ctx,
		`SELECT `+topicColumns+` FROM topics t WHERE t.document_id = ? ORDER BY t.position`,
		documentID)
}

// Children returns the direct children of code in document order. An empty
// code returns the document's root topics.
func (s *Store) Children(ctx context.Context, documentID, code string) ([]StoredTopic, error) {
	return s.queryTopics(ctx,
		`SELECT `+topicColumns+` FROM topics t
		 WHERE t.document_id = ? AND t.parent_code = ? ORDER BY t.position`,
		documentID, code)
}

// Search matches topic titles with full-text search.
func (s *Store) Search(ctx context.Context, opts SearchOptions) ([]StoredTopic, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	var (
		qb   strings.Builder
		args = []any{opts.Query}
	)
	qb.WriteString(`SELECT ` + topicColumns + `
		FROM topics_fts
		JOIN topics t ON t.id = topics_fts.docid
		WHERE topics_fts MATCH ?`)
	if opts.DocumentID != "" {
		qb.WriteString(` AND t.document_id = ?`)
		args = append(args, opts.DocumentID)
	}
	qb.WriteString(` ORDER BY t.document_id, t.position LIMIT ?`)
	args = append(args, maxResults)

	return s.queryTopics(ctx, qb.String(), args...)
}

func (s *Store) queryTopics(ctx context.Context, query string, args ...any) ([]StoredTopic, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()

	var out []StoredTopic
	for rows.Next() {
		var (
			st       StoredTopic
			parentID sql.NullInt64
		)
		if err := rows.Scan(&st.ID, &st.DocumentID, &st.Code, &st.Title, &st.Level,
			&st.ParentCode, &parentID); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		if parentID.Valid {
			st.ParentID = parentID.Int64
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
