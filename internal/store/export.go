// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ExportDocument is one document with its topics nested under their parents.
type ExportDocument struct {
	ID      string        `json:"id" yaml:"id"`
	Dialect string        `json:"dialect" yaml:"dialect"`
	Topics  []ExportTopic `json:"topics" yaml:"topics"`
}

// ExportTopic is a topic with its children.
type ExportTopic struct {
	Code     string        `json:"code" yaml:"code"`
	Title    string        `json:"title" yaml:"title"`
	Level    int           `json:"level" yaml:"level"`
	Children []ExportTopic `json:"children,omitempty" yaml:"children,omitempty"`
}

// ExportYAML writes stored documents to <data-dir>/export/<name>.yaml and
// returns the path. An empty documentID exports every document to
// curriculum.yaml.
func (s *Store) ExportYAML(ctx context.Context, documentID string) (string, error) {
	docs, err := s.Export(ctx, documentID)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport(documentID, ".yaml", data)
}

// ExportJSON writes stored documents to <data-dir>/export/<name>.json and
// returns the path.
func (s *Store) ExportJSON(ctx context.Context, documentID string) (string, error) {
	docs, err := s.Export(ctx, documentID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport(documentID, ".json", data)
}

// Export builds the nested export form of one document, or of every document
// when documentID is empty.
func (s *Store) Export(ctx context.Context, documentID string) ([]ExportDocument, error) {
	infos, err := s.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	var docs []ExportDocument
	for _, info := range infos {
		if documentID != "" && info.ID != documentID {
			continue
		}
		topics, err := s.Topics(ctx, info.ID)
		if err != nil {
			return nil, fmt.Errorf("querying for export: %w", err)
		}
		docs = append(docs, ExportDocument{ID: info.ID, Dialect: info.Dialect, Topics: nest(topics)})
	}
	if documentID != "" && len(docs) == 0 {
		return nil, fmt.Errorf("document %q not found", documentID)
	}
	return docs, nil
}

// nest arranges topics under their parent ids. Topics arrive in document
// order, so children keep document order too.
func nest(topics []StoredTopic) []ExportTopic {
	children := make(map[int64][]int64)
	byID := make(map[int64]StoredTopic, len(topics))
	for _, t := range topics {
		byID[t.ID] = t
		children[t.ParentID] = append(children[t.ParentID], t.ID)
	}

	var build func(id int64) ExportTopic
	build = func(id int64) ExportTopic {
		t := byID[id]
		et := ExportTopic{Code: t.Code, Title: t.Title, Level: t.Level}
		for _, c := range children[id] {
			et.Children = append(et.Children, build(c))
		}
		return et
	}

	var roots []ExportTopic
	for _, id := range children[0] {
		roots = append(roots, build(id))
	}
	return roots
}

func (s *Store) writeExport(documentID, ext string, data []byte) (string, error) {
	dir := filepath.Join(s.dataDir, exportDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(documentID)
	if name == "" {
		name = "curriculum"
	}
	path := filepath.Join(dir, name+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
