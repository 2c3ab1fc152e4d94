package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/curriculum-engine/internal/engine"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(types.StoreConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func topic(code, title, parent string) types.Topic {
	return types.Topic{Code: code, Title: title, Level: types.CodeLevel(code), ParentCode: parent}
}

func physicsRun() *engine.Run {
	return &engine.Run{
		DocumentID: "physics",
		Dialect:    "numbered-outline",
		State:      types.StateSucceeded,
		Topics: []types.Topic{
			topic("3.2", "Forces and motion", ""),
			topic("3.2.1", "Newton's laws", "3.2"),
			topic("3.2.1.1", "Inertia", "3.2.1"),
			topic("3.2.1.2", "Momentum and force", "3.2.1"),
			topic("3.2.2", "Friction", "3.2"),
		},
		Summary: types.ParseSummary{TotalTopics: 5, DiscardedDuplicates: 1, DroppedTokens: 2},
	}
}

func chemistryRun() *engine.Run {
	return &engine.Run{
		DocumentID: "chemistry",
		Dialect:    "content-table",
		State:      types.StateSucceeded,
		Topics: []types.Topic{
			topic("4", "Chemistry", ""),
			topic("4.1", "Reaction rates and force fields", "4"),
		},
		Summary: types.ParseSummary{TotalTopics: 2},
	}
}

func mustSave(t *testing.T, s *Store, runs ...*engine.Run) {
	t.Helper()
	for _, r := range runs {
		if err := s.Save(context.Background(), r); err != nil {
			t.Fatalf("Save(%s): %v", r.DocumentID, err)
		}
	}
}

// --- tests ---

func TestOpenRequiresDataDir(t *testing.T) {
	if _, err := Open(types.StoreConfig{}); err == nil {
		t.Fatal("expected error for empty data dir")
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := Open(types.StoreConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestSaveResolvesParentIDs(t *testing.T) {
	s, _ := testStore(t)
	mustSave(t, s, physicsRun())

	topics, err := s.Topics(context.Background(), "physics")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 5 {
		t.Fatalf("got %d topics, want 5", len(topics))
	}

	ids := map[string]int64{}
	for i, st := range topics {
		if st.Code != physicsRun().Topics[i].Code {
			t.Errorf("topic %d = %s, want document order", i, st.Code)
		}
		if st.DocumentID != "physics" {
			t.Errorf("topic %s document = %q", st.Code, st.DocumentID)
		}
		ids[st.Code] = st.ID
	}

	for _, st := range topics {
		if st.ParentCode == "" {
			if st.ParentID != 0 {
				t.Errorf("root %s has parent id %d", st.Code, st.ParentID)
			}
			continue
		}
		if st.ParentID != ids[st.ParentCode] {
			t.Errorf("%s parent id = %d, want %d (%s)", st.Code, st.ParentID, ids[st.ParentCode], st.ParentCode)
		}
	}
}

func TestSaveReplacesEarlierRun(t *testing.T) {
	s, _ := testStore(t)
	mustSave(t, s, physicsRun())

	again := physicsRun()
	again.Topics = again.Topics[:2]
	again.Topics[1].Title = "Laws of motion"
	again.Summary = types.ParseSummary{TotalTopics: 2}
	mustSave(t, s, again)

	topics, err := s.Topics(context.Background(), "physics")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 {
		t.Fatalf("got %d topics after re-save, want 2", len(topics))
	}
	if topics[1].Title != "Laws of motion" {
		t.Errorf("title = %q, want the re-saved title", topics[1].Title)
	}

	docs, err := s.Documents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Summary.TotalTopics != 2 {
		t.Errorf("documents = %+v, want one document with 2 topics", docs)
	}

	// The search index follows the replaced rows.
	hits, err := s.Search(context.Background(), SearchOptions{Query: "inertia"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("deleted topic still searchable: %+v", hits)
	}
}

func TestSaveRejectsMissingID(t *testing.T) {
	s, _ := testStore(t)
	if err := s.Save(context.Background(), &engine.Run{}); err == nil {
		t.Fatal("expected error for run without document id")
	}
	if err := s.Save(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil run")
	}
}

func TestChildren(t *testing.T) {
	s, _ := testStore(t)
	mustSave(t, s, physicsRun(), chemistryRun())

	tests := []struct {
		doc, code string
		want      []string
	}{
		{"physics", "", []string{"3.2"}},
		{"physics", "3.2", []string{"3.2.1", "3.2.2"}},
		{"physics", "3.2.1", []string{"3.2.1.1", "3.2.1.2"}},
		{"physics", "3.2.2", nil},
		{"chemistry", "4", []string{"4.1"}},
	}
	for _, tt := range tests {
		got, err := s.Children(context.Background(), tt.doc, tt.code)
		if err != nil {
			t.Fatal(err)
		}
		var codes []string
		for _, st := range got {
			codes = append(codes, st.Code)
		}
		if strings.Join(codes, ",") != strings.Join(tt.want, ",") {
			t.Errorf("Children(%s, %q) = %v, want %v", tt.doc, tt.code, codes, tt.want)
		}
	}
}

func TestDocuments(t *testing.T) {
	s, _ := testStore(t)
	mustSave(t, s, physicsRun(), chemistryRun())

	docs, err := s.Documents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != "chemistry" || docs[1].ID != "physics" {
		t.Errorf("documents not ordered by id: %s, %s", docs[0].ID, docs[1].ID)
	}

	p := docs[1]
	if p.Dialect != "numbered-outline" {
		t.Errorf("dialect = %q", p.Dialect)
	}
	if p.Summary.DiscardedDuplicates != 1 || p.Summary.DroppedTokens != 2 {
		t.Errorf("summary = %+v", p.Summary)
	}
	want := map[int]int{1: 1, 2: 2, 3: 2}
	for lvl, n := range want {
		if p.Summary.PerLevel[lvl] != n {
			t.Errorf("level %d count = %d, want %d", lvl, p.Summary.PerLevel[lvl], n)
		}
	}
	if p.ParsedAt == "" {
		t.Error("parsed_at not recorded")
	}
}

func TestSearch(t *testing.T) {
	s, _ := testStore(t)
	mustSave(t, s, physicsRun(), chemistryRun())
	ctx := context.Background()

	hits, err := s.Search(ctx, SearchOptions{Query: "force"})
	if err != nil {
		t.Fatal(err)
	}
	var codes []string
	for _, h := range hits {
		codes = append(codes, h.DocumentID+":"+h.Code)
	}
	if strings.Join(codes, ",") != "chemistry:4.1,physics:3.2.1.2" {
		t.Errorf("hits = %v", codes)
	}

	hits, err = s.Search(ctx, SearchOptions{Query: "force", DocumentID: "physics"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Code != "3.2.1.2" {
		t.Errorf("filtered hits = %+v", hits)
	}
	if hits[0].ParentID == 0 {
		t.Error("search hit missing parent id")
	}

	hits, err = s.Search(ctx, SearchOptions{Query: "forces OR friction", MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits, want limit of 1", len(hits))
	}

	if _, err := s.Search(ctx, SearchOptions{Query: "  "}); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestExportYAML(t *testing.T) {
	s, dir := testStore(t)
	mustSave(t, s, physicsRun(), chemistryRun())

	path, err := s.ExportYAML(context.Background(), "physics")
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, exportDir, "physics.yaml") {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var docs []ExportDocument
	if err := yaml.Unmarshal(data, &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}

	roots := docs[0].Topics
	if len(roots) != 1 || roots[0].Code != "3.2" {
		t.Fatalf("roots = %+v", roots)
	}
	if len(roots[0].Children) != 2 {
		t.Fatalf("3.2 children = %+v", roots[0].Children)
	}
	laws := roots[0].Children[0]
	if laws.Code != "3.2.1" || len(laws.Children) != 2 || laws.Children[1].Title != "Momentum and force" {
		t.Errorf("3.2.1 = %+v", laws)
	}
}

func TestExportJSONAll(t *testing.T) {
	s, dir := testStore(t)
	mustSave(t, s, physicsRun(), chemistryRun())

	path, err := s.ExportJSON(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, exportDir, "curriculum.json") {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var docs []ExportDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].ID != "chemistry" {
		t.Fatalf("docs = %+v", docs)
	}
	if got := docs[0].Topics[0].Children[0].Code; got != "4.1" {
		t.Errorf("chemistry child = %s, want 4.1", got)
	}
}

func TestExportUnknownDocument(t *testing.T) {
	s, _ := testStore(t)
	if _, err := s.ExportYAML(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown document")
	}
}

func TestSaveAll(t *testing.T) {
	s, _ := testStore(t)

	outcomes := []engine.Outcome{
		{DocumentID: "physics", Run: physicsRun()},
		{DocumentID: "broken", Err: errors.New("cycle: 1.1")},
		{DocumentID: "chemistry", Run: chemistryRun()},
	}

	var buf bytes.Buffer
	sum, err := s.SaveAll(context.Background(), outcomes, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Saved != 2 || sum.Failed != 0 || sum.Total() != 2 {
		t.Errorf("summary = %+v", sum)
	}

	out := buf.String()
	if !strings.Contains(out, "stored  physics (5 topics)") {
		t.Errorf("output missing physics line:\n%s", out)
	}
	if strings.Contains(out, "broken") {
		t.Errorf("failed parse should not be stored:\n%s", out)
	}
}

func TestSaveAllCanceled(t *testing.T) {
	s, _ := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := s.SaveAll(ctx, []engine.Outcome{{DocumentID: "physics", Run: physicsRun()}}, &buf)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
