// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/curriculum-engine/internal/dialect"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	reg, err := dialect.NewRegistry("", dialect.Builtin()...)
	require.NoError(t, err)
	return New(reg, opts...)
}

func doc(id, hint string, lines ...string) Document {
	return Document{ID: id, DialectHint: hint, Text: strings.Join(lines, "\n")}
}

func codes(ts []types.Topic) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Code
	}
	return out
}

func TestParseNumberedOutline(t *testing.T) {
	run, err := newEngine(t).Parse(doc("physics", "numbered-outline",
		"## 3.2 Section",
		"### 3.2.1 Sub A",
		"- detail one",
		"- detail two",
	))
	require.NoError(t, err)

	assert.Equal(t, types.StateSucceeded, run.State)
	assert.True(t, run.State.Terminal())
	assert.Equal(t, "numbered-outline", run.Dialect)
	assert.Equal(t, []types.Topic{
		{Code: "3.2", Title: "Section", Level: 1, Line: 1},
		{Code: "3.2.1", Title: "Sub A", Level: 2, ParentCode: "3.2", Line: 2},
		{Code: "3.2.1.1", Title: "detail one", Level: 3, ParentCode: "3.2.1", Line: 3},
		{Code: "3.2.1.2", Title: "detail two", Level: 3, ParentCode: "3.2.1", Line: 4},
	}, run.Topics)
	assert.Equal(t, 4, run.Summary.TotalTopics)
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 2}, run.Summary.PerLevel)
}

func TestParseContentTable(t *testing.T) {
	run, err := newEngine(t).Parse(doc("biology", "content-table",
		"## 1.1.2 Cell structure",
		"| Content | Notes |",
		"|---|---|",
		"| Cell membrane | barrier |",
		"| Nucleus | control |",
		"| Mitochondria | respiration |",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"1.1.2", "1.1.2.1", "1.1.2.2", "1.1.2.3"}, codes(run.Topics))
	for _, topic := range run.Topics[1:] {
		assert.Equal(t, 3, topic.Level)
		assert.Equal(t, "1.1.2", topic.ParentCode)
	}
}

func TestParseDuplicateSections(t *testing.T) {
	run, err := newEngine(t).Parse(doc("biology", "",
		"# 2 Biology",
		"## 2.1 Cells",
		"- membrane",
		"## 2.1 Cell structure",
		"- wall",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "2.1", "2.1.1"}, codes(run.Topics))
	assert.Equal(t, "Cells", run.Topics[1].Title)
	assert.Equal(t, 1, run.Summary.DiscardedDuplicates)
	assert.Equal(t, 1, run.Summary.DiscardedOrphans)
	require.Len(t, run.Diagnostics, 2)
	assert.Equal(t, types.DiagDuplicate, run.Diagnostics[0].Kind)
	assert.Equal(t, types.DiagOrphan, run.Diagnostics[1].Kind)
}

func TestParseMissingParent(t *testing.T) {
	run, err := newEngine(t).Parse(doc("chemistry", "",
		"# 4 Chemistry",
		"## 4.1 Atoms",
		"### 4.3.2 Rates",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"4", "4.1"}, codes(run.Topics))
	assert.Equal(t, 1, run.Summary.DiscardedOrphans)
	assert.Equal(t, types.StateSucceeded, run.State)
}

func TestParseLetterRestart(t *testing.T) {
	run, err := newEngine(t).Parse(doc("history", "lettered",
		"## 2.1 Revolutions",
		"Topic 1: French Revolution",
		"a. Causes",
		"b. Events",
		"a. Napoleon",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"2.1", "2.1.1", "2.1.1.1", "2.1.1.2", "2.1.2", "2.1.2.1"}, codes(run.Topics))
}

func TestParseCarriesBuilderCounts(t *testing.T) {
	run, err := newEngine(t).Parse(doc("physics", "",
		"- before any heading",
		"## 3.2 Section",
		"### 3.2.1 Sub A",
		"- detail",
		"  - too deep",
	))
	require.NoError(t, err)

	assert.Equal(t, 2, run.Summary.DroppedTokens)
	kinds := make([]types.DiagnosticKind, len(run.Diagnostics))
	for i, d := range run.Diagnostics {
		kinds[i] = d.Kind
	}
	assert.Equal(t, []types.DiagnosticKind{types.DiagNoAnchor, types.DiagDepthOverflow}, kinds)
}

func TestParseDialectFallback(t *testing.T) {
	e := newEngine(t)

	run, err := e.Parse(doc("x", "no-such-dialect", "# 1 A"))
	require.NoError(t, err)
	assert.Equal(t, dialect.DefaultName, run.Dialect)

	run, err = e.Parse(doc("x", "Content Table", "# 1 A"))
	require.NoError(t, err)
	assert.Equal(t, "content-table", run.Dialect)
}

func TestParseStrictDialect(t *testing.T) {
	_, err := newEngine(t, WithStrictDialect()).Parse(doc("x", "no-such-dialect", "# 1 A"))
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "x", perr.DocumentID)
	assert.Equal(t, types.StateFailed, perr.State)
	assert.ErrorIs(t, err, dialect.ErrUnknownDialect)

	// An empty hint still falls back.
	_, err = newEngine(t, WithStrictDialect()).Parse(doc("x", "", "# 1 A"))
	assert.NoError(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	run, err := newEngine(t).Parse(doc("empty", ""))
	require.NoError(t, err)
	assert.Empty(t, run.Topics)
	assert.Equal(t, 0, run.Summary.TotalTopics)
}

func TestParseIsIdempotent(t *testing.T) {
	e := newEngine(t)
	d := doc("history", "lettered",
		"## 2.1 Revolutions",
		"Topic 1: French Revolution",
		"a. Causes",
		"b. Events",
		"a. Napoleon",
		"## 2.1 Repeated",
	)

	first, err := e.Parse(d)
	require.NoError(t, err)
	second, err := e.Parse(d)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseProperties(t *testing.T) {
	run, err := newEngine(t).Parse(doc("mixed", "",
		"# 1 Root",
		"- a",
		"  - a1",
		"  - a2",
		"- b",
		"  - b1",
		"    - b11",
		"    - b12",
		"- c",
		"# 2 Second",
		"- d",
		"- e",
	))
	require.NoError(t, err)
	require.NotEmpty(t, run.Topics)

	count := map[string]int{}
	for _, topic := range run.Topics {
		count[topic.Code]++
	}

	children := map[string][]int{}
	for _, topic := range run.Topics {
		assert.Equal(t, strings.Count(topic.Code, "."), topic.Level, "level of %s", topic.Code)
		if topic.ParentCode == "" {
			continue
		}
		assert.Equal(t, 1, count[topic.ParentCode], "parent of %s", topic.Code)

		ord, err := strconv.Atoi(topic.Code[strings.LastIndexByte(topic.Code, '.')+1:])
		require.NoError(t, err)
		children[topic.ParentCode] = append(children[topic.ParentCode], ord)
	}

	for parent, ords := range children {
		sort.Ints(ords)
		for i, o := range ords {
			assert.Equal(t, i+1, o, "children of %s", parent)
		}
	}
}

func TestParseAll(t *testing.T) {
	e := newEngine(t, WithWorkers(2), WithStrictDialect())
	docs := []Document{
		doc("a", "", "# 1 A", "- x"),
		doc("b", "", "# 2 B"),
		doc("c", "bogus", "# 3 C"),
		doc("d", "ai-outline", "1. Intro", "- point"),
	}

	var buf bytes.Buffer
	outcomes, sum := e.ParseAll(context.Background(), docs, &buf)

	require.Len(t, outcomes, 4)
	for i, o := range outcomes {
		assert.Equal(t, docs[i].ID, o.DocumentID)
	}
	assert.NotNil(t, outcomes[0].Run)
	assert.Error(t, outcomes[2].Err)
	assert.Nil(t, outcomes[2].Run)

	assert.Equal(t, BatchSummary{Succeeded: 3, Failed: 1, Topics: 5}, sum)
	assert.True(t, sum.HasFailures())
	assert.Equal(t, 4, sum.Total())

	out := buf.String()
	assert.Contains(t, out, "parsed:  a (numbered-outline, 2 topics")
	assert.Contains(t, out, "failed:  c")
	assert.Contains(t, out, "Batch summary: 3 parsed, 0 skipped, 1 failed (total: 4, topics: 5)")
}

func TestParseAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	outcomes, sum := newEngine(t).ParseAll(ctx, []Document{doc("a", "", "# 1 A"), doc("b", "", "# 2 B")}, &buf)

	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.Equal(t, BatchSummary{Skipped: 2}, sum)
	assert.False(t, sum.HasFailures())
	assert.Contains(t, buf.String(), "skipped: a")
}

func TestParseAllEmpty(t *testing.T) {
	var buf bytes.Buffer
	outcomes, sum := newEngine(t).ParseAll(context.Background(), nil, &buf)
	assert.Empty(t, outcomes)
	assert.Zero(t, sum.Total())
}
