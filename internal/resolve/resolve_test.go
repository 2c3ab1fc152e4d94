// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/curriculum-engine/internal/tree"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

func topic(code, title, parent string) types.Topic {
	return types.Topic{Code: code, Title: title, Level: types.CodeLevel(code), ParentCode: parent}
}

func node(code, title, parentCode string, parent int) tree.Node {
	return tree.Node{Topic: topic(code, title, parentCode), Parent: parent}
}

func codes(ts []types.Topic) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Code
	}
	return out
}

func TestResolveKeepsValidForest(t *testing.T) {
	res, err := Topics([]types.Topic{
		topic("3.2", "Section", ""),
		topic("3.2.1", "Sub A", "3.2"),
		topic("3.2.1.1", "detail one", "3.2.1"),
		topic("3.2.1.2", "detail two", "3.2.1"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"3.2", "3.2.1", "3.2.1.1", "3.2.1.2"}, codes(res.Topics))
	assert.Equal(t, 4, res.Summary.TotalTopics)
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 2}, res.Summary.PerLevel)
	assert.Zero(t, res.Summary.Discarded())
	assert.Empty(t, res.Diagnostics)
}

func TestResolveDedupKeepsFirst(t *testing.T) {
	res, err := Topics([]types.Topic{
		topic("2", "Biology", ""),
		topic("2.1", "Cells", "2"),
		topic("2.1", "Cell structure", "2"),
	})
	require.NoError(t, err)

	require.Len(t, res.Topics, 2)
	assert.Equal(t, topic("2.1", "Cells", "2"), res.Topics[1])
	assert.Equal(t, 1, res.Summary.DiscardedDuplicates)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, types.DiagDuplicate, res.Diagnostics[0].Kind)
	assert.Equal(t, "2.1", res.Diagnostics[0].Code)
	assert.Equal(t, "Cell structure", res.Diagnostics[0].Title)
}

func TestResolveDuplicateCascadesToChildren(t *testing.T) {
	res, err := Resolve([]tree.Node{
		node("2", "Biology", "", -1),
		node("2.1", "Cells", "2", 0),
		node("2.1.1", "membrane", "2.1", 1),
		node("2.1", "Cell structure", "2", 0),
		node("2.1.2", "wall", "2.1", 3),
		node("2.1.2.1", "lignin", "2.1.2", 4),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "2.1", "2.1.1"}, codes(res.Topics))
	assert.Equal(t, 1, res.Summary.DiscardedDuplicates)
	assert.Equal(t, 2, res.Summary.DiscardedOrphans)

	var orphans []types.Diagnostic
	for _, d := range res.Diagnostics {
		if d.Kind == types.DiagOrphan {
			orphans = append(orphans, d)
		}
	}
	require.Len(t, orphans, 2)
	assert.Contains(t, orphans[0].Message, "duplicate")
	assert.Contains(t, orphans[1].Message, "ancestor")
}

func TestResolveMissingParentIsOrphan(t *testing.T) {
	res, err := Topics([]types.Topic{
		topic("4", "Chemistry", ""),
		topic("4.1", "Atoms", "4"),
		topic("4.3.2", "Rates", "4.3"),
		topic("4.3.2.1", "Catalysts", "4.3.2"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"4", "4.1"}, codes(res.Topics))
	assert.Equal(t, 2, res.Summary.DiscardedOrphans)
	assert.Equal(t, 2, res.Summary.TotalTopics)
	assert.Contains(t, res.Diagnostics[0].Message, "4.3 not found")
}

func TestResolveSingleOrphan(t *testing.T) {
	res, err := Topics([]types.Topic{
		topic("4", "Chemistry", ""),
		topic("4.3.2", "Rates", "4.3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.DiscardedOrphans)
	assert.Equal(t, []string{"4"}, codes(res.Topics))
}

func TestResolveParentAfterChild(t *testing.T) {
	res, err := Topics([]types.Topic{
		topic("1", "Intro", ""),
		topic("1.1.1", "Early child", "1.1"),
		topic("1.1", "Late parent", "1"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1.1.1", "1.1"}, codes(res.Topics))
}

func TestResolveDepthMismatch(t *testing.T) {
	bad := topic("1.2", "Wrong level", "1")
	bad.Level = 3

	_, err := Topics([]types.Topic{topic("1", "A", ""), bad})
	require.Error(t, err)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ConditionDepthMismatch, rerr.Condition)
	assert.Equal(t, []string{"1.2"}, rerr.Codes)
	assert.ErrorIs(t, err, ErrDepthMismatch)
	assert.Contains(t, err.Error(), "1.2")
}

func TestResolveParentNotPrefix(t *testing.T) {
	_, err := Topics([]types.Topic{
		topic("1", "A", ""),
		topic("2", "B", ""),
		topic("1.1", "Misplaced", "2"),
	})
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ConditionDepthMismatch, rerr.Condition)
	assert.Equal(t, []string{"1.1"}, rerr.Codes)
}

func TestResolveCycle(t *testing.T) {
	_, err := Topics([]types.Topic{
		topic("1.1", "A", "2.1"),
		topic("2.1", "B", "1.1"),
	})
	require.Error(t, err)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ConditionCycle, rerr.Condition)
	assert.Equal(t, []string{"1.1", "2.1"}, rerr.Codes)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestResolveSelfParentIsCycle(t *testing.T) {
	_, err := Topics([]types.Topic{topic("1.1", "Self", "1.1")})
	assert.ErrorIs(t, err, ErrCycle)
}

func TestResolveEmpty(t *testing.T) {
	res, err := Resolve(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Topics)
	assert.Equal(t, 0, res.Summary.TotalTopics)
	assert.Equal(t, -1, res.Summary.MaxLevel())
}

func TestResolveSiblingOrdinals(t *testing.T) {
	res, err := Resolve([]tree.Node{
		node("5", "Waves", "", -1),
		node("5.1", "a", "5", 0),
		node("5.2", "b", "5", 0),
		node("5.2", "b again", "5", 0),
		node("5.3", "c", "5", 0),
	})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, t2 := range res.Topics {
		assert.False(t, seen[t2.Code], "code %s repeated", t2.Code)
		seen[t2.Code] = true
	}
	assert.Equal(t, []string{"5", "5.1", "5.2", "5.3"}, codes(res.Topics))
}
