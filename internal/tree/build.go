// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tree assembles recognized tokens into provisional topics. It tracks
// the most recent topic at every depth, derives depth from explicit codes,
// attaches uncoded items to the deepest valid ancestor with per-parent
// ordinals, and applies the dialect's table, depth and boundary rules.
//
// Malformed or unplaceable tokens never abort a build: they are dropped and
// counted, and the stream continues.
package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/curriculum-engine/internal/dialect"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// Node is a provisional topic. Parent is the index of the parent node in
// Output.Nodes, or -1 when the topic is a root or its parent was never seen;
// in the latter case ParentCode still names the expected parent.
type Node struct {
	types.Topic
	Parent int
}

// Output is the result of one build.
type Output struct {
	// Nodes are the provisional topics in document order.
	Nodes []Node

	// Diagnostics record dropped and excluded tokens.
	Diagnostics []types.Diagnostic

	// Dropped counts tokens discarded for depth overflow or a missing anchor.
	Dropped int

	// Excluded counts topics removed by the dialect's skip predicate.
	Excluded int
}

// builder holds the state of a single build. Nothing outlives Build.
type builder struct {
	d     *dialect.Compiled
	frame frame

	// coded is the depth of the most recent explicitly coded topic; anchor is
	// the depth list items attach under (the coded topic or an uncoded
	// heading beneath it). Both are -1 before the first coded topic.
	coded  int
	anchor int

	children map[string]int  // parent code -> ordinals used
	taken    map[string]bool // codes already assigned
	reserved map[string]bool // explicit codes anywhere in the document
	lettered map[string]bool // parent code -> has lettered children

	inTable  bool
	tableCol int

	rootLevel int
	explicit  map[int]bool // node index -> carried an explicit code

	out Output
}

// Build consumes tokens in document order and returns provisional topics.
func Build(tokens []types.Token, d *dialect.Compiled) Output {
	b := &builder{
		d:         d,
		coded:     -1,
		anchor:    -1,
		children:  make(map[string]int),
		taken:     make(map[string]bool),
		reserved:  make(map[string]bool),
		lettered:  make(map[string]bool),
		rootLevel: -1,
		explicit:  make(map[int]bool),
	}
	// Synthetic ordinals must not take a code the document assigns
	// explicitly further down.
	for _, tok := range tokens {
		if tok.HasCode() {
			b.reserved[tok.Code] = true
		}
	}
	for _, tok := range tokens {
		b.consume(tok)
	}
	b.finishRoots()
	return b.out
}

func (b *builder) consume(tok types.Token) {
	switch tok.Kind {
	case types.TokenBlank:
		b.inTable = false
		return
	case types.TokenText:
		return
	case types.TokenHeading:
		b.inTable = false
	}

	if tok.HasCode() {
		b.explicitTopic(tok)
		return
	}

	switch tok.Kind {
	case types.TokenHeading:
		b.uncodedHeading(tok)
	case types.TokenTableRow:
		b.tableRow(tok)
	case types.TokenBullet:
		b.listItem(tok, tok.DepthHint)
	case types.TokenLettered:
		b.listItem(tok, tok.DepthHint+b.d.LetterOffset)
	}
}

// explicitTopic places a token whose code fixes its own depth.
func (b *builder) explicitTopic(tok types.Token) {
	code := tok.Code
	depth := types.CodeLevel(code)
	if depth > b.d.MaxDepth {
		b.drop(types.DiagDepthOverflow, tok, code,
			fmt.Sprintf("level %d exceeds max depth %d", depth, b.d.MaxDepth))
		// Items under the dropped code land deeper still and are dropped
		// too, until a shallower explicit topic moves the anchor back.
		b.coded, b.anchor = depth, depth
		return
	}
	if depth == 0 {
		b.frame.reset()
	}

	parent := types.ParentOf(code)
	if b.d.ExcludesCode(code) || b.d.ExcludesTitle(tok.Text) || b.parentExcluded(depth, parent) {
		b.exclude(tok, code)
		b.frame.set(depth, entry{code: code, excluded: true})
		b.coded, b.anchor = depth, depth
		return
	}

	// The frame entry one level up agrees with the prefix whenever the
	// parent was seen. When it was not, the prefix is still recorded so the
	// resolver can report the orphan.
	parentIdx := -1
	if e, ok := b.frame.at(depth - 1); ok && !e.excluded && e.code == parent {
		parentIdx = e.idx
	}
	if !b.taken[code] && parent != "" {
		b.children[parent]++
	}
	b.taken[code] = true

	idx := b.emit(types.Topic{Code: code, Title: tok.Text, Level: depth, ParentCode: parent, Line: tok.Line}, parentIdx)
	b.explicit[idx] = true
	b.frame.set(depth, entry{code: code, idx: idx})
	b.coded, b.anchor = depth, depth

	if b.rootLevel < 0 || depth < b.rootLevel {
		b.rootLevel = depth
	}
}

func (b *builder) parentExcluded(depth int, parent string) bool {
	if depth == 0 {
		return false
	}
	e, ok := b.frame.at(depth - 1)
	return ok && e.excluded && e.code == parent
}

// uncodedHeading attaches a heading without a code under the coded anchor and
// makes it the anchor for following list items.
func (b *builder) uncodedHeading(tok types.Token) {
	if b.coded < 0 {
		b.drop(types.DiagNoAnchor, tok, "", "heading has no coded ancestor")
		return
	}
	target := b.coded + 1
	if b.implicitChild(tok, target) != itemDropped {
		b.anchor = target
	}
}

// tableRow handles rows inside and outside content-table regions.
func (b *builder) tableRow(tok types.Token) {
	if !b.inTable {
		for i, cell := range tok.Cells {
			if b.d.IsTableColumn(cell) {
				b.inTable = true
				b.tableCol = i
				return
			}
		}
		return
	}

	if allEmpty(tok.Cells) {
		b.inTable = false
		return
	}
	if b.tableCol >= len(tok.Cells) {
		return
	}
	title := tok.Cells[b.tableCol]
	if title == "" {
		return
	}
	row := tok
	row.Text = title
	b.listItem(row, 0)
}

// listItem attaches a bullet, lettered item or table row under the anchor.
// hint is the number of levels below the anchor's first child level.
func (b *builder) listItem(tok types.Token, hint int) {
	if b.anchor < 0 {
		b.drop(types.DiagNoAnchor, tok, "", "item has no coded ancestor")
		return
	}
	target := b.anchor + 1 + hint
	// Clamp to the deepest valid ancestor: an over-indented item attaches to
	// the nearest open level rather than skipping one.
	for target-1 > b.anchor {
		if _, ok := b.frame.at(target - 1); ok {
			break
		}
		target--
	}
	// A lettered item at the same indentation as the previous one is its
	// sibling, not its child.
	if tok.Kind == types.TokenLettered {
		for target-1 > b.anchor {
			e, ok := b.frame.at(target - 1)
			if !ok || !e.letter || e.hint < tok.DepthHint {
				break
			}
			target--
		}
	}

	if tok.Kind == types.TokenLettered && tok.Letter == 'a' && b.d.RestartLetters {
		if parent, ok := b.frame.at(target - 1); ok && !parent.excluded && target-1 > b.anchor && b.lettered[parent.code] {
			b.openContainer(target - 1)
		}
	}

	b.implicitChild(tok, target)
}

// openContainer synthesizes a sibling of the item at depth to hold a
// restarted lettered sequence.
func (b *builder) openContainer(depth int) {
	gp, ok := b.frame.at(depth - 1)
	if !ok || gp.excluded {
		return
	}
	ord := b.nextOrdinal(gp.code)
	code := types.ChildCode(gp.code, ord)
	title := strings.ReplaceAll(b.d.ContainerTitle, "{n}", strconv.Itoa(ord))
	b.taken[code] = true
	idx := b.emit(types.Topic{Code: code, Title: title, Level: depth, ParentCode: gp.code}, gp.idx)
	b.frame.set(depth, entry{code: code, idx: idx})
}

type placement int

const (
	itemPlaced placement = iota
	itemExcluded
	itemDropped
)

// implicitChild creates a topic with a synthetic code at target depth under
// the frame entry one level up.
func (b *builder) implicitChild(tok types.Token, target int) placement {
	if target > b.d.MaxDepth {
		b.drop(types.DiagDepthOverflow, tok, "",
			fmt.Sprintf("level %d exceeds max depth %d", target, b.d.MaxDepth))
		return itemDropped
	}
	parent, ok := b.frame.at(target - 1)
	if !ok {
		b.drop(types.DiagNoAnchor, tok, "", "no ancestor at the item's level")
		return itemDropped
	}
	if parent.excluded || b.d.ExcludesTitle(tok.Text) {
		b.exclude(tok, "")
		b.frame.set(target, entry{excluded: true})
		return itemExcluded
	}

	ord := b.nextOrdinal(parent.code)
	code := types.ChildCode(parent.code, ord)
	b.taken[code] = true
	if tok.Kind == types.TokenLettered {
		b.lettered[parent.code] = true
	}

	idx := b.emit(types.Topic{Code: code, Title: tok.Text, Level: target, ParentCode: parent.code, Line: tok.Line}, parent.idx)
	b.frame.set(target, entry{
		code: code, idx: idx,
		letter: tok.Kind == types.TokenLettered, hint: tok.DepthHint,
	})
	return itemPlaced
}

// nextOrdinal returns the next free ordinal under parent. Ordinals are per
// parent, so numbering restarts under every new parent.
func (b *builder) nextOrdinal(parent string) int {
	b.children[parent]++
	for {
		code := types.ChildCode(parent, b.children[parent])
		if !b.taken[code] && !b.reserved[code] {
			return b.children[parent]
		}
		b.children[parent]++
	}
}

// finishRoots clears the parent of explicit topics at the document's root
// level: the shallowest level any explicit code reached.
func (b *builder) finishRoots() {
	if b.rootLevel < 0 {
		return
	}
	for i := range b.out.Nodes {
		if b.explicit[i] && b.out.Nodes[i].Level == b.rootLevel {
			b.out.Nodes[i].ParentCode = ""
			b.out.Nodes[i].Parent = -1
		}
	}
}

func (b *builder) emit(t types.Topic, parent int) int {
	b.out.Nodes = append(b.out.Nodes, Node{Topic: t, Parent: parent})
	return len(b.out.Nodes) - 1
}

// Topics returns the provisional topics without parent indexes.
func (o Output) Topics() []types.Topic {
	out := make([]types.Topic, len(o.Nodes))
	for i, n := range o.Nodes {
		out[i] = n.Topic
	}
	return out
}

func (b *builder) drop(kind types.DiagnosticKind, tok types.Token, code, msg string) {
	b.out.Dropped++
	b.out.Diagnostics = append(b.out.Diagnostics, types.Diagnostic{
		Kind: kind, Code: code, Title: tok.Text, Line: tok.Line, Message: msg,
	})
}

func (b *builder) exclude(tok types.Token, code string) {
	b.out.Excluded++
	b.out.Diagnostics = append(b.out.Diagnostics, types.Diagnostic{
		Kind: types.DiagExcluded, Code: code, Title: tok.Text, Line: tok.Line,
		Message: "dropped by dialect exclusion",
	})
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
