// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns provisional topics into the final topic list for one
// document. It drops duplicate codes (first occurrence wins), cascades the
// discard to topics whose parents did not survive, and then verifies the
// forest: every level agrees with its code and no parent chain loops.
//
// Discards are recoverable and reported as diagnostics. A depth mismatch or
// a cycle is fatal for the document and returned as an *Error.
package resolve

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/curriculum-engine/internal/tree"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// Condition names a fatal resolution failure.
type Condition string

const (
	ConditionDepthMismatch Condition = "depth_mismatch"
	ConditionCycle         Condition = "cycle"
)

// Sentinels for errors.Is.
var (
	ErrDepthMismatch = errors.New("topic level does not match its code")
	ErrCycle         = errors.New("parent chain contains a cycle")
)

// Error is a fatal resolution failure naming the offending codes.
type Error struct {
	Condition Condition
	Codes     []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Unwrap(), strings.Join(e.Codes, ", "))
}

func (e *Error) Unwrap() error {
	if e.Condition == ConditionCycle {
		return ErrCycle
	}
	return ErrDepthMismatch
}

// Result is a resolved topic list.
type Result struct {
	Topics      []types.Topic
	Summary     types.ParseSummary
	Diagnostics []types.Diagnostic
}

// Resolve finalizes the nodes of one build. Document order is preserved.
func Resolve(nodes []tree.Node) (Result, error) {
	r := &resolver{
		nodes: nodes,
		keep:  make([]bool, len(nodes)),
		dup:   make([]bool, len(nodes)),
		state: make([]visit, len(nodes)),
		first: make(map[string]int, len(nodes)),
	}
	r.dedup()
	r.cascade()

	var topics []types.Topic
	for i, n := range nodes {
		if r.keep[i] {
			topics = append(topics, n.Topic)
		}
	}

	if err := checkDepth(topics); err != nil {
		return Result{}, err
	}
	if err := checkCycles(topics); err != nil {
		return Result{}, err
	}
	if err := checkLinks(topics); err != nil {
		return Result{}, err
	}

	r.res.Topics = topics
	r.res.Summary.TotalTopics = len(topics)
	r.res.Summary.PerLevel = make(map[int]int)
	for _, t := range topics {
		r.res.Summary.PerLevel[t.Level]++
	}
	return r.res, nil
}

// Topics resolves a plain topic list whose parents are known only by code.
func Topics(topics []types.Topic) (Result, error) {
	nodes := make([]tree.Node, len(topics))
	for i, t := range topics {
		nodes[i] = tree.Node{Topic: t, Parent: -1}
	}
	return Resolve(nodes)
}

type visit uint8

const (
	unvisited visit = iota
	visiting
	alive
	dead
)

type resolver struct {
	nodes []tree.Node
	keep  []bool
	dup   []bool
	state []visit
	first map[string]int // code -> index of the surviving occurrence
	res   Result
}

func (r *resolver) dedup() {
	for i, n := range r.nodes {
		if j, seen := r.first[n.Code]; seen {
			r.state[i] = dead
			r.dup[i] = true
			r.res.Summary.DiscardedDuplicates++
			r.res.Diagnostics = append(r.res.Diagnostics, types.Diagnostic{
				Kind: types.DiagDuplicate, Code: n.Code, Title: n.Title, Line: n.Line,
				Message: fmt.Sprintf("duplicate of %q", r.nodes[j].Title),
			})
			continue
		}
		r.first[n.Code] = i
		r.keep[i] = true
	}
}

// cascade discards every surviving node whose parent did not survive.
func (r *resolver) cascade() {
	for i := range r.nodes {
		if r.keep[i] && !r.alive(i) {
			r.keep[i] = false
		}
	}
}

func (r *resolver) alive(i int) bool {
	switch r.state[i] {
	case alive:
		return true
	case dead:
		return false
	case visiting:
		// A loop in the parent chain; checkCycles reports it.
		return true
	}

	n := r.nodes[i]
	if n.IsRoot() {
		r.state[i] = alive
		return true
	}

	r.state[i] = visiting
	p, reason := r.parentOf(n)
	ok := p >= 0 && r.alive(p)
	if p >= 0 && !ok {
		reason = fmt.Sprintf("ancestor %s was discarded", n.ParentCode)
	}
	if !ok {
		r.state[i] = dead
		r.res.Summary.DiscardedOrphans++
		r.res.Diagnostics = append(r.res.Diagnostics, types.Diagnostic{
			Kind: types.DiagOrphan, Code: n.Code, Title: n.Title, Line: n.Line, Message: reason,
		})
		return false
	}
	r.state[i] = alive
	return true
}

// parentOf returns the index of n's parent, or -1 and the reason it has none.
func (r *resolver) parentOf(n tree.Node) (int, string) {
	if n.Parent >= 0 {
		if r.dup[n.Parent] {
			return -1, fmt.Sprintf("parent %s was discarded as a duplicate", n.ParentCode)
		}
		return n.Parent, ""
	}
	if j, ok := r.first[n.ParentCode]; ok {
		return j, ""
	}
	return -1, fmt.Sprintf("parent %s not found", n.ParentCode)
}

// checkDepth verifies that every level agrees with its code.
func checkDepth(topics []types.Topic) error {
	var bad []string
	for _, t := range topics {
		if t.Code == "" || t.Level != types.CodeLevel(t.Code) {
			bad = append(bad, t.Code)
		}
	}
	return failure(ConditionDepthMismatch, bad)
}

// checkLinks verifies that every parent is the code prefix one level up.
func checkLinks(topics []types.Topic) error {
	levels := make(map[string]int, len(topics))
	for _, t := range topics {
		levels[t.Code] = t.Level
	}
	var bad []string
	for _, t := range topics {
		if t.ParentCode == "" {
			continue
		}
		if t.ParentCode != types.ParentOf(t.Code) || levels[t.ParentCode] != t.Level-1 {
			bad = append(bad, t.Code)
		}
	}
	return failure(ConditionDepthMismatch, bad)
}

func checkCycles(topics []types.Topic) error {
	parent := make(map[string]string, len(topics))
	for _, t := range topics {
		parent[t.Code] = t.ParentCode
	}

	acyclic := make(map[string]bool, len(topics))
	var bad []string
	for _, t := range topics {
		seen := map[string]bool{}
		looped := false
		for c := t.Code; c != "" && !acyclic[c]; c = parent[c] {
			if seen[c] {
				looped = true
				break
			}
			seen[c] = true
		}
		if looped {
			bad = append(bad, t.Code)
			continue
		}
		for c := range seen {
			acyclic[c] = true
		}
	}
	return failure(ConditionCycle, bad)
}

func failure(cond Condition, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	sort.Strings(codes)
	return &Error{Condition: cond, Codes: codes}
}
