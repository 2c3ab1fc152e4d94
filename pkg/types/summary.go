// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ParseState tracks a single parse run through its lifecycle.
type ParseState string

const (
	StateStarted    ParseState = "started"
	StateTokenizing ParseState = "tokenizing"
	StateBuilding   ParseState = "building"
	StateResolving  ParseState = "resolving"
	StateSucceeded  ParseState = "succeeded"
	StateFailed     ParseState = "failed"
)

// Terminal reports whether the run has finished.
func (s ParseState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// DiagnosticKind names a recoverable anomaly found while parsing.
type DiagnosticKind string

const (
	DiagDuplicate     DiagnosticKind = "duplicate"
	DiagOrphan        DiagnosticKind = "orphan"
	DiagDepthOverflow DiagnosticKind = "depth_overflow"
	DiagExcluded      DiagnosticKind = "excluded"
	DiagNoAnchor      DiagnosticKind = "no_anchor"
)

// Diagnostic records one recoverable anomaly. Diagnostics always travel with a
// successful result so data-quality regressions stay visible.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	Code    string         `json:"code,omitempty" yaml:"code,omitempty"`
	Title   string         `json:"title,omitempty" yaml:"title,omitempty"`
	Line    int            `json:"line,omitempty" yaml:"line,omitempty"`
	Message string         `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	loc := ""
	if d.Line > 0 {
		loc = fmt.Sprintf("line %d: ", d.Line)
	}
	if d.Code != "" {
		return fmt.Sprintf("%s%s %s: %s", loc, d.Kind, d.Code, d.Message)
	}
	return fmt.Sprintf("%s%s: %s", loc, d.Kind, d.Message)
}

// ParseSummary holds counts for one parse run.
type ParseSummary struct {
	TotalTopics         int         `json:"total_topics" yaml:"total_topics"`
	PerLevel            map[int]int `json:"per_level" yaml:"per_level"`
	DiscardedDuplicates int         `json:"discarded_duplicates" yaml:"discarded_duplicates"`
	DiscardedOrphans    int         `json:"discarded_orphans" yaml:"discarded_orphans"`

	// DroppedTokens counts tokens discarded by the builder for depth overflow
	// or for having no ancestor to attach to.
	DroppedTokens int `json:"dropped_tokens" yaml:"dropped_tokens"`

	// ExcludedTopics counts topics removed by the dialect's exclusion predicate.
	ExcludedTopics int `json:"excluded_topics" yaml:"excluded_topics"`
}

// MaxLevel returns the deepest level that has at least one topic, or -1 when
// the summary is empty.
func (s ParseSummary) MaxLevel() int {
	deepest := -1
	for lvl, n := range s.PerLevel {
		if n > 0 && lvl > deepest {
			deepest = lvl
		}
	}
	return deepest
}

// Discarded returns the number of topics removed during resolution.
func (s ParseSummary) Discarded() int {
	return s.DiscardedDuplicates + s.DiscardedOrphans
}
