// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the curriculum-engine pipeline:
// the tokens produced by recognition, the topics produced by tree building and
// resolution, and the summary and diagnostics that accompany every parse run.
package types

import (
	"strconv"
	"strings"
)

// TokenKind classifies a recognized line.
type TokenKind string

const (
	TokenHeading  TokenKind = "heading"
	TokenBullet   TokenKind = "bullet"
	TokenLettered TokenKind = "lettered"
	TokenTableRow TokenKind = "table_row"
	TokenText     TokenKind = "text"

	// TokenBlank marks an empty line. It carries no topic but closes
	// content-table regions.
	TokenBlank TokenKind = "blank"
)

// Valid reports whether k is one of the known token kinds.
func (k TokenKind) Valid() bool {
	switch k {
	case TokenHeading, TokenBullet, TokenLettered, TokenTableRow, TokenText, TokenBlank:
		return true
	}
	return false
}

// Token is a single classified line. Tokens live only for the duration of one
// parse run.
type Token struct {
	Kind TokenKind

	// Text is the cleaned title carried by the line.
	Text string

	// Code is the explicit hierarchical code found on the line, normalized
	// without a trailing dot. Empty when the line carried none.
	Code string

	// DepthHint is the indentation level of list-like lines (0 = flush).
	DepthHint int

	// Letter is the lowercase letter of a lettered sub-item ('a', 'b', ...).
	Letter rune

	// Cells holds the trimmed cells of a table row.
	Cells []string

	// Line is the 1-based source line number.
	Line int
}

// HasCode reports whether the token carries an explicit code.
func (t Token) HasCode() bool {
	return t.Code != ""
}

// Topic is one node of the resolved hierarchy.
type Topic struct {
	// Code is the dot-delimited position in the hierarchy (e.g. "3.2.1.4").
	Code string `json:"code" yaml:"code"`

	// Title is the display text with inline markup removed.
	Title string `json:"title" yaml:"title"`

	// Level is the depth of the topic; it always equals the number of dots in Code.
	Level int `json:"level" yaml:"level"`

	// ParentCode is the code of the immediate ancestor. Empty for topics at the
	// document's root level.
	ParentCode string `json:"parent_code,omitempty" yaml:"parent_code,omitempty"`

	// Line is the source line the topic was created from. Zero for topics the
	// builder synthesized (lettered-restart containers).
	Line int `json:"line,omitempty" yaml:"line,omitempty"`
}

// IsRoot reports whether the topic has no parent.
func (t Topic) IsRoot() bool {
	return t.ParentCode == ""
}

// CodeLevel returns the depth implied by a code: its segment count minus one.
func CodeLevel(code string) int {
	return strings.Count(code, ".")
}

// ParentOf returns the code prefix one level up, or "" for a single-segment code.
func ParentOf(code string) string {
	i := strings.LastIndexByte(code, '.')
	if i < 0 {
		return ""
	}
	return code[:i]
}

// ChildCode appends an ordinal segment to a parent code.
func ChildCode(parent string, ordinal int) string {
	return parent + "." + strconv.Itoa(ordinal)
}
