// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recognize classifies lines of curriculum text into typed tokens
// using a dialect's ordered matcher rules. Recognition is purely functional:
// the same line and dialect always produce the same token.
package recognize

import (
	"strings"
	"unicode"

	"github.com/pdiddy/curriculum-engine/internal/dialect"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// Recognizer applies one dialect's rules to lines of text.
type Recognizer struct {
	d *dialect.Compiled
}

// New returns a Recognizer for the given dialect.
func New(d *dialect.Compiled) *Recognizer {
	return &Recognizer{d: d}
}

// Tokenize splits text into lines and recognizes each one, in document order.
// Lines that carry no structural signal produce no token.
func (r *Recognizer) Tokenize(text string) []types.Token {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	tokens := make([]types.Token, 0, len(lines))
	for i, line := range lines {
		if tok, ok := r.Recognize(line, i+1); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Recognize classifies a single line. It returns false when the line carries
// no structural signal. Rules are tried in dialect order and the first match
// wins; a match whose title cleans to nothing is treated as no match for that
// rule and the next rule is tried.
func (r *Recognizer) Recognize(line string, lineNo int) (types.Token, bool) {
	line = strings.TrimRight(line, " \t\r")
	if strings.TrimSpace(line) == "" {
		return types.Token{Kind: types.TokenBlank, Line: lineNo}, true
	}

	for i := range r.d.Rules {
		rule := &r.d.Rules[i]
		m := rule.Re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		tok, ok := r.build(rule, m, line, lineNo)
		if ok {
			return tok, true
		}
	}

	if r.d.EmitText {
		if title := CleanTitle(line); title != "" {
			return types.Token{Kind: types.TokenText, Text: title, Line: lineNo}, true
		}
	}
	return types.Token{}, false
}

func (r *Recognizer) build(rule *dialect.Rule, m []string, line string, lineNo int) (types.Token, bool) {
	tok := types.Token{Kind: rule.Kind, Line: lineNo}

	if rule.Kind == types.TokenTableRow {
		raw := rule.Group(m, "cells")
		if raw == "" {
			raw = strings.Trim(strings.TrimSpace(line), "|")
		}
		cells := splitCells(raw)
		if isAlignmentRow(cells) {
			return types.Token{}, false
		}
		for i, c := range cells {
			cells[i] = CleanTitle(c)
		}
		tok.Cells = cells
		return tok, true
	}

	if raw := rule.Group(m, "code"); raw != "" {
		code, ok := NormalizeCode(raw)
		if !ok {
			return types.Token{}, false
		}
		tok.Code = code
	}

	title := rule.Group(m, "title")
	tok.Text = CleanTitle(title)
	if tok.Text == "" {
		return types.Token{}, false
	}

	if l := rule.Group(m, "letter"); l != "" {
		tok.Letter = unicode.ToLower([]rune(l)[0])
	}
	tok.DepthHint = indentLevel(rule.Group(m, "indent"), r.d.IndentWidth)
	return tok, true
}

// NormalizeCode trims a trailing dot and checks that every segment is a
// decimal number. Leading zeros are dropped so "03.2" and "3.2" agree.
func NormalizeCode(raw string) (string, bool) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), ".")
	if raw == "" {
		return "", false
	}
	segs := strings.Split(raw, ".")
	for i, s := range segs {
		if s == "" {
			return "", false
		}
		for _, c := range s {
			if c < '0' || c > '9' {
				return "", false
			}
		}
		s = strings.TrimLeft(s, "0")
		if s == "" {
			s = "0"
		}
		segs[i] = s
	}
	return strings.Join(segs, "."), true
}

// indentLevel converts leading whitespace into a nesting level. A tab counts
// as one level.
func indentLevel(indent string, width int) int {
	if width <= 0 {
		width = 2
	}
	cols, tabs := 0, 0
	for _, c := range indent {
		switch c {
		case '\t':
			tabs++
		case ' ':
			cols++
		}
	}
	return tabs + cols/width
}

func splitCells(raw string) []string {
	parts := strings.Split(raw, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// isAlignmentRow reports whether every cell is a markdown alignment marker
// such as "---" or ":--:".
func isAlignmentRow(cells []string) bool {
	seen := false
	for _, c := range cells {
		if c == "" {
			continue
		}
		if strings.Trim(c, ":-") != "" || !strings.Contains(c, "-") {
			return false
		}
		seen = true
	}
	return seen
}
