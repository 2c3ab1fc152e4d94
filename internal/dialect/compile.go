// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

const (
	defaultMaxDepth     = 6
	defaultIndentWidth  = 2
	defaultLetterOffset = 1
	defaultContainer    = "Part {n}"
)

// Rule is a compiled matcher rule.
type Rule struct {
	Name string
	Kind types.TokenKind
	Re   *regexp.Regexp

	code, title, letter, indent, cells int
}

// Group returns the submatch for a named group, or "" when the rule has no
// such group or it did not participate in the match.
func (r *Rule) Group(m []string, name string) string {
	idx := -1
	switch name {
	case "code":
		idx = r.code
	case "title":
		idx = r.title
	case "letter":
		idx = r.letter
	case "indent":
		idx = r.indent
	case "cells":
		idx = r.cells
	}
	if idx < 0 || idx >= len(m) {
		return ""
	}
	return m[idx]
}

// Compiled is a dialect ready for use by the recognizer and builder. It is
// immutable after Compile returns and safe to share across goroutines.
type Compiled struct {
	Name         string
	Description  string
	MaxDepth     int
	IndentWidth  int
	LetterOffset int
	Rules        []Rule
	EmitText     bool

	// TableColumns are lowercased header names.
	TableColumns []string

	RestartLetters bool
	ContainerTitle string

	source        types.Dialect
	excludeCodes  map[string]bool
	excludePrefix []string
	excludeTitles []*regexp.Regexp
}

// Source returns the declarative form the dialect was compiled from.
func (c *Compiled) Source() types.Dialect {
	return c.source
}

// Compile validates a dialect and compiles its matcher rules.
func Compile(d types.Dialect) (*Compiled, error) {
	name := Normalize(d.Name)
	if name == "" {
		return nil, fmt.Errorf("dialect name is required")
	}
	if len(d.Rules) == 0 {
		return nil, fmt.Errorf("dialect %s: at least one rule is required", name)
	}
	if d.MaxDepth < 0 {
		return nil, fmt.Errorf("dialect %s: max_depth must not be negative", name)
	}

	c := &Compiled{
		Name:           name,
		Description:    d.Description,
		MaxDepth:       d.MaxDepth,
		IndentWidth:    d.IndentWidth,
		LetterOffset:   defaultLetterOffset,
		EmitText:       d.EmitText,
		RestartLetters: d.LetterRestart.Enabled,
		ContainerTitle: d.LetterRestart.ContainerTitle,
		source:         d,
		excludeCodes:   make(map[string]bool),
	}
	c.source.Name = name
	if c.MaxDepth == 0 {
		c.MaxDepth = defaultMaxDepth
	}
	if c.IndentWidth <= 0 {
		c.IndentWidth = defaultIndentWidth
	}
	if d.LetterOffset != nil {
		if *d.LetterOffset < 0 {
			return nil, fmt.Errorf("dialect %s: letter_offset must not be negative", name)
		}
		c.LetterOffset = *d.LetterOffset
	}
	if c.RestartLetters && c.ContainerTitle == "" {
		c.ContainerTitle = defaultContainer
	}

	for i, r := range d.Rules {
		rule, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("dialect %s: rule %d (%s): %w", name, i, r.Name, err)
		}
		c.Rules = append(c.Rules, rule)
	}

	for _, col := range d.TableColumns {
		col = strings.ToLower(strings.TrimSpace(col))
		if col != "" {
			c.TableColumns = append(c.TableColumns, col)
		}
	}

	for _, code := range d.Exclude.Codes {
		c.excludeCodes[strings.TrimSuffix(strings.TrimSpace(code), ".")] = true
	}
	for _, p := range d.Exclude.CodePrefixes {
		if p = strings.TrimSpace(p); p != "" {
			c.excludePrefix = append(c.excludePrefix, p)
		}
	}
	for _, pat := range d.Exclude.Titles {
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return nil, fmt.Errorf("dialect %s: exclude title %q: %w", name, pat, err)
		}
		c.excludeTitles = append(c.excludeTitles, re)
	}

	return c, nil
}

func compileRule(r types.MatcherRule) (Rule, error) {
	if !r.Kind.Valid() || r.Kind == types.TokenBlank {
		return Rule{}, fmt.Errorf("unsupported kind %q", r.Kind)
	}
	pattern := r.Pattern
	if pattern == "" {
		return Rule{}, fmt.Errorf("pattern is required")
	}
	// Matching inside paragraph text produces false structure.
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, err
	}

	rule := Rule{
		Name:   r.Name,
		Kind:   r.Kind,
		Re:     re,
		code:   re.SubexpIndex("code"),
		title:  re.SubexpIndex("title"),
		letter: re.SubexpIndex("letter"),
		indent: re.SubexpIndex("indent"),
		cells:  re.SubexpIndex("cells"),
	}
	if rule.Name == "" {
		rule.Name = string(r.Kind)
	}
	if r.Kind == types.TokenLettered && rule.letter < 0 {
		return Rule{}, fmt.Errorf("lettered rule needs a letter group")
	}
	return rule, nil
}

// ExcludesCode reports whether code, or any ancestor of it, is excluded.
func (c *Compiled) ExcludesCode(code string) bool {
	if code == "" {
		return false
	}
	for _, p := range c.excludePrefix {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	if len(c.excludeCodes) == 0 {
		return false
	}
	for cur := code; cur != ""; cur = types.ParentOf(cur) {
		if c.excludeCodes[cur] {
			return true
		}
	}
	return false
}

// ExcludesTitle reports whether a cleaned title matches an excluded pattern.
func (c *Compiled) ExcludesTitle(title string) bool {
	for _, re := range c.excludeTitles {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// IsTableColumn reports whether a header cell names a content column.
func (c *Compiled) IsTableColumn(cell string) bool {
	cell = strings.ToLower(strings.TrimSpace(cell))
	for _, col := range c.TableColumns {
		if cell == col {
			return true
		}
	}
	return false
}

// Normalize canonicalizes a dialect name or hint: lowercase, trimmed, with
// spaces and underscores folded to hyphens.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "-", "_", "-").Replace(name)
}
