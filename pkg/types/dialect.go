// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MatcherRule is one entry of a dialect's ordered matcher list. Pattern is a
// regular expression anchored at the start of the line; it may use the named
// groups code, title, letter, indent and cells.
type MatcherRule struct {
	// Name identifies the rule in listings and diagnostics.
	Name string `json:"name" yaml:"name"`

	// Kind is the token kind produced when the rule matches.
	Kind TokenKind `json:"kind" yaml:"kind"`

	// Pattern is the regular expression source.
	Pattern string `json:"pattern" yaml:"pattern"`
}

// LetterRestart configures the lettered-sequence boundary exception. When
// enabled, an "a" item arriving under a parent that already has lettered
// children opens a new container sibling of that parent.
type LetterRestart struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ContainerTitle is the title of the synthesized container; "{n}" is
	// replaced by the container's ordinal.
	ContainerTitle string `json:"container_title,omitempty" yaml:"container_title,omitempty"`
}

// Exclusion is the dialect's skip predicate over codes and titles.
type Exclusion struct {
	// Codes lists exact codes to drop together with their subtrees.
	Codes []string `json:"codes,omitempty" yaml:"codes,omitempty"`

	// CodePrefixes lists raw string prefixes; any code starting with one is dropped.
	CodePrefixes []string `json:"code_prefixes,omitempty" yaml:"code_prefixes,omitempty"`

	// Titles lists case-insensitive regular expressions matched against cleaned titles.
	Titles []string `json:"titles,omitempty" yaml:"titles,omitempty"`
}

// IsEmpty reports whether the exclusion drops nothing.
func (e Exclusion) IsEmpty() bool {
	return len(e.Codes) == 0 && len(e.CodePrefixes) == 0 && len(e.Titles) == 0
}

// Dialect describes how one family of documents encodes structure.
type Dialect struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// MaxDepth is the deepest level a topic may have; deeper tokens are dropped.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// IndentWidth is the number of columns per indentation level (default 2).
	IndentWidth int `json:"indent_width,omitempty" yaml:"indent_width,omitempty"`

	// LetterOffset is added to the depth hint of lettered items so they nest
	// under the preceding list item (default 1).
	LetterOffset *int `json:"letter_offset,omitempty" yaml:"letter_offset,omitempty"`

	// Rules are tried in order; the first match wins.
	Rules []MatcherRule `json:"rules" yaml:"rules"`

	// TableColumns are the header names that mark a content table.
	TableColumns []string `json:"table_columns,omitempty" yaml:"table_columns,omitempty"`

	LetterRestart LetterRestart `json:"letter_restart,omitempty" yaml:"letter_restart,omitempty"`
	Exclude       Exclusion     `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// EmitText makes unmatched non-blank lines produce text tokens.
	EmitText bool `json:"emit_text,omitempty" yaml:"emit_text,omitempty"`
}
