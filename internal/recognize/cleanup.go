// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recognize

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// inlineParser parses a title as a single paragraph. Block parsers other than
// the paragraph are left out so a title such as "1986. Reform" or "- x" is not
// reinterpreted as a list.
var inlineParser = parser.NewParser(
	parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
	parser.WithInlineParsers(parser.DefaultInlineParsers()...),
	parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
)

// CleanTitle strips inline markup (emphasis, strong, code spans, links, raw
// HTML) from a title and collapses whitespace. Literal characters are kept;
// only an unmatched delimiter run of two or more '*' or '_' at either edge
// is removed, e.g. a bold span opened on the heading marker and closed after
// the title. Text inside code spans is never trimmed.
func CleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	src := []byte(s)
	doc := inlineParser.Parse(text.NewReader(src))

	var pieces []piece
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			_, code := node.Parent().(*ast.CodeSpan)
			v := string(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				v += " "
			}
			pieces = appendPiece(pieces, piece{text: v, code: code})
		case *ast.String:
			_, code := node.Parent().(*ast.CodeSpan)
			pieces = appendPiece(pieces, piece{text: string(node.Value), code: code})
		case *ast.AutoLink:
			pieces = appendPiece(pieces, piece{text: string(node.Label(src))})
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	trimEdges(pieces)
	var buf strings.Builder
	for _, p := range pieces {
		buf.WriteString(p.text)
	}
	out := strings.Join(strings.Fields(buf.String()), " ")
	out = strings.TrimRight(out, ":")
	return strings.TrimSpace(out)
}

// piece is one run of title text and whether it came from a code span.
type piece struct {
	text string
	code bool
}

// appendPiece merges p into the previous piece when both are code or both
// are not, so a delimiter run split across text nodes is trimmed as one.
func appendPiece(pieces []piece, p piece) []piece {
	if n := len(pieces); n > 0 && pieces[n-1].code == p.code {
		pieces[n-1].text += p.text
		return pieces
	}
	return append(pieces, p)
}

// trimEdges removes a leftover delimiter run from the first and last
// non-blank pieces unless they are code.
func trimEdges(pieces []piece) {
	for i := range pieces {
		if strings.TrimSpace(pieces[i].text) == "" {
			continue
		}
		if !pieces[i].code {
			t := strings.TrimLeft(pieces[i].text, " \t")
			pieces[i].text = t[delimiterRun(t, false):]
		}
		break
	}
	for i := len(pieces) - 1; i >= 0; i-- {
		if strings.TrimSpace(pieces[i].text) == "" {
			continue
		}
		if !pieces[i].code {
			t := strings.TrimRight(pieces[i].text, " \t")
			pieces[i].text = t[:len(t)-delimiterRun(t, true)]
		}
		break
	}
}

// delimiterRun returns the length of the '*'/'_' run at the start (or end)
// of t when it is at least two characters long, and 0 otherwise.
func delimiterRun(t string, fromEnd bool) int {
	n := 0
	for n < len(t) {
		c := t[n]
		if fromEnd {
			c = t[len(t)-1-n]
		}
		if c != '*' && c != '_' {
			break
		}
		n++
	}
	if n < 2 {
		return 0
	}
	return n
}
