// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs the parse pipeline for curriculum documents: recognize
// lines into tokens, build the provisional tree, and resolve the final topic
// list. Each parse owns all of its state; the dialect registry is the only
// thing shared between parses and it is read-only.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/curriculum-engine/internal/dialect"
	"github.com/pdiddy/curriculum-engine/internal/recognize"
	"github.com/pdiddy/curriculum-engine/internal/resolve"
	"github.com/pdiddy/curriculum-engine/internal/tree"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// Document is one unit of input text.
type Document struct {
	ID          string
	Text        string
	DialectHint string
}

// Run is the outcome of one successful parse.
type Run struct {
	DocumentID  string
	Dialect     string
	State       types.ParseState
	Topics      []types.Topic
	Summary     types.ParseSummary
	Diagnostics []types.Diagnostic
}

// ParseError is returned when a document fails resolution. Err unwraps to a
// *resolve.Error naming the offending codes.
type ParseError struct {
	DocumentID string
	Dialect    string
	State      types.ParseState
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s (dialect %s): %v", e.DocumentID, e.Dialect, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the number of documents ParseAll parses at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithStrictDialect makes Parse fail on unknown dialect hints instead of
// falling back to the default dialect.
func WithStrictDialect() Option {
	return func(e *Engine) { e.strict = true }
}

// Engine parses documents against a dialect registry.
type Engine struct {
	reg     *dialect.Registry
	workers int
	strict  bool
}

// New returns an Engine using reg.
func New(reg *dialect.Registry, opts ...Option) *Engine {
	e := &Engine{reg: reg, workers: 4}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Parse runs the full pipeline on one document. Line-level anomalies are
// recovered and reported as diagnostics; only a depth mismatch or a cycle
// fails the parse.
func (e *Engine) Parse(doc Document) (*Run, error) {
	d, matched := e.reg.Resolve(doc.DialectHint)
	if !matched && doc.DialectHint != "" && e.strict {
		return nil, &ParseError{
			DocumentID: doc.ID, Dialect: doc.DialectHint, State: types.StateFailed,
			Err: fmt.Errorf("%q: %w", doc.DialectHint, dialect.ErrUnknownDialect),
		}
	}

	run := &Run{DocumentID: doc.ID, Dialect: d.Name, State: types.StateStarted}

	run.State = types.StateTokenizing
	tokens := recognize.New(d).Tokenize(doc.Text)

	run.State = types.StateBuilding
	built := tree.Build(tokens, d)

	run.State = types.StateResolving
	res, err := resolve.Resolve(built.Nodes)
	if err != nil {
		return nil, &ParseError{DocumentID: doc.ID, Dialect: d.Name, State: types.StateFailed, Err: err}
	}

	run.Topics = res.Topics
	run.Summary = res.Summary
	run.Summary.DroppedTokens = built.Dropped
	run.Summary.ExcludedTopics = built.Excluded
	run.Diagnostics = append(built.Diagnostics, res.Diagnostics...)
	run.State = types.StateSucceeded
	return run, nil
}

// Outcome is the result of one document in a batch. Exactly one of Run and
// Err is set.
type Outcome struct {
	DocumentID string
	Run        *Run
	Err        error
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Topics    int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Succeeded + s.Failed + s.Skipped
}

// HasFailures reports whether any document failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ParseAll parses documents in parallel and returns outcomes in input order.
// A failed document never affects the others. Once ctx is done, documents
// that have not started are skipped with ctx's error.
func (e *Engine) ParseAll(ctx context.Context, docs []Document, w io.Writer) ([]Outcome, BatchSummary) {
	outcomes := make([]Outcome, len(docs))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(e.workers)
	for i, doc := range docs {
		p.Go(func() {
			out := Outcome{DocumentID: doc.ID}
			if err := ctx.Err(); err != nil {
				out.Err = err
			} else {
				out.Run, out.Err = e.Parse(doc)
			}
			outcomes[i] = out

			mu.Lock()
			defer mu.Unlock()
			report(w, out)
		})
	}
	p.Wait()

	var sum BatchSummary
	for _, o := range outcomes {
		switch {
		case o.Err == nil:
			sum.Succeeded++
			sum.Topics += len(o.Run.Topics)
		case errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded):
			sum.Skipped++
		default:
			sum.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d parsed, %d skipped, %d failed (total: %d, topics: %d)\n",
		sum.Succeeded, sum.Skipped, sum.Failed, sum.Total(), sum.Topics)
	return outcomes, sum
}

func report(w io.Writer, o Outcome) {
	switch {
	case o.Err == nil:
		s := o.Run.Summary
		fmt.Fprintf(w, "parsed:  %s (%s, %d topics, %d discarded, %d dropped)\n",
			o.DocumentID, o.Run.Dialect, s.TotalTopics, s.Discarded(), s.DroppedTokens)
	case errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded):
		fmt.Fprintf(w, "skipped: %s (%v)\n", o.DocumentID, o.Err)
	default:
		fmt.Fprintf(w, "failed:  %s (%v)\n", o.DocumentID, o.Err)
	}
}
