// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source loads curriculum documents from disk. Markdown and text files
// are read as is; HTML pages are converted to markdown first. A YAML
// frontmatter block may name the document id and its dialect.
package source

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/curriculum-engine/internal/engine"
)

// Frontmatter holds the recognized frontmatter keys. Other keys are ignored.
type Frontmatter struct {
	ID      string `yaml:"id"`
	Dialect string `yaml:"dialect"`
}

// Loader reads documents from files and directories.
type Loader struct {
	html *htmlConverter
}

// NewLoader returns a Loader.
func NewLoader() *Loader {
	return &Loader{html: newHTMLConverter()}
}

// Supported reports whether path has an extension the loader reads.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt", ".html", ".htm":
		return true
	}
	return false
}

// Load reads every path. Directories are walked recursively and files are
// returned in lexical order; unsupported files inside directories are skipped.
// A path naming an unsupported file directly is an error.
func (l *Loader) Load(paths ...string) ([]engine.Document, error) {
	var docs []engine.Document
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			doc, err := l.LoadFile(p)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}

		var files []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && Supported(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
		sort.Strings(files)
		for _, f := range files {
			doc, err := l.LoadFile(f)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// LoadFile reads one document. The id defaults to the file name without its
// extension.
func (l *Loader) LoadFile(path string) (engine.Document, error) {
	if !Supported(path) {
		return engine.Document{}, fmt.Errorf("unsupported file type: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	fm, body, err := SplitFrontmatter(string(data))
	if err != nil {
		return engine.Document{}, fmt.Errorf("%s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		body, err = l.html.convert(body)
		if err != nil {
			return engine.Document{}, fmt.Errorf("converting %s: %w", path, err)
		}
	}

	id := fm.ID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return engine.Document{ID: id, Text: body, DialectHint: fm.Dialect}, nil
}

// SplitFrontmatter separates a leading "---" YAML block from the body. The
// block is replaced by blank lines so line numbers in the body still match
// the file. Text without frontmatter is returned unchanged.
func SplitFrontmatter(text string) (Frontmatter, string, error) {
	var fm Frontmatter
	text = strings.TrimPrefix(text, "\ufeff")
	if !strings.HasPrefix(text, "---\n") && !strings.HasPrefix(text, "---\r\n") {
		return fm, text, nil
	}

	lines := strings.SplitAfter(text, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r\n") == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return fm, text, nil
	}

	block := strings.Join(lines[1:end], "")
	if err := yaml.NewDecoder(bytes.NewBufferString(block)).Decode(&fm); err != nil && strings.TrimSpace(block) != "" {
		return fm, text, fmt.Errorf("parsing frontmatter: %w", err)
	}

	body := strings.Repeat("\n", end+1) + strings.Join(lines[end+1:], "")
	return fm, body, nil
}
