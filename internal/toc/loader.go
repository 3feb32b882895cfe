package toc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebaker/internal/logfields"
	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

// DefaultFileGlobs select the conventionally named navigation documents.
var DefaultFileGlobs = []string{"**/toc.json", "**/toc.yaml", "**/toc.yml"}

// Fragment is one parsed navigation document.
type Fragment struct {
	// File is the document path relative to the input root.
	File string
	Root *Element
}

// Loader parses navigation documents below an input root.
type Loader struct {
	root string
}

// NewLoader returns a loader for documents below root.
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Load parses the document at rel. YAML is used for .yaml and .yml files,
// JSON otherwise.
func (l *Loader) Load(rel string) (*Element, error) {
	rel = paths.Fixup(rel)
	abs, err := paths.Within(l.root, rel)
	if err != nil {
		return nil, fmt.Errorf("navigation document %s: %w", rel, err)
	}
	// #nosec G304 -- abs is confined to the input root.
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read navigation document %s: %w", rel, err)
	}

	var root *Element
	switch strings.ToLower(path.Ext(rel)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &root)
	default:
		err = json.NewDecoder(bytes.NewReader(data)).Decode(&root)
	}
	if err != nil {
		return nil, fmt.Errorf("parse navigation document %s: %w", rel, err)
	}
	if root == nil {
		return nil, fmt.Errorf("parse navigation document %s: document is empty", rel)
	}
	return root, nil
}

// LoadAll parses every document in rels, logging and skipping failures.
// It returns the fragments in input order and the documents that failed.
func (l *Loader) LoadAll(rels []string, logger *slog.Logger) ([]Fragment, []string) {
	var (
		fragments []Fragment
		failed    []string
	)
	for _, rel := range rels {
		root, err := l.Load(rel)
		if err != nil {
			logger.Warn("Skipping navigation document", logfields.TOCFile(rel), logfields.Error(err))
			failed = append(failed, rel)
			continue
		}
		fragments = append(fragments, Fragment{File: paths.Fixup(rel), Root: root})
	}
	return fragments, failed
}
