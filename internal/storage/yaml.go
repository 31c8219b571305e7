package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/d2verb/legion/internal/marine"
	"gopkg.in/yaml.v3"
)

// document is the on-disk layout of a YAML data file.
type document struct {
	Marines []*marine.SpaceMarine `yaml:"marines"`
}

// YAMLFile stores the whole collection in a single YAML document.
type YAMLFile struct {
	path string
}

// NewYAMLFile creates a persister for the given file path.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

// Load reads the data file. A missing file yields an empty collection.
func (f *YAMLFile) Load(ctx context.Context) ([]*marine.SpaceMarine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*marine.SpaceMarine{}, nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", f.path, err)
	}
	if doc.Marines == nil {
		doc.Marines = []*marine.SpaceMarine{}
	}
	for i, m := range doc.Marines {
		if m == nil {
			return nil, fmt.Errorf("parse data file %s: marines[%d] is empty", f.path, i)
		}
	}
	return doc.Marines, nil
}

// Save writes the collection to a temp file and renames it over the data file.
func (f *YAMLFile) Save(ctx context.Context, records []*marine.SpaceMarine) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(&document{Marines: records})
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".legion-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (f *YAMLFile) Close() error {
	return nil
}
