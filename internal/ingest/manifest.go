package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest lists transcript files to ingest, grouped by source origin.
// Source origin is a free-form tag distinguishing content collections;
// it enables multi-corpus filtering downstream.
type Manifest struct {
	Collections []ManifestCollection `yaml:"collections"`
}

// ManifestCollection is one content collection in a manifest.
type ManifestCollection struct {
	SourceOrigin string   `yaml:"source_origin"`
	Files        []string `yaml:"files"`
}

// LoadManifest reads and validates a YAML ingestion manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if len(m.Collections) == 0 {
		return nil, fmt.Errorf("manifest has no collections")
	}
	for i, c := range m.Collections {
		if c.SourceOrigin == "" {
			return nil, fmt.Errorf("collection %d has no source_origin", i)
		}
		if len(c.Files) == 0 {
			return nil, fmt.Errorf("collection %q has no files", c.SourceOrigin)
		}
	}

	return &m, nil
}

// FileCount returns the total number of files across all collections.
func (m *Manifest) FileCount() int {
	total := 0
	for _, c := range m.Collections {
		total += len(c.Files)
	}
	return total
}
