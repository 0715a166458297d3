package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrManifestInvalid indicates a manifest that fails validation.
var ErrManifestInvalid = errors.New("catalog: invalid manifest")

// Record is one validated manifest entry for a recording file.
type Record struct {
	Name        string   `yaml:"name"`
	Category    Category `yaml:"category"`
	FrequencyHz int      `yaml:"frequency_hz"`
	Role        string   `yaml:"role"`
	FMaxHz      float64  `yaml:"fmax_hz"`
}

func (r Record) entry() Entry {
	return Entry{
		Name:        r.Name,
		Categories:  []Category{r.Category},
		FrequencyHz: r.FrequencyHz,
		Role:        r.Role,
		FMaxHz:      r.FMaxHz,
	}
}

// Manifest is the structured replacement for filename-substring tagging:
// one record per file plus optional per-category selection rules.
type Manifest struct {
	Files     []Record          `yaml:"files"`
	Selection map[Category]Rule `yaml:"selection"`

	byName map[string]Record
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("catalog: parse manifest %s: %w", path, err)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	m.byName = make(map[string]Record, len(m.Files))
	for _, rec := range m.Files {
		m.byName[rec.Name] = rec
	}

	return &m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]bool, len(m.Files))

	for i, rec := range m.Files {
		if rec.Name == "" {
			return fmt.Errorf("%w: record %d has no name", ErrManifestInvalid, i)
		}
		if seen[rec.Name] {
			return fmt.Errorf("%w: duplicate record for %q", ErrManifestInvalid, rec.Name)
		}
		seen[rec.Name] = true

		switch rec.Category {
		case CategoryTone, CategoryChirp, CategoryBackground:
		default:
			return fmt.Errorf("%w: record %q has unknown category %q", ErrManifestInvalid, rec.Name, rec.Category)
		}

		if rec.FrequencyHz < 0 {
			return fmt.Errorf("%w: record %q has negative frequency", ErrManifestInvalid, rec.Name)
		}
		if rec.FMaxHz < 0 {
			return fmt.Errorf("%w: record %q has negative fmax", ErrManifestInvalid, rec.Name)
		}
	}

	for cat, rule := range m.Selection {
		switch cat {
		case CategoryTone, CategoryChirp, CategoryBackground:
		default:
			return fmt.Errorf("%w: selection rule for unknown category %q", ErrManifestInvalid, cat)
		}
		if rule != RuleFirst && rule != RuleLast {
			return fmt.Errorf("%w: unknown selection rule %q for category %q", ErrManifestInvalid, rule, cat)
		}
	}

	return nil
}

// validateAgainst checks that every manifest record names a file present
// in the scanned listing.
func (m *Manifest) validateAgainst(names []string) error {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	for _, rec := range m.Files {
		if !present[rec.Name] {
			return fmt.Errorf("%w: record %q does not match any file in the directory", ErrManifestInvalid, rec.Name)
		}
	}
	return nil
}

func (m *Manifest) record(name string) (Record, bool) {
	rec, ok := m.byName[name]
	return rec, ok
}
