// Package catalog indexes recording files in a directory and selects
// files by category for analysis.
//
// Categories come from a validated manifest when one is present; files
// not covered by the manifest fall back to the legacy filename-substring
// convention (documented in Tag).
package catalog

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Category labels a recording's role in the measurement session.
type Category string

const (
	CategoryTone       Category = "tone"
	CategoryChirp      Category = "chirp"
	CategoryBackground Category = "background"
)

// backgroundMarker is the filename convention for background-noise
// captures from the contact-microphone rig.
const backgroundMarker = "background_mic_diff_5000Hz"

// Rule decides which of several category matches is selected.
type Rule string

const (
	RuleFirst Rule = "first"
	RuleLast  Rule = "last"
)

// SelectionError reports a failed category selection, naming the category
// and how many files matched.
type SelectionError struct {
	Category Category
	Count    int
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("catalog: category %q matched %d files, cannot select one", e.Category, e.Count)
}

// Entry describes one cataloged file.
type Entry struct {
	Name        string
	Categories  []Category
	FrequencyHz int     // 0 when the name carries no frequency marker
	Role        string  // free-form role from the manifest, if any
	FMaxHz      float64 // per-file spectrogram bound from the manifest, 0 = default
}

// HasCategory reports whether the entry carries the given category.
func (e Entry) HasCategory(cat Category) bool {
	for _, c := range e.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

var frequencyMarker = regexp.MustCompile(`(\d+)Hz`)

// Tag classifies a filename by the legacy substring convention: names
// containing "tone" or "chirp" get those categories, names containing the
// background marker get the background category, and a trailing "NNNHz"
// marker sets the frequency. Tagging is idempotent and total: any name
// yields zero or more categories.
func Tag(name string) Entry {
	e := Entry{Name: name}

	if strings.Contains(name, string(CategoryTone)) {
		e.Categories = append(e.Categories, CategoryTone)
	}
	if strings.Contains(name, string(CategoryChirp)) {
		e.Categories = append(e.Categories, CategoryChirp)
	}
	if strings.Contains(name, backgroundMarker) {
		e.Categories = append(e.Categories, CategoryBackground)
	}

	if m := frequencyMarker.FindStringSubmatch(name); m != nil {
		if hz, err := strconv.Atoi(m[1]); err == nil {
			e.FrequencyHz = hz
		}
	}

	return e
}

// Scan lists the regular files in dir in sorted-name order.
func Scan(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: scan %s: %w", dir, err)
	}

	var names []string
	for _, de := range dirEntries {
		if de.Type().IsRegular() {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// Catalog holds the classified listing of one recording directory.
type Catalog struct {
	Dir     string
	Entries []Entry

	rules map[Category]Rule
}

// defaultRules preserves the historical selection behavior: every category
// picks the first match except background, which picks the last. The
// asymmetry predates this implementation and is kept deliberately; a
// manifest can override it per category.
func defaultRules() map[Category]Rule {
	return map[Category]Rule{
		CategoryTone:       RuleFirst,
		CategoryChirp:      RuleFirst,
		CategoryBackground: RuleLast,
	}
}

// Load scans dir and classifies its files. When manifestPath is non-empty
// the manifest's records take precedence over substring tagging for the
// files they name; other files fall back to Tag.
func Load(dir, manifestPath string) (*Catalog, error) {
	names, err := Scan(dir)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		Dir:   dir,
		rules: defaultRules(),
	}

	var manifest *Manifest
	if manifestPath != "" {
		manifest, err = LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		if err := manifest.validateAgainst(names); err != nil {
			return nil, err
		}
		for cat, rule := range manifest.Selection {
			c.rules[cat] = rule
		}
	}

	for _, name := range names {
		if manifest != nil {
			if rec, ok := manifest.record(name); ok {
				c.Entries = append(c.Entries, rec.entry())
				continue
			}
		}
		c.Entries = append(c.Entries, Tag(name))
	}

	return c, nil
}

// ByCategory returns entries carrying the category, in listing order.
func (c *Catalog) ByCategory(cat Category) []Entry {
	var out []Entry
	for _, e := range c.Entries {
		if e.HasCategory(cat) {
			out = append(out, e)
		}
	}
	return out
}

// Select returns the single entry for a category according to the
// category's selection rule. Zero matches yield a *SelectionError.
func (c *Catalog) Select(cat Category) (Entry, error) {
	matches := c.ByCategory(cat)
	if len(matches) == 0 {
		return Entry{}, &SelectionError{Category: cat}
	}

	if rule, ok := c.rules[cat]; ok && rule == RuleLast {
		return matches[len(matches)-1], nil
	}
	return matches[0], nil
}

// SelectFrequency returns the single entry carrying both the category and
// the frequency marker, using the category's selection rule.
func (c *Catalog) SelectFrequency(cat Category, freqHz int) (Entry, error) {
	var matches []Entry
	for _, e := range c.ByCategory(cat) {
		if e.FrequencyHz == freqHz {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return Entry{}, &SelectionError{Category: cat}
	}

	if rule, ok := c.rules[cat]; ok && rule == RuleLast {
		return matches[len(matches)-1], nil
	}
	return matches[0], nil
}
