// pkg/taxonomy/dictionary.go
package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dictionary maps free-text taxon names, with their spelling variants,
// onto one canonical species name. Lookup is case- and whitespace-
// insensitive; the canonical spelling always maps to itself.
type Dictionary struct {
	lookup map[string]string
}

// dictionaryFile is the YAML layout of a taxon dictionary
type dictionaryFile struct {
	Taxa []struct {
		Canonical string   `yaml:"canonical"`
		Synonyms  []string `yaml:"synonyms"`
	} `yaml:"taxa"`
}

// Parse builds a dictionary from YAML content
func Parse(data []byte) (*Dictionary, error) {
	var file dictionaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse taxon dictionary: %w", err)
	}

	d := &Dictionary{lookup: make(map[string]string)}
	for _, entry := range file.Taxa {
		canonical := strings.TrimSpace(entry.Canonical)
		if canonical == "" {
			return nil, fmt.Errorf("taxon dictionary entry with empty canonical name")
		}
		d.lookup[normalizeName(canonical)] = canonical
		for _, syn := range entry.Synonyms {
			key := normalizeName(syn)
			if key == "" {
				continue
			}
			if existing, ok := d.lookup[key]; ok && existing != canonical {
				return nil, fmt.Errorf("synonym %q maps to both %q and %q", syn, existing, canonical)
			}
			d.lookup[key] = canonical
		}
	}

	return d, nil
}

// LoadFile reads a taxon dictionary from a YAML file
func LoadFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxon dictionary %s: %w", path, err)
	}
	return Parse(data)
}

// Normalize resolves a free-text taxon name to its canonical spelling.
// The second result reports whether the name was recognized; unknown
// names come back unchanged.
func (d *Dictionary) Normalize(name string) (string, bool) {
	canonical, ok := d.lookup[normalizeName(name)]
	if !ok {
		return name, false
	}
	return canonical, true
}

// Len returns the number of known variants, canonical spellings included
func (d *Dictionary) Len() int {
	return len(d.lookup)
}

// normalizeName folds case and collapses interior whitespace
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
