package dial

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Meanings maps "{big}-{small}" keys to display text. The text itself
// is authored externally; this type only composes keys and looks them
// up. A missing entry means "no meaning", never an error.
type Meanings struct {
	entries map[string]string
}

// MeaningKey composes the lookup key for a big/small label pair.
func MeaningKey(bigLabel, smallLabel int) string {
	return fmt.Sprintf("%d-%d", bigLabel, smallLabel)
}

// Resolve returns the meaning text for the pair, if present.
func (m *Meanings) Resolve(bigLabel, smallLabel int) (string, bool) {
	if m == nil || m.entries == nil {
		return "", false
	}
	text, ok := m.entries[MeaningKey(bigLabel, smallLabel)]
	return text, ok
}

// Len returns the number of loaded entries.
func (m *Meanings) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns a copy of the loaded table.
func (m *Meanings) Entries() map[string]string {
	out := make(map[string]string, m.Len())
	if m != nil {
		for k, v := range m.entries {
			out[k] = v
		}
	}
	return out
}

type meaningsFile struct {
	Entries map[string]string `yaml:"entries"`
}

// LoadMeanings reads a YAML meanings table:
//
//	entries:
//	  "6-6": "..."
//	  "1-3": "..."
//
// Keys must be "{big}-{small}" with both labels in 1..8; anything else
// is rejected so a malformed table is caught at startup rather than
// silently never matching.
func LoadMeanings(path string) (*Meanings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f meaningsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("meanings: %w", err)
	}
	for k := range f.Entries {
		var big, small int
		if _, err := fmt.Sscanf(k, "%d-%d", &big, &small); err != nil {
			return nil, fmt.Errorf("meanings: bad key %q", k)
		}
		if big < 1 || big > 8 || small < 1 || small > 8 {
			return nil, fmt.Errorf("meanings: key %q out of range (labels are 1..8)", k)
		}
	}
	return &Meanings{entries: f.Entries}, nil
}
