package quality

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Allowlists hold data-driven exemptions for the quality checkers.
type Allowlists struct {
	// AllCaps lists values that legitimately appear in capitals, matched
	// case-insensitively ("PLoS ONE" also covers "PLOS ONE").
	AllCaps []string `yaml:"all_caps"`
}

// DefaultAllowlists returns the built-in exemptions.
func DefaultAllowlists() *Allowlists {
	return &Allowlists{
		AllCaps: []string{"PLoS ONE"},
	}
}

// LoadAllowlists reads exemptions from a YAML file and merges them over the
// defaults.
func LoadAllowlists(path string) (*Allowlists, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "quality: read allowlists %s", path)
	}

	var loaded Allowlists
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return nil, eris.Wrapf(err, "quality: parse allowlists %s", path)
	}

	merged := DefaultAllowlists()
	merged.AllCaps = append(merged.AllCaps, loaded.AllCaps...)
	return merged, nil
}

// AllowedAllCaps reports whether a value is exempt from the all-caps check.
func (a *Allowlists) AllowedAllCaps(value string) bool {
	for _, allowed := range a.AllCaps {
		if strings.EqualFold(allowed, value) {
			return true
		}
	}
	return false
}
