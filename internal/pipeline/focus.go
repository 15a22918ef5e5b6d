package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// defaultFocusAreas are the review dimensions the analysis prompt asks
// the model to check when no custom focus file is configured.
var defaultFocusAreas = []string{
	"Numerical inconsistencies (different numbers for the same metric across slides)",
	"Date and timeline conflicts",
	"Contradictory claims or statements",
	"Inconsistent terminology or naming",
	"Logical flow problems between slides",
	"Data that contradicts chart or image content",
	"Missing or conflicting units on figures",
}

// LoadFocusAreas reads focus areas from a YAML file with a top-level
// `focus_areas` list. An empty path returns the defaults.
func LoadFocusAreas(path string) ([]string, error) {
	if path == "" {
		return defaultFocusAreas, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read focus file")
	}

	var doc struct {
		FocusAreas []string `yaml:"focus_areas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse focus file")
	}
	if len(doc.FocusAreas) == 0 {
		return nil, eris.Errorf("pipeline: focus file %s has no focus_areas", path)
	}

	return doc.FocusAreas, nil
}
