package scan

import (
	"fmt"
	"os"
	"path/filepath"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/media-verifier/backend/internal/models"
)

//go:embed steps.yaml
var defaultStepsYAML []byte

// StepDef is the presentation skin of one pipeline step. The step count and
// order are fixed; yaml only supplies titles and starting log lines.
type StepDef struct {
	Title string `yaml:"title"`
	Start string `yaml:"start"`
}

type stepFile struct {
	Steps []StepDef `yaml:"steps"`
}

// ParseStepDefs parses step definitions from yaml and validates the fixed
// step count.
func ParseStepDefs(data []byte) ([]StepDef, error) {
	var f stepFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing step definitions: %w", err)
	}
	if len(f.Steps) != models.StepCount {
		return nil, fmt.Errorf("expected %d step definitions, got %d", models.StepCount, len(f.Steps))
	}
	for i, s := range f.Steps {
		if s.Title == "" || s.Start == "" {
			return nil, fmt.Errorf("step %d is missing a title or start line", i+1)
		}
	}
	return f.Steps, nil
}

// LoadStepDefs returns the step definitions, preferring an override file in
// the data directory over the embedded defaults.
func LoadStepDefs(dataDir string) ([]StepDef, error) {
	overridePath := filepath.Join(dataDir, "defaults", "steps.yaml")
	if data, err := os.ReadFile(overridePath); err == nil {
		defs, err := ParseStepDefs(data)
		if err != nil {
			return nil, fmt.Errorf("invalid step override %s: %w", overridePath, err)
		}
		return defs, nil
	}

	return ParseStepDefs(defaultStepsYAML)
}
