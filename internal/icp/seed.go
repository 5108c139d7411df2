package icp

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/validator"
)

// weightTarget is the percentage total the criteria weights should reach.
const weightTarget = 100.0

// File is the YAML layout of a criteria seed file.
type File struct {
	Criteria []CriterionEntry `yaml:"criteria" validate:"required,min=1,dive"`
}

// CriterionEntry is one criterion as written in a seed file.
type CriterionEntry struct {
	Name        string   `yaml:"name" validate:"required"`
	Type        string   `yaml:"type" validate:"required,criterion_type"`
	Weight      float64  `yaml:"weight" validate:"gte=0,lte=100"`
	IdealValues []string `yaml:"ideal_values"`
	IsRequired  bool     `yaml:"is_required"`
}

// LoadFile reads and validates a criteria seed file.
func LoadFile(path string) ([]scoring.Criterion, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read criteria file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes criteria YAML. The returned warnings are non-fatal issues,
// such as weights that do not add up to 100.
func Parse(r io.Reader) ([]scoring.Criterion, []string, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, nil, fmt.Errorf("decode criteria: %w", err)
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, nil, fmt.Errorf("invalid criteria: %w", err)
	}

	criteria := make([]scoring.Criterion, 0, len(file.Criteria))
	seen := make(map[string]bool, len(file.Criteria))
	total := 0.0
	for _, entry := range file.Criteria {
		name := strings.TrimSpace(entry.Name)
		if seen[strings.ToLower(name)] {
			return nil, nil, fmt.Errorf("invalid criteria: duplicate name %q", name)
		}
		seen[strings.ToLower(name)] = true

		criteria = append(criteria, scoring.Criterion{
			Name:        name,
			Type:        scoring.CriterionType(strings.ToLower(strings.TrimSpace(entry.Type))),
			Weight:      entry.Weight,
			IdealValues: trimValues(entry.IdealValues),
			IsRequired:  entry.IsRequired,
		})
		total += entry.Weight
	}

	var warnings []string
	if math.Abs(total-weightTarget) > 0.5 {
		warnings = append(warnings, fmt.Sprintf("criteria weights sum to %.1f, expected %.0f", total, weightTarget))
	}
	for _, c := range criteria {
		if c.Type != scoring.CriterionJobTitle && len(c.IdealValues) == 0 {
			warnings = append(warnings, fmt.Sprintf("criterion %q has no ideal values and will score neutral", c.Name))
		}
	}
	return criteria, warnings, nil
}

func trimValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
