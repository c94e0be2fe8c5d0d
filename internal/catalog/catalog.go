// Package catalog holds the built-in exercise catalog used by the routine engine and
// the weight suggestion service.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"fitcoach-backend/internal/weights"
)

//go:embed exercises.yaml
var builtinCatalog []byte

// ErrExerciseNotFound is returned by Get for unknown exercise IDs.
var ErrExerciseNotFound = errors.New("exercise not found in catalog")

// Exercise is one catalog entry.
type Exercise struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	MuscleGroup string         `yaml:"muscle_group" json:"muscleGroup"`
	Equipment   string         `yaml:"equipment" json:"equipment"`
	Technique   string         `yaml:"technique" json:"technique"`
	Ratio       *weights.Ratio `yaml:"ratio,omitempty" json:"ratio,omitempty"`
}

// IsCompound reports whether the exercise is a multi-joint movement.
func (e Exercise) IsCompound() bool {
	return e.Technique == "compound"
}

// Catalog is an immutable, ID-indexed exercise list. Safe for concurrent use.
type Catalog struct {
	exercises []Exercise
	byID      map[string]Exercise
}

type catalogFile struct {
	Exercises []Exercise `yaml:"exercises"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(builtinCatalog)
}

// MustLoad is Load for package-level initialisation and tests.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a Catalog from YAML. Duplicate or empty IDs are rejected.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse exercise catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]Exercise, len(file.Exercises))}
	for _, ex := range file.Exercises {
		if ex.ID == "" {
			return nil, errors.New("exercise catalog entry without id")
		}
		if _, dup := c.byID[ex.ID]; dup {
			return nil, fmt.Errorf("duplicate exercise id '%s' in catalog", ex.ID)
		}
		if !weights.IsKnownEquipment(ex.Equipment) {
			return nil, fmt.Errorf("exercise '%s' has unknown equipment '%s'", ex.ID, ex.Equipment)
		}
		c.byID[ex.ID] = ex
		c.exercises = append(c.exercises, ex)
	}
	return c, nil
}

// Get returns the exercise with the given ID.
func (c *Catalog) Get(id string) (Exercise, error) {
	ex, ok := c.byID[id]
	if !ok {
		return Exercise{}, fmt.Errorf("%w: '%s'", ErrExerciseNotFound, id)
	}
	return ex, nil
}

// All returns a copy of every exercise in catalog order.
func (c *Catalog) All() []Exercise {
	out := make([]Exercise, len(c.exercises))
	copy(out, c.exercises)
	return out
}

// Filter returns exercises for muscleGroup usable with the given equipment. Bodyweight
// exercises always qualify. A nil equipment set means "any equipment".
// Compound movements come first; ties keep catalog order.
func (c *Catalog) Filter(muscleGroup string, equipment map[string]bool) []Exercise {
	var out []Exercise
	for _, ex := range c.exercises {
		if ex.MuscleGroup != muscleGroup {
			continue
		}
		if equipment != nil && ex.Equipment != weights.EquipmentBodyweight && !equipment[ex.Equipment] {
			continue
		}
		out = append(out, ex)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsCompound() && !out[j].IsCompound()
	})
	return out
}
