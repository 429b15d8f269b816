// Package catalog loads algorithm case sets from YAML.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/cubetui/internal/cube"
	"github.com/verte-zerg/cubetui/internal/scramble"
)

//go:embed f2l.yaml
var defaultF2L []byte

// ErrInvalidCatalog is returned when a catalog fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// F2L categories.
const (
	CategoryBasic        = "Basic Inserts"
	CategoryBothInU      = "Corner in U, Edge in U"
	CategoryCornerInSlot = "Corner in Slot, Edge in U"
	CategoryEdgeInSlot   = "Corner in U, Edge in Slot"
	CategoryBothInSlot   = "Both in Slot"
)

// AlgCase is one algorithm case.
type AlgCase struct {
	ID       int      `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Category string   `yaml:"category" json:"category"`
	Algs     []string `yaml:"algs" json:"algs"`
	// Setup, applied to a solved cube, produces the case.
	Setup string `yaml:"setup,omitempty" json:"setup,omitempty"`
	Split bool   `yaml:"split,omitempty" json:"split,omitempty"`
}

// AlgSet is a named collection of cases.
type AlgSet struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Cases       []AlgCase `yaml:"cases"`

	byID map[int]int
}

// Default returns the built-in F2L set.
func Default() (*AlgSet, error) {
	return Parse(defaultF2L)
}

// Load reads a set from a YAML file.
func Load(path string) (*AlgSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// LoadOrDefault loads path when it is set, otherwise the built-in set.
func LoadOrDefault(path string) (*AlgSet, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return Load(path)
}

// Parse decodes and validates a YAML set. Cases without a setup get the
// inverse of their first algorithm.
func Parse(data []byte) (*AlgSet, error) {
	var set AlgSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	for i := range set.Cases {
		if strings.TrimSpace(set.Cases[i].Setup) == "" {
			set.Cases[i].Setup = scramble.Invert(set.Cases[i].Algs[0])
		}
	}
	set.index()
	return &set, nil
}

// Validate checks ids and algorithms.
func (s *AlgSet) Validate() error {
	if len(s.Cases) == 0 {
		return fmt.Errorf("%w: no cases", ErrInvalidCatalog)
	}
	seen := make(map[int]bool, len(s.Cases))
	for _, c := range s.Cases {
		if c.ID <= 0 {
			return fmt.Errorf("%w: case %q has non-positive id %d", ErrInvalidCatalog, c.Name, c.ID)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate case id %d", ErrInvalidCatalog, c.ID)
		}
		seen[c.ID] = true
		if len(c.Algs) == 0 {
			return fmt.Errorf("%w: case %d has no algorithms", ErrInvalidCatalog, c.ID)
		}
		for _, alg := range c.Algs {
			if len(cube.ParseTurns(alg)) == 0 {
				return fmt.Errorf("%w: case %d algorithm %q has no moves", ErrInvalidCatalog, c.ID, alg)
			}
		}
	}
	return nil
}

func (s *AlgSet) index() {
	s.byID = make(map[int]int, len(s.Cases))
	for i, c := range s.Cases {
		s.byID[c.ID] = i
	}
}

// Lookup returns the case with the given id.
func (s *AlgSet) Lookup(id int) (AlgCase, bool) {
	if s.byID == nil {
		s.index()
	}
	i, ok := s.byID[id]
	if !ok {
		return AlgCase{}, false
	}
	return s.Cases[i], true
}

// IDs returns case ids in ascending order.
func (s *AlgSet) IDs() []int {
	ids := make([]int, 0, len(s.Cases))
	for _, c := range s.Cases {
		ids = append(ids, c.ID)
	}
	sort.Ints(ids)
	return ids
}

// Categories returns categories in order of first appearance.
func (s *AlgSet) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range s.Cases {
		if !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	return out
}

// Filter returns the cases in category, or all cases when category is empty.
// Matching ignores case.
func (s *AlgSet) Filter(category string) []AlgCase {
	if category == "" {
		return append([]AlgCase(nil), s.Cases...)
	}
	var out []AlgCase
	for _, c := range s.Cases {
		if strings.EqualFold(c.Category, category) {
			out = append(out, c)
		}
	}
	return out
}
