package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/cubetui/internal/cube"
)

func TestDefaultSet(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if len(set.Cases) != 41 {
		t.Fatalf("expected 41 cases, got %d", len(set.Cases))
	}
	ids := set.IDs()
	for i, id := range ids {
		if id != i+1 {
			t.Fatalf("expected contiguous ids, got %v", ids)
		}
	}
	want := []string{CategoryBasic, CategoryBothInU, CategoryCornerInSlot, CategoryEdgeInSlot, CategoryBothInSlot}
	got := set.Categories()
	if len(got) != len(want) {
		t.Fatalf("unexpected categories: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected categories: %v", got)
		}
	}
}

func TestDefaultAlgorithmsSolveTheirSetup(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	for _, c := range set.Cases {
		start := cube.FromScramble(c.Setup)
		if start.IsSolved() {
			t.Fatalf("case %d: setup leaves the cube solved", c.ID)
		}
		for _, alg := range c.Algs {
			s := start
			s.ApplyScramble(alg)
			if !s.IsSolved() {
				t.Fatalf("case %d: %q does not solve setup %q", c.ID, alg, c.Setup)
			}
		}
	}
}

func TestSplitOnlyInBothInU(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	split := 0
	for _, c := range set.Cases {
		if c.Split && c.Category != CategoryBothInU {
			t.Fatalf("case %d: split outside %q", c.ID, CategoryBothInU)
		}
		if c.Split {
			split++
		}
	}
	if split == 0 {
		t.Fatalf("expected split cases")
	}
	if n := len(set.Filter("corner in u, edge in u")); n != 20 {
		t.Fatalf("expected 20 cases in filter, got %d", n)
	}
}

func TestLookup(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	c, ok := set.Lookup(2)
	if !ok || c.Algs[0] != "U' R U R'" {
		t.Fatalf("unexpected case 2: %+v", c)
	}
	if _, ok := set.Lookup(999); ok {
		t.Fatalf("expected missing case")
	}
}

func TestParseDerivesSetup(t *testing.T) {
	set, err := Parse([]byte(`
name: Test
cases:
  - id: 7
    name: Sexy
    category: Test
    algs: ["R U R' U'"]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if set.Cases[0].Setup != "U R U' R'" {
		t.Fatalf("unexpected derived setup %q", set.Cases[0].Setup)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	inputs := map[string]string{
		"empty":     "name: x\ncases: []\n",
		"duplicate": "cases:\n  - {id: 1, algs: [R]}\n  - {id: 1, algs: [U]}\n",
		"no algs":   "cases:\n  - {id: 1}\n",
		"no moves":  "cases:\n  - {id: 1, algs: [\"xyz\"]}\n",
		"bad id":    "cases:\n  - {id: 0, algs: [R]}\n",
		"bad yaml":  "cases: [",
	}
	for name, in := range inputs {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrInvalidCatalog) {
			t.Fatalf("%s: expected ErrInvalidCatalog, got %v", name, err)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oll.yaml")
	if err := os.WriteFile(path, []byte("name: OLL\ncases:\n  - {id: 1, name: Sune, category: Cross, algs: [\"R U R' U R U2 R'\"]}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	set, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if set.Name != "OLL" || len(set.Cases) != 1 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
