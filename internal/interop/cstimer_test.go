package interop

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
)

const sample = `{
  "session2": [
    [[0, 15000], "F B", "", 1710000300],
    "junk",
    [[2000, 9000], "L R", "fast", 1710000100]
  ],
  "session1": [
    [[-1, 12000], "R U", "", 1710000200],
    [[5, 11000], "U D", "", 1710000400],
    [[0, 11000], 42, "", 1710000500],
    [[0, null], "U", "", 1710000600]
  ],
  "session3": [],
  "properties": {"sessionData": "{}"}
}`

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestParseCsTimerSortsAndFilters(t *testing.T) {
	solves, err := ParseCsTimer([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(solves) != 4 {
		t.Fatalf("expected 4 solves, got %d", len(solves))
	}
	want := []int64{1710000100, 1710000200, 1710000300, 1710000400}
	for i, ts := range want {
		if solves[i].Timestamp != ts {
			t.Fatalf("solve %d: expected timestamp %d, got %d", i, ts, solves[i].Timestamp)
		}
	}
}

func TestImportCsTimerKeepsTimestamps(t *testing.T) {
	solves, err := ImportCsTimer([]byte(sample), ImportConfig{NewID: counterIDs()})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	first := solves[0]
	if first.ID != "id-1" || first.Penalty != model.PenaltyPlusTwo || first.Comment != "fast" || first.Time != 9000 {
		t.Fatalf("unexpected first solve: %+v", first)
	}
	if first.Date != "2024-03-09" {
		t.Fatalf("unexpected date %q", first.Date)
	}
	if solves[1].Penalty != model.PenaltyDNF {
		t.Fatalf("expected DNF, got %v", solves[1].Penalty)
	}
	if solves[3].Penalty != model.PenaltyNone {
		t.Fatalf("unknown penalty codes must become none, got %v", solves[3].Penalty)
	}
	if solves[2].Comment != "" {
		t.Fatalf("empty comment must stay empty")
	}
}

func TestImportCsTimerDistributesEvenly(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(30 * time.Second)
	solves, err := ImportCsTimer([]byte(sample), ImportConfig{
		DistributeEvenly: true,
		StartDate:        start,
		Now:              now,
		NewID:            counterIDs(),
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	for i, s := range solves {
		want := start.Unix() + int64(i*10)
		if s.Timestamp != want {
			t.Fatalf("solve %d: expected %d, got %d", i, want, s.Timestamp)
		}
	}
	// Original order survives redistribution.
	if solves[0].Time != 9000 || solves[3].Time != 11000 {
		t.Fatalf("order changed: %+v", solves)
	}
	if solves[0].Date != "2024-01-01" {
		t.Fatalf("unexpected date %q", solves[0].Date)
	}
}

func TestImportCsTimerSingleSolveGetsStart(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 900_000_000, time.UTC)
	data := `{"session1": [[[0, 1000], "R", "", 5]]}`
	solves, err := ImportCsTimer([]byte(data), ImportConfig{DistributeEvenly: true, StartDate: start, Now: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(solves) != 1 || solves[0].Timestamp != start.Unix() {
		t.Fatalf("expected start timestamp, got %+v", solves)
	}
	if solves[0].ID == "" {
		t.Fatalf("expected a generated id")
	}
}

func TestImportCsTimerMalformed(t *testing.T) {
	for name, in := range map[string]string{
		"not json":  "csTimer",
		"array":     "[1, 2]",
		"no solves": `{"session1": [], "properties": {}}`,
		"truncated": `{"session1": [[[0, 1], "R", "", 1]`,
	} {
		if _, err := ImportCsTimer([]byte(in), ImportConfig{}); !errors.Is(err, ErrMalformedImport) {
			t.Fatalf("%s: expected ErrMalformedImport, got %v", name, err)
		}
	}
}

func TestPreviewCsTimer(t *testing.T) {
	p, err := PreviewCsTimer([]byte(sample))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if p.Count != 4 || p.Sessions != 2 {
		t.Fatalf("unexpected preview: %+v", p)
	}
	if p.First.Unix() != 1710000100 || p.Last.Unix() != 1710000400 {
		t.Fatalf("unexpected range: %v - %v", p.First, p.Last)
	}

	empty, err := PreviewCsTimer([]byte(`{"properties": {}}`))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if empty.Count != 0 || !empty.First.IsZero() {
		t.Fatalf("unexpected empty preview: %+v", empty)
	}
}

func TestExportCsTimerExactShape(t *testing.T) {
	solves := []model.SolveResult{
		{ID: "a", Time: 12345, Penalty: model.PenaltyNone, Scramble: "R U R'", Timestamp: 1710000000},
		{ID: "b", Time: 9000, Penalty: model.PenaltyDNF, Scramble: "F2 <B>", Comment: "pop", Timestamp: 1710000060},
	}
	got, err := ExportCsTimer(solves)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := `{"session1":[[[0,12345],"R U R'","",1710000000],[[-1,9000],"F2 <B>","pop",1710000060]],` +
		`"properties":{"sessionData":"{\"1\":{\"name\":1,\"opt\":{},\"rank\":1,\"stat\":[2,1,-1]}}"}}`
	if string(got) != want {
		t.Fatalf("unexpected export:\n got %s\nwant %s", got, want)
	}

	empty, err := ExportCsTimer(nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(empty) != `{"session1":[],"properties":{"sessionData":"{\"1\":{\"name\":1,\"opt\":{},\"rank\":1,\"stat\":[0,1,-1]}}"}}` {
		t.Fatalf("unexpected empty export: %s", empty)
	}
}

func TestCsTimerRoundTrip(t *testing.T) {
	in := []model.SolveResult{
		{ID: "a", Time: 12345, Penalty: model.PenaltyPlusTwo, Scramble: "R U", Comment: "note", Timestamp: 1710000000},
		{ID: "b", Time: 8000, Penalty: model.PenaltyDNF, Scramble: "F", Timestamp: 1710000100},
		{ID: "c", Time: 9999, Scramble: "D'", Timestamp: 1710000200},
	}
	data, err := ExportCsTimer(in)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out, err := ImportCsTimer(data, ImportConfig{NewID: counterIDs()})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d solves, got %d", len(in), len(out))
	}
	for i := range in {
		a, b := in[i], out[i]
		if a.Time != b.Time || a.Penalty != b.Penalty || a.Scramble != b.Scramble || a.Comment != b.Comment || a.Timestamp != b.Timestamp {
			t.Fatalf("solve %d differs: %+v vs %+v", i, a, b)
		}
	}
}
