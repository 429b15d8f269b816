package interop

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/store"
)

var exportTime = time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemory()
	solves := []model.SolveResult{
		{ID: "a", Time: 12000, Scramble: "R U", Timestamp: 1710000000, Date: "2024-03-09"},
		{ID: "b", Time: 9000, Penalty: model.PenaltyDNF, Scramble: "F", Comment: "lockup", Timestamp: 1710000100, Date: "2024-03-09"},
	}
	if err := src.AddSolves(ctx, solves); err != nil {
		t.Fatalf("add solves: %v", err)
	}
	settings := model.DefaultSettings()
	settings.HoldTimeMs = 700
	if err := src.PutSettings(ctx, settings); err != nil {
		t.Fatalf("put settings: %v", err)
	}

	data, err := ExportBackup(ctx, src, exportTime)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("backup is not JSON: %v", err)
	}
	if decoded["exportedAt"] != "2024-03-10T08:30:00.000Z" || decoded["version"] != float64(1) {
		t.Fatalf("unexpected envelope: %v", decoded)
	}
	if !strings.Contains(string(data), `"holdTime": 700`) {
		t.Fatalf("settings missing from backup:\n%s", data)
	}

	dst := store.NewMemory()
	res, err := RestoreBackup(ctx, dst, data)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if res.Solves != 2 || !res.Settings {
		t.Fatalf("unexpected result: %+v", res)
	}
	got, err := dst.ListSolves(ctx)
	if err != nil {
		t.Fatalf("list solves: %v", err)
	}
	if len(got) != 2 || got[1] != solves[1] {
		t.Fatalf("unexpected restored solves: %+v", got)
	}
	restored, err := dst.GetSettings(ctx)
	if err != nil || restored.HoldTimeMs != 700 {
		t.Fatalf("unexpected restored settings: %+v, %v", restored, err)
	}

	// Restoring again replaces by id instead of duplicating.
	if _, err := RestoreBackup(ctx, dst, data); err != nil {
		t.Fatalf("second restore: %v", err)
	}
	got, _ = dst.ListSolves(ctx)
	if len(got) != 2 {
		t.Fatalf("expected 2 solves after second restore, got %d", len(got))
	}
}

func TestExportBackupDefaultsSettings(t *testing.T) {
	data, err := ExportBackup(context.Background(), store.NewMemory(), exportTime)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Settings != model.DefaultSettings() || b.Solves == nil || len(b.Solves) != 0 {
		t.Fatalf("unexpected backup: %+v", b)
	}
}

func TestRestoreBackupValidatesFirst(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":      "{",
		"version":       `{"solves": [], "version": 2}`,
		"missing id":    `{"solves": [{"time": 100, "timestamp": 1}], "version": 1}`,
		"empty":         `{"solves": [], "version": 1}`,
		"bad settings":  `{"solves": [{"id": "x", "time": 1, "timestamp": 1}], "settings": {"holdTime": "slow"}, "version": 1}`,
		"negative time": `{"solves": [{"id": "x", "time": -5, "timestamp": 1}], "version": 1}`,
	}
	for name, in := range cases {
		st := store.NewMemory()
		if _, err := RestoreBackup(ctx, st, []byte(in)); !errors.Is(err, ErrMalformedImport) {
			t.Fatalf("%s: expected ErrMalformedImport, got %v", name, err)
		}
		if solves, _ := st.ListSolves(ctx); len(solves) != 0 {
			t.Fatalf("%s: nothing may be written", name)
		}
	}

	st := store.NewMemory()
	invalid := `{"solves": [{"id": "x", "time": 1, "timestamp": 1}], "settings": {"holdTime": 50}, "version": 1}`
	if _, err := RestoreBackup(ctx, st, []byte(invalid)); !errors.Is(err, model.ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	if solves, _ := st.ListSolves(ctx); len(solves) != 0 {
		t.Fatalf("nothing may be written on invalid settings")
	}
}

func TestRestoreBackupRecomputesDate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	in := `{"solves": [{"id": "x", "time": 1000, "penalty": 7, "timestamp": 1710000000, "date": "1999-01-01"}], "version": 1}`
	res, err := RestoreBackup(ctx, st, []byte(in))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if res.Settings {
		t.Fatalf("no settings were in the backup")
	}
	s, err := st.GetSolve(ctx, "x")
	if err != nil {
		t.Fatalf("get solve: %v", err)
	}
	if s.Date != "2024-03-09" || s.Penalty != model.PenaltyNone {
		t.Fatalf("unexpected solve: %+v", s)
	}
}

func TestTrainingBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemory()
	p := model.AlgorithmProgress{CaseID: 3, EaseFactor: 2.6, Interval: 6, Repetitions: 2, NextReviewDate: "2024-03-16", TotalAttempts: 2, FullConfidence: 2}
	if err := src.PutProgress(ctx, p); err != nil {
		t.Fatalf("put progress: %v", err)
	}
	if _, err := src.MergeSession(ctx, model.TrainingSession{Date: "2024-03-10", AlgorithmsReviewed: 4, MasteredCount: 1}); err != nil {
		t.Fatalf("merge session: %v", err)
	}

	data, err := ExportTraining(ctx, src, exportTime)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(data), `"caseId": 3`) || !strings.Contains(string(data), `"algorithmsReviewed": 4`) {
		t.Fatalf("unexpected training backup:\n%s", data)
	}

	dst := store.NewMemory()
	if _, err := dst.MergeSession(ctx, model.TrainingSession{Date: "2024-03-10", AlgorithmsReviewed: 10}); err != nil {
		t.Fatalf("merge session: %v", err)
	}
	res, err := RestoreTraining(ctx, dst, data)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if res.Progress != 1 || res.Sessions != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got, err := dst.GetProgress(ctx, 3)
	if err != nil || got != p {
		t.Fatalf("unexpected progress: %+v, %v", got, err)
	}
	sessions, _ := dst.ListSessions(ctx)
	if len(sessions) != 1 || sessions[0].AlgorithmsReviewed != 4 {
		t.Fatalf("restored session must replace the stored one: %+v", sessions)
	}
}

func TestRestoreTrainingMalformed(t *testing.T) {
	ctx := context.Background()
	for name, in := range map[string]string{
		"not json":                "nope",
		"version":                 `{"progress": [], "sessions": [], "version": 3}`,
		"case id":                 `{"progress": [{"caseId": 0}], "version": 1}`,
		"bad date":                `{"sessions": [{"date": "10/03/2024"}], "version": 1}`,
		"low ease":                `{"progress": [{"caseId": 1, "easeFactor": 1.2, "nextReviewDate": "2024-03-10"}], "version": 1}`,
		"interval cap":            `{"progress": [{"caseId": 1, "easeFactor": 2.5, "interval": 400, "repetitions": 5, "nextReviewDate": "2024-03-10"}], "version": 1}`,
		"interval without streak": `{"progress": [{"caseId": 1, "easeFactor": 2.5, "interval": 6, "repetitions": 0, "nextReviewDate": "2024-03-10"}], "version": 1}`,
		"bad next review":         `{"progress": [{"caseId": 1, "easeFactor": 2.5, "nextReviewDate": "soon"}], "version": 1}`,
	} {
		mem := store.NewMemory()
		if _, err := RestoreTraining(ctx, mem, []byte(in)); !errors.Is(err, ErrMalformedImport) {
			t.Fatalf("%s: expected ErrMalformedImport, got %v", name, err)
		}
		if progress, _ := mem.ListProgress(ctx); len(progress) != 0 {
			t.Fatalf("%s: nothing may be written, got %+v", name, progress)
		}
	}
}
