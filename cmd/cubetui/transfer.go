package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cubetui/internal/interop"
	"github.com/verte-zerg/cubetui/internal/store"
	"github.com/verte-zerg/cubetui/internal/timer"
)

const (
	formatCsTimer  = "cstimer"
	formatBackup   = "backup"
	formatTraining = "training"
)

var (
	importDistribute bool
	importStart      string
	importDryRun     bool

	exportFormat string
	restoreKind  string

	clearSolves   bool
	clearTraining bool
	clearYes      bool
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import solves from a csTimer export",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().BoolVar(&importDistribute, "distribute", false, "spread solves evenly from --start to now")
	cmd.Flags().StringVar(&importStart, "start", "", "first solve date for --distribute (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&importDryRun, "dry-run", false, "only show what would be imported")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	now := time.Now()
	cfg := interop.ImportConfig{DistributeEvenly: importDistribute, Now: now}
	if importDistribute {
		if importStart == "" {
			return fmt.Errorf("--start is required with --distribute")
		}
		start, err := time.ParseInLocation(timer.DateLayout, importStart, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid --start value: %w", err)
		}
		if start.After(now) {
			return fmt.Errorf("--start must not be in the future")
		}
		cfg.StartDate = start
	}

	preview, err := interop.PreviewCsTimer(data)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Found %d solves in %d sessions (%s to %s)\n",
		preview.Count, preview.Sessions, formatDate(preview.First), formatDate(preview.Last)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if importDryRun {
		return nil
	}

	solves, err := interop.ImportCsTimer(data, cfg)
	if err != nil {
		return err
	}
	st, err := openStoreStrict()
	if err != nil {
		return err
	}
	log := newConsoleLogger()
	defer syncLogger(log)
	defer closeStore(st, log)

	if err := st.AddSolves(context.Background(), solves); err != nil {
		return fmt.Errorf("failed to save solves: %w", err)
	}
	log.Infow("imported solves", "count", len(solves), "file", args[0])
	if _, err := fmt.Fprintf(out, "Imported %d solves\n", len(solves)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export solves or training progress (use - for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", formatCsTimer, "cstimer, backup or training")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	st, err := openStoreStrict()
	if err != nil {
		return err
	}
	log := newConsoleLogger()
	defer syncLogger(log)
	defer closeStore(st, log)

	data, err := exportData(context.Background(), st, exportFormat, time.Now())
	if err != nil {
		return err
	}
	if args[0] == "-" {
		if _, err := cmd.OutOrStdout().Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := writeFileAtomic(args[0], data); err != nil {
		return err
	}
	logErrf("Wrote %s\n", args[0])
	return nil
}

func exportData(ctx context.Context, st store.Client, format string, now time.Time) ([]byte, error) {
	switch strings.ToLower(format) {
	case formatCsTimer:
		solves, err := st.ListSolves(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list solves: %w", err)
		}
		return interop.ExportCsTimer(solves)
	case formatBackup:
		return interop.ExportBackup(ctx, st, now)
	case formatTraining:
		return interop.ExportTraining(ctx, st, now)
	default:
		return nil, fmt.Errorf("--format must be %s, %s or %s", formatCsTimer, formatBackup, formatTraining)
	}
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore a backup written by export",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestoreCmd,
	}
	cmd.Flags().StringVar(&restoreKind, "kind", formatBackup, "backup or training")
	return cmd
}

func runRestoreCmd(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	st, err := openStoreStrict()
	if err != nil {
		return err
	}
	log := newConsoleLogger()
	defer syncLogger(log)
	defer closeStore(st, log)

	res, err := restoreData(context.Background(), st, restoreKind, data)
	if err != nil {
		return err
	}
	log.Infow("restored backup", "file", args[0], "solves", res.Solves, "progress", res.Progress, "sessions", res.Sessions)
	return writeRestoreSummary(cmd.OutOrStdout(), res)
}

func restoreData(ctx context.Context, st store.Client, kind string, data []byte) (interop.RestoreResult, error) {
	switch strings.ToLower(kind) {
	case formatBackup:
		return interop.RestoreBackup(ctx, st, data)
	case formatTraining:
		return interop.RestoreTraining(ctx, st, data)
	default:
		return interop.RestoreResult{}, fmt.Errorf("--kind must be %s or %s", formatBackup, formatTraining)
	}
}

func writeRestoreSummary(w io.Writer, res interop.RestoreResult) error {
	parts := []string{}
	if res.Solves > 0 {
		parts = append(parts, fmt.Sprintf("%d solves", res.Solves))
	}
	if res.Settings {
		parts = append(parts, "settings")
	}
	if res.Progress > 0 {
		parts = append(parts, fmt.Sprintf("%d progress records", res.Progress))
	}
	if res.Sessions > 0 {
		parts = append(parts, fmt.Sprintf("%d sessions", res.Sessions))
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing")
	}
	if _, err := fmt.Fprintf(w, "Restored %s\n", strings.Join(parts, ", ")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete stored solves and/or training progress",
		Args:  cobra.NoArgs,
		RunE:  runClearCmd,
	}
	cmd.Flags().BoolVar(&clearSolves, "solves", false, "delete all solves")
	cmd.Flags().BoolVar(&clearTraining, "training", false, "delete training progress and sessions")
	cmd.Flags().BoolVar(&clearYes, "yes", false, "do not ask for confirmation")
	return cmd
}

func runClearCmd(cmd *cobra.Command, _ []string) error {
	if !clearSolves && !clearTraining {
		return fmt.Errorf("choose what to clear with --solves and/or --training")
	}
	what := clearTargets(clearSolves, clearTraining)
	if !clearYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete all %s?", what))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	st, err := openStoreStrict()
	if err != nil {
		return err
	}
	log := newConsoleLogger()
	defer syncLogger(log)
	defer closeStore(st, log)

	if err := clearData(context.Background(), st, clearSolves, clearTraining); err != nil {
		return err
	}
	log.Infow("cleared data", "solves", clearSolves, "training", clearTraining)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted all %s\n", what); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func clearTargets(solves, training bool) string {
	switch {
	case solves && training:
		return "solves and training progress"
	case solves:
		return "solves"
	default:
		return "training progress"
	}
}

func clearData(ctx context.Context, st store.Client, solves, training bool) error {
	if solves {
		if err := st.ClearSolves(ctx); err != nil {
			return fmt.Errorf("failed to clear solves: %w", err)
		}
	}
	if training {
		if err := st.ClearProgress(ctx); err != nil {
			return fmt.Errorf("failed to clear progress: %w", err)
		}
		if err := st.ClearSessions(ctx); err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s [y/N] ", question); err != nil {
		return false, fmt.Errorf("failed to write output: %w", err)
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "cubetui-export-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
