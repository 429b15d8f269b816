// Package main provides the CLI entrypoint for cubetui.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/cubetui/internal/catalog"
	"github.com/verte-zerg/cubetui/internal/config"
	"github.com/verte-zerg/cubetui/internal/cube"
	"github.com/verte-zerg/cubetui/internal/logging"
	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/scramble"
	"github.com/verte-zerg/cubetui/internal/stats"
	"github.com/verte-zerg/cubetui/internal/statsui"
	"github.com/verte-zerg/cubetui/internal/store"
	"github.com/verte-zerg/cubetui/internal/timer"
	"github.com/verte-zerg/cubetui/internal/training"
	"github.com/verte-zerg/cubetui/internal/trainui"
	"github.com/verte-zerg/cubetui/internal/tui"
)

var (
	globalDBPath string
	globalDebug  bool

	timerHoldTime          int
	timerPrecision         int
	timerVisualization     string
	timerShowVisualization bool
	timerShowScramble      bool
	timerHideTime          bool
	timerScrambleLength    int

	trainCatalog  string
	trainCategory string

	statsRange string
	statsLast  int
	statsPlain bool

	scrambleCount  int
	scrambleLength int
	scrambleNet    bool
	scrambleSeed   int64

	algsCatalog  string
	algsCategory string
	algsDue      bool
	algsWeak     int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cubetui",
		Short:         "Terminal speedcubing timer and algorithm trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTimerCmd,
	}

	rootCmd.PersistentFlags().StringVar(&globalDBPath, "db", "", "database path (default: $XDG_DATA_HOME/cubetui/cubetui.db)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")

	defaults := model.DefaultSettings()
	rootCmd.Flags().IntVar(&timerHoldTime, "hold-time", defaults.HoldTimeMs, "milliseconds to hold space before the timer arms")
	rootCmd.Flags().IntVar(&timerPrecision, "precision", defaults.DisplayPrecision, "decimal places shown (2 or 3)")
	rootCmd.Flags().StringVar(&timerVisualization, "visualization", defaults.VisualizationMode, "scramble preview mode (2d-net or 3d)")
	rootCmd.Flags().BoolVar(&timerShowVisualization, "show-visualization", defaults.ShowVisualization, "show the scrambled cube")
	rootCmd.Flags().BoolVar(&timerShowScramble, "show-scramble", defaults.ShowScramble, "show the scramble text")
	rootCmd.Flags().BoolVar(&timerHideTime, "hide-time", defaults.HideTimeWhileRunning, "hide the time while solving")
	rootCmd.Flags().IntVar(&timerScrambleLength, "scramble-length", scramble.DefaultLength, "moves per scramble")

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newScrambleCmd())
	rootCmd.AddCommand(newAlgsCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newRestoreCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runTimerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := newFileLogger()
	defer syncLogger(log)

	st, warning := openStore(log)
	defer closeStore(st, log)

	ctx := context.Background()
	settings, err := resolveTimerSettings(ctx, cmd, st, fileCfg)
	if err != nil {
		return err
	}
	if err := st.PutSettings(ctx, settings); err != nil {
		log.Warnw("failed to save settings", "error", err)
	}
	applyIntConfig(cmd, "scramble-length", &timerScrambleLength, fileCfg.Timer.ScrambleLength)
	if timerScrambleLength <= 0 {
		return fmt.Errorf("--scramble-length must be > 0")
	}

	m := tui.NewModel(tui.Options{
		Settings:  settings,
		Store:     st,
		Scrambles: scramble.New().WithLength(timerScrambleLength),
		Logger:    log,
		Warning:   warning,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveTimerSettings layers defaults, stored settings, the [timer] config
// section and explicit flags, in that order.
func resolveTimerSettings(ctx context.Context, cmd *cobra.Command, st store.SettingsStore, fileCfg config.FileConfig) (model.Settings, error) {
	stored, err := loadSettings(ctx, st)
	if err != nil {
		return model.Settings{}, err
	}
	applyIntConfig(cmd, "hold-time", &timerHoldTime, &stored.HoldTimeMs)
	applyIntConfig(cmd, "precision", &timerPrecision, &stored.DisplayPrecision)
	applyStringConfig(cmd, "visualization", &timerVisualization, &stored.VisualizationMode)
	applyBoolConfig(cmd, "show-visualization", &timerShowVisualization, &stored.ShowVisualization)
	applyBoolConfig(cmd, "show-scramble", &timerShowScramble, &stored.ShowScramble)
	applyBoolConfig(cmd, "hide-time", &timerHideTime, &stored.HideTimeWhileRunning)

	applyIntConfig(cmd, "hold-time", &timerHoldTime, fileCfg.Timer.HoldTime)
	applyIntConfig(cmd, "precision", &timerPrecision, fileCfg.Timer.Precision)
	applyStringConfig(cmd, "visualization", &timerVisualization, fileCfg.Timer.Visualization)
	applyBoolConfig(cmd, "show-visualization", &timerShowVisualization, fileCfg.Timer.ShowVisualization)
	applyBoolConfig(cmd, "show-scramble", &timerShowScramble, fileCfg.Timer.ShowScramble)
	applyBoolConfig(cmd, "hide-time", &timerHideTime, fileCfg.Timer.HideTime)

	settings := model.Settings{
		HoldTimeMs:           timerHoldTime,
		DisplayPrecision:     timerPrecision,
		VisualizationMode:    timerVisualization,
		ShowVisualization:    timerShowVisualization,
		ShowScramble:         timerShowScramble,
		HideTimeWhileRunning: timerHideTime,
	}
	if err := settings.Validate(); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

// loadSettings returns the stored settings, or the defaults when none were saved.
func loadSettings(ctx context.Context, st store.SettingsStore) (model.Settings, error) {
	s, err := st.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// displaySettings is the effective view for commands without timer flags.
func displaySettings(ctx context.Context, st store.SettingsStore, fileCfg config.FileConfig) model.Settings {
	s, err := loadSettings(ctx, st)
	if err != nil {
		s = model.DefaultSettings()
	}
	s = fileCfg.Timer.ApplySettings(s)
	if s.Validate() != nil {
		return model.DefaultSettings()
	}
	return s
}

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Review algorithm cases with spaced repetition",
		Args:  cobra.NoArgs,
		RunE:  runTrainCmd,
	}
	cmd.Flags().StringVar(&trainCatalog, "catalog", "", "YAML case set (default: built-in F2L)")
	cmd.Flags().StringVar(&trainCategory, "category", "", "only review cases in this category")
	return cmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "catalog", &trainCatalog, fileCfg.Training.Catalog)
	applyStringConfig(cmd, "category", &trainCategory, fileCfg.Training.Category)

	set, err := catalog.LoadOrDefault(trainCatalog)
	if err != nil {
		return err
	}
	cases := set.Filter(trainCategory)
	if len(cases) == 0 {
		return fmt.Errorf("no cases in category %q (available: %s)", trainCategory, strings.Join(set.Categories(), ", "))
	}
	ids := make([]int, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.ID)
	}

	log := newFileLogger()
	defer syncLogger(log)
	st, warning := openStore(log)
	defer closeStore(st, log)

	ctx := context.Background()
	trainer := training.NewTrainer(st, training.Options{Logger: log})
	if err := trainer.Load(ctx, ids); err != nil {
		return err
	}
	settings := displaySettings(ctx, st, fileCfg)

	m := trainui.NewModel(trainui.Options{
		Trainer: trainer,
		Catalog: set,
		ShowNet: settings.ShowVisualization,
		Logger:  log,
		Warning: warning,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run trainer TUI: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show solve statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsRange, "range", string(stats.RangeAll), "time range (7d, 30d or all)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to the last N solves")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a report instead of opening the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "range", &statsRange, fileCfg.Stats.Range)
	applyIntConfig(cmd, "last", &statsLast, fileCfg.Stats.Last)
	if _, ok := stats.ParseRange(statsRange); !ok {
		return fmt.Errorf("--range must be 7d, 30d or all")
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	cfg := model.StatsConfig{Range: statsRange, Last: statsLast}

	var log *zap.SugaredLogger
	if statsPlain {
		log = newConsoleLogger()
	} else {
		log = newFileLogger()
	}
	defer syncLogger(log)
	st, warning := openStore(log)
	defer closeStore(st, log)

	ctx := context.Background()
	settings := displaySettings(ctx, st, fileCfg)
	if statsPlain {
		report, err := stats.BuildReport(ctx, st, cfg, time.Now())
		if err != nil {
			return err
		}
		return stats.RenderReport(cmd.OutOrStdout(), report, settings.DisplayPrecision, 0, false)
	}
	if warning != "" {
		log.Warn(warning)
	}

	m := statsui.NewModel(statsui.Options{
		Store:     st,
		Config:    cfg,
		Precision: settings.DisplayPrecision,
		Logger:    log,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newScrambleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scramble",
		Short: "Print random scrambles",
		Args:  cobra.NoArgs,
		RunE:  runScrambleCmd,
	}
	cmd.Flags().IntVar(&scrambleCount, "count", 1, "number of scrambles")
	cmd.Flags().IntVar(&scrambleLength, "length", scramble.DefaultLength, "moves per scramble")
	cmd.Flags().BoolVar(&scrambleNet, "net", false, "print the scrambled cube net")
	cmd.Flags().Int64Var(&scrambleSeed, "seed", 0, "random seed (default: current time)")
	return cmd
}

func runScrambleCmd(cmd *cobra.Command, _ []string) error {
	if scrambleCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	if scrambleLength <= 0 {
		return fmt.Errorf("--length must be > 0")
	}
	gen := scramble.New()
	if cmd.Flags().Changed("seed") {
		gen = scramble.NewWithSource(rand.NewSource(scrambleSeed))
	}
	out := cmd.OutOrStdout()
	for i := 0; i < scrambleCount; i++ {
		scr := gen.GenerateN(scrambleLength)
		if scrambleCount > 1 {
			if _, err := fmt.Fprintf(out, "%d. %s\n", i+1, scr); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		} else if _, err := fmt.Fprintln(out, scr); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if scrambleNet {
			if _, err := fmt.Fprintf(out, "\n%s\n\n", cube.NetText(cube.FromScramble(scr))); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}

func newAlgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "algs",
		Short: "List algorithm cases",
		Args:  cobra.NoArgs,
		RunE:  runAlgsCmd,
	}
	cmd.Flags().StringVar(&algsCatalog, "catalog", "", "YAML case set (default: built-in F2L)")
	cmd.Flags().StringVar(&algsCategory, "category", "", "only list cases in this category")
	cmd.Flags().BoolVar(&algsDue, "due", false, "only list cases due for review today")
	cmd.Flags().IntVar(&algsWeak, "weak", 0, "list the N attempted cases with the lowest success rate")
	return cmd
}

func runAlgsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "catalog", &algsCatalog, fileCfg.Training.Catalog)

	set, err := catalog.LoadOrDefault(algsCatalog)
	if err != nil {
		return err
	}
	cases := set.Filter(algsCategory)
	if len(cases) == 0 {
		return fmt.Errorf("no cases in category %q (available: %s)", algsCategory, strings.Join(set.Categories(), ", "))
	}
	if algsWeak < 0 {
		return fmt.Errorf("--weak must not be negative")
	}
	if algsDue || algsWeak > 0 {
		st, err := openStoreStrict()
		if err != nil {
			return err
		}
		log := newConsoleLogger()
		defer syncLogger(log)
		defer closeStore(st, log)

		cases, err = selectByProgress(context.Background(), st, cases, algsDue, algsWeak, timer.Today(time.Now()))
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No matching cases.")
			return err
		}
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), renderCaseTable(cases)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// selectByProgress narrows cases to those due today and/or to the weak
// weakest attempted ones, weakest first.
func selectByProgress(ctx context.Context, st store.ProgressStore, cases []catalog.AlgCase, due bool, weak int, today string) ([]catalog.AlgCase, error) {
	byID := make(map[int]catalog.AlgCase, len(cases))
	for _, c := range cases {
		byID[c.ID] = c
	}
	var list []model.AlgorithmProgress
	var err error
	if due {
		list, err = st.ListDueProgress(ctx, today)
	} else {
		list, err = st.ListProgress(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	known := list[:0]
	for _, p := range list {
		if _, ok := byID[p.CaseID]; ok {
			known = append(known, p)
		}
	}
	if weak > 0 {
		known = training.WeakestCases(known, weak)
	}
	out := make([]catalog.AlgCase, 0, len(known))
	for _, p := range known {
		out = append(out, byID[p.CaseID])
	}
	return out, nil
}

func renderCaseTable(cases []catalog.AlgCase) string {
	rows := make([][]string, 0, len(cases))
	for _, c := range cases {
		rows = append(rows, []string{fmt.Sprintf("%d", c.ID), c.Name, c.Category, c.Setup, strings.Join(c.Algs, " / ")})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Category", "Setup", "Algorithm").
		Rows(rows...).
		String()
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template(model.DefaultSettings(), scramble.DefaultLength)), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func dbPath() string {
	if globalDBPath != "" {
		return globalDBPath
	}
	return config.DefaultDBPath()
}

// openStore opens the database, falling back to memory. The returned warning
// is empty when the database opened.
func openStore(log *zap.SugaredLogger) (store.Client, string) {
	path := dbPath()
	st, err := store.OpenOrMemory(path)
	if err != nil {
		log.Errorw("failed to open db, using memory storage", "path", path, "error", err)
		return st, fmt.Sprintf("storage unavailable, solves will not be saved: %v", err)
	}
	return st, ""
}

// openStoreStrict opens the database for commands whose output would be lost in memory.
func openStoreStrict() (store.Client, error) {
	st, err := store.Open(dbPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st store.Client, log *zap.SugaredLogger) {
	if cerr := st.Close(); cerr != nil {
		log.Warnw("failed to close db", "error", cerr)
	}
}

// newFileLogger logs to the state file so output never draws over a TUI.
func newFileLogger() *zap.SugaredLogger {
	log, err := logging.New(config.DefaultLogPath(), globalDebug)
	if err != nil {
		logErrf("failed to open log file: %v\n", err)
		return logging.Nop()
	}
	return log
}

func newConsoleLogger() *zap.SugaredLogger {
	log, err := logging.New("", globalDebug)
	if err != nil {
		logErrf("failed to create logger: %v\n", err)
		return logging.Nop()
	}
	return log
}

func syncLogger(log *zap.SugaredLogger) {
	// Sync fails on terminals; nothing useful can be done about it.
	_ = log.Sync()
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

// formatDate renders a solve timestamp range bound for previews.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timer.DateLayout)
}
