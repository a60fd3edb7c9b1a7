// Package main provides the CLI entrypoint for kewen.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kewen/internal/config"
	"github.com/verte-zerg/kewen/internal/deck"
	"github.com/verte-zerg/kewen/internal/model"
	"github.com/verte-zerg/kewen/internal/quiz"
	"github.com/verte-zerg/kewen/internal/session"
	"github.com/verte-zerg/kewen/internal/stats"
	"github.com/verte-zerg/kewen/internal/statsui"
	"github.com/verte-zerg/kewen/internal/tui"
)

const (
	defaultBook        = "hsk1"
	defaultChapter     = "1"
	defaultKind        = string(model.KindVocabulary)
	defaultCount       = 10
	defaultPoints      = 10
	defaultTimeoutMs   = 15000
	defaultValidateMs  = 8000
	defaultWindow      = 10
	defaultDriver      = "sqlite"
	defaultAutoMigrate = true
	localUserID        = "local"
	deckFetchTimeout   = 30 * time.Second
)

var (
	practiceBook    string
	practiceChapter string
	practiceKind    string
	practiceCount   int
	practicePoints  int
	practiceDeck    string
	practiceFresh   bool

	statsKind   string
	statsSince  string
	statsLast   int
	statsWindow int
	statsPlain  bool

	fetchForce bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kewen",
		Short:         "Textbook quiz trainer for Chinese",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceBook, "book", defaultBook, "textbook id")
	rootCmd.Flags().StringVar(&practiceChapter, "chapter", defaultChapter, "chapter id")
	rootCmd.Flags().StringVar(&practiceKind, "kind", defaultKind, "exercise kind ("+kindList()+")")
	rootCmd.Flags().IntVar(&practiceCount, "count", defaultCount, "questions per quiz")
	rootCmd.Flags().IntVar(&practicePoints, "points", defaultPoints, "points per question")
	rootCmd.Flags().StringVar(&practiceDeck, "deck", "", "generate quizzes from a local deck file")
	rootCmd.Flags().BoolVar(&practiceFresh, "fresh", false, "discard a saved session and start a new quiz")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDecksCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "book", &practiceBook, fileCfg.Practice.Book)
	applyStringConfig(cmd, "chapter", &practiceChapter, fileCfg.Practice.Chapter)
	applyStringConfig(cmd, "kind", &practiceKind, fileCfg.Practice.Kind)
	applyIntConfig(cmd, "count", &practiceCount, fileCfg.Practice.Count)
	applyIntConfig(cmd, "points", &practicePoints, fileCfg.Practice.PointsPerQuestion)
	applyStringConfig(cmd, "deck", &practiceDeck, fileCfg.Practice.Deck)

	req := model.QuizRequest{
		BookID:    practiceBook,
		ChapterID: practiceChapter,
		Kind:      model.ExerciseKind(practiceKind),
		Count:     practiceCount,
	}
	if err := validatePractice(req, practicePoints); err != nil {
		return err
	}

	logger, closeLog := openLogger()
	defer closeLog()

	rt, err := openRuntime(context.Background(), fileCfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	source, err := rt.quizSource(req, practiceDeck)
	if err != nil {
		return err
	}

	ctrl := quiz.New(session.NewStore(), rt.validator, rt.gateway, quiz.Config{
		PointsPerQuestion: practicePoints,
		Logger:            logger,
	})

	sessionPath := config.DefaultSessionPath()
	if practiceFresh {
		if err := session.RemoveFile(sessionPath); err != nil {
			logErrf("%v\n", err)
		}
	} else {
		restoreSession(cmd, ctrl, sessionPath, req)
	}

	m := tui.NewModel(ctrl, source, req, rt.store, rt.userID())
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, runErr := program.Run()

	if ctrl.HasActiveQuiz() && !ctrl.IsComplete() {
		if err := session.SaveFile(sessionPath, ctrl.Store().Snapshot()); err != nil {
			logErrf("failed to save session: %v\n", err)
		}
	} else if err := session.RemoveFile(sessionPath); err != nil {
		logErrf("%v\n", err)
	}
	ctrl.Wait()

	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

// restoreSession loads a saved session into ctrl. A session saved for a
// different book, chapter or kind is kept on disk only when those flags were
// not given explicitly.
func restoreSession(cmd *cobra.Command, ctrl *quiz.Controller, path string, req model.QuizRequest) {
	snap, ok, err := session.LoadFile(path)
	if err != nil {
		logErrf("ignoring saved session: %v\n", err)
		return
	}
	if !ok || snap.QuizID == "" || len(snap.Questions) == 0 {
		return
	}
	if !sessionMatches(cmd, snap.Meta, req) {
		return
	}
	ctrl.Store().Restore(snap)
	if err := ctrl.Resume(context.Background()); err != nil {
		logErrf("failed to resume session: %v\n", err)
		ctrl.Continue()
	}
}

func sessionMatches(cmd *cobra.Command, meta model.QuizMeta, req model.QuizRequest) bool {
	if cmd.Flags().Changed("book") && meta.BookID != req.BookID {
		return false
	}
	if cmd.Flags().Changed("chapter") && meta.ChapterID != req.ChapterID {
		return false
	}
	if cmd.Flags().Changed("kind") && meta.Kind != req.Kind {
		return false
	}
	return true
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
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
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

func newDecksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "List local decks",
		Args:  cobra.NoArgs,
		RunE:  runDecksCmd,
	}
	fetch := &cobra.Command{
		Use:   "fetch URL",
		Short: "Download a deck file",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecksFetchCmd,
	}
	fetch.Flags().BoolVar(&fetchForce, "force", false, "overwrite an existing deck")
	cmd.AddCommand(fetch)
	return cmd
}

func runDecksCmd(cmd *cobra.Command, _ []string) error {
	books, err := deck.List(config.DefaultDeckDir())
	if err != nil {
		return fmt.Errorf("failed to list decks: %w", err)
	}
	if len(books) == 0 {
		logErrf("No decks found. Download with: kewen decks fetch <url>\n")
		return fmt.Errorf("no decks found")
	}
	for _, book := range books {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), book); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runDecksFetchCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), deckFetchTimeout)
	defer cancel()
	fetched, err := deck.Fetch(ctx, args[0], config.DefaultDeckDir(), fetchForce)
	if err != nil {
		return err
	}
	msg := "saved"
	if fetched.Cached {
		msg = "already present (use --force to replace)"
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", fetched.Book, fetched.Path, msg); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show quiz history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsKind, "kind", "", "exercise kind filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N quizzes")
	cmd.Flags().IntVar(&statsWindow, "window", defaultWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildStatsConfig(statsKind, statsSince, statsLast, statsWindow)
	if err != nil {
		return err
	}

	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	logger, closeLog := openLogger()
	defer closeLog()

	ctx := context.Background()
	rt, err := openRuntime(ctx, fileCfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg.UserID = rt.userID()

	if statsPlain {
		report, err := stats.BuildReport(ctx, rt.store, cfg)
		if err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}
		return stats.Render(cmd.OutOrStdout(), report, cfg.Window, 0)
	}

	m := statsui.NewModel(rt.store, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func buildStatsConfig(kind, since string, last, window int) (model.StatsConfig, error) {
	cfg := model.StatsConfig{
		Kind:   model.ExerciseKind(kind),
		Last:   last,
		Window: window,
	}
	if kind != "" && !cfg.Kind.Valid() {
		return model.StatsConfig{}, fmt.Errorf("unknown --kind %q (want one of %s)", kind, kindList())
	}
	if last < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if window <= 0 {
		return model.StatsConfig{}, fmt.Errorf("--window must be > 0")
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	return cfg, nil
}

func loadFileConfig() (config.FileConfig, error) {
	if err := config.LoadDotEnv(); err != nil {
		logErrf("%v\n", err)
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ApplyEnv(&fileCfg); err != nil {
		return config.FileConfig{}, err
	}
	return fileCfg, nil
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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# kewen configuration
# Uncomment a value to enable it. CLI flags and KEWEN_* variables override config values.

[practice]
# book = %q              # Textbook id
# chapter = %q              # Chapter id
# kind = %q        # Exercise kind
# count = %d                # Questions per quiz
# points-per-question = %d  # Points for a correct answer
# deck = ""                 # Local deck file; quizzes are generated offline when set

[api]
# url = ""                  # Quiz service base URL (KEWEN_API_URL)
# token = ""                # Access token (KEWEN_ACCESS_TOKEN)
# token-secret = ""         # HMAC secret used to verify the token (KEWEN_TOKEN_SECRET)
# timeout-ms = %d        # Quiz generation timeout
# validate-timeout-ms = %d # Answer validation timeout

[store]
# driver = %q         # sqlite or postgres (KEWEN_DB_DRIVER)
# dsn = ""                  # Database path or URL (KEWEN_DB_DSN)
# auto-migrate = %t       # Create missing tables on startup
`,
		defaultBook,
		defaultChapter,
		defaultKind,
		defaultCount,
		defaultPoints,
		defaultTimeoutMs,
		defaultValidateMs,
		defaultDriver,
		defaultAutoMigrate,
	)
}

func validatePractice(req model.QuizRequest, points int) error {
	if strings.TrimSpace(req.BookID) == "" {
		return fmt.Errorf("--book must not be empty")
	}
	if strings.TrimSpace(req.ChapterID) == "" {
		return fmt.Errorf("--chapter must not be empty")
	}
	if !req.Kind.Valid() {
		return fmt.Errorf("unknown --kind %q (want one of %s)", req.Kind, kindList())
	}
	if req.Count <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	if points <= 0 {
		return fmt.Errorf("--points must be > 0")
	}
	return nil
}

func kindList() string {
	names := make([]string, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

func deckLoadError(book, path string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load deck: %v", err),
		fmt.Sprintf("expected deck at: %s", path),
		fmt.Sprintf("book %q not found", book),
		"Run: kewen decks",
		"Download: kewen decks fetch <url>",
	}
	if errors.Is(err, os.ErrNotExist) {
		lines = append(lines, "Or set [api] url to generate quizzes online")
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
