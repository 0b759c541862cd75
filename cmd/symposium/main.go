package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/nhalim/symposium/internal/config"
	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/export"
	"github.com/nhalim/symposium/internal/runner"
	"github.com/nhalim/symposium/internal/session"
	"github.com/nhalim/symposium/internal/storage"
	"github.com/nhalim/symposium/web/handlers"
)

var (
	dbPath    string
	cfgPath   string
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "symposium",
	Short: "Multi-model AI collaboration tool",
	Long: `symposium orchestrates collaboration between multiple AI models.

Pose a question and run it through a collaboration mode: models answer
in parallel, synthesize each other's work, debate, vote, form councils
or compete in elimination tournaments.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.symposium/symposium.db)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.symposium/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(modesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

func getStorage() (storage.Storage, error) {
	path := dbPath
	if path == "" {
		path = storage.DefaultDBPath()
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(); err != nil {
		return nil, err
	}

	return store, nil
}

func getEngine(store storage.Storage) *session.Engine {
	cfg := appConfig
	if cfg == nil {
		cfg = config.Default()
	}
	return session.New(store, cfg.CreateRegistry(), cfg)
}

// ============================================================================
// RUN COMMAND
// ============================================================================

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a collaboration session",
	Long: `Create and run a collaboration session on the given prompt.

Examples:
  symposium run "Explain the CAP theorem"
  symposium run "Design a rate limiter" --mode synthesized
  symposium run "Is Rust worth learning?" -m debated --rounds 3
  symposium run "Review this approach" -m council -i claude/sonnet,gemini/pro
  symposium run "Best caching strategy" -m tournament -i claude,gemini,codex,mock`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSession,
}

var (
	modeFlag      string
	instancesFlag string
	primaryFlag   string
	roundsFlag    int
	maxRoundsFlag int
	thresholdFlag float64
)

func init() {
	runCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Collaboration mode (default from config)")
	runCmd.Flags().StringVarP(&instancesFlag, "instances", "i", "", "Instances (comma-separated: provider[/model][:label],...)")
	runCmd.Flags().StringVar(&primaryFlag, "primary", "", "Primary instance ID (synthesizer, router, judge)")
	runCmd.Flags().IntVarP(&roundsFlag, "rounds", "r", 0, "Fixed rounds for round-based modes")
	runCmd.Flags().IntVar(&maxRoundsFlag, "max-rounds", 0, "Round cap for consensus mode")
	runCmd.Flags().Float64Var(&thresholdFlag, "threshold", 0, "Consensus similarity threshold (0..1)")
}

// parseInstanceSpecs parses "provider[/model][:label]" comma-separated specs.
func parseInstanceSpecs(spec string) ([]core.Instance, error) {
	parts := strings.Split(spec, ",")
	instances := make([]core.Instance, 0, len(parts))

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		label := ""
		if idx := strings.Index(part, ":"); idx >= 0 {
			label = part[idx+1:]
			part = part[:idx]
		}
		if part == "" {
			return nil, fmt.Errorf("invalid instance spec: %q", spec)
		}

		instances = append(instances, core.Instance{
			ID:    fmt.Sprintf("inst-%d", i+1),
			Model: part,
			Label: label,
		})
	}

	if len(instances) == 0 {
		return nil, fmt.Errorf("no instances in spec: %q", spec)
	}
	return instances, nil
}

func runSession(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")

	store, err := getStorage()
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	eng := getEngine(store)

	mode := core.Mode(modeFlag)
	if modeFlag == "" {
		mode = core.Mode(appConfig.Defaults.Mode)
	}

	req := session.RunRequest{
		Mode:   mode,
		Prompt: prompt,
	}
	if instancesFlag != "" {
		req.Instances, err = parseInstanceSpecs(instancesFlag)
		if err != nil {
			return err
		}
	}
	if primaryFlag != "" || roundsFlag > 0 || maxRoundsFlag > 0 || thresholdFlag > 0 {
		req.Options = &runner.Options{
			PrimaryID: primaryFlag,
			Rounds:    roundsFlag,
			MaxRounds: maxRoundsFlag,
			Threshold: thresholdFlag,
		}
	}

	sess, err := eng.CreateSession(req)
	if err != nil {
		return err
	}

	fmt.Printf("\n🏛  Session: %s\n", sess.Title)
	fmt.Printf("   ID: %s\n", sess.ID)
	fmt.Printf("   Mode: %s\n", sess.Mode)
	fmt.Printf("   Instances (%d):\n", len(sess.Instances))
	for _, inst := range sess.Instances {
		fmt.Printf("     • %s (%s)\n", inst.DisplayName(), inst.Model)
	}
	fmt.Println()
	fmt.Println(strings.Repeat("─", 60))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\nInterrupted. Cancelling session...")
		cancel()
	}()

	type outcome struct {
		results []*core.Result
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		_, results, err := eng.Run(ctx, sess.ID, req)
		done <- outcome{results: results, err: err}
	}()

	followLiveTurns(eng, sess)

	out := <-done
	if out.err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nSession cancelled.")
			return nil
		}
		return fmt.Errorf("session failed: %w", out.err)
	}

	fmt.Println(strings.Repeat("═", 60))
	fmt.Println("🏁 RESULTS")
	fmt.Println(strings.Repeat("═", 60))
	for _, res := range out.results {
		fmt.Printf("\n[%s]\n", instanceName(sess, res.InstanceID))
		fmt.Println(res.Content)
	}

	return nil
}

// followLiveTurns prints turns as the running session publishes them. It
// returns when the session's hub closes.
func followLiveTurns(eng *session.Engine, sess *core.Session) {
	var hub *session.Hub
	for i := 0; i < 100; i++ {
		if hub = eng.Hub(sess.ID); hub != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if hub == nil {
		return
	}

	events, cancel := hub.Subscribe()
	defer cancel()

	printed := 0
	for ev := range events {
		state, ok := ev.Data.(core.ModeState)
		if ev.Type != session.EventState || !ok {
			continue
		}
		turns := state.AllTurns()
		for ; printed < len(turns); printed++ {
			turn := turns[printed]
			fmt.Printf("\n📢 %s (%s, round %d)\n", instanceName(sess, turn.InstanceID), turn.Role, turn.Round+1)
			fmt.Println(strings.Repeat("─", 40))
			fmt.Println(turn.Content)
		}
	}
}

func instanceName(sess *core.Session, id string) string {
	for _, inst := range sess.Instances {
		if inst.ID == id {
			return inst.DisplayName()
		}
	}
	return id
}

// ============================================================================
// LIST COMMAND
// ============================================================================

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		eng := getEngine(store)
		sessions, err := eng.ListSessions(50, 0)
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found. Start one with: symposium run \"Your question\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tMODE\tSTATUS\tTURNS\tCREATED")
		fmt.Fprintln(w, "──\t─────\t────\t──────\t─────\t───────")

		for _, s := range sessions {
			shortID := s.ID
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			shortTitle := s.Title
			if len(shortTitle) > 35 {
				shortTitle = shortTitle[:32] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				shortID,
				shortTitle,
				s.Mode,
				s.Status,
				s.TurnCount,
				s.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		w.Flush()

		return nil
	},
}

// ============================================================================
// SHOW COMMAND
// ============================================================================

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show session details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		eng := getEngine(store)
		sessionID, err := findSessionByPrefix(eng, args[0])
		if err != nil {
			return err
		}

		sess, turns, err := eng.GetSessionWithTurns(sessionID)
		if err != nil {
			return err
		}

		fmt.Printf("\n💬 Session: %s\n", sess.Title)
		fmt.Printf("   ID: %s\n", sess.ID)
		fmt.Printf("   Mode: %s\n", sess.Mode)
		fmt.Printf("   Status: %s\n", sess.Status)
		fmt.Printf("   Prompt: %s\n", sess.Prompt)
		for _, inst := range sess.Instances {
			fmt.Printf("   Instance: %s (%s)\n", inst.DisplayName(), inst.Model)
		}
		fmt.Printf("   Created: %s\n", sess.CreatedAt.Format(time.RFC3339))
		fmt.Println()

		if len(turns) > 0 {
			fmt.Println(strings.Repeat("─", 60))
			for _, turn := range turns {
				fmt.Printf("\n📢 %s (%s, round %d)\n", instanceName(sess, turn.InstanceID), turn.Role, turn.Round+1)
				fmt.Println(strings.Repeat("─", 40))
				fmt.Println(turn.Content)
			}
		}

		if len(sess.Results) > 0 {
			fmt.Println()
			fmt.Println(strings.Repeat("═", 60))
			fmt.Println("🏁 RESULTS")
			fmt.Println(strings.Repeat("═", 60))
			for _, res := range sess.Results {
				fmt.Printf("\n[%s]\n", instanceName(sess, res.InstanceID))
				fmt.Println(res.Content)
			}
		}

		return nil
	},
}

// ============================================================================
// DELETE COMMAND
// ============================================================================

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		eng := getEngine(store)
		sessionID, err := findSessionByPrefix(eng, args[0])
		if err != nil {
			return err
		}

		if err := eng.DeleteSession(sessionID); err != nil {
			return err
		}

		fmt.Printf("Deleted session: %s\n", sessionID)
		return nil
	},
}

// ============================================================================
// EXPORT COMMAND
// ============================================================================

var exportCmd = &cobra.Command{
	Use:   "export [id] [format]",
	Short: "Export session to file",
	Long: `Export a session to markdown, PDF, or JSON.

Examples:
  symposium export abc123 markdown
  symposium export abc123 pdf
  symposium export abc123 json -o session.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		eng := getEngine(store)
		sessionID, err := findSessionByPrefix(eng, args[0])
		if err != nil {
			return err
		}

		sess, turns, err := eng.GetSessionWithTurns(sessionID)
		if err != nil {
			return err
		}

		format := export.Format(strings.ToLower(args[1]))
		exporter, err := export.GetExporter(format)
		if err != nil {
			return err
		}

		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = export.GenerateFilename(sess, exporter.FileExtension())
		}

		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()

		if err := exporter.Export(sess, turns, file); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		fmt.Printf("Exported to: %s\n", outputPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file path")
}

// ============================================================================
// PROVIDERS COMMAND
// ============================================================================

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List available AI providers",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := appConfig
		if cfg == nil {
			cfg = config.Default()
		}
		registry := cfg.CreateRegistry()

		fmt.Println("\nAvailable Providers:")
		fmt.Println(strings.Repeat("─", 50))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDISPLAY\tMODELS\tSTATUS")

		for _, p := range registry.List() {
			status := "❌ Not installed"
			if p.Available() {
				status = "✅ Available"
			}
			models := strings.Join(p.Models(), ", ")
			if len(models) > 30 {
				models = models[:27] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name(), p.DisplayName(), models, status)
		}
		w.Flush()
	},
}

// ============================================================================
// INSTANCES COMMAND
// ============================================================================

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List configured instances",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := appConfig
		if cfg == nil {
			cfg = config.Default()
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODEL\tLABEL")
		for _, inst := range cfg.CoreInstances() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", inst.ID, inst.Model, inst.Label)
		}
		w.Flush()
	},
}

// ============================================================================
// MODES COMMAND
// ============================================================================

var modeDescriptions = map[core.Mode]string{
	core.ModeParallel:     "All instances answer independently",
	core.ModeSynthesized:  "Primary merges all answers into one",
	core.ModeConfidence:   "Answers ranked by self-reported confidence",
	core.ModeRouted:       "Router picks the best instance for the question",
	core.ModeElected:      "Instances vote for the best answer",
	core.ModeConsensus:    "Instances revise until answers converge",
	core.ModeDebated:      "Two sides argue, a judge summarizes",
	core.ModeCouncil:      "Role-based panel with a chair synthesis",
	core.ModeCritiqued:    "Author, critic and editor refine an answer",
	core.ModeHierarchical: "Lead decomposes, workers solve, lead integrates",
	core.ModeTournament:   "Single-elimination bracket judged per match",
	core.ModeExplainer:    "Same answer explained for different audiences",
}

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List collaboration modes",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODE\tDESCRIPTION")
		for _, m := range core.Modes() {
			fmt.Fprintf(w, "%s\t%s\n", m, modeDescriptions[m])
		}
		w.Flush()
	},
}

// ============================================================================
// CONFIG COMMAND
// ============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config file: %s\n\n", config.DefaultConfigPath())

		if appConfig != nil {
			fmt.Println("Current settings:")
			fmt.Printf("  Default mode: %s\n", appConfig.Defaults.Mode)
			fmt.Printf("  Default rounds: %d\n", appConfig.Defaults.Rounds)
			fmt.Printf("  Consensus threshold: %.2f\n", appConfig.Defaults.ConsensusThreshold)
			fmt.Println("\nProviders:")
			for name, p := range appConfig.Providers {
				status := "disabled"
				if p.Enabled {
					status = "enabled"
				}
				fmt.Printf("  %s: %s (timeout: %s)\n", name, status, p.Timeout)
			}
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		example := config.GenerateExample()
		if err := os.MkdirAll(strings.TrimSuffix(path, "/config.yaml"), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(example), 0644); err != nil {
			return err
		}

		fmt.Printf("Created config at: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// ============================================================================
// SERVE COMMAND
// ============================================================================

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") && appConfig != nil && appConfig.Server.Port != 0 {
			servePort = appConfig.Server.Port
		}

		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		eng := getEngine(store)

		fmt.Printf("\n🌐 Starting symposium server on http://localhost:%d\n\n", servePort)
		fmt.Println("Available endpoints:")
		fmt.Printf("  GET  http://localhost:%d/api/sessions      - List sessions\n", servePort)
		fmt.Printf("  POST http://localhost:%d/api/sessions      - Create and run a session\n", servePort)
		fmt.Printf("  GET  http://localhost:%d/api/sessions/:id  - View session\n", servePort)
		fmt.Println("\nPress Ctrl+C to stop the server")

		return startWebServer(eng, servePort)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8184, "Server port")
}

func startWebServer(eng *session.Engine, port int) error {
	h := handlers.New(eng)

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down...")
		server.Close()
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func findSessionByPrefix(eng *session.Engine, prefix string) (string, error) {
	sessions, _ := eng.ListSessions(100, 0)
	for _, s := range sessions {
		if strings.HasPrefix(s.ID, prefix) {
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("session not found: %s", prefix)
}
