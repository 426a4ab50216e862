package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fpang/warm-edit-studio/internal/cli"
	"github.com/fpang/warm-edit-studio/internal/config"
	"github.com/fpang/warm-edit-studio/internal/intake"
	"github.com/fpang/warm-edit-studio/internal/logging"
	"github.com/fpang/warm-edit-studio/internal/session"
	"github.com/fpang/warm-edit-studio/internal/tui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CLI flags
var (
	endpointFlag    string
	baseURLFlag     string
	logFileFlag     string
	noPreviewFlag   bool
	imageFlag       string
	promptFlag      string
	metricsFileFlag string
)

// rootCmd runs the interactive studio.
var rootCmd = &cobra.Command{
	Use:   "edit-studio",
	Short: "Gentle image edits powered by your ideas",
	Long: `Edit Studio sends one image and a short instruction to an image edit
service and shows you the edited result.

Drag an image onto the terminal (or press ctrl+o for a file dialog, or tab to
browse), describe the edit, and press ctrl+s.

Configuration comes from the environment or a .env file:
  EDIT_API_URL           edit endpoint (default http://localhost:8000/api/edit)
  EDIT_RESULT_BASE_URL   base for relative result links (default: endpoint origin)

Examples:
  edit-studio
  edit-studio --endpoint https://studio.example.com/api/edit
  edit-studio edit -i portrait.jpg -p "Make the lighting feel golden hour"`,
	Run: runInteractive,
}

// editCmd runs a single edit without the interactive UI.
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit one image from the command line",
	Long: `Edit sends one image and instruction to the edit service and prints the
resolved result link. Missing values are asked for interactively.

Exit status is 0 on success, 2 when the inputs are invalid and 1 when the
service rejects the request or cannot be reached.`,
	Run: runEdit,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "edit-studio %s (built %s)\n", commitHash, buildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Edit service URL (overrides EDIT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Base URL for relative result links (overrides EDIT_RESULT_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&metricsFileFlag, "metrics-file", "", "Append one metrics line per edit to this file")

	rootCmd.Flags().StringVar(&logFileFlag, "log-file", "", "Log file for the interactive UI (default: edit-studio.log in the temp directory)")
	rootCmd.Flags().BoolVar(&noPreviewFlag, "no-preview-server", false, "Do not serve local previews over HTTP")

	editCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Image to edit")
	editCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Edit instruction")

	rootCmd.AddCommand(editCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := cfg.Override(endpointFlag, baseURLFlag); err != nil {
		log.Fatal().Err(err).Msg("Invalid endpoint flags")
	}
	return cfg
}

// openMetrics returns the metrics sink, or nil when none was requested.
func openMetrics() (io.Writer, func()) {
	if metricsFileFlag == "" {
		return nil, func() {}
	}
	f, err := os.OpenFile(metricsFileFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		log.Warn().Err(err).Str("path", metricsFileFlag).Msg("Metrics file unavailable, metrics disabled")
		return nil, func() {}
	}
	return f, func() { _ = f.Close() }
}

func logStartup(cfg *config.Config, surface string, studio *cli.Studio, started time.Time) {
	sl := logging.NewStartupLogger(surface).
		CommitHash(commitHash).
		BuildTime(buildTime).
		Endpoint("edit", cfg.EditEndpoint).
		Endpoint("result_base", cfg.ResultBaseURL).
		Feature("preview_server", studio.Server != nil).
		Feature("metrics", metricsFileFlag != "").
		Config("request_timeout", cfg.RequestTimeout.String()).
		Config("max_upload", cli.FormatSize(cfg.MaxUploadBytes))
	if studio.Server != nil {
		sl = sl.Endpoint("preview", studio.Server.BaseURL())
	}
	sl.InitDuration(time.Since(started)).Log()
}

// runInteractive starts the terminal UI. Logs go to a file so they do not
// tear the screen.
func runInteractive(cmd *cobra.Command, args []string) {
	started := time.Now()

	logFile, err := logging.OpenFile(logFileFlag)
	if err != nil {
		logging.Init(os.Stderr)
		log.Fatal().Err(err).Msg("Cannot open log file")
	}
	defer logFile.Close()
	logging.Init(logFile)

	cfg := loadConfig()
	metrics, closeMetrics := openMetrics()
	defer closeMetrics()

	studio := cli.InitStudio(cfg, cli.StudioOptions{
		Surface:       "tui",
		ServePreviews: !noPreviewFlag,
		Metrics:       metrics,
	})
	defer studio.Close()
	logStartup(cfg, "edit-studio", studio, started)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.New(tui.Options{
		Intake:         studio.Intake,
		Session:        studio.Session,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Context:        ctx,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Error().Err(err).Msg("Interactive UI failed")
		fmt.Fprintf(os.Stderr, "edit-studio: %v\n", err)
		os.Exit(1)
	}
}

// runEdit performs one edit and exits with a status matching the outcome.
func runEdit(cmd *cobra.Command, args []string) {
	logging.Init(os.Stderr)
	started := time.Now()

	cfg := loadConfig()
	metrics, closeMetrics := openMetrics()

	prompter := cli.NewPrompter(os.Stdin, os.Stdout)
	imagePath := imageFlag
	if imagePath == "" {
		imagePath = prompter.PromptForImagePath()
	}
	imagePath = cli.ValidateAndResolveFile(imagePath)

	instruction := promptFlag
	if instruction == "" {
		instruction = prompter.PromptForInstruction()
	}

	studio := cli.InitStudio(cfg, cli.StudioOptions{Surface: "cli", Metrics: metrics})
	logStartup(cfg, "edit-studio edit", studio, started)

	code := editOnce(cmd.Context(), studio, imagePath, instruction, cmd.OutOrStdout())

	studio.Close()
	closeMetrics()
	os.Exit(code)
}

func editOnce(ctx context.Context, studio *cli.Studio, imagePath, instruction string, out io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	candidate, err := intake.CandidateFromPath(imagePath)
	if err != nil {
		cli.HandleSessionError(err)
		return 1
	}
	if err := studio.Intake.SelectFile(candidate); err != nil {
		cli.HandleSessionError(err)
		return cli.ExitCode(err)
	}
	studio.Intake.SetPrompt(instruction)

	src := studio.Intake.Source()
	log.Info().
		Str("file", src.Name).
		Str("mime", src.MIMEType).
		Str("size", cli.FormatSize(src.Size())).
		Str("dimensions", cli.FormatDimensions(src.Width, src.Height)).
		Msg("Sending edit request")

	start := time.Now()
	state := studio.Session.Submit(ctx, src, studio.Intake.Prompt())
	if state != session.Succeeded {
		err := studio.Session.LastError()
		cli.HandleSessionError(err)
		fmt.Fprintln(out, studio.Session.Status())
		return cli.ExitCode(err)
	}

	resolved, _ := studio.Session.ResolvedResult()
	log.Info().Str("elapsed", cli.FormatDurationShort(time.Since(start))).Msg("Edit complete")
	fmt.Fprintln(out, studio.Session.Status())
	fmt.Fprintln(out, resolved)
	return 0
}
