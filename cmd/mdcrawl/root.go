package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdcrawl/mdcrawl/internal/archive"
	"github.com/mdcrawl/mdcrawl/internal/config"
	"github.com/mdcrawl/mdcrawl/internal/crawler"
	"github.com/mdcrawl/mdcrawl/internal/log"
)

// NewRootCmd creates the root command for mdcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdcrawl <root-url>",
		Short: "Mirror a website as Markdown documents",
		Long: `mdcrawl crawls a single website and mirrors it as Markdown.

Starting from the root URL it follows links on the same host, converts
each HTML page to a Markdown document, downloads referenced images and
other assets into an assets/ subtree, and rewrites asset references to
relative local paths. Progress is checkpointed so an interrupted crawl
can pick up where it left off with --resume.

Examples:
  # Mirror a site into ./docs_mirror, at most 100 pages
  mdcrawl https://example.com/docs -o docs_mirror -m 100

  # Resume an interrupted crawl with the same scope
  mdcrawl https://example.com/docs -o docs_mirror -m 100 --resume

  # Ignore robots.txt and crawl faster
  mdcrawl https://example.com -o mirror --no-respect-robots --delay 0.05

Configuration file (.mdcrawl) example:
  hosts:
    docs.example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      ignore_patterns:
        - "/api/*"`,
		Args:          cobra.ExactArgs(1),
		RunE:          runRootCmd,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory for Markdown documents and assets")
	cmd.Flags().Bool("no-frontmatter", false,
		"Emit an HTML comment header instead of YAML frontmatter")

	// Crawl behavior flags
	cmd.Flags().IntP("max-pages", "m", config.DefaultMaxPages,
		"Maximum number of pages to process in this run")
	cmd.Flags().Float64("delay", config.DefaultDelay.Seconds(),
		"Base delay between requests in seconds")
	cmd.Flags().Float64("jitter", 0,
		"Maximum random delay adjustment in seconds, applied in either direction")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Bool("respect-robots", true,
		"Honor robots.txt rules for the configured user agent")
	cmd.Flags().Bool("no-respect-robots", false,
		"Ignore robots.txt (overrides --respect-robots)")

	// Checkpoint flags
	cmd.Flags().String("checkpoint-file", "",
		"Checkpoint file path (default: <output>/"+config.CheckpointFileName+")")
	cmd.Flags().Bool("resume", false,
		"Resume from an existing checkpoint instead of starting fresh")
	cmd.Flags().Int("save-every", config.DefaultSaveEvery,
		"Checkpoint cadence in processed pages")

	// Archive flags
	cmd.Flags().Bool("archive", false,
		"Record fetched pages in a local SQLite archive")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .mdcrawl in current or home directory)")

	// Add subcommands
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRootCmd executes the crawl.
func runRootCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return runCrawl(ctx, cancel, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.RootURL = args[0]

	var err error

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	delaySeconds, err := cmd.Flags().GetFloat64("delay")
	if err != nil {
		return nil, err
	}
	cfg.Delay = time.Duration(delaySeconds * float64(time.Second))

	jitterSeconds, err := cmd.Flags().GetFloat64("jitter")
	if err != nil {
		return nil, err
	}
	cfg.Jitter = time.Duration(jitterSeconds * float64(time.Second))

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.RespectRobots, err = cmd.Flags().GetBool("respect-robots")
	if err != nil {
		return nil, err
	}
	noRobots, err := cmd.Flags().GetBool("no-respect-robots")
	if err != nil {
		return nil, err
	}
	if noRobots {
		cfg.RespectRobots = false
	}

	cfg.CheckpointFile, err = cmd.Flags().GetString("checkpoint-file")
	if err != nil {
		return nil, err
	}

	cfg.Resume, err = cmd.Flags().GetBool("resume")
	if err != nil {
		return nil, err
	}

	cfg.SaveEvery, err = cmd.Flags().GetInt("save-every")
	if err != nil {
		return nil, err
	}

	noFrontmatter, err := cmd.Flags().GetBool("no-frontmatter")
	if err != nil {
		return nil, err
	}
	cfg.Frontmatter = !noFrontmatter

	cfg.Archive, err = cmd.Flags().GetBool("archive")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-host configurations from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Sites, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	return cfg, nil
}

// runCrawl wires up the engine and drives it to completion. The first
// interrupt signal requests a graceful stop after the in-flight page;
// a second one cancels outright.
func runCrawl(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *slog.Logger) error {
	opts := []crawler.Option{crawler.WithLogger(logger)}

	if cfg.Archive {
		db, err := archive.Open(cfg.ArchiveDir, archive.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer db.Close()
		logger.Info("archive opened", "path", db.Path())
		opts = append(opts, crawler.WithArchive(db))
	}

	engine, err := crawler.New(cfg, opts...)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "Interrupt received, finishing current page... (press again to abort)")
		engine.Interrupt()
		<-sigCh
		cancel()
	}()

	fmt.Printf("Crawling %s into %s...\n", cfg.RootURL, cfg.OutputDir)
	startTime := time.Now()

	summary, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Crawl %s in %s: %d pages fetched, %d failed, %d skipped by robots, %d assets stored\n",
		describeState(engine.Outcome()), elapsed.Round(time.Millisecond),
		summary.PagesFetched, summary.PagesFailed, summary.SkippedRobots, summary.AssetsStored)
	if summary.FrontierRemaining > 0 {
		fmt.Printf("%d URLs remain queued; re-run with --resume to continue\n", summary.FrontierRemaining)
	}

	return nil
}

// describeState renders a crawl outcome for the end-of-run line.
func describeState(s crawler.State) string {
	switch s {
	case crawler.StateDrained:
		return "completed"
	case crawler.StateStoppedByLimit:
		return "stopped at page limit"
	case crawler.StateInterrupted:
		return "interrupted"
	default:
		return string(s)
	}
}
