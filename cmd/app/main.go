package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mimir/internal"
	"github.com/starford/mimir/internal/digest"
	"github.com/starford/mimir/internal/docstore"
	"github.com/starford/mimir/internal/indexer"
	"github.com/starford/mimir/internal/mcpserver"
	"github.com/starford/mimir/internal/metastore"
	"github.com/starford/mimir/internal/oracle"
	pkgconfig "github.com/starford/mimir/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// toolbox bundles the stores and oracle for the one-shot subcommands, which
// run outside the long-lived server wiring.
type toolbox struct {
	cfg    *internal.Config
	store  *metastore.DB
	docs   *docstore.FS
	orc    oracle.Oracle
	logger *slog.Logger
	gemini *oracle.Gemini
}

func newToolbox(ctx context.Context, cmd *cli.Command, requireOracle bool) (*toolbox, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	docs, err := docstore.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init docstore: %w", err)
	}
	store, err := metastore.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init metastore: %w", err)
	}

	tb := &toolbox{cfg: cfg, store: store, docs: docs, logger: logger}
	if cfg.Oracle.Enabled() {
		gem, err := oracle.NewGemini(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.MaxAttempts, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("init oracle: %w", err)
		}
		tb.gemini = gem
		tb.orc = gem
	} else if requireOracle {
		store.Close()
		return nil, fmt.Errorf("this command needs a configured oracle (set oracle.api_key)")
	}
	return tb, nil
}

func (tb *toolbox) close() {
	if tb.gemini != nil {
		_ = tb.gemini.Close()
	}
	_ = tb.store.Close()
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runReindex(ctx context.Context, cmd *cli.Command) error {
	tb, err := newToolbox(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer tb.close()

	workflow := indexer.NewWorkflow(tb.store, tb.docs, tb.orc, nil, tb.logger)
	regen := indexer.NewRegenerator(tb.store, tb.docs, tb.logger)
	stats, err := indexer.NewReindexer(workflow, regen, tb.logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d, skipped %d, failed %d\n", stats.Indexed, stats.Skipped, stats.Failed)
	return nil
}

// windowTarget resolves the --date flag, defaulting to defaultDaysBack before
// today.
func windowTarget(cmd *cli.Command, defaultDaysBack int) (time.Time, error) {
	if date := cmd.String("date"); date != "" {
		return digest.ParseDate(date)
	}
	return time.Now().UTC().AddDate(0, 0, -defaultDaysBack), nil
}

func runSummarize(ctx context.Context, cmd *cli.Command) error {
	tb, err := newToolbox(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer tb.close()

	target, err := windowTarget(cmd, 1)
	if err != nil {
		return err
	}
	out, err := digest.NewEngine(tb.store, tb.docs, tb.orc, tb.logger).RunDaily(ctx, target)
	if err != nil {
		return err
	}
	if !out.Generated {
		fmt.Printf("nothing to summarize for %s\n", out.Window)
		return nil
	}
	fmt.Printf("wrote %s (%d source documents)\n", out.Path, out.SourceDocs)
	return nil
}

func runReport(ctx context.Context, cmd *cli.Command) error {
	tb, err := newToolbox(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer tb.close()

	target, err := windowTarget(cmd, 7)
	if err != nil {
		return err
	}
	out, err := digest.NewEngine(tb.store, tb.docs, tb.orc, tb.logger).RunWeekly(ctx, target)
	if err != nil {
		return err
	}
	if !out.Generated {
		fmt.Printf("no activity in %s\n", out.Window)
		return nil
	}
	fmt.Printf("wrote %s (%d source documents)\n", out.Path, out.SourceDocs)
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	tb, err := newToolbox(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer tb.close()

	return mcpserver.New(tb.store, tb.docs).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
	dateFlag := &cli.StringFlag{
		Name:  "date",
		Usage: "Target date (YYYY-MM-DD) inside the window",
	}

	cmd := &cli.Command{
		Name:   "mimir",
		Usage:  "Markdown corpus indexer with oracle-backed classification, entity extraction, and window summaries",
		Flags:  []cli.Flag{configFlag},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the watcher, scheduler, and HTTP API",
				Action: runServe,
			},
			{
				Name:   "reindex",
				Usage:  "Re-process every document in the vault and rebuild derived pages",
				Action: runReindex,
			},
			{
				Name:   "summarize",
				Usage:  "Generate the daily summary for a window (default: yesterday)",
				Flags:  []cli.Flag{dateFlag},
				Action: runSummarize,
			},
			{
				Name:   "report",
				Usage:  "Generate the weekly report for a window (default: previous week)",
				Flags:  []cli.Flag{dateFlag},
				Action: runReport,
			},
			{
				Name:   "mcp",
				Usage:  "Serve index tools over MCP on stdin/stdout",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
