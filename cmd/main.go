// Command just2guys ingests league snapshots, advances playoff brackets,
// renders the league site and serves the read API.
//
// Usage:
//
//	just2guys ingest snapshot.json
//	just2guys advance [league-key]
//	just2guys reset-playoffs <league-key>
//	just2guys merge-managers <keep> <merge>
//	just2guys build [--watch]
//	just2guys serve
//	just2guys hash-password <password>
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianbrunner/just2guys/brackets"
	"github.com/brianbrunner/just2guys/config"
	"github.com/brianbrunner/just2guys/db"
	"github.com/brianbrunner/just2guys/ingest"
	"github.com/brianbrunner/just2guys/report"
	"github.com/brianbrunner/just2guys/repositories"
	"github.com/brianbrunner/just2guys/services"
	"github.com/brianbrunner/just2guys/storage"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:           "just2guys",
		Short:         "Fantasy football league engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(advanceCmd())
	root.AddCommand(resetPlayoffsCmd())
	root.AddCommand(mergeManagersCmd())
	root.AddCommand(buildCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(hashPasswordCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds everything a command needs, wired the same way for every
// command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	dbConn *sql.DB
	hub    *brackets.Hub

	leagueRepo  repositories.LeagueRepository
	teamRepo    repositories.TeamRepository
	managerRepo repositories.ManagerRepository
	playerRepo  repositories.PlayerRepository
	matchupRepo repositories.MatchupRepository
	rosterRepo  repositories.RosterSlotRepository

	pipeline       *services.Pipeline
	loader         *services.SnapshotLoader
	ingestService  services.IngestService
	bracketService services.BracketService
	adminService   services.AdminService
	leagueService  services.LeagueService
	historyService services.HistoryService
	authService    services.AuthService

	renderer *report.Renderer
}

func newLogger(level slog.Level, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// run loads configuration, wires the app and calls fn with a context that
// is cancelled on SIGINT or SIGTERM.
func run(jsonLogs bool, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel, jsonLogs)
	slog.SetDefault(logger)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(ctx, a)
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	applied, err := db.Migrate(ctx, dbConn)
	if err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", slog.Any("migrations", applied))
	}

	uploader, err := newUploader(ctx, cfg, logger)
	if err != nil {
		dbConn.Close()
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		dbConn: dbConn,
		hub:    brackets.NewHub(logger),

		leagueRepo:  repositories.NewPostgresLeagueRepository(dbConn),
		teamRepo:    repositories.NewPostgresTeamRepository(dbConn),
		managerRepo: repositories.NewPostgresManagerRepository(dbConn),
		playerRepo:  repositories.NewPostgresPlayerRepository(dbConn),
		matchupRepo: repositories.NewPostgresMatchupRepository(dbConn),
		rosterRepo:  repositories.NewPostgresRosterSlotRepository(dbConn),

		pipeline: services.NewPipeline(logger),
	}

	a.loader = services.NewSnapshotLoader(a.leagueRepo, a.teamRepo, a.managerRepo, a.playerRepo, a.matchupRepo, a.rosterRepo)
	a.ingestService = services.NewIngestService(
		dbConn,
		a.leagueRepo,
		a.teamRepo,
		a.managerRepo,
		a.playerRepo,
		a.matchupRepo,
		a.rosterRepo,
		cfg.ManagerMerges,
		a.pipeline,
		logger,
	)
	a.bracketService = services.NewBracketService(dbConn, a.leagueRepo, a.teamRepo, a.matchupRepo, a.rosterRepo, a.hub, a.pipeline, logger)
	a.adminService = services.NewAdminService(dbConn, a.managerRepo, a.pipeline, logger)
	a.leagueService = services.NewLeagueService(a.leagueRepo, a.teamRepo, a.playerRepo, a.matchupRepo, a.rosterRepo, logger)
	a.historyService = services.NewHistoryService(a.loader)
	a.authService = services.NewAuthService(cfg.AdminPasswordHash, cfg.JWTSecretKey, logger)
	a.renderer = report.NewRenderer(uploader, logger, report.Options{
		TemplateDir: cfg.TemplateDir,
		BasePath:    cfg.PublicBaseURL,
	})
	return a, nil
}

// newUploader writes the site to OUTPUT_DIR and mirrors it to R2 when R2
// is configured.
func newUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.FileUploader, error) {
	local, err := storage.NewLocalUploader(cfg.OutputDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("init local output: %w", err)
	}

	r2cfg := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if !r2cfg.Enabled() {
		return local, nil
	}
	r2, err := storage.NewCloudflareR2Uploader(ctx, r2cfg)
	if err != nil {
		return nil, fmt.Errorf("init Cloudflare R2 uploader: %w", err)
	}
	logger.Info("Cloudflare R2 publishing enabled", slog.String("bucket", cfg.R2BucketName))
	return storage.NewMultiUploader(local, r2), nil
}

func (a *app) close() {
	if err := a.dbConn.Close(); err != nil {
		a.logger.Error("failed to close database connection", slog.Any("error", err))
	}
}

// renderSite snapshots the store and renders every page.
func (a *app) renderSite(ctx context.Context) error {
	return a.pipeline.Do(ctx, "render", func(ctx context.Context) error {
		ds, err := a.loader.Load(ctx)
		if err != nil {
			return err
		}
		_, err = a.renderer.Render(ctx, ds)
		return err
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ingestCmd() *cobra.Command {
	var advance bool
	cmd := &cobra.Command{
		Use:   "ingest [snapshot.json]",
		Short: "Import a league snapshot; defaults to SNAPSHOT_PATH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, a *app) error {
				path := a.cfg.SnapshotPath
				if len(args) == 1 {
					path = args[0]
				}
				if path == "" {
					return errors.New("no snapshot given and SNAPSHOT_PATH is not set")
				}
				snap, err := ingest.LoadFile(path)
				if err != nil {
					return err
				}
				result, err := a.ingestService.Import(ctx, snap)
				if err != nil {
					return err
				}
				if advance {
					if _, err := a.bracketService.AdvanceAll(ctx); err != nil {
						return err
					}
				}
				return printJSON(result)
			})
		},
	}
	cmd.Flags().BoolVar(&advance, "advance", true, "Advance playoff brackets after the import")
	return cmd
}

func advanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance [league-key]",
		Short: "Run the playoff bracket builder for one league or all leagues",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, a *app) error {
				if len(args) == 1 {
					result, err := a.bracketService.AdvanceLeague(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(result)
				}
				results, err := a.bracketService.AdvanceAll(ctx)
				if err != nil {
					return err
				}
				return printJSON(results)
			})
		},
	}
}

func resetPlayoffsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-playoffs <league-key>",
		Short: "Split every playoff matchup of a league back into placeholders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, a *app) error {
				decoupled, err := a.bracketService.ResetPlayoffs(ctx, args[0])
				if err != nil {
					return err
				}
				a.logger.Info("playoffs reset", slog.String("league", args[0]), slog.Int("decoupled", decoupled))
				return nil
			})
		},
	}
}

func mergeManagersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge-managers <keep> <merge>",
		Short: "Move every team of one manager onto another and remove the first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, a *app) error {
				result, err := a.adminService.MergeManagers(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
}

func buildCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the league site into OUTPUT_DIR",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, a *app) error {
				if !watch {
					return a.renderSite(ctx)
				}
				if a.cfg.TemplateDir == "" {
					return errors.New("--watch needs TEMPLATE_DIR")
				}
				a.logger.Info("watching templates", slog.String("dir", a.cfg.TemplateDir))
				return report.NewWatcher(a.cfg.TemplateDir, a.renderSite, a.logger).Run(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-render whenever TEMPLATE_DIR changes")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			// newApp migrates on startup
			return run(false, func(ctx context.Context, a *app) error { return nil })
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := services.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}
