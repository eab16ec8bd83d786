package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/arnold/goalgraph-api/internal/checkins"
	"github.com/arnold/goalgraph-api/internal/config"
	"github.com/arnold/goalgraph-api/internal/database"
	"github.com/arnold/goalgraph-api/internal/handlers"
	"github.com/arnold/goalgraph-api/internal/hierarchy"
	"github.com/arnold/goalgraph-api/internal/metrics"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/arnold/goalgraph-api/internal/outline"
	"github.com/arnold/goalgraph-api/internal/policy"
	"github.com/arnold/goalgraph-api/internal/routes"
	"github.com/arnold/goalgraph-api/internal/services"
)

var (
	outlineGoalType string

	rootCmd = &cobra.Command{
		Use:          "goalgraph",
		Short:        "Goal hierarchy and weekly confidence check-in service",
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}

	outlineCmd = &cobra.Command{
		Use:   "outline [file]",
		Short: "Parse an outline file and print the goals it would create",
		Args:  cobra.ExactArgs(1),
		RunE:  runOutline,
	}
)

func init() {
	outlineCmd.Flags().StringVar(&outlineGoalType, "type", string(models.GoalTypeQuantitativeKeyResult),
		"goal type for lines that are not objectives")
	rootCmd.AddCommand(serveCmd, migrateCmd, outlineCmd)
}

func setupLogging(cfg *config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
}

func openDatabase(cfg *config.Config) (*database.Store, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return database.NewStore(db), nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	setupLogging(cfg)
	if _, err := openDatabase(cfg); err != nil {
		return err
	}
	slog.Info("database migrated")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	privacy := policy.PrivacyPolicy{}
	hub := handlers.NewHub(store, privacy)
	push := services.NewPushService(ctx, cfg.FCMServiceAccount)

	recorder := checkins.NewRecorder(store, services.Fanout{
		services.NewMomentNotifier(store, push),
		hub,
	})
	recorder.Metrics = metrics.Default()
	recorder.MomentDelta = cfg.MomentDelta

	api := &handlers.API{
		Store:     store,
		Recorder:  recorder,
		Bulk:      checkins.NewBulkRecorder(store, recorder, privacy),
		Enricher:  hierarchy.NewEnricher(store, store, privacy),
		Policy:    privacy,
		Hub:       hub,
		JWTSecret: cfg.JWTSecret,
	}

	app := fiber.New(fiber.Config{
		AppName: "GoalGraph API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	routes.Setup(app, api)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", slog.String("port", cfg.Port))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func runOutline(cmd *cobra.Command, args []string) error {
	goalType := models.GoalType(outlineGoalType)
	if !goalType.Valid() {
		return fmt.Errorf("unknown goal type %q", outlineGoalType)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outline.Parse(string(data), goalType))
}
