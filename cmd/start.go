package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"sheet-reconciler/core/database"
	"sheet-reconciler/core/export"
	"sheet-reconciler/core/loader"
	"sheet-reconciler/core/logger"
	"sheet-reconciler/core/middleware/auth"
	"sheet-reconciler/core/middleware/rayid"
	"sheet-reconciler/core/reconcile"
	"sheet-reconciler/core/storage"
	"sheet-reconciler/feature/reconciliation"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the reconciliation HTTP server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// Table datasets are optional.
		var db *gorm.DB
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed", zap.Error(err))
		} else {
			db = conn
			logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
		}

		// Publishing is optional too.
		var publisher *export.Publisher
		if store, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Storage unavailable, publishing disabled", zap.Error(err))
		} else {
			publisher = export.NewPublisher(store, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Export.UploadPrefix, logg)
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             cfg.Server.BodyLimit(),
		})

		opts := cfg.Reconcile.Options()
		svc := reconciliation.NewService(
			reconcile.NewEngine(opts, logg),
			export.New(cfg.Export.Options, logg),
			publisher, db, opts.ChunkSize, logg,
		)

		mgr := loader.NewManager()
		mgr.Register(reconciliation.NewFeature(svc, cfg.Server.RequestTimeout()))

		// RayID first so every later log line carries it.
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})

		if !cfg.Server.AuthEnabled() {
			logg.Warn("SERVER_API_KEY is empty, the API is unprotected")
		}
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/health"}}))

		loaded, err := mgr.LoadAll(app)
		if err != nil {
			return err
		}
		logg.Info("Features loaded", zap.Strings("features", loaded))

		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
