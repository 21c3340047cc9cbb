package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/api/handlers"
	"github.com/maheshrc27/postflow/internal/api/middleware"
	job "github.com/maheshrc27/postflow/internal/jobs"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/telemetry"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the cron sweep and the task worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	app := newServer(a)

	sweepJob := job.NewSweepJob(a.publishService, cfg.Sweep.Timeout)
	staleJob := job.NewStaleClaimJob(a.publishService)

	c := cron.New()
	if err := c.AddFunc(cfg.Sweep.Schedule, sweepJob.PublishScheduled); err != nil {
		return err
	}
	if err := c.AddFunc(cfg.Sweep.StaleSchedule, staleJob.RecoverStaleClaims); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	var worker *asynq.Server
	if a.asynqClient != nil {
		worker = asynq.NewServer(a.redisOpt, asynq.Config{
			Concurrency: cfg.Sweep.Concurrency,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queue.NewQueue(a.publishService).HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := worker.Start(mux); err != nil {
			return err
		}
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, worker)
	return nil
}

func newServer(a *application) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Printf("Error: %v", err)
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(telemetry.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(*a.cfg)
	publish := handlers.NewPublishHandler(a.publishService, a.cfg.Sweep.Timeout)

	// The sweep trigger is called by an external scheduler, not a user.
	app.Get("/api/posts/publish-scheduled", authMiddleware.CronSecret(), publish.PublishScheduled)
	app.Post("/api/posts/publish-scheduled", authMiddleware.CronSecret(), publish.PublishScheduled)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Post("/posts/publish", publish.Publish)

	post := handlers.NewPostHandler(a.postService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Post("/posts/:id/reschedule", post.ReschedulePost)
	api.Post("/media", post.UploadMedia)

	connection := handlers.NewConnectionHandler(a.connectionService)
	api.Put("/businesses/:businessId/facebook", connection.SaveFacebookConnection)
	api.Delete("/businesses/:businessId/facebook", connection.RemoveFacebookConnection)

	return app
}

func gracefulShutdown(app *fiber.App, worker *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}

	log.Println("Server shutdown complete.")
}
