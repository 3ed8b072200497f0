package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/vallonadams18-dot/boothflow/configs"
	"github.com/vallonadams18-dot/boothflow/internal/api/handlers"
	"github.com/vallonadams18-dot/boothflow/internal/api/middleware"
	"github.com/vallonadams18-dot/boothflow/internal/database"
	job "github.com/vallonadams18-dot/boothflow/internal/jobs"
	"github.com/vallonadams18-dot/boothflow/internal/metrics"
	"github.com/vallonadams18-dot/boothflow/internal/queue"
	"github.com/vallonadams18-dot/boothflow/internal/repository"
	"github.com/vallonadams18-dot/boothflow/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.LoadConfig()

	db, err := database.Open(cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := database.RunMigrations(cfg.PostgresURI); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("unhandled error", "error", err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	collector := metrics.NewCollector()

	postRepo := repository.NewPostRepository(db)
	assetRepo := repository.NewMediaAssetRepository(db)
	attemptRepo := repository.NewPublishAttemptRepository(db)

	r2Service := service.NewR2Service(*cfg)
	publisher := service.NewInstagramPublisher(*cfg)
	transformService := service.NewTransformService(*cfg)

	captionService, err := service.NewGeminiCaptionService(cfg.GeminiAPIKey, cfg.CaptionModel)
	if err != nil {
		log.Fatalf("Failed to create caption service: %v", err)
	}

	postService := service.NewPostService(postRepo, attemptRepo)
	assetService := service.NewAssetService(assetRepo, r2Service)
	engine := service.NewPublishEngine(postRepo, attemptRepo, publisher, collector)
	batchService := service.NewBatchTransformService(assetRepo, transformService, r2Service, rdb, collector)
	compareService := service.NewCompareService(assetRepo, transformService, r2Service, cfg.CompareModelA, cfg.CompareModelB)
	autoScheduleService := service.NewAutoScheduleService(postRepo, assetRepo, captionService, r2Service, collector)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)

	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, client)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/create", post.CreatePost)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/remove", post.RemovePost)
	api.Post("/posts/cancel", post.CancelPost)
	api.Post("/posts/retry", post.RetryPost)
	api.Post("/posts/publish", post.PublishNow)
	api.Get("/posts/history", post.PostHistory)

	asset := handlers.NewAssetHandler(assetService)
	api.Get("/assets", asset.ListAssets)
	api.Post("/assets/upload", asset.Upload)
	api.Post("/assets/remove", asset.RemoveAsset)

	transform := handlers.NewTransformHandler(batchService, compareService)
	api.Post("/transform/batch", transform.RunBatch)
	api.Get("/transform/batch/:id", transform.BatchProgress)
	api.Post("/transform/compare", transform.Compare)
	api.Post("/transform/adopt", transform.Adopt)

	schedule := handlers.NewScheduleHandler(autoScheduleService)
	api.Post("/schedule/auto", schedule.AutoSchedule)
	api.Get("/schedule/calendar", schedule.Calendar)

	platform := handlers.NewPlatformHandler(publisher)
	api.Get("/platform/status", platform.ConnectionStatus)

	// cron jobs
	dueScanJob := job.NewDueScanJob(postRepo, client)

	// queue
	queueW := queue.NewQueue(engine)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", dueScanJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
