// Package main is the entry point for the school schedule API server.
// It wires configuration, the PostgreSQL pool, the optional Redis response cache
// and the HTTP routes, then serves until SIGINT or SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/unnme/school-schedule/internal/cache"
	"github.com/unnme/school-schedule/internal/config"
	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/handlers"
	"github.com/unnme/school-schedule/internal/logging"
	"github.com/unnme/school-schedule/internal/middleware"
	"github.com/unnme/school-schedule/internal/ratelimit"
	"github.com/unnme/school-schedule/internal/repository"
	"github.com/unnme/school-schedule/internal/services"
	"github.com/unnme/school-schedule/internal/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logging.New(cfg.LogLevel).With().
		Str("app", cfg.AppName).
		Str("version", cfg.AppVersion).
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCfg := database.DefaultConfig(cfg.DatabaseURL)
	dbCfg.MaxConns = cfg.DBMaxConns
	dbCfg.MinConns = cfg.DBMinConns
	dbCfg.ConnectAttempts = cfg.DBConnectAttempts
	dbCfg.ConnectWait = cfg.DBConnectWait

	pool, err := database.Connect(ctx, dbCfg, logging.Component(log, "database"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer pool.Close()

	// Writes are limited to WriteRateLimit per minute per client.
	writeLimiter := ratelimit.New(cfg.WriteRateLimit, time.Minute/time.Duration(cfg.WriteRateLimit))
	defer writeLimiter.Stop()

	app := newApp(cfg, log, writeLimiter)

	var cacheMW []fiber.Handler
	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn().Err(err).Msg("Response cache disabled")
		} else {
			defer client.Close()
			store := cache.New(client, cfg.AppName, cfg.CacheTTL)
			cacheMW = append(cacheMW, middleware.ResponseCache(store, cfg.APIPrefix(), log))
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("Response cache enabled")
		}
	}

	handlers.RegisterRoutes(app.Group(cfg.APIPrefix()), buildHandlers(cfg, pool, log), cacheMW...)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("environment", cfg.Environment).
		Str("api_prefix", cfg.APIPrefix()).
		Msg("Server starting")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

// newApp creates the Fiber application with the global middleware chain.
func newApp(cfg *config.Config, log zerolog.Logger, writeLimiter *ratelimit.RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ErrorHandler:          handlers.ErrorHandler(logging.Component(log, "http")),
		DisableStartupMessage: true,
	})

	sm := middleware.NewSecurityMiddleware(log, writeLimiter)

	// Panic recovery (should be first)
	app.Use(recover.New())
	app.Use(sm.RequestID())
	app.Use(sm.RequestLogger())
	app.Use(sm.SecureHeaders())

	if len(cfg.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders: "Origin, Content-Type, Accept, " + middleware.RequestIDHeader,
		}))
	}

	app.Use(sm.WriteRateLimit())
	return app
}

// buildHandlers assembles repositories, services and handlers.
func buildHandlers(cfg *config.Config, db database.DBInterface, log zerolog.Logger) handlers.Handlers {
	teacherSubjects := repository.NewTeacherSubjectStore()
	groupSubjects := repository.NewStudentGroupSubjectStore()
	classroomSubjects := repository.NewClassroomSubjectStore()

	subjectRepo := repository.NewSubjectRepository(teacherSubjects, groupSubjects, classroomSubjects)
	teacherRepo := repository.NewTeacherRepository(teacherSubjects)
	groupRepo := repository.NewStudentGroupRepository(groupSubjects)
	classroomRepo := repository.NewClassroomRepository(classroomSubjects)
	lessonRepo := repository.NewLessonRepository()

	requestValidator := services.NewRequestValidator(subjectRepo)
	v := validation.New()

	return handlers.Handlers{
		Health: handlers.NewHealthHandler(db),
		Teachers: handlers.NewTeacherHandler(
			services.NewTeacherManager(db, teacherRepo, requestValidator, log), v, cfg.PaginationLimit),
		StudentGroups: handlers.NewStudentGroupHandler(
			services.NewStudentGroupManager(db, groupRepo, requestValidator, log), v, cfg.PaginationLimit),
		Subjects: handlers.NewSubjectHandler(
			services.NewSubjectManager(db, subjectRepo, log), v, cfg.PaginationLimit),
		Classrooms: handlers.NewClassroomHandler(
			services.NewClassroomManager(db, classroomRepo, requestValidator, log), v, cfg.PaginationLimit),
		Lessons: handlers.NewLessonHandler(
			services.NewLessonManager(db, lessonRepo, classroomRepo, subjectRepo, teacherRepo, groupRepo, log),
			v, cfg.PaginationLimit),
	}
}
