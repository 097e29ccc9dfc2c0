package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"dentalclinic/internal/config"
	"dentalclinic/internal/database"
	"dentalclinic/internal/database/migration"
	handlers "dentalclinic/internal/http/handler"
	"dentalclinic/internal/http/middleware"
	"dentalclinic/internal/logger"
	"dentalclinic/internal/otel"
	"dentalclinic/internal/repository/mysql"
	"dentalclinic/internal/security"
	"dentalclinic/internal/service"
	"dentalclinic/internal/storage"
)

// @title Dental Clinic API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	log := logger.New(cfg.LogLevel, loc, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}

	db, err := database.NewMySQL(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host, cfg.Admin); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	tokens := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Revoked tokens live in Redis when configured so every replica sees them.
	var blacklist security.TokenBlacklist
	var healthChecks []handlers.Pinger
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		blacklist = security.NewRedisBlacklist(rdb)
		healthChecks = append(healthChecks, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	} else {
		log.Warn("REDIS_ADDR not set, token blacklist is kept in memory")
		blacklist = security.NewMemoryBlacklist()
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize object storage")
	}

	accountRepo := mysql.NewAccountMySQL(db)
	employeeRepo := mysql.NewEmployeeMySQL(db)
	patientRepo := mysql.NewPatientMySQL(db)
	serviceRepo := mysql.NewDentalServiceMySQL(db)
	roomRepo := mysql.NewRoomMySQL(db)
	appointmentRepo := mysql.NewAppointmentMySQL(db)
	imageRepo := mysql.NewPatientImageMySQL(db)

	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to register http metrics")
	}
	transitions, err := middleware.NewAppointmentTransitions(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to register appointment metrics")
	}

	deps := handlers.Deps{
		DB:           db,
		HealthChecks: healthChecks,
		Tokens:       tokens,
		Blacklist:    blacklist,
		LoginRate:    cfg.RateLimit,
		Auth:         service.NewAuthService(accountRepo, employeeRepo, tokens, blacklist),
		Employees:    service.NewEmployeeService(employeeRepo, patientRepo, accountRepo, loc),
		Patients:     service.NewPatientService(patientRepo, employeeRepo, accountRepo, loc),
		Services:     service.NewDentalServiceService(serviceRepo),
		Rooms:        service.NewRoomService(roomRepo, serviceRepo),
		Appointments: service.NewAppointmentService(service.AppointmentDeps{
			Appointments: appointmentRepo,
			Patients:     patientRepo,
			Employees:    employeeRepo,
			Rooms:        roomRepo,
			Services:     serviceRepo,
			Location:     loc,
			Logger:       log.WithField("component", "appointments"),
			Transitions:  transitions,
		}),
		Images: service.NewPatientImageService(objStore, imageRepo, patientRepo, loc),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    20 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, deps)

	handlers.RegisterSwagger(app, cfg.AppHost)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "timezone": loc.String()}).Info("server starting")
		if err := app.Listen(addr); err != nil {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		log.WithError(err).Error("http shutdown")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.WithError(err).Error("tracer shutdown")
	}
}
