package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"teamcalendar/config"
	"teamcalendar/internal/adapters/auth"
	"teamcalendar/internal/adapters/email"
	"teamcalendar/internal/adapters/kafka"
	httpdelivery "teamcalendar/internal/delivery/http"
	"teamcalendar/internal/delivery/http/controllers"
	"teamcalendar/internal/delivery/http/middleware"
	"teamcalendar/internal/domain"
	"teamcalendar/internal/lib/logger/sl"
	"teamcalendar/internal/metrics"
	"teamcalendar/internal/repository/postgres"
	"teamcalendar/internal/repository/redis"
	"teamcalendar/internal/services"
	"teamcalendar/migrations"
)

// @title Team Calendar API
// @version 1.0
// @description Event scheduling with resource, team and location conflict detection.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := &cli.App{
		Name:  "calendar",
		Usage: "Team calendar scheduling service.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			tokenCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", sl.Err(err))
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the organization provisioning consumer.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := config.NewLogger()
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var resourceRepo domain.ResourceRepository = postgres.NewResourceRepository(db)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		resourceRepo = redis.NewResourceCache(resourceRepo, client, cfg.ResourceCacheTTL, logger)
		logger.Info("resource cache enabled", slog.String("addr", cfg.RedisAddr))
	}
	locationRepo := postgres.NewLocationRepository(db)
	resourceTypeRepo := postgres.NewResourceTypeRepository(db)

	var publisher domain.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic)
		defer p.Close()
		publisher = p
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretKey,
			InsecureSkipVerify: cfg.SESInsecureTLS,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	m := metrics.New()
	eventService := metrics.InstrumentEventService(services.NewEventService(
		postgres.NewEventRepository(db),
		postgres.NewAttendeeRepository(db),
		resourceRepo,
		locationRepo,
		postgres.NewDirectory(db),
		postgres.NewBookingStore(db),
		publisher,
		emailService,
		logger,
		cfg.RequestTimeout,
	), m)
	detector := services.NewConflictDetector(postgres.NewConflictRepository(db))
	availabilityService := services.NewAvailabilityService(resourceRepo, detector, cfg.RequestTimeout)
	resourceService := services.NewResourceService(locationRepo, resourceTypeRepo, resourceRepo, cfg.RequestTimeout)

	router := httpdelivery.NewRouter(
		controllers.NewEventController(logger, eventService),
		controllers.NewAvailabilityController(logger, availabilityService),
		controllers.NewResourceController(logger, resourceService),
		auth.NewJWTVerifier(cfg.JWTSecret),
		m.Handler(),
		logger,
	)
	var handler http.Handler = router
	handler = middleware.Recover(logger, m.PanicRecovered, handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, m, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	if len(cfg.KafkaBrokers) > 0 {
		provisioner := services.NewProvisioningService(resourceTypeRepo, logger, cfg.RequestTimeout)
		consumer := kafka.NewProvisioningConsumer(cfg.KafkaBrokers, cfg.KafkaOrgTopic, cfg.KafkaGroupID, provisioner, logger)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				errCh <- fmt.Errorf("provisioning consumer: %w", err)
			}
		}()
	}
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr), slog.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
		logger.Error("shutting down after failure", sl.Err(runErr))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return runErr
}

const (
	migrationUp   = "up"
	migrationDown = "down"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Apply or roll back the database schema.",
		ArgsUsage: "up|down",
		Action: func(c *cli.Context) error {
			direction := c.Args().First()
			if direction == "" {
				direction = migrationUp
			}
			if direction != migrationUp && direction != migrationDown {
				return fmt.Errorf("unknown migration direction %q", direction)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := config.NewLogger()

			src, err := iofs.New(migrations.FS, ".")
			if err != nil {
				return fmt.Errorf("open migrations: %w", err)
			}
			m, err := migrate.NewWithSourceInstance("iofs", src, cfg.DBUrl)
			if err != nil {
				return fmt.Errorf("init migrate: %w", err)
			}
			defer m.Close()

			if direction == migrationDown {
				err = m.Down()
			} else {
				err = m.Up()
			}
			if errors.Is(err, migrate.ErrNoChange) {
				logger.Info("no migrations to apply")
				return nil
			}
			if err != nil {
				return fmt.Errorf("migrate %s: %w", direction, err)
			}
			logger.Info("migrations applied", slog.String("direction", direction))
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a bearer token for local testing.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Usage: "user ID (UUID)"},
			&cli.StringFlag{Name: "org", Required: true, Usage: "organization ID (UUID)"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(c.String("user"), c.String("org"), c.Duration("ttl"))
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}
}
