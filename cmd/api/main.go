package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/zllovesuki/rmc-fees/broker"
	"github.com/zllovesuki/rmc-fees/db"
	"github.com/zllovesuki/rmc-fees/fee"
	"github.com/zllovesuki/rmc-fees/invoice"
	specBroker "github.com/zllovesuki/rmc-fees/spec/broker"
	"github.com/zllovesuki/rmc-fees/subscription"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build-time injected variables
var (
	Version = ""
)

func main() {
	var logger *zap.Logger
	var environment string
	var dotFile string
	var err error

	// Determine running environment and initialize structural logger
	env := os.Getenv("ENV")
	if "production" == env {
		dotFile = ".env.production"
		environment = "Prod"
		logger, err = zap.NewProduction()
	} else {
		dotFile = ".env.development"
		environment = "Dev"
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		log.Fatalf("Cannot initialize logger: %v\n", err)
	}
	logger = logger.With(zap.String("Version", Version))

	// Load configurations from dotFile
	if err := godotenv.Load(dotFile); err != nil {
		logger.Fatal("Cannot load configurations from .env",
			zap.Error(err),
		)
	}

	// Initialize sentry for error reporting
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         os.Getenv("SENTRY_DSN"),
		Environment: environment,
		Release:     Version,
	}); err != nil {
		logger.Fatal("Cannot initialize sentry",
			zap.Error(err),
		)
	}
	defer sentry.Flush(time.Second * 2)

	// Attach sentry to zap so we can do automatic error capturing
	cfg := zapsentry.Configuration{
		Level: zapcore.ErrorLevel,
		Tags: map[string]string{
			"component": "api",
		},
	}
	core, err := zapsentry.NewCore(cfg, zapsentry.NewSentryClientFromClient(sentry.CurrentHub().Client()))
	if err != nil {
		logger.Fatal("Cannot attach sentry to logger",
			zap.Error(err),
		)
	}
	logger = zapsentry.AttachCoreToLogger(core, logger)

	defer logger.Sync()

	// Initialize backend connections
	db, err := db.New(db.Options{
		URI:    os.Getenv("POSTGRES_URI"),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot connect to Postgres",
			zap.Error(err),
		)
	}

	var producer specBroker.Producer
	if amqpURI := os.Getenv("AMQP_URI"); len(amqpURI) > 0 {
		amqpBroker, err := broker.NewAMQPBroker(logger, amqpURI)
		if err != nil {
			logger.Fatal("Cannot connect to Broker",
				zap.Error(err),
			)
		}
		defer amqpBroker.Close()
		producer = amqpBroker
	}

	subscriptionManager, err := subscription.NewManager(subscription.ManagerOptions{
		DB:             db,
		Logger:         logger,
		PathToPlanJSON: os.Getenv("PLAN_CATALOG"),
	})
	if err != nil {
		logger.Fatal("Cannot initialize SubscriptionManager",
			zap.Error(err),
		)
	}

	invoiceManager, err := invoice.NewManager(logger, db)
	if err != nil {
		logger.Fatal("Cannot initialize InvoiceManager",
			zap.Error(err),
		)
	}

	feeManager, err := fee.NewManager(logger, db)
	if err != nil {
		logger.Fatal("Cannot initialize FeeManager",
			zap.Error(err),
		)
	}

	feeCreator, err := fee.NewCreator(fee.CreatorOptions{
		InvoiceManager:      invoiceManager,
		SubscriptionManager: subscriptionManager,
		FeeManager:          feeManager,
		Producer:            producer,
		Logger:              logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize FeeCreator",
			zap.Error(err),
		)
	}

	feeRouter, err := fee.NewService(fee.ServiceOptions{
		Creator: feeCreator,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Fee Service Router",
			zap.Error(err),
		)
	}

	invoiceService, err := invoice.NewService(invoice.ServiceOptions{
		Manager:  invoiceManager,
		Producer: producer,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Invoice Service Router",
			zap.Error(err),
		)
	}

	subscriptionService, err := subscription.NewService(subscription.ServiceOptions{
		Manager: subscriptionManager,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Subscription Service Router",
			zap.Error(err),
		)
	}

	rootRouter := chi.NewRouter()
	rootRouter.Use(middleware.RequestID)
	rootRouter.Use(middleware.Recoverer)
	rootRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{os.Getenv("CORS_ORIGIN")},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	invoiceRouter := chi.NewRouter()
	invoiceRouter.Mount("/{id}/subscription-fee", feeRouter.Router())
	invoiceRouter.Mount("/", invoiceService.Router())

	rootRouter.Mount("/invoices", invoiceRouter)
	rootRouter.Mount("/subscriptions", subscriptionService.Router())

	addr := os.Getenv("LISTEN_ADDR")
	if len(addr) == 0 {
		addr = ":42069"
	}
	srv := &http.Server{
		Handler: rootRouter,
		Addr:    addr,
	}

	logger.Info("API server started",
		zap.String("Addr", addr),
	)

	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("API server stopped",
			zap.Error(err),
		)
	}
}
