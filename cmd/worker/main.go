package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zllovesuki/rmc-fees/broker"
	"github.com/zllovesuki/rmc-fees/db"
	"github.com/zllovesuki/rmc-fees/fee"
	"github.com/zllovesuki/rmc-fees/invoice"
	"github.com/zllovesuki/rmc-fees/spec"
	"github.com/zllovesuki/rmc-fees/subscription"
	"github.com/zllovesuki/rmc-fees/task"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
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
			"component": string(spec.FeeTask),
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

	amqpBroker, err := broker.NewAMQPBroker(logger, os.Getenv("AMQP_URI"))
	if err != nil {
		logger.Fatal("Cannot connect to Broker",
			zap.Error(err),
		)
	}
	defer amqpBroker.Close()

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
		Producer:            amqpBroker,
		Logger:              logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize FeeCreator",
			zap.Error(err),
		)
	}

	feeTask, err := task.NewFeeTask(task.FeeOptions{
		Creator:  feeCreator,
		Consumer: amqpBroker,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Cannot get fee task",
			zap.Error(err),
		)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	if err := feeTask.HandleInvoiceReady(ctx); err != nil {
		logger.Fatal("Cannot handle invoice ready requests",
			zap.Error(err),
		)
	}

	logger.Info("Fee worker started")

	<-c
	cancel()
}
