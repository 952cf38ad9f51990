package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voucher-service/internal/infrastructure/config"
	"voucher-service/internal/infrastructure/oauth"
	"voucher-service/internal/infrastructure/pdftext"
	"voucher-service/internal/infrastructure/persistence"
	"voucher-service/internal/infrastructure/router"
	"voucher-service/internal/infrastructure/session"
	"voucher-service/internal/interface/api"
	"voucher-service/internal/interface/gmail"
	"voucher-service/internal/interface/repository"
	"voucher-service/internal/usecase"
	"voucher-service/pkg/logger"
	"voucher-service/pkg/metrics"
	"voucher-service/pkg/voucher"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Voucher Service", "version", cfg.AppVersion)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("voucher", prometheus.DefaultRegisterer)
	sessions := session.NewStore[*usecase.Document](cfg.SessionTTL)

	var opts []usecase.ServiceOption

	// MongoDB is optional: it backs the document archive and the mail log
	var mongoClient *mongo.Client
	var mongoDB *mongo.Database
	if cfg.MongoEnabled() {
		log.Info("Connecting to MongoDB")
		mongoClient, err = persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		mongoDB = persistence.GetDatabase(mongoClient, cfg.MongoDB)

		documentRepo, err := repository.NewMongoDocumentRepository(ctx, mongoDB, cfg.SessionTTL)
		if err != nil {
			log.Fatal("Failed to prepare document archive", "error", err)
		}
		opts = append(opts, usecase.WithDocumentArchive(documentRepo))
	}

	// SQL is optional: lookup audit and airline catalog
	if cfg.SQLEnabled() {
		log.Info("Connecting to SQL database", "driver", cfg.DatabaseDriver)
		gormDB, err := persistence.NewSQLDatabase(cfg.DatabaseDriver, cfg.DatabaseURL, repository.SQLModels()...)
		if err != nil {
			log.Fatal("Failed to connect to SQL database", "error", err)
		}
		opts = append(opts,
			usecase.WithLookupAudit(repository.NewGormBookingLookupRepository(gormDB)),
			usecase.WithAirlineCatalog(repository.NewGormAirlineRepository(gormDB)),
		)
	}

	extractor := pdftext.NewPDFExtractor(cfg.ExtractWorkers, log)
	parser := voucher.NewParser(log)
	bookingService := usecase.NewBookingService(
		extractor,
		parser,
		sessions,
		usecase.ServiceConfig{
			ConvertTimeout:  cfg.ConvertLimit,
			MaxUploadBytes:  cfg.MaxUploadBytes,
			SamplePath:      cfg.SamplePDFPath,
			ArrivalPrefix:   cfg.ArrivalPrefix,
			DeparturePrefix: cfg.DeparturePrefix,
		},
		m,
		log,
		opts...,
	)

	if cfg.SweepEvery > 0 {
		go sessions.Run(ctx, cfg.SweepEvery, func(n int) {
			log.Debug("Expired sessions evicted", "count", n)
			m.ActiveSessions.Set(float64(sessions.Len()))
		})
	}

	// Mailbox ingestion needs both Gmail credentials and the Mongo mail log
	if cfg.GmailEnabled() {
		if mongoDB == nil {
			log.Warn("Gmail configured without MongoDB, mailbox ingestion disabled")
		} else {
			startMailbox(ctx, cfg, mongoDB, bookingService, m, log)
		}
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewBookingHandler(bookingService, cfg.MaxUploadBytes)
	engine := api.SetupRouter(handler, api.RouterConfig{
		Version:     cfg.AppVersion,
		CORSOrigins: cfg.CORSOrigins,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines

	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}

	log.Info("Voucher Service stopped")
}

func startMailbox(
	ctx context.Context,
	cfg *config.Config,
	db *mongo.Database,
	ingester usecase.VoucherIngester,
	m *metrics.Metrics,
	log logger.Logger,
) {
	emailRepo, err := repository.NewMongoEmailRepository(ctx, db)
	if err != nil {
		log.Fatal("Failed to prepare mail log", "error", err)
	}

	gmailOAuth := oauth.NewGmailOAuth(
		cfg.GmailClientID,
		cfg.GmailClientSecret,
		cfg.GmailRefreshToken,
		log,
	)

	mailbox, err := gmail.NewMailboxService(ctx, gmailOAuth.GetTokenSource(ctx), emailRepo, log, cfg.GmailPollInterval, cfg.GmailQuery)
	if err != nil {
		log.Fatal("Failed to create Gmail service", "error", err)
	}

	subjectRouter := router.NewSubjectRouter(log)
	subjectRouter.Register(usecase.NewVoucherMailHandler(ingester, mailbox, emailRepo, m, log))
	mailbox.SetOrchestrator(usecase.NewEmailOrchestrator(emailRepo, subjectRouter, log))

	go mailbox.StartPolling(ctx)
}
