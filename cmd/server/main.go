package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/garyjia/billwatch/internal/application/port"
	"github.com/garyjia/billwatch/internal/application/service"
	"github.com/garyjia/billwatch/internal/config"
	"github.com/garyjia/billwatch/internal/extraction"
	"github.com/garyjia/billwatch/internal/infrastructure/events"
	"github.com/garyjia/billwatch/internal/infrastructure/external/openai"
	"github.com/garyjia/billwatch/internal/infrastructure/pdf"
	"github.com/garyjia/billwatch/internal/infrastructure/persistence/sheet"
	"github.com/garyjia/billwatch/internal/infrastructure/storage"
	httpapi "github.com/garyjia/billwatch/internal/interfaces/http"
	"github.com/garyjia/billwatch/migrations"
	"github.com/garyjia/billwatch/pkg/database"
	"github.com/garyjia/billwatch/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config.yaml")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load environment: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting billwatch",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Backend),
		zap.String("pdf_engine", cfg.PDF.Engine))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bill sheet
	billSheet, closeSheet, err := openSheet(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open bill sheet", zap.Error(err))
	}
	defer closeSheet()

	// PDF text and extraction pipeline
	source, err := pdf.NewSource(pdf.Config{
		Engine:   cfg.PDF.Engine,
		MaxPages: cfg.PDF.MaxPages,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize PDF source", zap.Error(err))
	}

	extractor, err := extraction.NewExtractor(cfg.Extraction, logger)
	if err != nil {
		logger.Fatal("Failed to initialize extractor", zap.Error(err))
	}

	// Optional archive
	var archive port.BillArchive
	if cfg.Archive.Enabled {
		if err := os.MkdirAll(cfg.Archive.Dir, 0755); err != nil {
			logger.Fatal("Failed to create archive directory", zap.Error(err))
		}
		archive = storage.NewBillArchive(storage.NewLocalFileStorage(cfg.Archive.Dir, logger), logger)
	}

	// Record events
	var publisher port.RecordPublisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:          cfg.Kafka.Brokers,
			Topic:            cfg.Kafka.Topic,
			ClientID:         cfg.Kafka.ClientID,
			RequiredAcks:     cfg.Kafka.RequiredAcks,
			CompressionCodec: cfg.Kafka.CompressionCodec,
			RetryMax:         cfg.Kafka.RetryMax,
			RetryBackoff:     cfg.Kafka.RetryBackoff,
			Timeout:          cfg.Kafka.Timeout,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Kafka publisher", zap.Error(err))
		}
		publisher = kafkaPublisher
	}
	defer publisher.Close()

	billService := service.NewBillService(
		service.BillServiceConfig{MaxFileSize: cfg.PDF.MaxFileSize},
		service.BillServiceDeps{
			Source:    source,
			Extractor: extractor,
			Sheet:     billSheet,
			Exporter:  sheet.NewXLSXExporter(cfg.Store.SheetName),
			Archive:   archive,
			Publisher: publisher,
		},
		logger,
	)

	// Optional LLM summaries
	var summaryService service.SummaryService
	if cfg.SummaryEnabled() {
		prompts := openai.DefaultPrompts()
		if cfg.OpenAI.PromptsPath != "" {
			if prompts, err = openai.LoadPrompts(cfg.OpenAI.PromptsPath); err != nil {
				logger.Fatal("Failed to load prompts", zap.Error(err))
			}
		}
		summarizer, err := openai.NewSummarizer(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout,
			Prompts: prompts,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize summarizer", zap.Error(err))
		}
		summaryService = service.NewSummaryService(service.SummaryServiceConfig{
			MaxFileSize:  cfg.PDF.MaxFileSize,
			MaxTextChars: cfg.Summary.MaxTextChars,
			CacheTTL:     cfg.Summary.CacheTTL,
		}, source, summarizer, logger)
	} else {
		logger.Info("Bill summaries disabled: no OpenAI API key configured")
	}

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxUploadSize:   cfg.PDF.MaxFileSize + 1<<20,
	}, billService, summaryService, httpapi.NewZapLogger(logger))

	if err := server.Start(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Server exited successfully")
}

// openSheet opens the configured bill sheet backend. The returned func
// releases it.
func openSheet(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.BillSheet, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreWorkbook:
		wb, err := sheet.NewWorkbookSheet(cfg.Store.WorkbookPath, cfg.Store.SheetName, logger)
		if err != nil {
			return nil, nil, err
		}
		return wb, func() {}, nil

	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := database.New(database.Config{
			Path:            cfg.Database.Path,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			BusyTimeout:     cfg.Database.BusyTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}

		migrator := database.NewMigrator(db, logger)
		if err := migrator.RunMigrations(ctx, migrations.FS); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}

		return sheet.NewSQLiteSheet(db, logger), func() { _ = db.Close() }, nil
	}
}
