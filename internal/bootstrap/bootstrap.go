package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkravets/docvault/internal/config"
	"github.com/mkravets/docvault/internal/core/classify"
	"github.com/mkravets/docvault/internal/core/ports"
	"github.com/mkravets/docvault/internal/core/usecase"
	"github.com/mkravets/docvault/internal/infrastructure/convert"
	"github.com/mkravets/docvault/internal/infrastructure/export"
	"github.com/mkravets/docvault/internal/infrastructure/extractor/tesseract"
	"github.com/mkravets/docvault/internal/infrastructure/keystore"
	"github.com/mkravets/docvault/internal/infrastructure/queue/nats"
	"github.com/mkravets/docvault/internal/infrastructure/repository/postgres"
	"github.com/mkravets/docvault/internal/infrastructure/resilience"
	"github.com/mkravets/docvault/internal/infrastructure/scanner/localfs"
	"github.com/mkravets/docvault/internal/infrastructure/vault"
	"github.com/mkravets/docvault/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue      *nats.Queue
	Repo       ports.DocumentRepository
	Vault      ports.Vault
	Scanner    *localfs.Scanner
	Importer   ports.Importer
	Corrector  ports.Corrector
	Documents  *usecase.DocumentUseCase
	Categories *usecase.CategoryUseCase
	Exporter   *export.Service

	ImporterMetrics *metrics.ImporterMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if cfg.MasterKey == "" {
		return nil, fmt.Errorf("MASTER_KEY is required")
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	keywords := postgres.NewKeywordRepository(db)
	categories := postgres.NewCategoryRepository(db)

	keys, err := keystore.New(cfg.KeystoreDir, []byte(cfg.MasterKey))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init keystore: %w", err)
	}

	store, err := vault.NewStore(cfg.VaultRoot, cfg.ScratchDir, keys, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init vault: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy(), logger)
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, logger, nats.Options{
		Executor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	engine := classify.NewEngine()
	if cfg.ClassifierVocabSrc != "" {
		if err := engine.WithVocabularyFile(cfg.ClassifierVocabSrc); err != nil {
			logger.Warn("custom vocabulary not loaded", "path", cfg.ClassifierVocabSrc, "error", err)
		}
	}

	extractor := tesseract.New(tesseract.Config{
		Tesseract: cfg.TesseractBin,
		Pdftoppm:  cfg.PdftoppmBin,
		Languages: cfg.TesseractLang,
		DPI:       cfg.OCRDPI,
	}, logger)

	importerMetrics := metrics.NewImporterMetrics("docvault")

	importer := usecase.NewImportCoordinator(
		repo, keywords, store,
		convert.NewPDFConverter(), extractor, engine,
		logger,
		usecase.WithConcurrency(cfg.ImportConcurrency),
		usecase.WithChunkSize(cfg.ImportChunkSize),
		usecase.WithIdleDelay(time.Duration(cfg.ImportIdleDelayMS)*time.Millisecond),
		usecase.WithScratchDir(cfg.ScratchDir),
		usecase.WithImportObserver(importerMetrics),
	)

	scanner := localfs.New(cfg.ScanRoots, logger,
		localfs.WithMinSize(int64(cfg.ScanMinSizeKB)*1024),
		localfs.WithContentHash(cfg.ScanContentHash),
	)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:      queue,
		Repo:       repo,
		Vault:      store,
		Scanner:    scanner,
		Importer:   importer,
		Corrector:  usecase.NewCorrectionUseCase(repo, keywords, logger),
		Documents:  usecase.NewDocumentUseCase(repo, store, logger),
		Categories: usecase.NewCategoryUseCase(categories, engine.CustomCategories()),
		Exporter:   export.NewService(repo, logger),

		ImporterMetrics: importerMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
