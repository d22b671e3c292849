package app

import (
	"fmt"

	"go.uber.org/zap"

	"corecatalog/config"
	"corecatalog/coreimage"
	"corecatalog/db"
	"corecatalog/fetcher"
	"corecatalog/internal/logging"
	"corecatalog/internal/validation"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Database     db.Database
	ManifestRepo coreimage.ManifestRepository
	FailureRepo  coreimage.FailureRepository
	Fetcher      *fetcher.HTTPFetcher
	Validator    *validation.RemoteValidator
	Failures     *coreimage.FailureRecorder
	Host         *coreimage.Host
}

// NewContainer creates and wires up all dependencies from the default configuration
func NewContainer() (*Container, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewContainerWithConfig(cfg)
}

// NewContainerWithConfig creates and wires up all dependencies
func NewContainerWithConfig(cfg *config.Config) (*Container, error) {
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return newContainer(cfg, logger)
}

func newContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	table, err := coreimage.LoadTable(cfg.Catalog.Arch, cfg.Catalog.TableFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load image table: %w", err)
	}
	if len(table) == 0 {
		logger.Warn("No core images configured for architecture", zap.String("arch", cfg.Catalog.Arch))
	}

	// Initialize database
	database, err := db.NewBoltDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Create repositories
	manifestRepo := coreimage.NewManifestRepository(database, db.ManifestsBucket(cfg))
	failureRepo := coreimage.NewFailureRepository(database, db.FailuresBucket(cfg))

	// Create services
	httpFetcher := fetcher.NewHTTPFetcher(cfg.Catalog.FetchTimeout, cfg.Catalog.UserAgent, logger.Named("fetcher"))
	validator := validation.NewRemoteValidator(cfg.Remotes.Supported, cfg.Remotes.UnsupportedAliases)
	failures := coreimage.NewFailureRecorder(failureRepo, logger.Named("failures"))
	host := coreimage.NewHost(cfg.Catalog.Arch, table, httpFetcher, validator, failures, logger.Named("catalog"),
		coreimage.WithManifestRepository(manifestRepo),
		coreimage.WithManifestTTL(cfg.Catalog.ManifestTTL),
		coreimage.WithRemotes(cfg.Remotes.Supported...))

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Database:     database,
		ManifestRepo: manifestRepo,
		FailureRepo:  failureRepo,
		Fetcher:      httpFetcher,
		Validator:    validator,
		Failures:     failures,
		Host:         host,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.Host != nil {
		c.Host.Close()
	}
	_ = c.Logger.Sync()
	if c.Database != nil {
		return c.Database.Close()
	}
	return nil
}
