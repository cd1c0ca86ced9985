// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/guardianlk/guardian/internal/alert"
	auditRepository "github.com/guardianlk/guardian/internal/audit/repository"
	auditService "github.com/guardianlk/guardian/internal/audit/service"
	auditUseCase "github.com/guardianlk/guardian/internal/audit/usecase"
	"github.com/guardianlk/guardian/internal/config"
	cryptoService "github.com/guardianlk/guardian/internal/crypto/service"
	"github.com/guardianlk/guardian/internal/database"
	filesHTTP "github.com/guardianlk/guardian/internal/files/http"
	filesService "github.com/guardianlk/guardian/internal/files/service"
	internalHTTP "github.com/guardianlk/guardian/internal/http"
	"github.com/guardianlk/guardian/internal/httputil"
	"github.com/guardianlk/guardian/internal/metrics"
	personalHTTP "github.com/guardianlk/guardian/internal/personal/http"
	personalRepository "github.com/guardianlk/guardian/internal/personal/repository"
	personalUseCase "github.com/guardianlk/guardian/internal/personal/usecase"
	"github.com/guardianlk/guardian/internal/pii"
)

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern - components are created on
// first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto
	cipher *cryptoService.Cipher
	codec  *pii.Codec

	// Audit trail
	auditFileRepo *auditRepository.FileRepository
	auditRepo     auditUseCase.RecordRepository
	auditSigner   *auditService.Signer
	recorder      *auditUseCase.Recorder

	// Alerts and error handling
	notifier    *alert.Notifier
	errorWriter *httputil.ErrorWriter

	// Files
	fileStorage    *filesService.Storage
	downloadTokens *filesService.DownloadTokenService
	fileHandler    *filesHTTP.FileHandler

	// Personal details
	personalRepo    personalUseCase.PersonalDetailsRepository
	personalUC      personalUseCase.PersonalDetailsUseCase
	backfillUC      *personalUseCase.EncryptExistingUseCase
	personalHandler *personalHTTP.PersonalDetailsHandler

	// Servers
	httpServer    *internalHTTP.Server
	metricsServer *internalHTTP.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	cipherInit          sync.Once
	codecInit           sync.Once
	auditRepoInit       sync.Once
	auditSignerInit     sync.Once
	recorderInit        sync.Once
	notifierInit        sync.Once
	errorWriterInit     sync.Once
	fileStorageInit     sync.Once
	downloadTokensInit  sync.Once
	fileHandlerInit     sync.Once
	personalRepoInit    sync.Once
	personalUCInit      sync.Once
	backfillUCInit      sync.Once
	personalHandlerInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err, exists := c.initErrors["txManager"]; exists {
		return nil, err
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if err, exists := c.initErrors["metricsProvider"]; exists {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op
// implementation is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		business, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = business
	})
	if err, exists := c.initErrors["businessMetrics"]; exists {
		return nil, err
	}
	return c.businessMetrics, nil
}

// Cipher returns the PII envelope cipher. The data key is resolved from
// configuration, optionally unwrapped through a KMS keeper.
func (c *Container) Cipher(ctx context.Context) (*cryptoService.Cipher, error) {
	c.cipherInit.Do(func() {
		key, err := cryptoService.ResolveDataKey(ctx, c.config)
		if err != nil {
			c.initErrors["cipher"] = fmt.Errorf("failed to resolve data key: %w", err)
			return
		}
		cipher, err := cryptoService.NewCipher(key)
		if err != nil {
			c.initErrors["cipher"] = fmt.Errorf("failed to create cipher: %w", err)
			return
		}
		c.cipher = cipher
	})
	if err, exists := c.initErrors["cipher"]; exists {
		return nil, err
	}
	return c.cipher, nil
}

// Codec returns the versioned PII field codec.
func (c *Container) Codec(ctx context.Context) (*pii.Codec, error) {
	c.codecInit.Do(func() {
		cipher, err := c.Cipher(ctx)
		if err != nil {
			c.initErrors["codec"] = err
			return
		}
		c.codec = pii.NewCodec(cipher)
	})
	if err, exists := c.initErrors["codec"]; exists {
		return nil, err
	}
	return c.codec, nil
}

// AuditRepository returns the audit record store selected by configuration:
// the append-only JSONL file by default, PostgreSQL when AUDIT_STORE=sql.
func (c *Container) AuditRepository() (auditUseCase.RecordRepository, error) {
	c.auditRepoInit.Do(func() {
		switch c.config.AuditStore {
		case "sql":
			db, err := c.DB()
			if err != nil {
				c.initErrors["auditRepo"] = fmt.Errorf("failed to get database for audit repository: %w", err)
				return
			}

			// Select the appropriate repository based on the database driver
			switch c.config.DBDriver {
			case "mysql":
				c.auditRepo = auditRepository.NewMySQLRepository(db)
			case "postgres":
				c.auditRepo = auditRepository.NewPostgreSQLRepository(db)
			default:
				c.initErrors["auditRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
			}
		default:
			repo, err := auditRepository.NewFileRepository(c.config.AuditLogPath)
			if err != nil {
				c.initErrors["auditRepo"] = fmt.Errorf("failed to open audit log: %w", err)
				return
			}
			c.auditFileRepo = repo
			c.auditRepo = repo
		}
	})
	if err, exists := c.initErrors["auditRepo"]; exists {
		return nil, err
	}
	return c.auditRepo, nil
}

// AuditSigner returns the HMAC record signer derived from the data key.
func (c *Container) AuditSigner(ctx context.Context) (*auditService.Signer, error) {
	c.auditSignerInit.Do(func() {
		key, err := cryptoService.ResolveDataKey(ctx, c.config)
		if err != nil {
			c.initErrors["auditSigner"] = fmt.Errorf("failed to resolve data key for audit signer: %w", err)
			return
		}
		signer, err := auditService.NewSigner(key)
		if err != nil {
			c.initErrors["auditSigner"] = fmt.Errorf("failed to create audit signer: %w", err)
			return
		}
		c.auditSigner = signer
	})
	if err, exists := c.initErrors["auditSigner"]; exists {
		return nil, err
	}
	return c.auditSigner, nil
}

// Recorder returns the audit trail recorder. Swallowed write failures are
// surfaced through the business metrics counter.
func (c *Container) Recorder(ctx context.Context) (*auditUseCase.Recorder, error) {
	c.recorderInit.Do(func() {
		repo, err := c.AuditRepository()
		if err != nil {
			c.initErrors["recorder"] = err
			return
		}
		signer, err := c.AuditSigner(ctx)
		if err != nil {
			c.initErrors["recorder"] = err
			return
		}
		business, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["recorder"] = err
			return
		}

		decoder := auditUseCase.NewJWTSubjectDecoder(c.config.JWTAccessSecret)
		recorder := auditUseCase.NewRecorder(repo, signer, decoder, c.Logger(), c.config.IsProduction())
		recorder.SetResultHook(func(recordErr error) {
			if recordErr != nil {
				business.RecordAuditFailure(context.Background())
			}
		})
		c.recorder = recorder
	})
	if err, exists := c.initErrors["recorder"]; exists {
		return nil, err
	}
	return c.recorder, nil
}

// Notifier returns the severe-failure webhook notifier.
func (c *Container) Notifier() *alert.Notifier {
	c.notifierInit.Do(func() {
		c.notifier = alert.NewNotifier(
			c.config.AlertWebhookURL,
			c.config.Environment,
			c.config.AlertTimeout,
			c.Logger(),
		)
	})
	return c.notifier
}

// ErrorWriter returns the shared classified-error response writer.
func (c *Container) ErrorWriter() *httputil.ErrorWriter {
	c.errorWriterInit.Do(func() {
		c.errorWriter = httputil.NewErrorWriter(c.Logger(), c.Notifier(), c.config.IsProduction())
	})
	return c.errorWriter
}

// FileStorage returns the on-disk upload storage.
func (c *Container) FileStorage() (*filesService.Storage, error) {
	c.fileStorageInit.Do(func() {
		storage, err := filesService.NewStorage(c.config.UploadDir)
		if err != nil {
			c.initErrors["fileStorage"] = fmt.Errorf("failed to create file storage: %w", err)
			return
		}
		c.fileStorage = storage
	})
	if err, exists := c.initErrors["fileStorage"]; exists {
		return nil, err
	}
	return c.fileStorage, nil
}

// DownloadTokens returns the signed download token service.
func (c *Container) DownloadTokens() (*filesService.DownloadTokenService, error) {
	c.downloadTokensInit.Do(func() {
		secret := c.config.DownloadSecret()
		if secret == "" {
			c.initErrors["downloadTokens"] = fmt.Errorf("FILE_DL_SECRET or JWT_ACCESS_SECRET must be set")
			return
		}
		c.downloadTokens = filesService.NewDownloadTokenService(secret, c.config.DownloadTokenTTL)
	})
	if err, exists := c.initErrors["downloadTokens"]; exists {
		return nil, err
	}
	return c.downloadTokens, nil
}

// FileHandler returns the evidence file HTTP handler.
func (c *Container) FileHandler(ctx context.Context) (*filesHTTP.FileHandler, error) {
	c.fileHandlerInit.Do(func() {
		storage, err := c.FileStorage()
		if err != nil {
			c.initErrors["fileHandler"] = err
			return
		}
		tokens, err := c.DownloadTokens()
		if err != nil {
			c.initErrors["fileHandler"] = err
			return
		}
		recorder, err := c.Recorder(ctx)
		if err != nil {
			c.initErrors["fileHandler"] = err
			return
		}
		c.fileHandler = filesHTTP.NewFileHandler(storage, tokens, recorder, c.ErrorWriter())
	})
	if err, exists := c.initErrors["fileHandler"]; exists {
		return nil, err
	}
	return c.fileHandler, nil
}

// PersonalDetailsRepository returns the personal-details repository instance.
func (c *Container) PersonalDetailsRepository() (personalUseCase.PersonalDetailsRepository, error) {
	c.personalRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["personalRepo"] = fmt.Errorf("failed to get database for personal details repository: %w", err)
			return
		}

		// Select the appropriate repository based on the database driver
		switch c.config.DBDriver {
		case "mysql":
			c.personalRepo = personalRepository.NewMySQLPersonalDetailsRepository(db)
		case "postgres":
			c.personalRepo = personalRepository.NewPostgreSQLPersonalDetailsRepository(db)
		default:
			c.initErrors["personalRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["personalRepo"]; exists {
		return nil, err
	}
	return c.personalRepo, nil
}

// PersonalDetailsUseCase returns the personal-details use case instance.
func (c *Container) PersonalDetailsUseCase(ctx context.Context) (personalUseCase.PersonalDetailsUseCase, error) {
	c.personalUCInit.Do(func() {
		repo, err := c.PersonalDetailsRepository()
		if err != nil {
			c.initErrors["personalUC"] = err
			return
		}
		codec, err := c.Codec(ctx)
		if err != nil {
			c.initErrors["personalUC"] = err
			return
		}
		c.personalUC = personalUseCase.NewPersonalDetailsUseCase(repo, codec)
	})
	if err, exists := c.initErrors["personalUC"]; exists {
		return nil, err
	}
	return c.personalUC, nil
}

// EncryptExistingUseCase returns the plaintext backfill use case.
func (c *Container) EncryptExistingUseCase(ctx context.Context) (*personalUseCase.EncryptExistingUseCase, error) {
	c.backfillUCInit.Do(func() {
		repo, err := c.PersonalDetailsRepository()
		if err != nil {
			c.initErrors["backfillUC"] = err
			return
		}
		codec, err := c.Codec(ctx)
		if err != nil {
			c.initErrors["backfillUC"] = err
			return
		}
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["backfillUC"] = err
			return
		}
		c.backfillUC = personalUseCase.NewEncryptExistingUseCase(repo, codec, txManager, c.Logger())
	})
	if err, exists := c.initErrors["backfillUC"]; exists {
		return nil, err
	}
	return c.backfillUC, nil
}

// PersonalDetailsHandler returns the personal-details HTTP handler.
func (c *Container) PersonalDetailsHandler(ctx context.Context) (*personalHTTP.PersonalDetailsHandler, error) {
	c.personalHandlerInit.Do(func() {
		useCase, err := c.PersonalDetailsUseCase(ctx)
		if err != nil {
			c.initErrors["personalHandler"] = err
			return
		}
		recorder, err := c.Recorder(ctx)
		if err != nil {
			c.initErrors["personalHandler"] = err
			return
		}
		c.personalHandler = personalHTTP.NewPersonalDetailsHandler(useCase, recorder, c.ErrorWriter())
	})
	if err, exists := c.initErrors["personalHandler"]; exists {
		return nil, err
	}
	return c.personalHandler, nil
}

// HTTPServer returns the API server with the fully assembled router.
func (c *Container) HTTPServer(ctx context.Context) (*internalHTTP.Server, error) {
	c.httpServerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		personalHandler, err := c.PersonalDetailsHandler(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		fileHandler, err := c.FileHandler(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		routerCfg := internalHTTP.RouterConfig{
			Logger:                 c.Logger(),
			MetricsNamespace:       c.config.MetricsNamespace,
			CORSEnabled:            c.config.CORSEnabled,
			CORSAllowOrigins:       c.config.CORSAllowOrigins,
			PersonalDetailsHandler: personalHandler,
			FileHandler:            fileHandler,
		}
		if provider != nil {
			routerCfg.MeterProvider = provider.MeterProvider()
		}
		if c.config.RateLimitDownloadEnabled {
			routerCfg.DownloadRatePerSecond = c.config.RateLimitDownloadRequestsPerSec
			routerCfg.DownloadRateBurst = c.config.RateLimitDownloadBurst
		}

		router := internalHTTP.SetupRouter(routerCfg)
		c.httpServer = internalHTTP.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger(), router)
	})
	if err, exists := c.initErrors["httpServer"]; exists {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, nil when metrics are disabled.
func (c *Container) MetricsServer() (*internalHTTP.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = internalHTTP.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err, exists := c.initErrors["metricsServer"]; exists {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}
	if c.auditFileRepo != nil {
		if err := c.auditFileRepo.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("audit log close: %w", err))
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}
	return nil
}

// initLogger creates a structured logger based on the configured log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
