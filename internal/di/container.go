package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stoik/mailshield/internal/adapters/httpapi"
	"github.com/stoik/mailshield/internal/adapters/notifier"
	"github.com/stoik/mailshield/internal/adapters/providers"
	"github.com/stoik/mailshield/internal/adapters/storage"
	"github.com/stoik/mailshield/internal/application"
	"github.com/stoik/mailshield/internal/config"
	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/domain/detection"
	"github.com/stoik/mailshield/internal/logging"
	"github.com/stoik/mailshield/internal/metrics"
	"github.com/stoik/mailshield/internal/ports"
)

// BuildContainer creates and configures a dependency injection container.
// configPath may be empty to search the default locations.
func BuildContainer(configPath string) (*dig.Container, error) {
	return build(func() (*config.Config, error) { return config.New(configPath) })
}

// BuildContainerWithConfig is BuildContainer with an already loaded configuration
func BuildContainerWithConfig(cfg *config.Config) (*dig.Container, error) {
	return build(func() *config.Config { return cfg })
}

func build(configProvider interface{}) (*dig.Container, error) {
	container := dig.New()

	constructors := []interface{}{
		configProvider,
		logging.InitLogger,
		newRegistry,
		func(reg *prometheus.Registry) *metrics.Metrics { return metrics.NewMetrics(reg) },
		newDetector,
		newStorage,
		newMailProvider,
		newNotifier,
		newScanService,
		newAutoScanner,
		func(svc *application.ScanService, auto *application.AutoScanner, reg *prometheus.Registry, logger *zap.Logger) *httpapi.Server {
			return httpapi.NewServer(svc, auto, reg, logger)
		},
	}
	for _, p := range constructors {
		if err := container.Provide(p); err != nil {
			return nil, err
		}
	}

	return container, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newDetector(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *detection.Detector {
	weights := detection.DefaultWeights().WithOverrides(cfg.WeightOverrides())
	detectionContext := detection.NewDetectionContext(detection.DefaultBrands, weights)

	return detection.NewDetector(detectionContext,
		detection.WithLogger(logger),
		detection.WithFailureHook(m.IncrementDetectorFailures),
	)
}

// newStorage opens the configured backend behind an LRU dedupe cache
func newStorage(cfg *config.Config, logger *zap.Logger) (ports.Storage, error) {
	ctx := context.Background()

	var backing ports.Storage
	switch storageType := cfg.GetString("storage.type"); storageType {
	case "postgres":
		store, err := storage.NewPostgresStore(ctx, cfg.GetString("storage.postgres_dsn"))
		if err != nil {
			return nil, err
		}
		if err := store.InitSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		backing = store
	case "sqlite":
		store, err := storage.NewSQLiteStore(ctx, cfg.GetString("storage.sqlite_path"))
		if err != nil {
			return nil, err
		}
		backing = store
	case "memory":
		backing = storage.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}

	capacity := cfg.GetInt("storage.dedupe_cache_size")
	if capacity <= 0 {
		logger.Info("Storage ready", zap.String("type", cfg.GetString("storage.type")))
		return backing, nil
	}

	cached, err := storage.NewCachedStore(backing, capacity)
	if err != nil {
		backing.Close()
		return nil, err
	}
	logger.Info("Storage ready",
		zap.String("type", cfg.GetString("storage.type")),
		zap.Int("dedupe_cache_size", capacity))
	return cached, nil
}

func newMailProvider(cfg *config.Config, logger *zap.Logger) (ports.MailProvider, error) {
	switch provider := cfg.GetString("mail.provider"); provider {
	case "imap":
		lookback, err := cfg.GetDuration("mail.imap.lookback")
		if err != nil {
			return nil, err
		}
		return providers.NewIMAPClient(providers.IMAPConfig{
			Host:        cfg.GetString("mail.imap.host"),
			Port:        cfg.GetInt("mail.imap.port"),
			TLS:         cfg.GetBool("mail.imap.tls"),
			Mailbox:     cfg.GetString("mail.imap.mailbox"),
			Lookback:    lookback,
			MaxMessages: cfg.GetInt("mail.imap.max_messages"),
		}, logger), nil
	case "fixture":
		logger.Warn("Using the demonstration mailbox, no real mail is read")
		return providers.NewFixtureClient(), nil
	default:
		return nil, fmt.Errorf("unknown mail provider: %s", provider)
	}
}

func newNotifier(cfg *config.Config, logger *zap.Logger) (ports.Notifier, error) {
	switch notifierType := cfg.GetString("notify.type"); notifierType {
	case "nats":
		conn, err := notifier.Connect(cfg.GetString("notify.nats_url"), logger)
		if err != nil {
			return nil, err
		}
		return notifier.NewNATSNotifier(conn, cfg.GetString("notify.nats_subject"), logger), nil
	case "log":
		return notifier.NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier type: %s", notifierType)
	}
}

func newScanService(
	cfg *config.Config,
	store ports.Storage,
	provider ports.MailProvider,
	n ports.Notifier,
	detector *detection.Detector,
	m *metrics.Metrics,
	logger *zap.Logger,
) *application.ScanService {
	return application.NewScanService(store, provider, n, detector, m, logger, cfg.GetInt("scanner.batch_concurrency"))
}

func newAutoScanner(cfg *config.Config, svc *application.ScanService, logger *zap.Logger) (*application.AutoScanner, error) {
	interval, err := cfg.GetDuration("scanner.interval")
	if err != nil {
		return nil, err
	}
	backoff, err := cfg.GetDuration("scanner.retry_backoff")
	if err != nil {
		return nil, err
	}
	return application.NewAutoScanner(svc, interval, backoff, logger), nil
}

// BootstrapSubjects registers the mailboxes listed in the configuration and
// returns them with their ids
func BootstrapSubjects(ctx context.Context, cfg *config.Config, svc *application.ScanService, logger *zap.Logger) ([]domain.Subject, error) {
	configured, err := cfg.Subjects()
	if err != nil {
		return nil, err
	}

	subjects := make([]domain.Subject, 0, len(configured))
	for _, sc := range configured {
		subject := &domain.Subject{
			Email:                sc.Email,
			DisplayName:          sc.DisplayName,
			Credentials:          sc.Credentials,
			NotificationsEnabled: sc.NotificationsEnabled,
			NotificationLevel:    domain.NotificationLevel(sc.NotificationLevel),
		}
		if err := svc.RegisterSubject(ctx, subject); err != nil {
			return nil, fmt.Errorf("failed to bootstrap %s: %w", sc.Email, err)
		}
		logger.Info("Subject registered",
			zap.String("subject_id", subject.ID.String()),
			zap.String("notification_level", string(subject.NotificationLevel)))
		subjects = append(subjects, *subject)
	}
	return subjects, nil
}
