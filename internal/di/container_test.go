package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stoik/mailshield/internal/adapters/httpapi"
	"github.com/stoik/mailshield/internal/application"
	"github.com/stoik/mailshield/internal/config"
	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/ports"
)

func testConfig() *config.Config {
	v := config.NewEmptyViper()
	v.Set("logging.format", "console")
	v.Set("detection.weights.typosquatting", 40)
	return config.NewFromViper(v)
}

func TestBuildContainer_ResolvesGraph(t *testing.T) {
	container, err := BuildContainerWithConfig(testConfig())
	require.NoError(t, err)

	err = container.Invoke(func(server *httpapi.Server, store ports.Storage, auto *application.AutoScanner) {
		assert.NotNil(t, server)
		assert.NotNil(t, auto)
		assert.NoError(t, store.Close())
	})
	require.NoError(t, err)
}

func TestBuildContainer_WeightOverrides(t *testing.T) {
	container, err := BuildContainerWithConfig(testConfig())
	require.NoError(t, err)

	err = container.Invoke(func(svc *application.ScanService) {
		result := svc.ScanEmail(domain.NewSignal("billing@paypa.com", "Hello", nil, nil, nil))
		assert.Equal(t, 40, result.Score)
	})
	require.NoError(t, err)
}

func TestBuildContainer_UnknownBackends(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"storage.type", "cassandra"},
		{"mail.provider", "pop3"},
		{"notify.type", "carrier-pigeon"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := testConfig()
			cfg.GetViper().Set(tt.key, tt.value)

			container, err := BuildContainerWithConfig(cfg)
			require.NoError(t, err)

			err = container.Invoke(func(*httpapi.Server) {})
			assert.ErrorContains(t, err, tt.value)
		})
	}
}

func TestBootstrapSubjects(t *testing.T) {
	cfg := testConfig()
	cfg.GetViper().Set("subjects", []map[string]interface{}{
		{"email": "alice@company.com", "notifications_enabled": true, "notification_level": "medium"},
		{"email": "bob@company.com"},
	})

	container, err := BuildContainerWithConfig(cfg)
	require.NoError(t, err)

	err = container.Invoke(func(svc *application.ScanService) {
		subjects, err := BootstrapSubjects(context.Background(), cfg, svc, zap.NewNop())
		require.NoError(t, err)
		require.Len(t, subjects, 2)
		assert.Equal(t, domain.NotifyMedium, subjects[0].NotificationLevel)
		assert.Equal(t, domain.NotifyHigh, subjects[1].NotificationLevel)

		// Bootstrapping twice keeps the same subjects
		again, err := BootstrapSubjects(context.Background(), cfg, svc, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, subjects[0].ID, again[0].ID)

		listed, err := svc.ListSubjects(context.Background())
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})
	require.NoError(t, err)
}
