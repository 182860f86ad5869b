package observability

import (
	"testing"

	"github.com/smallbiznis/apotek/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEPLOYMENT_ENV", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "")

	cfg := LoadConfig(config.Config{AppName: "apotek", Environment: "development", AppVersion: "1.2.3"})

	assert.Equal(t, "apotek", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.False(t, cfg.OtelEnabled)
	assert.True(t, cfg.Debug())
}

func TestLoadConfigTraceProtocolOverride(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("DEPLOYMENT_ENV", "production")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := LoadConfig(config.Config{})
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.False(t, cfg.Debug())
}
