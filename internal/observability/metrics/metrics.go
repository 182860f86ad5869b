package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	medicinesReceived metric.Int64Counter
	unitsReceived     metric.Int64Counter
	invoicesCreated   metric.Int64Counter
	unitsSold         metric.Int64Counter
	stockRejections   metric.Int64Counter
	deactivations     metric.Int64Counter
	rateLimitDenied   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "apotek"
	}
	meter := provider.Meter(name)

	medicinesReceived, err := meter.Int64Counter("apotek_intake_medicines_total")
	if err != nil {
		return nil, err
	}
	unitsReceived, err := meter.Int64Counter("apotek_intake_units_total")
	if err != nil {
		return nil, err
	}
	invoicesCreated, err := meter.Int64Counter("apotek_invoices_created_total")
	if err != nil {
		return nil, err
	}
	unitsSold, err := meter.Int64Counter("apotek_units_sold_total")
	if err != nil {
		return nil, err
	}
	stockRejections, err := meter.Int64Counter("apotek_stock_rejections_total")
	if err != nil {
		return nil, err
	}
	deactivations, err := meter.Int64Counter("apotek_medicine_deactivations_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("apotek_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		medicinesReceived: medicinesReceived,
		unitsReceived:     unitsReceived,
		invoicesCreated:   invoicesCreated,
		unitsSold:         unitsSold,
		stockRejections:   stockRejections,
		deactivations:     deactivations,
		rateLimitDenied:   rateLimitDenied,
	}, nil
}

// NewNoop returns instruments bound to a no-op provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordIntake counts one purchase batch worth of medicines and units.
func (m *Metrics) RecordIntake(ctx context.Context, medicines int, units int64) {
	if m == nil {
		return
	}
	m.medicinesReceived.Add(ctx, int64(medicines))
	m.unitsReceived.Add(ctx, units)
}

// RecordInvoice counts a created invoice and the units it sold.
func (m *Metrics) RecordInvoice(ctx context.Context, units int64) {
	if m == nil {
		return
	}
	m.invoicesCreated.Add(ctx, 1)
	m.unitsSold.Add(ctx, units)
}

// RecordStockRejection counts invoice attempts refused by a precondition.
func (m *Metrics) RecordStockRejection(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.stockRejections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDeactivation counts medicines moved to inactive, by reason (depleted, expired, archived).
func (m *Metrics) RecordDeactivation(ctx context.Context, reason string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.deactivations.Add(ctx, count, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
	"role":        {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
