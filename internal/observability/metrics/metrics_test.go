package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("reason", "insufficient_stock"),
		attribute.String("medicine_id", "456"),
		attribute.String("endpoint", "/auth/login"),
	)
	require.Len(t, attrs, 2)
	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("reason"))
	assert.Contains(t, keys, attribute.Key("endpoint"))
}

func TestRecordInvoiceCountsUnits(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "apotek-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordInvoice(ctx, 30)
	m.RecordInvoice(ctx, 70)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	values := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				values[metric.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), values["apotek_invoices_created_total"])
	assert.Equal(t, int64(100), values["apotek_units_sold_total"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIntake(context.Background(), 1, 10)
		m.RecordDeactivation(context.Background(), "expired", 3)
	})
}
