package application

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/arkade-os/checkpointd/checkpoints"

type managerMetrics struct {
	culled          metric.Int64Counter
	detached        metric.Int64Counter
	checks          metric.Int64Counter
	immutableHeight metric.Int64Gauge
	storeFailures   metric.Int64Counter
}

// newManagerMetrics binds the instruments to the global meter provider, which
// is a no-op until telemetry is initialized.
func newManagerMetrics() *managerMetrics {
	meter := otel.Meter(meterName)
	m := &managerMetrics{}

	var err error
	if m.culled, err = meter.Int64Counter(
		"checkpoints_culled_total",
		metric.WithDescription("Number of checkpoints pruned after a block was added"),
	); err != nil {
		log.WithError(err).Warn("failed to create culled checkpoints counter")
	}
	if m.detached, err = meter.Int64Counter(
		"checkpoints_detached_total",
		metric.WithDescription("Number of checkpoints removed by chain rollbacks"),
	); err != nil {
		log.WithError(err).Warn("failed to create detached checkpoints counter")
	}
	if m.checks, err = meter.Int64Counter(
		"checkpoint_checks_total",
		metric.WithDescription("Number of blocks checked against a checkpoint"),
	); err != nil {
		log.WithError(err).Warn("failed to create checkpoint checks counter")
	}
	if m.immutableHeight, err = meter.Int64Gauge(
		"checkpoint_immutable_height",
		metric.WithDescription("Highest height known to be immutable"),
	); err != nil {
		log.WithError(err).Warn("failed to create immutable height gauge")
	}
	if m.storeFailures, err = meter.Int64Counter(
		"checkpoint_store_failures_total",
		metric.WithDescription("Number of failed checkpoint store operations"),
	); err != nil {
		log.WithError(err).Warn("failed to create store failures counter")
	}
	return m
}

func (m *managerMetrics) addCulled(ctx context.Context, n int) {
	if m.culled != nil && n > 0 {
		m.culled.Add(ctx, int64(n))
	}
}

func (m *managerMetrics) addDetached(ctx context.Context, n int) {
	if m.detached != nil && n > 0 {
		m.detached.Add(ctx, int64(n))
	}
}

func (m *managerMetrics) addCheck(ctx context.Context, passed, isServiceNode bool) {
	if m.checks == nil {
		return
	}
	m.checks.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("passed", passed),
		attribute.Bool("service_node", isServiceNode),
	))
}

func (m *managerMetrics) setImmutableHeight(ctx context.Context, height uint64) {
	if m.immutableHeight != nil {
		m.immutableHeight.Record(ctx, int64(height))
	}
}

func (m *managerMetrics) addStoreFailure(ctx context.Context, operation string) {
	if m.storeFailures != nil {
		m.storeFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
		))
	}
}
