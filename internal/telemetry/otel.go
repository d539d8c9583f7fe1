package telemetry

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const serviceName = "checkpointd"

// InitOtelSDK registers a global meter provider that periodically pushes
// metrics to the given OTLP/HTTP collector. The returned function flushes
// and shuts down the provider.
func InitOtelSDK(
	ctx context.Context, otelCollectorEndpoint string, pushInterval time.Duration,
) (func(context.Context) error, error) {
	exporter, err := otlpmetrichttp.New(
		ctx, otlpmetrichttp.WithEndpointURL(otelCollectorEndpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp metric exporter: %s", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(pushInterval)),
		),
	)
	otel.SetMeterProvider(provider)

	log.Infof("pushing metrics to %s every %s", otelCollectorEndpoint, pushInterval)

	return provider.Shutdown, nil
}
