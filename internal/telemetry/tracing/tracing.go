package tracing

import (
	"fmt"

	"github.com/honeycombio/otel-config-go/otelconfig"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const honeycombEndpoint = "api.honeycomb.io:443"

var GlobalTracer = otel.Tracer("blogapp-backend")

type SetupParams struct {
	Enabled     bool
	ServiceName string
	APIKey      string
}

// Setup configures the OpenTelemetry SDK to export spans to honeycomb.
// When disabled, the no-op global tracer provider stays in place.
func Setup(params SetupParams) (func(), error) {
	if !params.Enabled {
		log.Debugln("tracing disabled")
		return func() {}, nil
	}

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(params.ServiceName),
		otelconfig.WithExporterEndpoint(honeycombEndpoint),
		otelconfig.WithHeaders(map[string]string{
			"x-honeycomb-team": params.APIKey,
		}),
		otelconfig.WithMetricsEnabled(false),
	)
	if err != nil {
		return nil, fmt.Errorf("configure opentelemetry: %w", err)
	}

	log.Debugf("tracing enabled for service [%s]", params.ServiceName)
	return otelShutdown, nil
}
