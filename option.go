package toolgate

import (
	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/toolgate/model/types"
	"github.com/viant/toolgate/service/batch"
	"github.com/viant/toolgate/service/event"
	"github.com/viant/toolgate/service/messaging"
	"github.com/viant/toolgate/service/monitor"
	"github.com/viant/toolgate/service/prompt"
	"github.com/viant/toolgate/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service.
type Option func(s *Service)

// WithConfig sets the configuration; DefaultConfig is used otherwise.
func WithConfig(cfg *Config) Option {
	return func(s *Service) { s.config = cfg }
}

// WithLogger overrides the logger built from Config.Logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
		s.hasLogger = true
	}
}

// WithPrompter sets the presentation layer; the stdio prompter is used otherwise.
func WithPrompter(p prompt.Prompter) Option {
	return func(s *Service) { s.prompter = p }
}

// WithMetrics shares a metrics set; a private registry is created otherwise.
func WithMetrics(m *monitor.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFS sets the file system used by the diff stage, the file tool and the batch store.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithEventQueue tees every governance event into queue.
func WithEventQueue(queue messaging.Queue[event.Event]) Option {
	return func(s *Service) { s.queue = queue }
}

// WithRunnerFactory replaces the local gosh shell used by batches and the shell tool.
func WithRunnerFactory(factory batch.RunnerFactory) Option {
	return func(s *Service) { s.factory = factory }
}

// WithTools registers additional tool services.
func WithTools(services ...types.Service) Option {
	return func(s *Service) { s.tools = append(s.tools, services...) }
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file
// path. The first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
		s.tracing = true
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter, for example OTLP, Jaeger or Zipkin.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
		s.tracing = true
	}
}
