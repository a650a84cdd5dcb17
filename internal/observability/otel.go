package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"talentsift/internal/config"
	"talentsift/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	PrettyPrint    bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// Metrics holds the screening service's custom instruments
type Metrics struct {
	// LLM call instruments
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Screening pipeline instruments
	ResumesScreened  metric.Int64Counter
	BatchesProcessed metric.Int64Counter
	BatchSize        metric.Int64Histogram
	ScreeningScore   metric.Int64Histogram

	// Infrastructure instruments
	CertReloadCount metric.Int64Counter
	CertExpiryTime  metric.Float64Gauge
	RateLimitHits   metric.Int64Counter
}

// ObservabilityManager owns the OpenTelemetry tracer and meter providers
// for the screening service
type ObservabilityManager struct {
	config         ObservabilityConfig
	fullConfig     *config.Config
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
	prometheusMux  *http.ServeMux
}

// NewObservabilityManager wires tracing and metrics. When observability
// is disabled the manager still exists so callers never branch on nil.
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	om := &ObservabilityManager{config: obsConfig, fullConfig: fullConfig}
	if !obsConfig.Enabled {
		return om, nil
	}

	res, err := om.serviceResource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	if err := om.initTracing(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := om.initMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return om, nil
}

// serviceResource identifies this screening instance in exported telemetry
func (om *ObservabilityManager) serviceResource() (*resource.Resource, error) {
	instance := "talentsift-1"
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		instance = om.fullConfig.Observability.ServiceInstance
	}

	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", instance),
		),
	)
}

// initTracing picks the span exporter (console for development, OTLP for
// production, a no-op otherwise) and installs the tracer provider
func (om *ObservabilityManager) initTracing(res *resource.Resource) error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled:
		exporter, err = otlptracehttp.New(context.Background(), om.otlpTraceOptions()...)
	default:
		exporter = &discardSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(om.config.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

// initMetrics assembles the configured metric readers and registers the
// custom instruments
func (om *ObservabilityManager) initMetrics(res *resource.Resource) error {
	readers, err := om.metricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	om.metrics, err = newMetrics(mp.Meter(om.config.ServiceName))
	return err
}

// metricReaders builds one reader per enabled sink: console, OTLP push
// and Prometheus scrape. With nothing enabled a manual reader keeps the
// provider functional.
func (om *ObservabilityManager) metricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	interval := om.collectionInterval()

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled {
		exporter, err := otlpmetrichttp.New(context.Background(), om.otlpMetricOptions()...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.config.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		readers = append(readers, reader)
		om.prometheusMux = mux
		if err := StartPrometheusServer(mux, om.config.Prometheus.Port); err != nil {
			return nil, fmt.Errorf("failed to start Prometheus server: %w", err)
		}
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

func (om *ObservabilityManager) otlpTraceOptions() []otlptracehttp.Option {
	otlp := om.fullConfig.Observability.OTLP
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlp.Headers))
	}
	return opts
}

func (om *ObservabilityManager) otlpMetricOptions() []otlpmetrichttp.Option {
	otlp := om.fullConfig.Observability.OTLP
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlp.Headers))
	}
	return opts
}

func (om *ObservabilityManager) collectionInterval() time.Duration {
	if om.fullConfig != nil {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}

// instrumentSet creates instruments on a meter, keeping the first error
// so the declarations below stay flat
type instrumentSet struct {
	meter metric.Meter
	err   error
}

func (s *instrumentSet) counter(name, desc string) metric.Int64Counter {
	if s.err != nil {
		return nil
	}
	c, err := s.meter.Int64Counter(name, metric.WithDescription(desc))
	s.err = err
	return c
}

func (s *instrumentSet) intHistogram(name, desc, unit string) metric.Int64Histogram {
	if s.err != nil {
		return nil
	}
	var opts []metric.Int64HistogramOption
	opts = append(opts, metric.WithDescription(desc))
	if unit != "" {
		opts = append(opts, metric.WithUnit(unit))
	}
	h, err := s.meter.Int64Histogram(name, opts...)
	s.err = err
	return h
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	set := &instrumentSet{meter: meter}
	m := &Metrics{
		AIRequestCount:   set.counter("talentsift_ai_requests_total", "Total number of AI requests"),
		AIErrorCount:     set.counter("talentsift_ai_errors_total", "Total number of AI request errors"),
		AITokenUsage:     set.intHistogram("talentsift_ai_token_usage_total", "Token usage for AI requests (input, output, total)", "tokens"),
		ResumesScreened:  set.counter("talentsift_resumes_screened_total", "Total number of resumes screened"),
		BatchesProcessed: set.counter("talentsift_batches_processed_total", "Total number of screening batches processed"),
		BatchSize:        set.intHistogram("talentsift_batch_size", "Number of resumes per screening batch", ""),
		ScreeningScore:   set.intHistogram("talentsift_screening_score", "Overall score distribution of screened resumes", ""),
		CertReloadCount:  set.counter("talentsift_cert_reloads_total", "Total number of certificate reloads"),
		RateLimitHits:    set.counter("talentsift_rate_limit_hits_total", "Total number of rate limit hits"),
	}
	if set.err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", set.err)
	}

	var err error
	m.AIProcessingTime, err = meter.Float64Histogram(
		"talentsift_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI duration instrument: %w", err)
	}
	m.CertExpiryTime, err = meter.Float64Gauge(
		"talentsift_cert_expiry_seconds",
		metric.WithDescription("Seconds until certificate expiry"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate expiry instrument: %w", err)
	}
	return m, nil
}

// GetMetrics returns the instrument set. Safe when observability is
// disabled: the recording helpers treat nil instruments as off.
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// HTTPMiddleware instruments inbound HTTP requests
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}
	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown flushes and stops the providers
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// AIOperationResult carries the outcome of one LLM call, including token
// usage when the provider reports it
type AIOperationResult struct {
	Error      error
	TokenUsage *types.TokenUsage
}

// TrackAIOperationWithTokens runs one LLM call inside a span and records
// duration, request count, errors and token usage according to the
// custom-metrics configuration
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult, om *ObservabilityManager) error {
	if m.AIProcessingTime == nil {
		// Instruments absent, run the call unobserved
		if result := fn(ctx); result != nil {
			return result.Error
		}
		return nil
	}

	tracer := otel.Tracer("talentsift.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	aiCfg := aiMetricsConfig(om)
	if aiCfg.Enabled {
		attrs := []attribute.KeyValue{
			attribute.String("operation", operation),
			attribute.Bool("success", err == nil),
		}
		if aiCfg.TrackDuration {
			m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
		}
		m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		m.recordTokenUsage(ctx, result, attrs, aiCfg.TrackTokenUsage, span)
		span.SetAttributes(attrs...)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}
	return err
}

// aiMetricsConfig returns the AI custom-metrics switches, defaulting to
// everything on when no config is attached
func aiMetricsConfig(om *ObservabilityManager) config.AIOperationsMetricsConfig {
	if om == nil || om.fullConfig == nil {
		return config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true}
	}
	return om.fullConfig.Observability.CustomMetrics.AIOperations
}

// recordTokenUsage emits per-type token counts and annotates the span.
// Span attributes are always written; the histogram honors the config.
func (m *Metrics) recordTokenUsage(ctx context.Context, result *AIOperationResult, attrs []attribute.KeyValue, track bool, span oteltrace.Span) {
	if result == nil || result.TokenUsage == nil || m.AITokenUsage == nil {
		return
	}
	usage := result.TokenUsage

	if track {
		for tokenType, count := range map[string]int{
			"input":  usage.InputTokens,
			"output": usage.OutputTokens,
			"total":  usage.TotalTokens,
		} {
			tokenAttrs := append([]attribute.KeyValue{attribute.String("token_type", tokenType)}, attrs...)
			m.AITokenUsage.Record(ctx, int64(count), metric.WithAttributes(tokenAttrs...))
		}
	}

	span.SetAttributes(
		attribute.Int("ai.tokens.input", usage.InputTokens),
		attribute.Int("ai.tokens.output", usage.OutputTokens),
		attribute.Int("ai.tokens.total", usage.TotalTokens),
	)
}

// RecordBusinessMetric counts one screening pipeline event
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, om *ObservabilityManager, attributes ...attribute.KeyValue) {
	if om != nil && om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.BusinessMetrics.Enabled {
		return
	}

	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)
	opts := metric.WithAttributes(attrs...)

	switch metricType {
	case "resume_screened":
		if m.ResumesScreened != nil {
			m.ResumesScreened.Add(ctx, 1, opts)
		}
	case "batch_processed":
		if m.BatchesProcessed != nil {
			m.BatchesProcessed.Add(ctx, 1, opts)
		}
	case "rate_limit_hit":
		if om != nil && om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackRateLimits {
			return
		}
		if m.RateLimitHits != nil {
			m.RateLimitHits.Add(ctx, 1, opts)
		}
	}
}

// RecordBatchSize feeds the batch size histogram when tracking is on
func (m *Metrics) RecordBatchSize(ctx context.Context, size int, om *ObservabilityManager) {
	if m.BatchSize == nil || !businessTrackingEnabled(om, func(bm config.BusinessMetricsConfig) bool { return bm.TrackBatchSizes }) {
		return
	}
	m.BatchSize.Record(ctx, int64(size))
}

// RecordScreeningScore feeds the score histogram for one screened resume
func (m *Metrics) RecordScreeningScore(ctx context.Context, score int, om *ObservabilityManager) {
	if m.ScreeningScore == nil || !businessTrackingEnabled(om, func(bm config.BusinessMetricsConfig) bool { return bm.TrackScores }) {
		return
	}
	m.ScreeningScore.Record(ctx, int64(score))
}

func businessTrackingEnabled(om *ObservabilityManager, track func(config.BusinessMetricsConfig) bool) bool {
	if om == nil || om.fullConfig == nil {
		return true
	}
	bm := om.fullConfig.Observability.CustomMetrics.BusinessMetrics
	return bm.Enabled && track(bm)
}

// discardSpanExporter drops spans when no exporter is configured
type discardSpanExporter struct{}

func (discardSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (discardSpanExporter) Shutdown(ctx context.Context) error { return nil }
