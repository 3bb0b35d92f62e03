package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
)

func TestTracingConfigValidate(t *testing.T) {
	if err := DefaultTracingConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cases := map[string]func(*TracingConfig){
		"exporter":     func(c *TracingConfig) { c.Exporter = "zipkin" },
		"ratio":        func(c *TracingConfig) { c.SampleRatio = 1.5 },
		"service name": func(c *TracingConfig) { c.Enabled, c.ServiceName = true, " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultTracingConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Output = &buf
	cfg.Attributes = map[string]string{"array.layout": "8x8"}

	ctx := context.Background()
	shutdown, err := InitTracing(ctx, cfg, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), TracingConfig{}, nil)
	})

	_, span := otel.Tracer("test").Start(ctx, "precoding.Run")
	span.End()
	ShutdownWithTimeout(ctx, shutdown, logging.Noop())

	out := buf.String()
	if !strings.Contains(out, "precoding.Run") {
		t.Fatalf("span not exported: %s", out)
	}
	if !strings.Contains(out, "array.layout") {
		t.Fatalf("resource attribute missing: %s", out)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Exporter = "zipkin"
	if _, err := InitTracing(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unsupported exporter")
	}
}

func TestSamplerFor(t *testing.T) {
	params := sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		Name:          "precoding.Run",
	}
	cases := []struct {
		ratio float64
		want  sdktrace.SamplingDecision
	}{
		{1, sdktrace.RecordAndSample},
		{0, sdktrace.Drop},
		{2, sdktrace.RecordAndSample},
	}
	for _, tc := range cases {
		if got := samplerFor(tc.ratio).ShouldSample(params).Decision; got != tc.want {
			t.Fatalf("ratio %v: decision = %v, want %v", tc.ratio, got, tc.want)
		}
	}
}
