// Package logsink configures the process-wide slog logger and, when asked,
// ships logs and traces off the box.
package logsink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const ServiceName = "ninjachef"

// Setup installs the default logger: text on stderr plus whichever sinks cfg
// enables. Call the returned function before exiting to flush them.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level})}
	var closers []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		return errors.Join(lo.Map(closers, func(c func(context.Context) error, _ int) error { return c(ctx) })...)
	}

	if cfg.Enabled() {
		bh, err := NewBlobHandler(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob log sink: %w", err)
		}
		handlers = append(handlers, bh)
		closers = append(closers, bh.Close)
	}

	if cfg.OTLPEndpoint != "" {
		res := resource.NewSchemaless(attribute.String("service.name", ServiceName))

		logExp, err := otlploghttp.New(ctx)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create otlp log exporter: %w", err), shutdown(ctx))
		}
		lp := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(lp)
		closers = append(closers, lp.Shutdown)
		handlers = append(handlers, otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(lp)))

		traceExp, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create otlp trace exporter: %w", err), shutdown(ctx))
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
		otel.SetTracerProvider(tp)
		closers = append(closers, tp.Shutdown)
	}

	slog.SetDefault(slog.New(&traceHandler{Handler: fanout(handlers)}))
	return shutdown, nil
}

type multiHandler []slog.Handler

func fanout(handlers []slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return multiHandler(handlers)
}

func (m multiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return lo.SomeBy(m, func(h slog.Handler) bool { return h.Enabled(ctx, l) })
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return multiHandler(lo.Map(m, func(h slog.Handler, _ int) slog.Handler { return h.WithAttrs(attrs) }))
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	return multiHandler(lo.Map(m, func(h slog.Handler, _ int) slog.Handler { return h.WithGroup(name) }))
}

// traceHandler stamps records with the ids of the span in ctx, if any.
type traceHandler struct {
	slog.Handler
}

func (t *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r = r.Clone()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return t.Handler.Handle(ctx, r)
}

func (t *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: t.Handler.WithAttrs(attrs)}
}

func (t *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: t.Handler.WithGroup(name)}
}
