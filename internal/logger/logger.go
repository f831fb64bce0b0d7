// Package logger provides the process-wide structured logger. Log lines
// carry the active trace and span IDs when tracing is on, so a filing's
// fetch, parse, and analysis records correlate across the pipeline.
package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/trace"
)

var (
	globalLogger = slog.Default()
	logLevel     slog.Level
)

// Init installs the global logger. Logs go to stderr so report output on
// stdout stays machine-readable.
func Init(cfg config.LoggingConfig) {
	logLevel = parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// parseLevel converts a config level string to a slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message.
func Debug(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelDebug, msg, args...)
}

// Info logs an info message.
func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelWarn, msg, args...)
}

// Error logs an error message.
func Error(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelError, msg, args...)
}

// ErrorWithErr logs an error message with the error object, and records the
// error on the active span.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	trace.RecordError(ctx, err)
	allArgs := append([]any{"error", err}, args...)
	logWithTrace(ctx, slog.LevelError, msg, allArgs...)
}

// logWithTrace logs a message with trace correlation IDs. Must be called
// through exactly one exported wrapper so the caller frame resolves:
// runtime.Caller -> logWithTrace -> wrapper -> actual caller.
func logWithTrace(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !globalLogger.Enabled(ctx, level) {
		return
	}

	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		args = append([]any{"trace_id", traceID, "span_id", spanID}, args...)
	}

	if logLevel <= slog.LevelDebug {
		if pc, file, line, ok := runtime.Caller(2); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				args = append(args, "source", slog.GroupValue(
					slog.String("function", fn.Name()),
					slog.String("file", file),
					slog.Int("line", line),
				))
			}
		}
	}

	globalLogger.Log(ctx, level, msg, args...)
}

// OperationTimer measures an operation's duration under a span.
type OperationTimer struct {
	ctx       context.Context
	operation string
	start     time.Time
	fields    []any
}

// StartOperation opens a span for the operation and starts the clock.
func StartOperation(ctx context.Context, operation string, fields ...any) *OperationTimer {
	ctx, _ = trace.StartSpan(ctx, operation)
	trace.SetAttributes(ctx, attrsFromFields(fields)...)

	Debug(ctx, "operation started", append([]any{"operation", operation}, fields...)...)

	return &OperationTimer{
		ctx:       ctx,
		operation: operation,
		start:     time.Now(),
		fields:    fields,
	}
}

// Context returns the context carrying the operation's span.
func (ot *OperationTimer) Context() context.Context {
	return ot.ctx
}

// End completes the operation and closes its span.
func (ot *OperationTimer) End(additionalFields ...any) {
	duration := time.Since(ot.start)

	trace.SetAttributes(ot.ctx, attribute.Int64("duration_ms", duration.Milliseconds()))
	trace.SetAttributes(ot.ctx, attrsFromFields(additionalFields)...)
	trace.EndSpan(ot.ctx, nil)

	fields := append([]any{"operation", ot.operation}, ot.fields...)
	fields = append(fields, "duration_ms", duration.Milliseconds())
	fields = append(fields, additionalFields...)
	Debug(ot.ctx, "operation completed", fields...)
}

// EndWithError completes the operation, marking its span failed.
func (ot *OperationTimer) EndWithError(err error, additionalFields ...any) {
	duration := time.Since(ot.start)

	trace.SetAttributes(ot.ctx, attribute.Int64("duration_ms", duration.Milliseconds()))
	trace.EndSpan(ot.ctx, err)

	fields := append([]any{"operation", ot.operation, "error", err}, ot.fields...)
	fields = append(fields, "duration_ms", duration.Milliseconds())
	fields = append(fields, additionalFields...)
	Error(ot.ctx, "operation failed", fields...)
}

// attrsFromFields converts alternating key/value log fields into span
// attributes, skipping values with no attribute mapping.
func attrsFromFields(fields []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		}
	}
	return attrs
}

// Alert logs a fired financial alert. Alerts are the product of the
// analysis, so they log at warn regardless of how routine they are.
func Alert(ctx context.Context, ticker, message string, fields ...any) {
	trace.AddEvent(ctx, "alert_fired",
		attribute.String("ticker", ticker),
		attribute.String("alert", message),
	)

	allFields := append([]any{
		"type", "ALERT",
		"ticker", ticker,
		"alert", message,
	}, fields...)
	logWithTrace(ctx, slog.LevelWarn, "alert fired", allFields...)
}

// Filing logs a retrieved filing.
func Filing(ctx context.Context, ticker, form, accession string, fields ...any) {
	trace.AddEvent(ctx, "filing_retrieved",
		attribute.String("ticker", ticker),
		attribute.String("form", form),
		attribute.String("accession", accession),
	)

	allFields := append([]any{
		"type", "FILING",
		"ticker", ticker,
		"form", form,
		"accession", accession,
	}, fields...)
	logWithTrace(ctx, slog.LevelInfo, "filing retrieved", allFields...)
}

// Forecast logs a produced revenue forecast.
func Forecast(ctx context.Context, ticker, strategy string, value float64, fields ...any) {
	trace.AddEvent(ctx, "forecast_produced",
		attribute.String("ticker", ticker),
		attribute.String("strategy", strategy),
		attribute.Float64("value", value),
	)

	allFields := append([]any{
		"type", "FORECAST",
		"ticker", ticker,
		"strategy", strategy,
		"value", value,
	}, fields...)
	logWithTrace(ctx, slog.LevelInfo, "forecast produced", allFields...)
}

// IsDebugEnabled reports whether debug logging is on.
func IsDebugEnabled() bool {
	return logLevel <= slog.LevelDebug
}
