package observability

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/footdata/standings-engine/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"
)

const (
	uptraceLogInstrumentation = "standings-engine/internal/platform/logging"
	maxLogValueDepth          = 3
)

// newUptraceLogMirror adapts the zap logger's key-value pairs into OTel log
// records so every standings log line also lands in Uptrace.
func newUptraceLogMirror(serviceVersion string) logging.MirrorFunc {
	sink := otelglobal.Logger(
		uptraceLogInstrumentation,
		otellog.WithInstrumentationVersion(serviceVersion),
	)

	return func(ctx context.Context, level logging.Level, msg string, args ...any) {
		if shouldSkipUptraceLog(msg, args) {
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}

		severity := toOTelSeverity(level)
		if !sink.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: msg}) {
			return
		}

		sink.Emit(ctx, buildLogRecord(severity, level.String(), msg, args))
	}
}

// buildLogRecord stamps both timestamps with the same instant; the mirror
// sees lines the moment zap writes them, so the two never differ.
func buildLogRecord(severity otellog.Severity, levelText, msg string, args []any) otellog.Record {
	now := time.Now().UTC()

	var rec otellog.Record
	rec.SetTimestamp(now)
	rec.SetObservedTimestamp(now)
	rec.SetSeverity(severity)
	rec.SetSeverityText(strings.ToUpper(levelText))
	rec.SetEventName(msg)
	rec.SetBody(otellog.StringValue(msg))
	rec.AddAttributes(buildOTelLogAttributes(args)...)

	return rec
}

// Access log lines for probes would dominate the stream, so health checks
// and Prometheus scrapes stay local.
func shouldSkipUptraceLog(msg string, args []any) bool {
	if msg != "http request" {
		return false
	}
	switch stringLogArg(args, "path") {
	case "/healthz", "/metrics":
		return true
	default:
		return false
	}
}

// stringLogArg returns the first string value logged under key, or "".
func stringLogArg(args []any, key string) string {
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); !ok || k != key {
			continue
		}
		s, _ := args[i+1].(string)
		return s
	}
	return ""
}

// buildOTelLogAttributes converts zap-style alternating key-value args.
// Non-string keys get a positional name, and a trailing key without a value
// becomes an empty attribute rather than being silently dropped.
func buildOTelLogAttributes(args []any) []otellog.KeyValue {
	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || strings.TrimSpace(key) == "" {
			key = fmt.Sprintf("arg_%d", i/2)
		}
		if i+1 == len(args) {
			attrs = append(attrs, otellog.Empty(key))
			break
		}
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: toOTelLogValue(args[i+1], 0)})
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func toOTelSeverity(level zapcore.Level) otellog.Severity {
	switch {
	case level >= zapcore.DPanicLevel:
		return otellog.SeverityFatal
	case level >= zapcore.ErrorLevel:
		return otellog.SeverityError
	case level >= zapcore.WarnLevel:
		return otellog.SeverityWarn
	case level >= zapcore.InfoLevel:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityDebug
	}
}

// toOTelLogValue maps one logged value onto the OTel value model. The
// concrete cases cover types whose formatted form beats their structure;
// everything else goes through reflection.
func toOTelLogValue(value any, depth int) otellog.Value {
	if depth >= maxLogValueDepth {
		return otellog.StringValue(fmt.Sprint(value))
	}

	switch v := value.(type) {
	case nil:
		return otellog.Value{}
	case error:
		return otellog.StringValue(v.Error())
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case []byte:
		return otellog.BytesValue(append([]byte(nil), v...))
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	}

	return reflectedOTelLogValue(reflect.ValueOf(value), depth)
}

// reflectedOTelLogValue maps the remaining kinds. Named numeric and string
// types land here, so queue priorities and match statuses keep primitive
// encodings instead of degrading to fmt.Sprint.
func reflectedOTelLogValue(rv reflect.Value, depth int) otellog.Value {
	switch rv.Kind() {
	case reflect.String:
		return otellog.StringValue(rv.String())
	case reflect.Bool:
		return otellog.BoolValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return otellog.Int64Value(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return otellog.StringValue(fmt.Sprint(rv.Interface()))
		}
		return otellog.Int64Value(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return otellog.Float64Value(rv.Float())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return otellog.Value{}
		}
		return toOTelLogValue(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			out := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(out), rv)
			return otellog.BytesValue(out)
		}
		items := make([]otellog.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, toOTelLogValue(rv.Index(i).Interface(), depth+1))
		}
		return otellog.SliceValue(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return otellog.StringValue(fmt.Sprint(rv.Interface()))
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return keys[i].String() < keys[j].String()
		})
		kvs := make([]otellog.KeyValue, 0, len(keys))
		for _, key := range keys {
			kvs = append(kvs, otellog.KeyValue{
				Key:   key.String(),
				Value: toOTelLogValue(rv.MapIndex(key).Interface(), depth+1),
			})
		}
		return otellog.MapValue(kvs...)
	default:
		return otellog.StringValue(fmt.Sprint(rv.Interface()))
	}
}
