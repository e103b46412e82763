package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/authgate/authgate/internal/pkg/config"
	"github.com/authgate/authgate/internal/pkg/instrument"
	"github.com/julienschmidt/httprouter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Bodies larger than this are truncated before logging.
const maxLoggedBodyBytes = 32 * 1024

// responseTap records the status, size and a capped copy of the body written
// through it, so the access log can include what was actually sent.
type responseTap struct {
	http.ResponseWriter
	status  int
	written int
	body    bytes.Buffer
	capped  bool
	err     error
}

func (t *responseTap) WriteHeader(code int) {
	t.status = code
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTap) Write(p []byte) (int, error) {
	if t.status == 0 {
		t.status = http.StatusOK
	}

	if !t.capped && len(p) > 0 {
		room := maxLoggedBodyBytes - t.body.Len()
		switch {
		case room <= 0:
			t.capped = true
		case len(p) > room:
			t.body.Write(p[:room])
			t.capped = true
		default:
			t.body.Write(p)
		}
	}

	n, err := t.ResponseWriter.Write(p)
	t.written += n
	return n, err
}

// SetError lets the error codec attach the handler error for span recording.
func (t *responseTap) SetError(err error) {
	t.err = err
}

func (t *responseTap) statusOrOK() int {
	if t.status == 0 {
		return http.StatusOK
	}
	return t.status
}

func (t *responseTap) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // it use dynamic error
func (t *responseTap) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := t.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// matchedRoutePath prefers the registered route pattern over the raw path so
// log and metric cardinality stays bounded.
func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func loadMaskKeys(cfg config.Config) map[string]struct{} {
	keys := make(map[string]struct{})
	if cfg == nil {
		return keys
	}
	for _, field := range cfg.GetArray("instrument.log_mask_fields") {
		field = strings.TrimSpace(strings.ToLower(field))
		if field != "" {
			keys[field] = struct{}{}
		}
	}
	return keys
}

func maskHeaders(headers http.Header, maskKeys map[string]struct{}) http.Header {
	if len(maskKeys) == 0 {
		return headers
	}

	result := headers.Clone()
	for key := range result {
		if _, found := maskKeys[strings.ToLower(key)]; found {
			result.Set(key, "***")
		}
	}
	return result
}

func maskData(v any, maskKeys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, inner := range val {
			if _, found := maskKeys[strings.ToLower(k)]; found {
				masked[k] = "***"
			} else {
				masked[k] = maskData(inner, maskKeys)
			}
		}
		return masked
	case []any:
		masked := make([]any, len(val))
		for i, inner := range val {
			masked[i] = maskData(inner, maskKeys)
		}
		return masked
	default:
		return v
	}
}

// loggableBody renders a request or response body for the access log, masking
// sensitive fields in JSON and form payloads.
func loggableBody(contentType string, body []byte, maskKeys map[string]struct{}) any {
	if len(body) == 0 {
		return nil
	}

	var asJSON any
	if err := json.Unmarshal(body, &asJSON); err == nil {
		return maskData(asJSON, maskKeys)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil {
			masked := make(map[string]any, len(values))
			for k, v := range values {
				switch {
				case hasMaskKey(maskKeys, k):
					masked[k] = "***"
				case len(v) == 1:
					masked[k] = v[0]
				default:
					masked[k] = v
				}
			}
			return masked
		}
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if len(body) > maxLoggedBodyBytes {
		return string(body[:maxLoggedBodyBytes]) + "...(truncated)"
	}
	return string(body)
}

func hasMaskKey(maskKeys map[string]struct{}, key string) bool {
	_, found := maskKeys[strings.ToLower(key)]
	return found
}

// captureRequestBody reads up to the logging cap and splices what was read
// back onto r.Body so the handler still sees the full stream.
func captureRequestBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	//nolint:errcheck // best effort for logging only
	peeked, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(peeked), r.Body))
	if len(peeked) > maxLoggedBodyBytes {
		return peeked[:maxLoggedBodyBytes]
	}
	return peeked
}

func (t *responseTap) loggableBody(maskKeys map[string]struct{}) any {
	raw := t.body.Bytes()

	var body any
	var asJSON any
	switch {
	case json.Unmarshal(raw, &asJSON) == nil:
		body = maskData(asJSON, maskKeys)
	case utf8.Valid(raw):
		body = t.body.String()
	case len(raw) > 0:
		body = "<binary body omitted>"
	}

	if t.capped {
		body = map[string]any{"body": body, "truncated": true}
	}
	return body
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	maskKeys := loadMaskKeys(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requestCounter, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	durationHistogram, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	record := func(ctx context.Context, attrs []attribute.KeyValue, elapsedMs float64) {
		if requestCounter != nil {
			requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if durationHistogram != nil {
			durationHistogram.Record(ctx, elapsedMs, metric.WithAttributes(attrs...))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(
				r.Context(),
				r.Method+" "+route,
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			reqBody := captureRequestBody(r)
			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"headers", maskHeaders(r.Header, maskKeys),
				"body", loggableBody(r.Header.Get("Content-Type"), reqBody, maskKeys),
			)

			tap := &responseTap{ResponseWriter: w}
			next.ServeHTTP(tap, r.WithContext(ctx))

			status := tap.statusOrOK()
			elapsed := time.Since(start)

			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			if tap.err != nil {
				span.RecordError(tap.err)
			}
			switch {
			case status >= 500 && tap.err != nil:
				span.SetStatus(codes.Error, tap.err.Error())
			case status >= 500:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", tap.written),
			)
			record(ctx, attrs, float64(elapsed.Milliseconds()))

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"status", status,
				"bytes", tap.written,
				"latency_ms", elapsed.Milliseconds(),
				"body", tap.loggableBody(maskKeys),
			)
		})
	}
}
