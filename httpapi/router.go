package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/code-payments/moderation-gateway/metrics"
)

const (
	RouteModerateText  = "/moderate-text"
	RouteModerateImage = "/moderate-image"
	RouteHealth        = "/health"
	RouteMetrics       = "/metrics"
)

// NewRouter wires the routes and middleware. collector may be nil, in which
// case /metrics is not served.
func NewRouter(log *zap.Logger, handler *Handler, collector *metrics.Collector, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+RouteModerateText, handler.HandleModerateText)
	mux.HandleFunc("POST "+RouteModerateImage, handler.HandleModerateImage)
	mux.HandleFunc("GET "+RouteHealth, handler.HandleHealth)
	if collector != nil {
		mux.Handle("GET "+RouteMetrics, collector.Handler())
	}

	// Recovery sits inside Observe so a recovered panic is logged with its
	// request id and counted as a 500.
	return Chain(jsonFallback(mux),
		RequestID(),
		Observe(log, collector),
		Recovery(log),
		CORS(allowedOrigins),
	)
}

// jsonFallback replaces the mux's plain-text 404 and 405 bodies with the
// JSON error envelope.
func jsonFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		sw := &statusWriter{header: http.Header{}, status: http.StatusOK}
		mux.ServeHTTP(sw, r)

		switch sw.status {
		case http.StatusNotFound:
			WriteError(w, http.StatusNotFound, CodeNotFound, "route not found")
		case http.StatusMethodNotAllowed:
			if allow := sw.header.Get("Allow"); allow != "" {
				w.Header().Set("Allow", allow)
			}
			WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path)
		default:
			if loc := sw.header.Get("Location"); loc != "" {
				w.Header().Set("Location", loc)
			}
			w.WriteHeader(sw.status)
		}
	})
}

// statusWriter records the status of a fallback response and drops its body.
type statusWriter struct {
	header http.Header
	status int
}

func (sw *statusWriter) Header() http.Header { return sw.header }

func (sw *statusWriter) WriteHeader(code int) { sw.status = code }

func (sw *statusWriter) Write(b []byte) (int, error) { return len(b), nil }
