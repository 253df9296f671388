package handlers

import (
	"log/slog"
	"net/http"

	"github.com/tphummel/crowpanel/internal/metrics"
	"github.com/tphummel/crowpanel/internal/middleware"
)

// NewMux registers every route of the status API. Slot routes require the
// bearer token; health, metrics and docs do not.
func NewMux(h *Handler, token string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// The method is its own metrics label, so only the path names the route.
	route := func(method, path string, next http.Handler) {
		mux.Handle(method+" "+path, metrics.Middleware(path, next))
	}

	route(http.MethodGet, "/healthz", http.HandlerFunc(h.Health))
	mux.Handle("GET /metrics", metrics.Handler(h.Gatherer))
	route(http.MethodGet, "/openapi.yaml", http.HandlerFunc(OpenAPISpec))
	route(http.MethodGet, "/docs", http.HandlerFunc(h.Docs))

	route(http.MethodGet, "/api/v1/slots", middleware.Auth(token, http.HandlerFunc(h.ListSlots)))
	route(http.MethodGet, "/api/v1/slots/{slot}", middleware.Auth(token, http.HandlerFunc(h.GetSlot)))
	route(http.MethodGet, "/api/v1/selection", middleware.Auth(token, http.HandlerFunc(h.GetSelection)))

	skip := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	return middleware.RequestLogger(logger, skip, mux)
}
