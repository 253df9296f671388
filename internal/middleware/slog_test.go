package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/tphummel/crowpanel/internal/middleware"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func logEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v\noutput: %s", err, buf.String())
	}
	return entry
}

func TestRequestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.RequestLogger(newTestLogger(&buf), nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slots", nil))

	entry := logEntry(t, &buf)
	for _, key := range []string{"request_id", "method", "path", "status", "duration", "remote_addr"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("log entry missing key %q", key)
		}
	}
	if entry["path"] != "/api/v1/slots" {
		t.Errorf("path: got %v, want /api/v1/slots", entry["path"])
	}
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	handler := middleware.RequestLogger(newTestLogger(&buf), nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	id := rec.Header().Get(middleware.RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("response request id %q is not a uuid: %v", id, err)
	}
	if seen != id {
		t.Errorf("context id: got %q, want %q", seen, id)
	}
	if entry := logEntry(t, &buf); entry["request_id"] != id {
		t.Errorf("logged id: got %v, want %q", entry["request_id"], id)
	}
}

func TestRequestLogger_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.RequestLogger(newTestLogger(&buf), nil, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(middleware.RequestIDHeader); got != "abc-123" {
		t.Errorf("request id: got %q, want abc-123", got)
	}
}

func TestRequestLogger_Skip(t *testing.T) {
	skip := func(r *http.Request) bool { return r.URL.Path == "/healthz" }
	tests := []struct {
		path    string
		skip    func(*http.Request) bool
		wantLog bool
	}{
		{"/healthz", skip, false},
		{"/api/v1/slots", skip, true},
		{"/healthz", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			handler := middleware.RequestLogger(newTestLogger(&buf), tt.skip, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged: got %v, want %v (output %q)", got, tt.wantLog, buf.String())
			}
		})
	}
}

func TestRequestLogger_Status(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }, http.StatusNotFound},
		{"implicit 200", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("hello")) }, http.StatusOK}, //nolint:errcheck
		{"no write", func(w http.ResponseWriter, r *http.Request) {}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			middleware.RequestLogger(newTestLogger(&buf), nil, tt.handler).
				ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			if got := int(logEntry(t, &buf)["status"].(float64)); got != tt.want {
				t.Errorf("status: got %d, want %d", got, tt.want)
			}
		})
	}
}
