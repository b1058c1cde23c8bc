package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDIsPropagated(t *testing.T) {
	var seen string
	router := gin.New()
	router.Use(Middleware{}.RequestID())
	router.GET("/", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "client supplied", header: "req-42"},
		{name: "generated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("request id mismatch: header %q context %q", got, seen)
			}
			if tt.header != "" && got != tt.header {
				t.Fatalf("expected %q, got %q", tt.header, got)
			}
		})
	}
}

func TestReadyzReportsFailingProbes(t *testing.T) {
	router := gin.New()
	health := HealthHandlers{Probes: map[string]Probe{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}}
	router.GET("/readyz", health.Readyz)
	router.GET("/livez", health.Livez)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body.Errors["redis"]; !ok || len(body.Errors) != 1 {
		t.Fatalf("unexpected errors %v", body.Errors)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected livez 200, got %d", rec.Code)
	}
}

func TestNewLoggerToWritesJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "production", slog.LevelInfo).Info("hello", "k", "v")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["k"] != "v" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
