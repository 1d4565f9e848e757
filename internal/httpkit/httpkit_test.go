package httpkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestCORS(t *testing.T) {
	h := CORS(CORSOptions{AllowedOrigins: []string{" http://localhost:5173 ", ""}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", http.MethodGet, "http://localhost:5173", http.StatusTeapot, "http://localhost:5173"},
		{"unknown origin", http.MethodGet, "http://evil.example", http.StatusTeapot, ""},
		{"no origin", http.MethodGet, "", http.StatusTeapot, ""},
		{"preflight", http.MethodOptions, "http://localhost:5173", http.StatusNoContent, "http://localhost:5173"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/scenes", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("allow origin = %q, want %q", got, tt.wantAllow)
			}
			if tt.wantAllow != "" && rec.Header().Get("Access-Control-Max-Age") != "600" {
				t.Errorf("max age = %q, want 600", rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestCORSWildcardAndDebug(t *testing.T) {
	h := CORS(CORSOptions{AllowedOrigins: []string{"*"}, DebugHeader: true, AllowCredentials: true})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://studio.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-CORS-Debug"); got != "origin=http://studio.local allowed=true" {
		t.Errorf("debug header = %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials header")
	}
}

func TestReadBody(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/preflight", strings.NewReader("file: {}"))
		b, err := ReadBody(req, 16)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(b) != "file: {}" {
			t.Errorf("body = %q", b)
		}
	})

	t.Run("exactly at limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/preflight", strings.NewReader("12345678"))
		if _, err := ReadBody(req, 8); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/preflight", strings.NewReader("123456789"))
		if _, err := ReadBody(req, 8); !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("expected ErrBodyTooLarge, got %v", err)
		}
	})
}

func TestWriteErr(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErr(rec, http.StatusNotFound, "NOT_FOUND", "scene not found: scn_1", map[string]any{"resource": "scene"})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "NOT_FOUND" || env.Error.Message != "scene not found: scn_1" {
		t.Errorf("envelope = %+v", env.Error)
	}
	if env.Error.Details["resource"] != "scene" {
		t.Errorf("details = %v", env.Error.Details)
	}
}

func TestWriteRaw(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRaw(rec, http.StatusOK, []byte(`{"status":"done"}`))

	if rec.Body.String() != `{"status":"done"}` {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestPgErrorCodes(t *testing.T) {
	undefined := fmt.Errorf("list: %w", &pgconn.PgError{Code: "42P01"})
	unique := &pgconn.PgError{Code: "23505"}

	if !IsUndefinedTable(undefined) || IsUndefinedTable(unique) {
		t.Error("IsUndefinedTable mismatch")
	}
	if !IsUniqueViolation(unique) || IsUniqueViolation(undefined) {
		t.Error("IsUniqueViolation mismatch")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Error("plain error is not a pg error")
	}
}
