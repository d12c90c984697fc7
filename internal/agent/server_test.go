package agent

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthEndpointRequiresNoAuth(t *testing.T) {
	cfg := Config{Token: "real-token"}
	srv := NewServer(cfg, NewTable(cfg))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestStatusEndpointRejectsMissingToken(t *testing.T) {
	cfg := Config{Token: "real-token"}
	srv := NewServer(cfg, NewTable(cfg))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStatusEndpointRejectsWrongToken(t *testing.T) {
	cfg := Config{Token: "real-token"}
	srv := NewServer(cfg, NewTable(cfg))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestStatusEndpointAcceptsCorrectToken(t *testing.T) {
	cfg := Config{Token: "real-token"}
	srv := NewServer(cfg, NewTable(cfg))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer real-token")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "[]\n" {
		t.Errorf("body = %q, want empty job list", rec.Body.String())
	}
}

func TestAuthDisabledWhenTokenIsPlaceholder(t *testing.T) {
	cfg := Config{Token: defaultToken}
	srv := NewServer(cfg, NewTable(cfg))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (auth should be disabled)", rec.Code, http.StatusOK)
	}
}

func TestStartRejectsEmptyCmd(t *testing.T) {
	cfg := Config{Token: defaultToken}
	srv := NewServer(cfg, NewTable(cfg))

	req := httptest.NewRequest(http.MethodPost, "/start", strings.NewReader(`{"cmd":[]}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestStopUnknownJobReturnsNotFound(t *testing.T) {
	cfg := Config{Token: defaultToken}
	srv := NewServer(cfg, NewTable(cfg))

	req := httptest.NewRequest(http.MethodPost, "/stop", strings.NewReader(`{"job_id":"does-not-exist"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
