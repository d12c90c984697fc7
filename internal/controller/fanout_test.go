package controller

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func clientFromServer(t *testing.T, name string, srv *httptest.Server) Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return Client{Name: name, Host: u.Hostname(), Port: port}
}

func TestPostJSONAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"job_id":"abc","pid":123}`))
	}))
	defer srv.Close()

	c := clientFromServer(t, "rig-01", srv)
	results := PostJSON([]Client{c}, "s3cr3t", "/start", map[string]string{"cmd": "x"})
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if !results[0].OK {
		t.Fatalf("result not OK: %v", results[0].Err)
	}
	if gotAuth != "Bearer s3cr3t" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer s3cr3t")
	}
}

func TestPostJSONPlaceholderTokenOmitsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := clientFromServer(t, "rig-01", srv)
	PostJSON([]Client{c}, defaultToken, "/start", map[string]string{})
	if gotAuth != "" {
		t.Errorf("Authorization header = %q, want empty", gotAuth)
	}
}

func TestFanOutCollectsAllClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var clients []Client
	for i := 0; i < 10; i++ {
		clients = append(clients, clientFromServer(t, "rig", srv))
	}

	results := Get(clients, defaultToken, "/status")
	if len(results) != len(clients) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(clients))
	}
	for _, r := range results {
		if !r.OK {
			t.Errorf("result not OK: %v", r.Err)
		}
	}
}

func TestDoRequestNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusConflict)
	}))
	defer srv.Close()

	c := clientFromServer(t, "rig-01", srv)
	results := PostEmpty([]Client{c}, defaultToken, "/stop_all")
	if results[0].OK {
		t.Fatalf("expected non-OK result")
	}
	if !strings.Contains(results[0].Err.Error(), "409") {
		t.Errorf("error = %v, want mention of 409", results[0].Err)
	}
}

func TestFanOutEmptyClients(t *testing.T) {
	if got := Get(nil, defaultToken, "/status"); got != nil {
		t.Errorf("Get(nil, ...) = %v, want nil", got)
	}
}
