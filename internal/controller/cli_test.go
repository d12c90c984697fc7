package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
)

func TestIndexOf(t *testing.T) {
	if got := indexOf([]string{"a", "b", "--args"}, "--args"); got != 2 {
		t.Errorf("indexOf = %d, want 2", got)
	}
	if got := indexOf([]string{"a", "b"}, "--args"); got != -1 {
		t.Errorf("indexOf = %d, want -1", got)
	}
}

func TestWarnStrayFlagsWarnsOnFlagLikeTokens(t *testing.T) {
	var buf bytes.Buffer
	origStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	warnStrayFlags([]string{"--clients", "rig-01", "positional"})

	w.Close()
	os.Stderr = origStderr
	buf.ReadFrom(r)

	if !bytes.Contains(buf.Bytes(), []byte("--clients")) {
		t.Errorf("expected a warning mentioning --clients, got %q", buf.String())
	}
}

func TestWarnStrayFlagsIgnoresHelp(t *testing.T) {
	var buf bytes.Buffer
	origStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	warnStrayFlags([]string{"--help"})

	w.Close()
	os.Stderr = origStderr
	buf.ReadFrom(r)

	if buf.Len() != 0 {
		t.Errorf("expected no warning for --help, got %q", buf.String())
	}
}

func TestNewRootCommandRequiresExeOnStart(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"start"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatalf("expected an error for a missing required --exe flag")
	}
}

func TestStartCommandAutoGeneratesJobID(t *testing.T) {
	var gotJobID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p StartPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		gotJobID = p.JobID
		w.Write([]byte(`{"job_id":"auto","pid":1}`))
	}))
	defer srv.Close()

	c := clientFromServer(t, "rig-01", srv)
	invPath := writeInventory(t, inventoryYAML(c))

	root := NewRootCommand()
	root.SetArgs([]string{"start", "--inventory", invPath, "--exe", "C:/sim/run.exe"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotJobID != "run" {
		t.Errorf("job_id sent = %q, want %q", gotJobID, "run")
	}
}

func inventoryYAML(c Client) string {
	return "token: " + defaultToken + "\nclients:\n  - name: " + c.Name +
		"\n    host: " + c.Host + "\n    port: " + strconv.Itoa(c.Port) + "\n"
}
