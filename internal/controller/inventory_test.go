package controller

import (
	"os"
	"path/filepath"
	"testing"
)

func writeInventory(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write inventory: %v", err)
	}
	return path
}

func TestLoadInventoryDefaultsPort(t *testing.T) {
	path := writeInventory(t, `
token: s3cr3t
clients:
  - name: rig-01
    host: 10.0.0.5
  - name: rig-02
    host: 10.0.0.6
    port: 9001
`)

	inv, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory: %v", err)
	}
	if inv.Token != "s3cr3t" {
		t.Errorf("token = %q, want s3cr3t", inv.Token)
	}
	if len(inv.Clients) != 2 {
		t.Fatalf("len(clients) = %d, want 2", len(inv.Clients))
	}
	if inv.Clients[0].Port != defaultPort {
		t.Errorf("rig-01 port = %d, want %d", inv.Clients[0].Port, defaultPort)
	}
	if inv.Clients[1].Port != 9001 {
		t.Errorf("rig-02 port = %d, want 9001", inv.Clients[1].Port)
	}
}

func TestLoadInventoryMissingTokenDefaultsToPlaceholder(t *testing.T) {
	path := writeInventory(t, `
clients:
  - name: rig-01
    host: 10.0.0.5
`)

	inv, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory: %v", err)
	}
	if inv.Token != defaultToken {
		t.Errorf("token = %q, want %q", inv.Token, defaultToken)
	}
}

func TestFilterClients(t *testing.T) {
	inv := Inventory{Clients: []Client{
		{Name: "rig-01"}, {Name: "rig-02"}, {Name: "rig-03"},
	}}

	got := FilterClients(inv, "rig-01, rig-03")
	if len(got.Clients) != 2 {
		t.Fatalf("len(clients) = %d, want 2", len(got.Clients))
	}
	if got.Clients[0].Name != "rig-01" || got.Clients[1].Name != "rig-03" {
		t.Errorf("unexpected filtered clients: %+v", got.Clients)
	}
}

func TestFilterClientsEmptyFilterReturnsAll(t *testing.T) {
	inv := Inventory{Clients: []Client{{Name: "rig-01"}, {Name: "rig-02"}}}
	got := FilterClients(inv, "")
	if len(got.Clients) != 2 {
		t.Errorf("len(clients) = %d, want 2", len(got.Clients))
	}
}

func TestFilterClientsNoMatchReturnsEmpty(t *testing.T) {
	inv := Inventory{Clients: []Client{{Name: "rig-01"}}}
	got := FilterClients(inv, "rig-99")
	if len(got.Clients) != 0 {
		t.Errorf("len(clients) = %d, want 0", len(got.Clients))
	}
}

func TestClientBaseURL(t *testing.T) {
	c := Client{Host: "10.0.0.5", Port: 8081}
	if got, want := c.BaseURL(), "http://10.0.0.5:8081"; got != want {
		t.Errorf("BaseURL() = %q, want %q", got, want)
	}
}
