// Package controller implements the fan-out CLI that drives a fleet of
// agents: loading the client inventory, issuing parallel HTTP calls,
// polling for job completion, and rendering aggregate results.
package controller

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultToken mirrors agent.defaultToken; duplicated here rather than
// imported so the controller never depends on the agent package (the two
// only share the wire contract).
const defaultToken = "change-me"

// defaultPort is used for any client entry that omits one.
const defaultPort = 8081

// Client is a single target agent in the inventory file.
type Client struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Inventory is the parsed shape of an inventory YAML file.
type Inventory struct {
	Token   string   `yaml:"token"`
	Clients []Client `yaml:"clients"`
}

// LoadInventory reads and parses the YAML file at path.
func LoadInventory(path string) (Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Inventory{}, fmt.Errorf("read inventory: %w", err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return Inventory{}, fmt.Errorf("parse inventory: %w", err)
	}

	for i := range inv.Clients {
		if inv.Clients[i].Port == 0 {
			inv.Clients[i].Port = defaultPort
		}
	}
	if inv.Token == "" {
		inv.Token = defaultToken
	}

	return inv, nil
}

// FilterClients restricts inv to the comma-separated set of client names in
// filter. An empty filter returns inv unchanged. A filter that matches no
// client logs a warning to stderr and returns an inventory with zero
// clients, matching the original tool's behavior of proceeding (and then
// doing nothing) rather than failing outright.
func FilterClients(inv Inventory, filter string) Inventory {
	if strings.TrimSpace(filter) == "" {
		return inv
	}

	allowed := make(map[string]bool)
	for _, name := range strings.Split(filter, ",") {
		allowed[strings.TrimSpace(name)] = true
	}

	filtered := make([]Client, 0, len(inv.Clients))
	for _, c := range inv.Clients {
		if allowed[c.Name] {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		fmt.Fprintf(os.Stderr, "[WARN] No clients matched filter: %s\n", filter)
	}

	inv.Clients = filtered
	return inv
}

// BaseURL returns the agent's HTTP base URL, e.g. "http://10.0.0.5:8081".
func (c Client) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}
