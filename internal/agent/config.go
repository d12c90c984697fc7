package agent

import (
	"os"
	"strconv"
)

// defaultToken is the placeholder auth token. When the configured token
// equals this value, the agent serves requests without authentication and
// logs a warning at startup.
const defaultToken = "change-me"

// Config is the agent's immutable, process-wide configuration. It is built
// once at startup and threaded through Server construction rather than read
// from package-level globals.
type Config struct {
	// Addr is the address the HTTP server binds to, e.g. "0.0.0.0:8081".
	Addr string
	// Token is the shared bearer token required on every endpoint except
	// /health. The literal value "change-me" disables authentication.
	Token string
	// MetricsInterval is the period of the background pruner.
	MetricsInterval float64
	// HungCPUPercent is the CPU% threshold at or below which a sample is
	// considered inactive.
	HungCPUPercent float64
	// HungSecs is the inactivity window after which a job is flagged hung.
	HungSecs float64
}

// DefaultConfig returns a Config populated from environment variables,
// falling back to the documented defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            envString("CARLA_AGENT_ADDR", "0.0.0.0:8081"),
		Token:           envString("CARLA_AGENT_TOKEN", defaultToken),
		MetricsInterval: envFloat("CARLA_AGENT_METRICS_INTERVAL", 2.0),
		HungCPUPercent:  envFloat("CARLA_AGENT_HUNG_CPU_PCT", 1.0),
		HungSecs:        envFloat("CARLA_AGENT_HUNG_SECS", 30.0),
	}
}

// AuthDisabled reports whether the configured token is the development
// placeholder, in which case auth is bypassed.
func (c Config) AuthDisabled() bool { return c.Token == defaultToken }

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
