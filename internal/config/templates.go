package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# stockdash configuration

[market]
# Seed for the synthetic price source (0 = seed from the clock)
seed = 0
# How long search and price results are memoized
cache_ttl = "60s"
# Cache backend: "memory" or "redis" (uses watchlist.redis_addr)
cache_backend = "memory"
# Artificial delay added to every quote fetch
simulated_latency = "0s"
# Fraction of fetches that fail (0.0 - 1.0)
failure_rate = 0.0

[watchlist]
# Persistence backend: "file", "sqlite" or "redis"
backend = "file"
# Key the watchlist is stored under
namespace = "watchlist-storage"
# Redis address for the redis backend
redis_addr = "localhost:6379"
# Refresh interval for 'stockdash watch' and the websocket stream
poll_interval = "30s"

[server]
addr = ":8080"
allowed_origins = ["*"]

[ui]
# Enable colored output
color_enabled = true

[logging]
# debug, info, warn, error
level = "info"
console = true
file = true
max_size = 50
max_backups = 5
max_age = 14
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
