package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel     string
	LogFormat    string // "json" or "console"
	HTTPPort     string
	SettingsPath string
	AuthToken    string // overrides the token stored in settings when set

	// Remote API
	GQLURL     string
	GQLTimeout time.Duration

	// Mining
	WatchInterval            time.Duration
	InventoryRefreshInterval time.Duration
	DirectoryLimit           int
	DirectoryCacheTTL        time.Duration
	KnownChannels            int // 0 = unbounded

	// PubSub
	PubSubURL             string
	WSDialTimeout         time.Duration
	WSPongTimeout         time.Duration
	WSPingInterval        time.Duration
	WSReconnectDelay      time.Duration
	WSMaxConnections      int
	WSTopicsPerConnection int

	// Storage
	StorageMode  string // "console", "sqlite" or "postgres"
	SQLitePath   string
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "json"),
		HTTPPort:     getEnvOrDefault("HTTP_PORT", "8080"),
		SettingsPath: getEnvOrDefault("SETTINGS_PATH", "settings.json"),
		AuthToken:    os.Getenv("AUTH_TOKEN"),

		// Remote API defaults
		GQLURL:     getEnvOrDefault("GQL_URL", "https://gql.twitch.tv/gql"),
		GQLTimeout: getDurationOrDefault("GQL_TIMEOUT", 30*time.Second),

		// Mining defaults
		WatchInterval:            getDurationOrDefault("WATCH_INTERVAL", 20*time.Second),
		InventoryRefreshInterval: getDurationOrDefault("INVENTORY_REFRESH_INTERVAL", time.Hour),
		DirectoryLimit:           getIntOrDefault("DIRECTORY_LIMIT", 30),
		DirectoryCacheTTL:        getDurationOrDefault("DIRECTORY_CACHE_TTL", 2*time.Minute),
		KnownChannels:            getIntOrDefault("KNOWN_CHANNELS", 0),

		// PubSub defaults
		PubSubURL:             getEnvOrDefault("PUBSUB_URL", "wss://pubsub-edge.twitch.tv/v1"),
		WSDialTimeout:         getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:         getDurationOrDefault("WS_PONG_TIMEOUT", 10*time.Second),
		WSPingInterval:        getDurationOrDefault("WS_PING_INTERVAL", 4*time.Minute),
		WSReconnectDelay:      getDurationOrDefault("WS_RECONNECT_DELAY", 5*time.Second),
		WSMaxConnections:      getIntOrDefault("WS_MAX_CONNECTIONS", 10),
		WSTopicsPerConnection: getIntOrDefault("WS_TOPICS_PER_CONNECTION", 50),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		SQLitePath:   getEnvOrDefault("SQLITE_PATH", "claims.db"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "drops"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "drops123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "drops_miner"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.LogFormat)
	}

	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.SettingsPath == "" {
		return fmt.Errorf("SETTINGS_PATH cannot be empty")
	}

	if c.GQLURL == "" {
		return fmt.Errorf("GQL_URL cannot be empty")
	}

	if c.PubSubURL == "" {
		return fmt.Errorf("PUBSUB_URL cannot be empty")
	}

	if c.WatchInterval <= 0 {
		return fmt.Errorf("WATCH_INTERVAL must be positive, got %v", c.WatchInterval)
	}

	if c.InventoryRefreshInterval <= 0 {
		return fmt.Errorf("INVENTORY_REFRESH_INTERVAL must be positive, got %v", c.InventoryRefreshInterval)
	}

	if c.DirectoryLimit < 1 || c.DirectoryLimit > 100 {
		return fmt.Errorf("DIRECTORY_LIMIT must be between 1 and 100, got %d", c.DirectoryLimit)
	}

	if c.DirectoryCacheTTL < 0 {
		return fmt.Errorf("DIRECTORY_CACHE_TTL must be non-negative (0 = disabled), got %v", c.DirectoryCacheTTL)
	}

	if c.KnownChannels < 0 {
		return fmt.Errorf("KNOWN_CHANNELS must be non-negative (0 = unbounded), got %d", c.KnownChannels)
	}

	if c.WSPongTimeout <= 0 || c.WSPingInterval <= 0 {
		return fmt.Errorf("WS_PING_INTERVAL and WS_PONG_TIMEOUT must be positive")
	}

	if c.WSPongTimeout >= c.WSPingInterval {
		return fmt.Errorf("WS_PONG_TIMEOUT (%v) must be shorter than WS_PING_INTERVAL (%v)", c.WSPongTimeout, c.WSPingInterval)
	}

	if c.WSReconnectDelay <= 0 {
		return fmt.Errorf("WS_RECONNECT_DELAY must be positive, got %v", c.WSReconnectDelay)
	}

	if c.WSMaxConnections < 1 {
		return fmt.Errorf("WS_MAX_CONNECTIONS must be at least 1, got %d", c.WSMaxConnections)
	}

	if c.WSTopicsPerConnection < 1 || c.WSTopicsPerConnection > 50 {
		return fmt.Errorf("WS_TOPICS_PER_CONNECTION must be between 1 and 50, got %d", c.WSTopicsPerConnection)
	}

	switch c.StorageMode {
	case "console", "postgres":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH cannot be empty when STORAGE_MODE is sqlite")
		}
	default:
		return fmt.Errorf("STORAGE_MODE must be 'console', 'sqlite' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
