package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the loot server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
	Path        string `yaml:"path"` // WebSocket endpoint the host connects to

	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Host bridge
	Bridge BridgeConfig `yaml:"bridge"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Loot cascade
	Loot LootConfig `yaml:"loot"`
}

// BridgeConfig holds parameters of the host WebSocket connection.
type BridgeConfig struct {
	// SecretHash is a bcrypt hash of the shared secret the host presents
	// as "Authorization: Bearer <secret>". Empty disables the check.
	SecretHash     string        `yaml:"secret_hash"`
	CommandTimeout time.Duration `yaml:"command_timeout"` // wait for commandResponse
	SendQueueSize  int           `yaml:"send_queue_size"` // inbound event queue capacity
	ChatPrefix     string        `yaml:"chat_prefix"`     // chat messages starting with it are settings commands
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"` // false keeps settings in memory only
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	ConnectRetries int           `yaml:"connect_retries"` // extra attempts while the database starts up
	ConnectBackoff time.Duration `yaml:"connect_backoff"` // first retry delay, doubled each attempt
}

// DSN returns the PostgreSQL connection string with credentials escaped.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// LootConfig controls which deaths are eligible and how feedback is paced.
type LootConfig struct {
	TargetSpecies     string        `yaml:"target_species"`
	QualifyingKillers []string      `yaml:"qualifying_killers"`
	PlayerType        string        `yaml:"player_type"`
	LootTable         string        `yaml:"loot_table"`     // standard death loot table for "loot spawn"
	FeedbackDelay     time.Duration `yaml:"feedback_delay"` // delay for legendary+ feedback after a firework grant
	SuppressRule      string        `yaml:"suppress_rule"`  // game rule switched off while the cascade runs
}

// IsQualifyingKiller reports whether typeID may be credited with a kill.
func (l LootConfig) IsQualifyingKiller(typeID string) bool {
	for _, k := range l.QualifyingKillers {
		if k == typeID {
			return true
		}
	}
	return false
}

// DefaultLoot returns the villager loot settings.
func DefaultLoot() LootConfig {
	return LootConfig{
		TargetSpecies:     "minecraft:villager_v2",
		QualifyingKillers: []string{"minecraft:player", "minecraft:wolf"},
		PlayerType:        "minecraft:player",
		LootTable:         "entities/villager",
		FeedbackDelay:     time.Second, // 20 ticks
		SuppressRule:      "sendcommandfeedback",
	}
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		BindAddress: "0.0.0.0",
		Port:        8765,
		Path:        "/ws",
		LogLevel:    "info",
		Bridge: BridgeConfig{
			CommandTimeout: 5 * time.Second,
			SendQueueSize:  256,
			ChatPrefix:     "!vloot",
		},
		Database: DatabaseConfig{
			Enabled:  true,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "villagerloot",
			Password: "villagerloot",
			DBName:   "villagerloot",
			SSLMode:  "disable",

			ConnectRetries: 5,
			ConnectBackoff: 500 * time.Millisecond,
		},
		Loot: DefaultLoot(),
	}
}

// LoadServer loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would make the server misbehave silently.
func (s Server) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", s.Port)
	}
	if s.Loot.TargetSpecies == "" {
		return fmt.Errorf("loot.target_species must not be empty")
	}
	if len(s.Loot.QualifyingKillers) == 0 {
		return fmt.Errorf("loot.qualifying_killers must not be empty")
	}
	if s.Loot.FeedbackDelay < 0 {
		return fmt.Errorf("loot.feedback_delay must be >= 0, got %s", s.Loot.FeedbackDelay)
	}
	if s.Database.ConnectRetries < 0 {
		return fmt.Errorf("database.connect_retries must be >= 0, got %d", s.Database.ConnectRetries)
	}
	if s.Bridge.SendQueueSize <= 0 {
		return fmt.Errorf("bridge.send_queue_size must be > 0, got %d", s.Bridge.SendQueueSize)
	}
	return nil
}
