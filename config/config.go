package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// StoreBackend selects which native/farming.Store implementation the engine
// host wires up.
type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendBolt    StoreBackend = "bolt"
	StoreBackendSQL     StoreBackend = "sql"
)

// LedgerBackend selects which native/farming.AssetTransactor the engine host
// wires up.
type LedgerBackend string

const (
	LedgerBackendMemory   LedgerBackend = "memory"
	LedgerBackendPostgres LedgerBackend = "postgres"
)

// Config is the full farmengined configuration, loaded from a TOML file.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`

	OwnerKeystorePath string `toml:"OwnerKeystorePath"`
	OwnerPassEnvVar   string `toml:"OwnerPassEnvVar"`

	Store  StoreConfig  `toml:"Store"`
	Ledger LedgerConfig `toml:"Ledger"`

	Logging  LoggingConfig  `toml:"Logging"`
	Tracing  TracingConfig  `toml:"Tracing"`
	Auth     AuthConfig     `toml:"Auth"`
	RateLimit RateLimitConfig `toml:"RateLimit"`

	Seeds   []string `toml:"Seeds"`
	Warehouse WarehouseConfig `toml:"Warehouse"`
}

type StoreConfig struct {
	Backend StoreBackend `toml:"Backend"`
	BoltPath string      `toml:"BoltPath"`
	SQLDSN   string      `toml:"SQLDSN"`
}

type LedgerConfig struct {
	Backend LedgerBackend `toml:"Backend"`
	PostgresDSN string     `toml:"PostgresDSN"`
}

type LoggingConfig struct {
	Level       string `toml:"Level"`
	FilePath    string `toml:"FilePath"`
	MaxSizeMB   int    `toml:"MaxSizeMB"`
	MaxBackups  int    `toml:"MaxBackups"`
	MaxAgeDays  int    `toml:"MaxAgeDays"`
	Compress    bool   `toml:"Compress"`
}

type TracingConfig struct {
	Enabled      bool   `toml:"Enabled"`
	OTLPEndpoint string `toml:"OTLPEndpoint"`
}

type AuthConfig struct {
	JWTEnabled    bool     `toml:"JWTEnabled"`
	JWTSecret     string   `toml:"JWTSecret"`
	JWTIssuer     string   `toml:"JWTIssuer"`
	JWTAudience   string   `toml:"JWTAudience"`
	APIKeys       map[string]string `toml:"APIKeys"`
	NoncePath     string   `toml:"NoncePath"`
}

type RateLimitConfig struct {
	ClaimPerSecond float64 `toml:"ClaimPerSecond"`
	ClaimBurst     int     `toml:"ClaimBurst"`
}

type WarehouseConfig struct {
	Enabled      bool   `toml:"Enabled"`
	ExportPath   string `toml:"ExportPath"`
}

// Load reads the configuration at path, creating a default file if it does
// not yet exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:   ":8090",
		DataDir:         "./farmengine-data",
		Environment:     "development",
		OwnerPassEnvVar: "FARMENGINED_OWNER_PASSPHRASE",
		Store:           StoreConfig{Backend: StoreBackendMemory},
		Ledger:          LedgerConfig{Backend: LedgerBackendMemory},
		Logging:         LoggingConfig{Level: "info"},
		RateLimit:       RateLimitConfig{ClaimPerSecond: 5, ClaimBurst: 10},
	}
	applyDefaults(cfg)

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8090"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./farmengine-data"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreBackendMemory
	}
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = LedgerBackendMemory
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.RateLimit.ClaimPerSecond <= 0 {
		cfg.RateLimit.ClaimPerSecond = 5
	}
	if cfg.RateLimit.ClaimBurst <= 0 {
		cfg.RateLimit.ClaimBurst = 10
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendBolt:
		if strings.TrimSpace(cfg.Store.BoltPath) == "" {
			return fmt.Errorf("config: Store.BoltPath required for bolt backend")
		}
	case StoreBackendSQL:
		if strings.TrimSpace(cfg.Store.SQLDSN) == "" {
			return fmt.Errorf("config: Store.SQLDSN required for sql backend")
		}
	default:
		return fmt.Errorf("config: unknown Store.Backend %q", cfg.Store.Backend)
	}

	switch cfg.Ledger.Backend {
	case LedgerBackendMemory:
	case LedgerBackendPostgres:
		if strings.TrimSpace(cfg.Ledger.PostgresDSN) == "" {
			return fmt.Errorf("config: Ledger.PostgresDSN required for postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown Ledger.Backend %q", cfg.Ledger.Backend)
	}
	return nil
}
