package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CoinGecko CoinGeckoConfig `yaml:"coinGecko"`
	Queue     QueueConfig     `yaml:"queue"`
	Cache     CacheConfig     `yaml:"cache"`
	Storage   StorageConfig   `yaml:"storage"`
	Wallet    WalletConfig    `yaml:"wallet"`
	View      ViewConfig      `yaml:"view"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// CoinGeckoConfig holds the configuration for the CoinGecko client.
type CoinGeckoConfig struct {
	BaseURL              string `yaml:"baseURL"`
	ProBaseURL           string `yaml:"proBaseURL"`
	ApiKey               string `yaml:"apiKey"`
	ProApiKey            string `yaml:"proApiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	ThrottleCooldownMs   int64  `yaml:"throttleCooldownMs"`
}

// QueueConfig holds configuration for the rate-limited request queue.
type QueueConfig struct {
	MinIntervalMillis int64 `yaml:"minIntervalMillis"`
	MaxRetries        int   `yaml:"maxRetries"`
	BaseBackoffMillis int64 `yaml:"baseBackoffMillis"`
}

// CacheConfig holds configuration for the market data cache.
type CacheConfig struct {
	MarketTTLMinutes int `yaml:"marketTTLMinutes"`
	SearchTTLMinutes int `yaml:"searchTTLMinutes"`
}

// StorageConfig holds configuration for persisted portfolio state.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// WalletConfig holds configuration for on-chain balance resolution.
type WalletConfig struct {
	UseMock          bool               `yaml:"useMock"`
	RPCURL           string             `yaml:"rpcURL"`
	ChainID          int64              `yaml:"chainID"`
	CallTimeoutMs    int64              `yaml:"callTimeoutMs"`
	MaxConcurrent    int                `yaml:"maxConcurrent"`
	TrackedContracts []string           `yaml:"trackedContracts"`
	MockBalances     map[string]float64 `yaml:"mockBalances"`
}

// ViewConfig holds configuration for the display layer.
type ViewConfig struct {
	PageSize             int   `yaml:"pageSize"`
	SearchDebounceMillis int64 `yaml:"searchDebounceMillis"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills in defaults for values the file leaves unset.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("CoinGecko.BaseURL not set, defaulting to %s", cfg.CoinGecko.BaseURL)
	}
	if cfg.CoinGecko.ProBaseURL == "" {
		cfg.CoinGecko.ProBaseURL = "https://pro-api.coingecko.com/api/v3"
	}
	if cfg.CoinGecko.RequestTimeoutMillis == 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 15000
		logrus.Infof("CoinGecko.RequestTimeoutMillis not set, defaulting to %d ms", cfg.CoinGecko.RequestTimeoutMillis)
	}
	if cfg.CoinGecko.ThrottleCooldownMs == 0 {
		cfg.CoinGecko.ThrottleCooldownMs = 10000
		logrus.Infof("CoinGecko.ThrottleCooldownMs not set, defaulting to %d ms", cfg.CoinGecko.ThrottleCooldownMs)
	}
	if cfg.CoinGecko.ApiKey == "" {
		cfg.CoinGecko.ApiKey = os.Getenv("COINGECKO_API_KEY")
	}
	if cfg.CoinGecko.ProApiKey == "" {
		cfg.CoinGecko.ProApiKey = os.Getenv("COINGECKO_PRO_API_KEY")
	}

	if cfg.Queue.MinIntervalMillis == 0 {
		cfg.Queue.MinIntervalMillis = 6000
		logrus.Infof("Queue.MinIntervalMillis not set, defaulting to %d ms", cfg.Queue.MinIntervalMillis)
	}
	if cfg.Queue.MaxRetries == 0 {
		cfg.Queue.MaxRetries = 5
		logrus.Infof("Queue.MaxRetries not set, defaulting to %d", cfg.Queue.MaxRetries)
	}
	if cfg.Queue.BaseBackoffMillis == 0 {
		cfg.Queue.BaseBackoffMillis = 2000
		logrus.Infof("Queue.BaseBackoffMillis not set, defaulting to %d ms", cfg.Queue.BaseBackoffMillis)
	}

	if cfg.Cache.MarketTTLMinutes == 0 {
		cfg.Cache.MarketTTLMinutes = 10
		logrus.Infof("Cache.MarketTTLMinutes not set, defaulting to %d minutes", cfg.Cache.MarketTTLMinutes)
	}
	if cfg.Cache.SearchTTLMinutes == 0 {
		cfg.Cache.SearchTTLMinutes = 5
		logrus.Infof("Cache.SearchTTLMinutes not set, defaulting to %d minutes", cfg.Cache.SearchTTLMinutes)
	}

	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data"
		logrus.Infof("Storage.Dir not set, defaulting to %s", cfg.Storage.Dir)
	}

	if cfg.Wallet.ChainID == 0 {
		cfg.Wallet.ChainID = 1
	}
	if cfg.Wallet.CallTimeoutMs == 0 {
		cfg.Wallet.CallTimeoutMs = 10000
	}
	if cfg.Wallet.MaxConcurrent == 0 {
		cfg.Wallet.MaxConcurrent = 4
	}

	if cfg.View.PageSize == 0 {
		cfg.View.PageSize = 10
	}
	if cfg.View.SearchDebounceMillis == 0 {
		cfg.View.SearchDebounceMillis = 300
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
