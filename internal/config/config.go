package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Base Sepolia deployment used by the demo.
const (
	DefaultRPCURL          = "https://sepolia.base.org"
	DefaultChainID         = 84532
	DefaultRegistryAddress = "0xE5585AC3723BD31Bf529fDa9BE008309a4a9Aab0"
	DefaultTokenAddress    = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
	DefaultTokenDecimals   = 6
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	App       AppConfig
	Chain     ChainConfig
	Dashboard DashboardConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret       string
	LogLevel        string
	WatcherInterval time.Duration
}

// ChainConfig holds the RPC endpoint and the contracts the workflows talk to
type ChainConfig struct {
	RPCURL          string
	ChainID         *big.Int
	RegistryAddress common.Address
	TokenAddress    common.Address
	TokenDecimals   int32
	SignerKey       string
	// ConfirmTimeout bounds receipt waits. Zero waits until the receipt shows up.
	ConfirmTimeout time.Duration
}

// DashboardConfig holds reconciler settings
type DashboardConfig struct {
	Concurrency int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	chain, err := loadChain()
	if err != nil {
		return nil, err
	}

	watcherInterval, err := getDuration("WATCHER_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	concurrency, err := getInt("DASHBOARD_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("DASHBOARD_CONCURRENCY must be at least 1")
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "lockin"),
			SQLitePath: getEnv("SQLITE_PATH", "lockin.db"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "3000"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		App: AppConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			WatcherInterval: watcherInterval,
		},
		Chain: *chain,
		Dashboard: DashboardConfig{
			Concurrency: concurrency,
		},
	}

	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	return config, nil
}

// RequireServer checks the settings only the HTTP server needs
func (c *Config) RequireServer() error {
	if c.App.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// RequireSigner checks the settings the transaction-sending commands need
func (c *Config) RequireSigner() error {
	if c.Chain.SignerKey == "" {
		return fmt.Errorf("SIGNER_PRIVATE_KEY is required")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func loadChain() (*ChainConfig, error) {
	chainID, ok := new(big.Int).SetString(getEnv("CHAIN_ID", strconv.Itoa(DefaultChainID)), 10)
	if !ok || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("CHAIN_ID must be a positive integer")
	}

	registry, err := getAddress("REGISTRY_ADDRESS", DefaultRegistryAddress)
	if err != nil {
		return nil, err
	}
	token, err := getAddress("TOKEN_ADDRESS", DefaultTokenAddress)
	if err != nil {
		return nil, err
	}

	decimals, err := getInt("TOKEN_DECIMALS", DefaultTokenDecimals)
	if err != nil {
		return nil, err
	}
	if decimals < 0 || decimals > 36 {
		return nil, fmt.Errorf("TOKEN_DECIMALS out of range: %d", decimals)
	}

	timeout, err := getDuration("CHAIN_CONFIRM_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	return &ChainConfig{
		RPCURL:          getEnv("CHAIN_RPC_URL", DefaultRPCURL),
		ChainID:         chainID,
		RegistryAddress: registry,
		TokenAddress:    token,
		TokenDecimals:   int32(decimals),
		SignerKey:       strings.TrimPrefix(getEnv("SIGNER_PRIVATE_KEY", ""), "0x"),
		ConfirmTimeout:  timeout,
	}, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return v, nil
}

func getAddress(key, defaultValue string) (common.Address, error) {
	raw := getEnv(key, defaultValue)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s is not a valid address: %q", key, raw)
	}
	return common.HexToAddress(raw), nil
}
