package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Network settings
	Network   string `mapstructure:"network" yaml:"network"`
	RPCUrl    string `mapstructure:"rpc_url" yaml:"rpc_url"`
	WSUrl     string `mapstructure:"ws_url" yaml:"ws_url"`
	RPCAPIKey string `mapstructure:"rpc_api_key" yaml:"rpc_api_key"`

	// Pool settings
	Pool PoolConfig `mapstructure:"pool" yaml:"pool"`

	// Wallet settings
	PrivateKey string `mapstructure:"private_key" yaml:"private_key"`
	Mnemonic   string `mapstructure:"mnemonic" yaml:"mnemonic"`
	Passphrase string `mapstructure:"passphrase" yaml:"passphrase"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Advanced settings
	Advanced AdvancedConfig `mapstructure:"advanced" yaml:"advanced"`
}

// PoolConfig identifies the deployed program and the vault it manages
type PoolConfig struct {
	ProgramID string `mapstructure:"program_id" yaml:"program_id"`
	Mint      string `mapstructure:"mint" yaml:"mint"`
	Vault     string `mapstructure:"vault" yaml:"vault"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	LogToFile   bool   `mapstructure:"log_to_file" yaml:"log_to_file"`
	LogFilePath string `mapstructure:"log_file_path" yaml:"log_file_path"`
}

// AdvancedConfig contains advanced settings
type AdvancedConfig struct {
	ConfirmTimeoutSec int `mapstructure:"confirm_timeout_sec" yaml:"confirm_timeout_sec"`
	RPCTimeoutMs      int `mapstructure:"rpc_timeout_ms" yaml:"rpc_timeout_ms"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string, envPath string) (*Config, error) {
	config := &Config{}
	v := viper.New()

	// First, load .env file if specified or default locations
	if err := loadEnvFile(envPath); err != nil {
		fmt.Printf("Warning: Failed to load .env file: %v\n", err)
	}

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pool")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.swap-pool")
	}

	// Enable reading from environment variables
	v.SetEnvPrefix("SWAPPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		fmt.Printf("Config file not found, using environment variables and defaults\n")
	}

	processEnvSubstitution(v)

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile(envPath string) error {
	var envFiles []string

	if envPath != "" {
		envFiles = append(envFiles, envPath)
	}
	envFiles = append(envFiles, ".env", "configs/.env")

	var envFile string
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			envFile = file
			break
		}
	}

	if envFile == "" {
		if envPath != "" {
			return fmt.Errorf("specified .env file not found: %s", envPath)
		}
		return nil
	}

	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 {
			if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
				(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
				value = value[1 : len(value)-1]
			}
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// bindEnvVariables manually binds environment variables that viper might miss
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("network", "SWAPPOOL_NETWORK")
	v.BindEnv("rpc_url", "SWAPPOOL_RPC_URL")
	v.BindEnv("ws_url", "SWAPPOOL_WS_URL")
	v.BindEnv("rpc_api_key", "SWAPPOOL_RPC_API_KEY")
	v.BindEnv("private_key", "SWAPPOOL_PRIVATE_KEY")
	v.BindEnv("mnemonic", "SWAPPOOL_MNEMONIC")
	v.BindEnv("passphrase", "SWAPPOOL_PASSPHRASE")

	v.BindEnv("pool.program_id", "SWAPPOOL_PROGRAM_ID")
	v.BindEnv("pool.mint", "SWAPPOOL_MINT")
	v.BindEnv("pool.vault", "SWAPPOOL_VAULT")

	v.BindEnv("logging.level", "SWAPPOOL_LOGGING_LEVEL")
	v.BindEnv("logging.format", "SWAPPOOL_LOGGING_FORMAT")
}

// processEnvSubstitution processes ${VAR:-default} substitution in config values
func processEnvSubstitution(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.Contains(value, "${") {
			v.Set(key, expandEnvVars(value))
		}
	}
}

// expandEnvVars expands environment variables in the format ${VAR:-default}
func expandEnvVars(value string) string {
	result := value
	for {
		start := strings.Index(result, "${")
		if start == -1 {
			break
		}

		end := strings.Index(result[start:], "}")
		if end == -1 {
			break
		}
		end += start

		expr := result[start+2 : end]
		varName, defaultValue, _ := strings.Cut(expr, ":-")

		envValue := os.Getenv(varName)
		if envValue == "" {
			envValue = defaultValue
		}

		result = result[:start] + envValue + result[end+1:]
	}

	return result
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "devnet")
	v.SetDefault("rpc_url", "")
	v.SetDefault("ws_url", "")

	v.SetDefault("pool.program_id", ProgramKey(DefaultProgramID).String())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "custom")
	v.SetDefault("logging.log_to_file", false)
	v.SetDefault("logging.log_file_path", "logs/pool.log")

	v.SetDefault("advanced.confirm_timeout_sec", ConfirmTimeoutSec)
	v.SetDefault("advanced.rpc_timeout_ms", 30000)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.RPCUrl == "" {
		config.RPCUrl = GetRPCEndpoint(config.Network)
	}
	if config.WSUrl == "" {
		config.WSUrl = GetWSEndpoint(config.Network)
	}

	if _, err := solana.PublicKeyFromBase58(config.Pool.ProgramID); err != nil {
		return fmt.Errorf("pool.program_id is not a valid public key: %w", err)
	}
	for field, value := range map[string]string{"pool.mint": config.Pool.Mint, "pool.vault": config.Pool.Vault} {
		if value == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(value); err != nil {
			return fmt.Errorf("%s is not a valid public key: %w", field, err)
		}
	}

	if config.Advanced.ConfirmTimeoutSec <= 0 {
		return fmt.Errorf("advanced.confirm_timeout_sec must be positive")
	}

	if config.Logging.LogToFile {
		logDir := filepath.Dir(config.Logging.LogFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	return nil
}

// HasSigner reports whether a keypair source is configured
func (c *Config) HasSigner() bool {
	return c.PrivateKey != "" || c.Mnemonic != ""
}

// ProgramID returns the configured program id
func (c *Config) ProgramID() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.Pool.ProgramID)
}

// GetConfirmTimeout returns the confirmation timeout
func (c *Config) GetConfirmTimeout() time.Duration {
	return time.Duration(c.Advanced.ConfirmTimeoutSec) * time.Second
}

// GetRPCTimeout returns RPC timeout
func (c *Config) GetRPCTimeout() time.Duration {
	if c.Advanced.RPCTimeoutMs > 0 {
		return time.Duration(c.Advanced.RPCTimeoutMs) * time.Millisecond
	}
	return 30 * time.Second
}
