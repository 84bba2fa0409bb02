package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: the keystore password is prompted at runtime and stored in memory - use GetKeystorePasswordBytes()
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	KeystorePath string `envconfig:"KEYSTORE_PATH" required:"true"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`

	RPCURL          string        `envconfig:"RPC_URL" default:"https://ethereum-sepolia-rpc.publicnode.com"`
	ChainID         uint64        `envconfig:"CHAIN_ID" default:"11155111"`
	ContractAddress string        `envconfig:"CONTRACT_ADDRESS" required:"true"`
	TxTimeout       time.Duration `envconfig:"TX_TIMEOUT" default:"5m"`

	RelayerURL          string        `envconfig:"RELAYER_URL" default:"https://relayer.testnet.zama.cloud"`
	RelayerTimeout      time.Duration `envconfig:"RELAYER_TIMEOUT" default:"60s"`
	GatewayChainID      uint64        `envconfig:"GATEWAY_CHAIN_ID" default:"55815"`
	DecryptionContract  string        `envconfig:"DECRYPTION_CONTRACT" default:"0xb6E160B1ff80D67Bfe90A85eE06Ce0A2613607D1"`
	DecryptDurationDays int           `envconfig:"DECRYPT_DURATION_DAYS" default:"7"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// Validate checks values envconfig cannot express with tags.
func (c *Config) Validate() error {
	if c.DecryptDurationDays < 1 || c.DecryptDurationDays > 365 {
		return fmt.Errorf("DECRYPT_DURATION_DAYS must be between 1 and 365, got %d", c.DecryptDurationDays)
	}
	if c.ChainID == 0 {
		return errors.New("CHAIN_ID must not be zero")
	}
	if c.TxTimeout <= 0 || c.RelayerTimeout <= 0 {
		return errors.New("TX_TIMEOUT and RELAYER_TIMEOUT must be positive")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetKeystorePath returns path to the encrypted wallet keystore
func GetKeystorePath() string {
	return Get().KeystorePath
}

var passwordBytes []byte

// PromptForPassword prompts the user for the keystore password in the terminal.
// The password is read without echoing and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, "Enter keystore password: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	return SetPassword(raw)
}

// SetPassword stores a copy of raw as the keystore password and wipes raw.
func SetPassword(raw []byte) error {
	defer clear(raw)
	if len(raw) == 0 {
		return errors.New("password cannot be empty")
	}
	clear(passwordBytes)
	passwordBytes = make([]byte, len(raw))
	copy(passwordBytes, raw)
	return nil
}

// GetKeystorePasswordBytes returns the password stored in memory (from PromptForPassword).
// Caller must zero the returned slice after use.
func GetKeystorePasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}

// ForgetPassword wipes the in-memory password.
func ForgetPassword() {
	clear(passwordBytes)
	passwordBytes = nil
}
