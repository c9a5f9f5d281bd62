package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"burnswap/crypto"

	"github.com/BurntSushi/toml"
)

// GenesisAccount seeds a token balance on first start. Address is bech32.
type GenesisAccount struct {
	Token   string `toml:"Token"`
	Address string `toml:"Address"`
	Amount  string `toml:"Amount"`
}

type Config struct {
	RPCAddress        string           `toml:"RPCAddress"`
	DataDir           string           `toml:"DataDir"`
	SourceToken       string           `toml:"SourceToken"`
	DestinationToken  string           `toml:"DestinationToken"`
	OwnerKeystorePath string           `toml:"OwnerKeystorePath"`
	LogFile           string           `toml:"LogFile"`
	LogMaxSizeMB      int              `toml:"LogMaxSizeMB"`
	LogMaxBackups     int              `toml:"LogMaxBackups"`
	InitialLiquidity  string           `toml:"InitialLiquidity"`
	Genesis           []GenesisAccount `toml:"Genesis"`
}

// Load loads the configuration from the given path, creating a default file
// (and an owner keystore next to it) when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourceToken) == "" {
		return fmt.Errorf("config: SourceToken required")
	}
	if strings.TrimSpace(c.DestinationToken) == "" {
		return fmt.Errorf("config: DestinationToken required")
	}
	if _, err := c.InitialLiquidityAmount(); err != nil {
		return err
	}
	for i, account := range c.Genesis {
		if _, err := crypto.DecodeAddress(account.Address); err != nil {
			return fmt.Errorf("config: genesis account %d: %w", i, err)
		}
		if _, err := parseAmount(account.Amount); err != nil {
			return fmt.Errorf("config: genesis account %d: %w", i, err)
		}
	}
	return nil
}

// InitialLiquidityAmount parses InitialLiquidity as a base-10 integer. An
// empty field means zero.
func (c *Config) InitialLiquidityAmount() (*big.Int, error) {
	if strings.TrimSpace(c.InitialLiquidity) == "" {
		return big.NewInt(0), nil
	}
	amount, err := parseAmount(c.InitialLiquidity)
	if err != nil {
		return nil, fmt.Errorf("config: InitialLiquidity: %w", err)
	}
	return amount, nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, fmt.Errorf("config: invalid amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("config: negative amount %q", raw)
	}
	return amount, nil
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.OwnerKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.OwnerKeystorePath != keystorePath {
		cfg.OwnerKeystorePath = keystorePath
		return persist(configPath, cfg)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./burnswap-data"
	}
	cfg.SourceToken = strings.ToUpper(strings.TrimSpace(cfg.SourceToken))
	cfg.DestinationToken = strings.ToUpper(strings.TrimSpace(cfg.DestinationToken))
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:       ":8080",
		DataDir:          "./burnswap-data",
		SourceToken:      "OLD",
		DestinationToken: "NEW",
		InitialLiquidity: "0",
		Genesis:          []GenesisAccount{},
	}
	cfg.OwnerKeystorePath = keystorePath

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "owner.keystore")
}
