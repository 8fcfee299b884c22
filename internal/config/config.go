// Package config persists the CLI's settings (network, node URLs, bound
// signer) as a JSON file under the user's config directory.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Default node endpoints per network.
const (
	DefaultTestnetRPC = "https://testnet.ckb.dev/rpc"
	DefaultMainnetRPC = "https://mainnet.ckb.dev/rpc"
)

// SignerBinding is the wallet method and address saved by signer-set and
// signer-connect.
type SignerBinding struct {
	Method  string `json:"method"`
	Address string `json:"address"`
}

// Config is the persisted CLI state.
type Config struct {
	Network    string        `json:"network"`
	TestnetRPC string        `json:"testnet_rpc"`
	MainnetRPC string        `json:"mainnet_rpc"`
	Signer     SignerBinding `json:"signer"`
	NotifyURL  string        `json:"notify_url,omitempty"`
}

// Default returns a config pointed at testnet with no signer bound.
func Default() Config {
	return Config{
		Network:    "testnet",
		TestnetRPC: DefaultTestnetRPC,
		MainnetRPC: DefaultMainnetRPC,
	}
}

// RPCURL returns the node endpoint for the selected network.
func (c Config) RPCURL() string {
	if c.Network == "mainnet" {
		return c.MainnetRPC
	}
	return c.TestnetRPC
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "ckb-pop")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ckb-pop")
}

func path() string { return filepath.Join(cfgDir(), "config.json") }

// Load reads the saved config, or returns Default() when none exists yet.
func Load() (Config, error) {
	b, err := os.ReadFile(path())
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path(), err)
	}
	return cfg, nil
}

// Save writes the config, creating the directory on first use.
func Save(cfg Config) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.OpenFile(path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
