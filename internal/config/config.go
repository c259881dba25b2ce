// Package config provides centralized configuration for the prediction
// pool program and its surrounding host process. ALL tunable constants
// (instruction tags, record size, bump search bounds, network selection)
// MUST be defined here. No hardcoded values should exist elsewhere in the
// codebase.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// NetworkType selects which cluster a host process targets. It has no
// effect on core validation, only on which defaults the host and RPC
// layers load (ports, data directories, journal paths).
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Instruction tags, per the external instruction envelope encoding.
const (
	TagInitialize byte = 0
	TagTrade      byte = 1
	TagSettle     byte = 2
	TagCollect    byte = 3
)

// PoolRecordSize is the fixed on-chain byte size of a serialized Pool:
// 8 (circulation) + 1 (settled) + 7*32 (identities).
const PoolRecordSize = 8 + 1 + 7*32

// MaxBump is the largest bump byte value tried during address derivation;
// the search proceeds downward from here.
const MaxBump = 255

// OutcomeTokenDecimals is the display precision used when formatting
// outcome-token and collateral amounts in logs and the RPC layer. It has
// no bearing on core arithmetic, which always operates on raw integer
// smallest units.
const OutcomeTokenDecimals = 6

// HostConfig holds the settings for an in-process host simulator run. It is
// persisted as YAML so an operator can hand-edit it between runs.
type HostConfig struct {
	Network NetworkType `yaml:"network"`

	// JournalPath is the SQLite database file the off-chain journal
	// persists to. Empty means in-memory only.
	JournalPath string `yaml:"journal_path"`

	// RPCAddr is the listen address for the HTTP + WebSocket front end.
	RPCAddr string `yaml:"rpc_addr"`

	// SubmitTimeout is loaded and saved with the rest of the config but is
	// not read by the host or the RPC server: a Submit call waits for the
	// host's single-instruction-at-a-time lock without a time limit.
	SubmitTimeout time.Duration `yaml:"submit_timeout"`
}

// DefaultHostConfig returns sensible defaults for local/testnet use.
func DefaultHostConfig() *HostConfig {
	return &HostConfig{
		Network:       Testnet,
		JournalPath:   "duopool.db",
		RPCAddr:       "127.0.0.1:8090",
		SubmitTimeout: 5 * time.Second,
	}
}

// IsMainnet reports whether the config targets mainnet.
func (c *HostConfig) IsMainnet() bool {
	return c.Network == Mainnet
}

// ConfigFileName is the default host config file name within a data
// directory.
const ConfigFileName = "duopool.yaml"

// LoadHostConfig loads a YAML host config from dataDir, writing out the
// defaults on first run if no file exists yet.
func LoadHostConfig(dataDir string) (*HostConfig, error) {
	path := filepath.Join(dataDir, ConfigFileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultHostConfig()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("config: create default host config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read host config: %w", err)
	}

	cfg := DefaultHostConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse host config: %w", err)
	}
	return cfg, nil
}

// Save writes c to path as YAML, creating parent directories as needed.
func (c *HostConfig) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("config: create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal host config: %w", err)
	}

	header := []byte("# duopool host configuration\n# generated automatically on first run\n\n")
	if err := os.WriteFile(path, append(header, data...), 0o600); err != nil {
		return fmt.Errorf("config: write host config: %w", err)
	}
	return nil
}

// HostConfigPath returns the full path to the host config file for dataDir.
func HostConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}
