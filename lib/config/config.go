// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/metaloot/metaloot/lib/address"
)

// EnvironmentVariable names the configuration file for [Load].
const EnvironmentVariable = "METALOOT_CONFIG"

// DeriveBump selects the canonical escrow authority bump, found by
// search at startup, instead of a fixed one.
const DeriveBump = -1

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Well-known program ids used when the file does not name others.
var (
	DefaultRegistryProgram = address.MustParse("C4zHMc24dCG2w7cd2inFWMfCT8JY4Si46FZy6F5TFnDV")
	DefaultEscrowProgram   = address.MustParse("APhs9BDFEV3avcHGPQuFaDW8FMKavkRRGJXusyUKBPr5")
)

// Config is the master configuration.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Ledger configures the local account store.
	Ledger LedgerConfig `yaml:"ledger"`

	// Programs assigns program ids.
	Programs ProgramsConfig `yaml:"programs"`

	// Escrow configures the escrow program's trusted parties.
	Escrow EscrowConfig `yaml:"escrow"`

	// Keypair locates the default signing key.
	Keypair KeypairConfig `yaml:"keypair"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment.
type ConfigOverrides struct {
	Ledger  *LedgerConfig  `yaml:"ledger,omitempty"`
	Keypair *KeypairConfig `yaml:"keypair,omitempty"`
}

// LedgerConfig configures the local account store.
type LedgerConfig struct {
	// Root is the base directory for ledger data.
	Root string `yaml:"root"`

	// Database is the SQLite database file.
	// Default: ${METALOOT_ROOT}/ledger.db
	Database string `yaml:"database"`

	// PoolSize is the number of SQLite connections.
	PoolSize int `yaml:"pool_size"`

	// ComputeBudget is the per-transaction compute limit. Zero selects
	// the ledger default.
	ComputeBudget uint64 `yaml:"compute_budget"`
}

// ProgramsConfig assigns program ids. The system and token programs
// live at fixed addresses.
type ProgramsConfig struct {
	Registry address.Address `yaml:"registry"`
	Escrow   address.Address `yaml:"escrow"`
}

// EscrowConfig configures the escrow program.
type EscrowConfig struct {
	// Admin is the only key allowed to release escrowed tokens. When
	// unset, every release is refused.
	Admin address.Address `yaml:"admin"`

	// AuthorityBump is the bump of the escrow authority's derived
	// address, or DeriveBump to use the canonical one.
	AuthorityBump int `yaml:"authority_bump"`
}

// KeypairConfig locates the default signing key.
type KeypairConfig struct {
	// Path is the keypair file.
	// Default: ${METALOOT_ROOT}/id.json
	Path string `yaml:"path"`

	// Identity is an age identity file used to open a sealed keypair.
	Identity string `yaml:"identity"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "metaloot")

	return &Config{
		Environment: Development,
		Ledger: LedgerConfig{
			Root:     defaultRoot,
			Database: filepath.Join(defaultRoot, "ledger.db"),
			PoolSize: 4,
		},
		Programs: ProgramsConfig{
			Registry: DefaultRegistryProgram,
			Escrow:   DefaultEscrowProgram,
		},
		Escrow: EscrowConfig{
			AuthorityBump: DeriveBump,
		},
		Keypair: KeypairConfig{
			Path: filepath.Join(defaultRoot, "id.json"),
		},
	}
}

// Load loads configuration from the file named by METALOOT_CONFIG.
// There is no fallback: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your metaloot.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path over the
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// applyEnvironmentOverrides applies the section for the configured
// environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Ledger != nil {
		if overrides.Ledger.Root != "" {
			c.Ledger.Root = overrides.Ledger.Root
		}
		if overrides.Ledger.Database != "" {
			c.Ledger.Database = overrides.Ledger.Database
		}
		if overrides.Ledger.PoolSize != 0 {
			c.Ledger.PoolSize = overrides.Ledger.PoolSize
		}
		if overrides.Ledger.ComputeBudget != 0 {
			c.Ledger.ComputeBudget = overrides.Ledger.ComputeBudget
		}
	}

	if overrides.Keypair != nil {
		if overrides.Keypair.Path != "" {
			c.Keypair.Path = overrides.Keypair.Path
		}
		if overrides.Keypair.Identity != "" {
			c.Keypair.Identity = overrides.Keypair.Identity
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"METALOOT_ROOT": c.Ledger.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Ledger.Root = expandVars(c.Ledger.Root, vars)
	vars["METALOOT_ROOT"] = c.Ledger.Root

	c.Ledger.Database = expandVars(c.Ledger.Database, vars)
	c.Keypair.Path = expandVars(c.Keypair.Path, vars)
	c.Keypair.Identity = expandVars(c.Keypair.Identity, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Ledger.Database == "" {
		errs = append(errs, errors.New("ledger.database is required"))
	}
	if c.Ledger.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("ledger.pool_size must be positive, got %d", c.Ledger.PoolSize))
	}
	if c.Programs.Registry.IsZero() {
		errs = append(errs, errors.New("programs.registry is required"))
	}
	if c.Programs.Escrow.IsZero() {
		errs = append(errs, errors.New("programs.escrow is required"))
	}
	if c.Programs.Registry == c.Programs.Escrow {
		errs = append(errs, errors.New("programs.registry and programs.escrow must differ"))
	}
	if c.Escrow.AuthorityBump < DeriveBump || c.Escrow.AuthorityBump > 255 {
		errs = append(errs, fmt.Errorf("escrow.authority_bump must be -1 or 0-255, got %d", c.Escrow.AuthorityBump))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the ledger directories if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Ledger.Root, filepath.Dir(c.Ledger.Database)} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
