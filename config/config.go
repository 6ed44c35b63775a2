// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/vault/thor"
)

// RewardDuration is the emission period configured for one reward asset.
type RewardDuration struct {
	Asset    thor.Address  `yaml:"asset"`
	Duration time.Duration `yaml:"duration"`
}

// Config holds the settings of a vault daemon.
type Config struct {
	Vault           thor.Address          `yaml:"vault"`
	Principal       thor.Address          `yaml:"principal"`
	Operator        thor.Address          `yaml:"operator"` // zero leaves operator endpoints open
	MaxDeposits     *math.HexOrDecimal256 `yaml:"maxDeposits"`
	MaxRewardAssets uint64                `yaml:"maxRewardAssets"`
	RewardDurations []RewardDuration      `yaml:"rewardDurations"`
	PassThrough     []thor.Address        `yaml:"passThrough"`
	DataDir         string                `yaml:"dataDir"`
	SkipEvents      bool                  `yaml:"skipEvents"`

	API struct {
		Addr        string   `yaml:"addr"`
		CORS        []string `yaml:"cors"`
		EventsLimit uint64   `yaml:"eventsLimit"`
	} `yaml:"api"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Default returns a config with every optional field set.
func Default() *Config {
	cfg := &Config{
		MaxRewardAssets: uint64(thor.DefaultMaxRewardAssets),
		DataDir:         "vault-data",
	}
	cfg.API.Addr = "localhost:8669"
	cfg.API.EventsLimit = 1000
	cfg.Metrics.Addr = "localhost:2112"
	return cfg
}

// Load reads a YAML file on top of Default. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}
	return cfg, nil
}

// Validate checks the fields a vault cannot start without.
func (c *Config) Validate() error {
	if c.Vault.IsZero() {
		return errors.New("vault address is required")
	}
	if c.Principal.IsZero() {
		return errors.New("principal asset is required")
	}
	if c.MaxDepositsInt().Sign() < 0 {
		return errors.New("maxDeposits must not be negative")
	}
	if c.MaxRewardAssets == 0 {
		return errors.New("maxRewardAssets must be positive")
	}
	if uint64(len(c.RewardDurations)) > c.MaxRewardAssets {
		return errors.Errorf("%d reward durations exceed maxRewardAssets %d", len(c.RewardDurations), c.MaxRewardAssets)
	}

	seen := make(map[thor.Address]bool)
	for _, rd := range c.RewardDurations {
		if rd.Asset.IsZero() {
			return errors.New("reward duration without asset")
		}
		if seen[rd.Asset] {
			return errors.Errorf("duplicate reward duration for %v", rd.Asset)
		}
		seen[rd.Asset] = true
		if rd.Duration < time.Second || rd.Duration%time.Second != 0 {
			return errors.Errorf("reward duration of %v must be whole seconds", rd.Asset)
		}
	}
	for _, addr := range c.PassThrough {
		if addr.IsZero() {
			return errors.New("pass-through holder must not be zero")
		}
	}
	if c.API.Addr == "" {
		return errors.New("api address is required")
	}
	if c.API.EventsLimit == 0 {
		return errors.New("api eventsLimit must be positive")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("metrics address is required when metrics are enabled")
	}
	return nil
}

// Seconds returns the duration in whole seconds.
func (rd RewardDuration) Seconds() uint64 {
	return uint64(rd.Duration / time.Second)
}

// MaxDepositsInt returns the deposit cap, zero when unset.
func (c *Config) MaxDepositsInt() *big.Int {
	if c.MaxDeposits == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(c.MaxDeposits))
}
