// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math"
	"math/big"
	"testing"
	"time"

	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vault/builtin/vault"
	"github.com/vechain/vault/builtin/vault/routing"
	"github.com/vechain/vault/config"
	"github.com/vechain/vault/state"
	"github.com/vechain/vault/test/datagen"
	"github.com/vechain/vault/thor"
)

func TestReadIntFromUInt64Flag(t *testing.T) {
	v, err := readIntFromUInt64Flag(3)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = readIntFromUInt64Flag(math.MaxUint64)
	assert.Error(t, err)
}

func TestApplyConfig(t *testing.T) {
	now := uint64(1_700_000_000)
	asset := datagen.RandAddress()
	holder := datagen.RandAddress()
	alice := datagen.RandAddress()

	cfg := config.Default()
	cfg.Vault = datagen.RandAddress()
	cfg.Principal = datagen.RandAddress()
	cfg.MaxDeposits = (*gethmath.HexOrDecimal256)(big.NewInt(5000))
	cfg.MaxRewardAssets = 2
	cfg.RewardDurations = []config.RewardDuration{{Asset: asset, Duration: 24 * time.Hour}}
	cfg.PassThrough = []thor.Address{holder}
	require.NoError(t, cfg.Validate())

	v := vault.New(cfg.Vault, cfg.Principal, state.New(nil), nil)
	require.NoError(t, applyConfig(v, cfg, now))
	// a second run finds everything in place
	require.NoError(t, applyConfig(v, cfg, now))

	max, err := v.MaxRewardAssets()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), max)

	maxDeposits, err := v.MaxDeposits()
	require.NoError(t, err)
	assert.Equal(t, "5000", maxDeposits.String())

	duration, err := v.RewardsDuration(asset)
	require.NoError(t, err)
	assert.Equal(t, thor.Day, duration)

	kind, err := v.Kind(holder)
	require.NoError(t, err)
	assert.Equal(t, routing.PassThrough, kind)

	// a running period keeps its duration
	require.NoError(t, v.Fund(cfg.Principal, alice, big.NewInt(100), now))
	require.NoError(t, v.Deposit(alice, alice, big.NewInt(100), now))
	require.NoError(t, v.Fund(asset, alice, big.NewInt(1000), now))
	require.NoError(t, v.Notify(alice, asset, big.NewInt(1000), now))

	cfg.RewardDurations[0].Duration = 48 * time.Hour
	require.NoError(t, applyConfig(v, cfg, now+10))
	duration, err = v.RewardsDuration(asset)
	require.NoError(t, err)
	assert.Equal(t, thor.Day, duration)
}
