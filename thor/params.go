// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"
)

// Constants of the vault ledger.
const (
	Day  uint64 = 24 * 60 * 60
	Week uint64 = 7 * Day

	DefaultRewardsDuration uint64 = Week // used when a config omits a duration
	DefaultMaxRewardAssets uint32 = 8
)

var (
	// RewardPrecision is the fixed-point scale of reward-per-share accumulators.
	RewardPrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)

	// DefaultMaxDeposits caps the principal a vault accepts, 0 means unlimited.
	DefaultMaxDeposits = big.NewInt(0)
)

// Well known storage addresses inside a vault's state.
var (
	// ZeroAddress is the mint source and burn destination of shares.
	ZeroAddress = Address{}
)

// Storage access costs metered per vault operation.
const (
	SloadGas       uint64 = 800   // reading a storage slot
	SstoreSetGas   uint64 = 20000 // writing a previously empty slot
	SstoreResetGas uint64 = 5000  // overwriting a slot
	GetBalanceGas  uint64 = 400   // reading an asset balance
)
