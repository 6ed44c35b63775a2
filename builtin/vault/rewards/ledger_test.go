// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vault/builtin/solidity"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/state"
	"github.com/vechain/vault/test/datagen"
	"github.com/vechain/vault/thor"
)

const t0 = uint64(1_700_000_000)

type fakeShares map[thor.Address]int64

func (f fakeShares) TotalShares() (*big.Int, error) {
	total := int64(0)
	for _, v := range f {
		total += v
	}
	return big.NewInt(total), nil
}

func (f fakeShares) EffectiveBalance(account thor.Address) (*big.Int, error) {
	return big.NewInt(f[account]), nil
}

func newLedger(shares fakeShares) *Ledger {
	sctx := solidity.NewContext(thor.BytesToAddress([]byte("rewards")), state.New(nil), nil)
	return New(sctx, shares, shares)
}

func preview(t *testing.T, l *Ledger, account, asset thor.Address, now uint64) *big.Int {
	t.Helper()
	amount, err := l.Preview(account, asset, now)
	require.NoError(t, err)
	return amount
}

func weeks(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).SetUint64(thor.Week))
}

func TestLedger_NotifyValidation(t *testing.T) {
	alice := datagen.RandAddress()
	asset := datagen.RandAddress()
	shares := fakeShares{}
	l := newLedger(shares)

	assert.ErrorIs(t, l.Notify(asset, big.NewInt(0), t0), reverts.ErrZeroAmount)
	assert.ErrorIs(t, l.Notify(thor.Address{}, big.NewInt(1), t0), reverts.ErrZeroAddress)
	assert.ErrorIs(t, l.Notify(asset, big.NewInt(1), t0), reverts.ErrDurationNotSet)

	require.NoError(t, l.SetRewardsDuration(asset, thor.Week, t0))
	assert.ErrorIs(t, l.Notify(asset, big.NewInt(1), t0), reverts.ErrZeroShares)

	shares[alice] = 1
	require.NoError(t, l.Notify(asset, big.NewInt(1), t0))

	_, err := l.Preview(alice, datagen.RandAddress(), t0)
	assert.ErrorIs(t, err, reverts.ErrAssetNotRegistered)
	_, err = l.Claim(alice, datagen.RandAddress(), t0)
	assert.ErrorIs(t, err, reverts.ErrAssetNotRegistered)
}

func TestLedger_LinearAccrual(t *testing.T) {
	alice := datagen.RandAddress()
	asset := datagen.RandAddress()
	shares := fakeShares{alice: 100}
	l := newLedger(shares)

	require.NoError(t, l.SetRewardsDuration(asset, thor.Week, t0))
	require.NoError(t, l.Notify(asset, weeks(70), t0))

	assert.Equal(t, "0", preview(t, l, alice, asset, t0).String())
	assert.Equal(t, weeks(35).String(), preview(t, l, alice, asset, t0+thor.Week/2).String())
	assert.Equal(t, weeks(70).String(), preview(t, l, alice, asset, t0+thor.Week).String())
	assert.Equal(t, weeks(70).String(), preview(t, l, alice, asset, t0+3*thor.Week).String())

	stream, err := l.Stream(asset)
	require.NoError(t, err)
	assert.Equal(t, "70", stream.RewardRate.String())
	assert.Equal(t, t0+thor.Week, stream.PeriodEnd)
	assert.Equal(t, 0, stream.RoundingDust.Sign())
}

func TestLedger_TruncationBankedAsDust(t *testing.T) {
	alice := datagen.RandAddress()
	asset := datagen.RandAddress()
	shares := fakeShares{alice: 10}
	l := newLedger(shares)
	require.NoError(t, l.SetRewardsDuration(asset, 7, t0))

	// 1000 / 7 = 142 remainder 6
	require.NoError(t, l.Notify(asset, big.NewInt(1000), t0))
	// 4 seconds unreleased: 568 + 500 = 1068, / 7 = 152 remainder 4
	require.NoError(t, l.Notify(asset, big.NewInt(500), t0+3))

	stream, err := l.Stream(asset)
	require.NoError(t, err)
	assert.Equal(t, "152", stream.RewardRate.String())
	assert.Equal(t, "10", stream.RoundingDust.String())
	assert.Equal(t, "1500", stream.TotalNotified.String())
	assert.Equal(t, t0+10, stream.PeriodEnd)

	claimed, err := l.Claim(alice, asset, t0+100)
	require.NoError(t, err)
	assert.Equal(t, "1490", claimed.String())

	dust, err := l.SweepDust(asset, t0+100)
	require.NoError(t, err)
	assert.Equal(t, "10", dust.String())

	dust, err = l.SweepDust(asset, t0+100)
	require.NoError(t, err)
	assert.Equal(t, 0, dust.Sign())
}

func TestLedger_EmissionWithoutSharesGoesToDust(t *testing.T) {
	alice := datagen.RandAddress()
	asset := datagen.RandAddress()
	shares := fakeShares{alice: 10}
	l := newLedger(shares)
	require.NoError(t, l.SetRewardsDuration(asset, 10, t0))
	require.NoError(t, l.Notify(asset, big.NewInt(100), t0))

	// alice leaves half way
	require.NoError(t, l.SettleAll(alice, t0+5))
	delete(shares, alice)

	claimed, err := l.Claim(alice, asset, t0+20)
	require.NoError(t, err)
	assert.Equal(t, "50", claimed.String())

	dust, err := l.SweepDust(asset, t0+20)
	require.NoError(t, err)
	assert.Equal(t, "50", dust.String())
}

func TestLedger_SetRewardsDuration(t *testing.T) {
	alice := datagen.RandAddress()
	asset := datagen.RandAddress()
	l := newLedger(fakeShares{alice: 1})

	assert.ErrorIs(t, l.SetRewardsDuration(asset, 0, t0), reverts.ErrZeroDuration)
	assert.ErrorIs(t, l.SetRewardsDuration(thor.Address{}, 1, t0), reverts.ErrZeroAddress)
	require.NoError(t, l.SetRewardsDuration(asset, 100, t0))
	require.NoError(t, l.Notify(asset, big.NewInt(1000), t0))

	assert.ErrorIs(t, l.SetRewardsDuration(asset, 50, t0+99), reverts.ErrPeriodActive)
	assert.ErrorIs(t, l.SetRewardsDuration(asset, 50, t0+100), reverts.ErrPeriodActive)
	require.NoError(t, l.SetRewardsDuration(asset, 50, t0+101))

	d, err := l.RewardsDuration(asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), d)
}

func TestLedger_MaxRewardAssets(t *testing.T) {
	alice := datagen.RandAddress()
	l := newLedger(fakeShares{alice: 1})

	max, err := l.MaxRewardAssets()
	require.NoError(t, err)
	assert.Equal(t, uint64(thor.DefaultMaxRewardAssets), max)

	require.NoError(t, l.SetMaxRewardAssets(2))
	assets := datagen.RandAddresses(3)
	for _, asset := range assets {
		require.NoError(t, l.SetRewardsDuration(asset, 10, t0))
	}
	require.NoError(t, l.Notify(assets[0], big.NewInt(10), t0))
	require.NoError(t, l.Notify(assets[1], big.NewInt(10), t0))
	assert.ErrorIs(t, l.Notify(assets[2], big.NewInt(10), t0), reverts.ErrTooManyRewardAssets)

	// re-notifying a registered asset is not a registration
	require.NoError(t, l.Notify(assets[0], big.NewInt(10), t0+1))

	assert.ErrorIs(t, l.SetMaxRewardAssets(1), reverts.ErrTooManyRewardAssets)
	assert.ErrorIs(t, l.SetMaxRewardAssets(0), reverts.ErrZeroAmount)
	require.NoError(t, l.SetMaxRewardAssets(3))
	require.NoError(t, l.Notify(assets[2], big.NewInt(10), t0+1))

	registered, err := l.RewardAssets()
	require.NoError(t, err)
	assert.Equal(t, assets, registered)
}

func TestLedger_TransferDoesNotStealRewards(t *testing.T) {
	alice := datagen.RandAddress()
	bob := datagen.RandAddress()
	asset := datagen.RandAddress()
	shares := fakeShares{alice: 100}
	l := newLedger(shares)
	require.NoError(t, l.SetRewardsDuration(asset, 100, t0))
	require.NoError(t, l.Notify(asset, big.NewInt(10_000), t0))

	before := preview(t, l, alice, asset, t0+50)
	assert.Equal(t, "5000", before.String())

	// alice sends half to bob, both settled first
	require.NoError(t, l.SettleAll(alice, t0+50))
	require.NoError(t, l.SettleAll(bob, t0+50))
	shares[alice], shares[bob] = 50, 50

	assert.Equal(t, before.String(), preview(t, l, alice, asset, t0+50).String())
	assert.Equal(t, "0", preview(t, l, bob, asset, t0+50).String())

	assert.Equal(t, "7500", preview(t, l, alice, asset, t0+100).String())
	assert.Equal(t, "2500", preview(t, l, bob, asset, t0+100).String())
}

func TestLedger_ClaimAll(t *testing.T) {
	alice := datagen.RandAddress()
	bob := datagen.RandAddress()
	x := datagen.RandAddress()
	y := datagen.RandAddress()
	l := newLedger(fakeShares{alice: 30, bob: 10})
	require.NoError(t, l.SetRewardsDuration(x, 10, t0))
	require.NoError(t, l.SetRewardsDuration(y, 20, t0))
	require.NoError(t, l.Notify(x, big.NewInt(400), t0))
	require.NoError(t, l.Notify(y, big.NewInt(800), t0))

	payouts, err := l.ClaimAll(alice, t0+10)
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	assert.Equal(t, x, payouts[0].Asset)
	assert.Equal(t, "300", payouts[0].Amount.String())
	assert.Equal(t, y, payouts[1].Asset)
	assert.Equal(t, "300", payouts[1].Amount.String())

	// claimed balances are reset, accrual continues on y
	payouts, err = l.ClaimAll(alice, t0+10)
	require.NoError(t, err)
	assert.Empty(t, payouts)

	claimed, err := l.Claim(alice, y, t0+20)
	require.NoError(t, err)
	assert.Equal(t, "300", claimed.String())

	cp, err := l.Checkpoint(alice, y)
	require.NoError(t, err)
	assert.Equal(t, 0, cp.Accrued.Sign())

	claimed, err = l.Claim(bob, x, t0+20)
	require.NoError(t, err)
	assert.Equal(t, "100", claimed.String())
}

func TestLedger_PreviewMatchesClaim(t *testing.T) {
	holders := datagen.RandAddresses(3)
	asset := datagen.RandAddress()
	shares := fakeShares{holders[0]: 7, holders[1]: 11, holders[2]: 13}
	l := newLedger(shares)
	require.NoError(t, l.SetRewardsDuration(asset, 1000, t0))
	require.NoError(t, l.Notify(asset, big.NewInt(1_000_003), t0))

	for i, holder := range holders {
		now := t0 + uint64(100*(i+1))
		expected := preview(t, l, holder, asset, now)
		claimed, err := l.Claim(holder, asset, now)
		require.NoError(t, err)
		assert.Equal(t, expected.String(), claimed.String())
	}
}

func TestLedger_NoOverDistribution(t *testing.T) {
	holders := datagen.RandAddresses(4)
	assets := datagen.RandAddresses(2)
	shares := fakeShares{}
	for _, h := range holders {
		shares[h] = int64(datagen.RandIntN(1000) + 1)
	}
	l := newLedger(shares)
	for _, asset := range assets {
		require.NoError(t, l.SetRewardsDuration(asset, uint64(datagen.RandIntN(500)+1), t0))
	}

	notified := map[thor.Address]*big.Int{}
	claimed := map[thor.Address]*big.Int{}
	for _, asset := range assets {
		notified[asset] = new(big.Int)
		claimed[asset] = new(big.Int)
	}

	now := t0
	for range 200 {
		now += uint64(datagen.RandIntN(50))
		asset := assets[datagen.RandIntN(len(assets))]
		holder := holders[datagen.RandIntN(len(holders))]

		switch datagen.RandIntN(3) {
		case 0:
			amount := datagen.RandAmount(1_000_000)
			require.NoError(t, l.Notify(asset, amount, now))
			notified[asset].Add(notified[asset], amount)
		case 1:
			amount, err := l.Claim(holder, asset, now)
			if err != nil {
				assert.ErrorIs(t, err, reverts.ErrAssetNotRegistered)
				continue
			}
			claimed[asset].Add(claimed[asset], amount)
		case 2:
			other := holders[datagen.RandIntN(len(holders))]
			if other == holder || shares[holder] == 0 {
				continue
			}
			require.NoError(t, l.SettleAll(holder, now))
			require.NoError(t, l.SettleAll(other, now))
			moved := int64(datagen.RandIntN(int(shares[holder])) + 1)
			shares[holder] -= moved
			shares[other] += moved
		}
	}

	now += 1000
	for _, asset := range assets {
		for _, holder := range holders {
			amount, err := l.Claim(holder, asset, now)
			if err != nil {
				assert.ErrorIs(t, err, reverts.ErrAssetNotRegistered)
				continue
			}
			claimed[asset].Add(claimed[asset], amount)
		}
		assert.True(t, claimed[asset].Cmp(notified[asset]) <= 0, "claimed %v notified %v", claimed[asset], notified[asset])
	}
}

func TestLedger_FuzzedBalances(t *testing.T) {
	f := fuzz.New().NilChance(0).Funcs(
		func(v *int64, c fuzz.Continue) { *v = c.Int63n(1_000_000_000_000) + 1 },
		func(v *uint64, c fuzz.Continue) { *v = uint64(c.Int63n(1_000_000_000_000_000)) + 1 },
	)

	for range 50 {
		var (
			balances [4]int64
			amount   uint64
		)
		f.Fuzz(&balances)
		f.Fuzz(&amount)

		holders := datagen.RandAddresses(len(balances))
		asset := datagen.RandAddress()
		shares := fakeShares{}
		for i, h := range holders {
			shares[h] = balances[i]
		}
		l := newLedger(shares)
		require.NoError(t, l.SetRewardsDuration(asset, thor.Week, t0))
		require.NoError(t, l.Notify(asset, new(big.Int).SetUint64(amount), t0))

		now := t0 + thor.Week
		claimed := new(big.Int)
		for _, h := range holders {
			expected := preview(t, l, h, asset, now)
			got, err := l.Claim(h, asset, now)
			require.NoError(t, err)
			assert.Equal(t, expected.String(), got.String())
			claimed.Add(claimed, got)
		}
		assert.True(t, claimed.Cmp(new(big.Int).SetUint64(amount)) <= 0, "claimed %v notified %v", claimed, amount)
	}
}
