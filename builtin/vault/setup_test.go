// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vault/state"
	"github.com/vechain/vault/thor"
)

const genesis = uint64(1_700_000_000)

var (
	vaultAddr = thor.BytesToAddress([]byte("vault"))
	principal = thor.BytesToAddress([]byte("vet"))
	operator  = thor.BytesToAddress([]byte("operator"))
)

// ToWei converts whole units into 1e18 base units.
func ToWei(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), big.NewInt(1e18))
}

type VaultTest struct {
	*Vault
	t   *testing.T
	now uint64
}

func newTest(t *testing.T) *VaultTest {
	return &VaultTest{
		Vault: New(vaultAddr, principal, state.New(nil), nil),
		t:     t,
		now:   genesis,
	}
}

// Advance moves the clock forward by seconds.
func (vt *VaultTest) Advance(seconds uint64) *VaultTest {
	vt.now += seconds
	return vt
}

// MustFund credits amount of asset to holder.
func (vt *VaultTest) MustFund(asset, holder thor.Address, amount *big.Int) *VaultTest {
	require.NoError(vt.t, vt.Fund(asset, holder, amount, vt.now), "failed to fund")
	return vt
}

// MustDeposit funds who with amount of principal and deposits it.
func (vt *VaultTest) MustDeposit(who thor.Address, amount *big.Int) *VaultTest {
	vt.MustFund(principal, who, amount)
	require.NoError(vt.t, vt.Deposit(who, who, amount, vt.now), "failed to deposit")
	return vt
}

func (vt *VaultTest) MustTransfer(from, to thor.Address, amount *big.Int) *VaultTest {
	require.NoError(vt.t, vt.Transfer(from, to, amount, vt.now), "failed to transfer")
	return vt
}

// MustNotify configures duration for asset when needed, funds the operator and notifies amount.
func (vt *VaultTest) MustNotify(asset thor.Address, amount *big.Int, duration uint64) *VaultTest {
	current, err := vt.RewardsDuration(asset)
	require.NoError(vt.t, err)
	if current != duration {
		require.NoError(vt.t, vt.SetRewardsDuration(asset, duration, vt.now), "failed to set duration")
	}
	vt.MustFund(asset, operator, amount)
	require.NoError(vt.t, vt.Notify(operator, asset, amount, vt.now), "failed to notify")
	return vt
}

func (vt *VaultTest) MustPassThrough(account thor.Address, flag bool) *VaultTest {
	require.NoError(vt.t, vt.SetPassThrough(account, flag, vt.now), "failed to set pass-through")
	return vt
}

func (vt *VaultTest) MustRequestWithdraw(who thor.Address, shares *big.Int) *VaultTest {
	_, err := vt.RequestWithdraw(who, shares, vt.now)
	require.NoError(vt.t, err, "failed to request withdrawal")
	return vt
}

// MustStartAndFulfill freezes the open batch and fulfills it with fee, delivering net from the operator.
func (vt *VaultTest) MustStartAndFulfill(fee *big.Int) *VaultTest {
	id, total, err := vt.StartBatch(vt.now)
	require.NoError(vt.t, err, "failed to start batch")
	vt.MustFund(principal, operator, new(big.Int).Sub(total, fee))
	_, err = vt.FulfillBatch(operator, id, fee, vt.now)
	require.NoError(vt.t, err, "failed to fulfill batch")
	return vt
}

func (vt *VaultTest) preview(account, asset thor.Address) *big.Int {
	amount, err := vt.PreviewRewards(account, asset, vt.now)
	require.NoError(vt.t, err, "failed to preview rewards")
	return amount
}

func (vt *VaultTest) AssertPreview(account, asset thor.Address, expected *big.Int) *VaultTest {
	got := vt.preview(account, asset)
	assert.Equal(vt.t, expected.String(), got.String(), "preview mismatch for %v", account)
	return vt
}

// AssertPreviewNear checks the preview is at most expected and within tolerance of it.
func (vt *VaultTest) AssertPreviewNear(account, asset thor.Address, expected *big.Int, tolerance int64) *VaultTest {
	got := vt.preview(account, asset)
	diff := new(big.Int).Sub(expected, got)
	assert.True(vt.t, diff.Sign() >= 0, "preview %v above %v", got, expected)
	assert.True(vt.t, diff.Cmp(big.NewInt(tolerance)) <= 0, "preview %v too far from %v", got, expected)
	return vt
}

func (vt *VaultTest) AssertShares(account thor.Address, expected *big.Int) *VaultTest {
	bal, err := vt.BalanceOf(account)
	require.NoError(vt.t, err)
	assert.Equal(vt.t, expected.String(), bal.String(), "share balance mismatch for %v", account)
	return vt
}

func (vt *VaultTest) AssertEffective(account thor.Address, expected *big.Int) *VaultTest {
	bal, err := vt.EffectiveBalance(account)
	require.NoError(vt.t, err)
	assert.Equal(vt.t, expected.String(), bal.String(), "effective balance mismatch for %v", account)
	return vt
}

func (vt *VaultTest) AssertAsset(asset, holder thor.Address, expected *big.Int) *VaultTest {
	bal, err := vt.AssetBalance(asset, holder)
	require.NoError(vt.t, err)
	assert.Equal(vt.t, expected.String(), bal.String(), "asset balance mismatch for %v", holder)
	return vt
}

func (vt *VaultTest) AssertClaimable(account thor.Address, expected *big.Int) *VaultTest {
	amount, err := vt.ClaimableAssets(account)
	require.NoError(vt.t, err)
	assert.Equal(vt.t, expected.String(), amount.String(), "claimable mismatch for %v", account)
	return vt
}

func (vt *VaultTest) AssertPending(account thor.Address, expected *big.Int) *VaultTest {
	amount, err := vt.PendingShares(account)
	require.NoError(vt.t, err)
	assert.Equal(vt.t, expected.String(), amount.String(), "pending mismatch for %v", account)
	return vt
}

// AssertAttribution checks the effective balances of accounts add up to no more than the total shares.
func (vt *VaultTest) AssertAttribution(accounts ...thor.Address) *VaultTest {
	sum := new(big.Int)
	for _, account := range accounts {
		bal, err := vt.EffectiveBalance(account)
		require.NoError(vt.t, err)
		sum.Add(sum, bal)
	}
	total, err := vt.TotalShares()
	require.NoError(vt.t, err)
	assert.True(vt.t, sum.Cmp(total) <= 0, "effective balances %v exceed total shares %v", sum, total)
	return vt
}

// AssertTotals checks total shares and principal, which move together.
func (vt *VaultTest) AssertTotals(expected *big.Int) *VaultTest {
	total, err := vt.TotalShares()
	require.NoError(vt.t, err)
	principal, err := vt.DepositPrincipal()
	require.NoError(vt.t, err)
	assert.Equal(vt.t, expected.String(), total.String(), "total shares mismatch")
	assert.Equal(vt.t, total.String(), principal.String(), "principal diverged from shares")
	return vt
}
