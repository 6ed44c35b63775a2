// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package assets

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vault/builtin/solidity"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/state"
	"github.com/vechain/vault/test/datagen"
	"github.com/vechain/vault/thor"
)

func newLedger() (*Ledger, *state.State) {
	st := state.New(nil)
	return New(solidity.NewContext(thor.BytesToAddress([]byte("vault")), st, nil)), st
}

func TestLedger_MintAndTransfer(t *testing.T) {
	l, _ := newLedger()
	asset := datagen.RandAddress()
	alice := datagen.RandAddress()
	bob := datagen.RandAddress()

	require.NoError(t, l.Mint(asset, alice, big.NewInt(100)))
	require.NoError(t, l.Transfer(asset, alice, bob, big.NewInt(40)))

	bal, err := l.BalanceOf(asset, alice)
	require.NoError(t, err)
	assert.Equal(t, "60", bal.String())

	bal, err = l.BalanceOf(asset, bob)
	require.NoError(t, err)
	assert.Equal(t, "40", bal.String())

	// other assets are untouched
	bal, err = l.BalanceOf(datagen.RandAddress(), alice)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
}

func TestLedger_Validation(t *testing.T) {
	l, _ := newLedger()
	asset := datagen.RandAddress()
	alice := datagen.RandAddress()

	assert.ErrorIs(t, l.Mint(asset, alice, big.NewInt(0)), reverts.ErrZeroAmount)
	assert.ErrorIs(t, l.Mint(asset, thor.Address{}, big.NewInt(1)), reverts.ErrZeroAddress)
	assert.ErrorIs(t, l.Transfer(asset, alice, datagen.RandAddress(), big.NewInt(1)), reverts.ErrInsufficientAssets)
	assert.Error(t, l.Transfer(asset, alice, datagen.RandAddress(), big.NewInt(-1)))

	// zero transfers are a no-op
	assert.NoError(t, l.Transfer(asset, alice, datagen.RandAddress(), big.NewInt(0)))
}

func TestLedger_Hook(t *testing.T) {
	l, _ := newLedger()
	asset := datagen.RandAddress()
	alice := datagen.RandAddress()
	bob := datagen.RandAddress()
	require.NoError(t, l.Mint(asset, alice, big.NewInt(10)))

	var seen []string
	l.SetHook(func(a, from, to thor.Address, amount *big.Int) error {
		seen = append(seen, amount.String())
		if amount.Cmp(big.NewInt(5)) > 0 {
			return errors.New("rejected")
		}
		return nil
	})

	require.NoError(t, l.Transfer(asset, alice, bob, big.NewInt(3)))
	assert.EqualError(t, l.Transfer(asset, alice, bob, big.NewInt(6)), "rejected")
	assert.Equal(t, []string{"3", "6"}, seen)

	l.SetHook(nil)
	require.NoError(t, l.Transfer(asset, alice, bob, big.NewInt(1)))
}
