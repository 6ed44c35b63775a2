// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package assets

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vault/builtin/solidity"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/thor"
)

// TransferHook is invoked after an asset has moved. It may call back into the vault.
type TransferHook func(asset, from, to thor.Address, amount *big.Int) error

// Ledger moves balances of arbitrary assets held in state.
type Ledger struct {
	sctx *solidity.Context
	hook TransferHook
}

func New(sctx *solidity.Context) *Ledger {
	return &Ledger{sctx: sctx}
}

// SetHook installs the post-transfer hook. A nil hook disables it.
func (l *Ledger) SetHook(hook TransferHook) {
	l.hook = hook
}

// BalanceOf returns the amount of asset held by holder.
func (l *Ledger) BalanceOf(asset, holder thor.Address) (*big.Int, error) {
	l.sctx.UseGas(thor.GetBalanceGas)
	return l.sctx.State().GetBalance(asset, holder)
}

// Mint credits amount of asset to holder out of thin air.
func (l *Ledger) Mint(asset, holder thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if holder.IsZero() || asset.IsZero() {
		return reverts.ErrZeroAddress
	}
	bal, err := l.BalanceOf(asset, holder)
	if err != nil {
		return err
	}
	l.sctx.UseGas(thor.SstoreResetGas)
	return l.sctx.State().SetBalance(asset, holder, bal.Add(bal, amount))
}

// Transfer moves amount of asset from one holder to another, then runs the hook.
func (l *Ledger) Transfer(asset, from, to thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return errors.Errorf("negative transfer amount %v", amount)
	}

	fromBal, err := l.BalanceOf(asset, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return errors.WithMessagef(reverts.ErrInsufficientAssets, "%v holds %v of %v, needs %v", from, fromBal, asset, amount)
	}
	toBal, err := l.BalanceOf(asset, to)
	if err != nil {
		return err
	}

	l.sctx.UseGas(2 * thor.SstoreResetGas)
	if err := l.sctx.State().SetBalance(asset, from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	if err := l.sctx.State().SetBalance(asset, to, toBal.Add(toBal, amount)); err != nil {
		return err
	}

	if l.hook != nil {
		return l.hook(asset, from, to, amount)
	}
	return nil
}
