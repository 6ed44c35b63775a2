// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/vault/builtin/vault/routing"
	"github.com/vechain/vault/thor"
)

func (v *Vault) BalanceOf(account thor.Address) (*big.Int, error) {
	return v.shares.BalanceOf(account)
}

func (v *Vault) TotalShares() (*big.Int, error) {
	return v.shares.TotalShares()
}

func (v *Vault) DepositPrincipal() (*big.Int, error) {
	return v.shares.DepositPrincipal()
}

func (v *Vault) MaxDeposits() (*big.Int, error) {
	return v.shares.MaxDeposits()
}

// EffectiveBalance returns the share balance account accrues rewards on.
func (v *Vault) EffectiveBalance(account thor.Address) (*big.Int, error) {
	return v.routing.EffectiveBalance(account)
}

func (v *Vault) RoutedShares(account thor.Address) (*big.Int, error) {
	return v.routing.RoutedShares(account)
}

// HeldShares returns the routed shares a pass-through holder carries for depositors.
func (v *Vault) HeldShares(holder thor.Address) (*big.Int, error) {
	return v.routing.HeldShares(holder)
}

func (v *Vault) Kind(account thor.Address) (routing.Kind, error) {
	return v.routing.Kind(account)
}

// AssetBalance returns the amount of asset held by holder.
func (v *Vault) AssetBalance(asset, holder thor.Address) (*big.Int, error) {
	return v.assets.BalanceOf(asset, holder)
}
