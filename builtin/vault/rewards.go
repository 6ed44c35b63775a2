// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/builtin/vault/rewards"
	"github.com/vechain/vault/thor"
)

// Notify pulls amount of asset from caller and adds it to the asset's reward stream.
func (v *Vault) Notify(caller, asset thor.Address, amount *big.Int, now uint64) error {
	return v.transition("notify", now, func() error {
		if caller.IsZero() {
			return reverts.ErrZeroAddress
		}
		if err := v.rewards.Notify(asset, amount, now); err != nil {
			return err
		}
		v.pay(asset, caller, v.address, amount)
		v.emit(Event{Name: EventRewardNotified, Account: caller, Asset: asset, Amount: amount})
		logger.Info("reward notified", "asset", asset, "amount", amount)
		return nil
	})
}

// SetRewardsDuration sets the period length of the next notification of asset.
func (v *Vault) SetRewardsDuration(asset thor.Address, duration, now uint64) error {
	return v.transition("setRewardsDuration", now, func() error {
		return v.rewards.SetRewardsDuration(asset, duration, now)
	})
}

// SetMaxRewardAssets bounds the number of reward assets.
func (v *Vault) SetMaxRewardAssets(max, now uint64) error {
	return v.transition("setMaxRewardAssets", now, func() error {
		return v.rewards.SetMaxRewardAssets(max)
	})
}

// Claim pays the rewards in asset accrued by caller to receiver.
func (v *Vault) Claim(caller, asset, receiver thor.Address, now uint64) (amount *big.Int, err error) {
	err = v.transition("claim", now, func() error {
		if receiver.IsZero() {
			return reverts.ErrZeroAddress
		}
		if amount, err = v.rewards.Claim(caller, asset, now); err != nil {
			return err
		}
		if amount.Sign() > 0 {
			v.pay(asset, v.address, receiver, amount)
			v.emit(Event{Name: EventRewardPaid, Account: caller, Counterparty: receiver, Asset: asset, Amount: amount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// ClaimAll pays every reward accrued by caller to receiver.
func (v *Vault) ClaimAll(caller, receiver thor.Address, now uint64) (payouts []rewards.Payout, err error) {
	err = v.transition("claimAll", now, func() error {
		if receiver.IsZero() {
			return reverts.ErrZeroAddress
		}
		if payouts, err = v.rewards.ClaimAll(caller, now); err != nil {
			return err
		}
		for _, p := range payouts {
			v.pay(p.Asset, v.address, receiver, p.Amount)
			v.emit(Event{Name: EventRewardPaid, Account: caller, Counterparty: receiver, Asset: p.Asset, Amount: p.Amount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// SweepDust pays the rounding dust of asset to receiver.
func (v *Vault) SweepDust(asset, receiver thor.Address, now uint64) (amount *big.Int, err error) {
	err = v.transition("sweepDust", now, func() error {
		if receiver.IsZero() {
			return reverts.ErrZeroAddress
		}
		if amount, err = v.rewards.SweepDust(asset, now); err != nil {
			return err
		}
		if amount.Sign() > 0 {
			v.pay(asset, v.address, receiver, amount)
			v.emit(Event{Name: EventDustSwept, Counterparty: receiver, Asset: asset, Amount: amount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// PreviewRewards returns what Claim would pay account in asset at now.
func (v *Vault) PreviewRewards(account, asset thor.Address, now uint64) (*big.Int, error) {
	return v.rewards.Preview(account, asset, now)
}

func (v *Vault) Stream(asset thor.Address) (*rewards.Stream, error) {
	return v.rewards.Stream(asset)
}

func (v *Vault) RewardAssets() ([]thor.Address, error) {
	return v.rewards.RewardAssets()
}

func (v *Vault) RewardsDuration(asset thor.Address) (uint64, error) {
	return v.rewards.RewardsDuration(asset)
}

func (v *Vault) MaxRewardAssets() (uint64, error) {
	return v.rewards.MaxRewardAssets()
}
