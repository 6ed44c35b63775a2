// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/builtin/vault/withdrawals"
	"github.com/vechain/vault/thor"
)

// RequestWithdraw burns shares of caller and queues them in the open batch.
// It returns the id of the batch the request joined.
func (v *Vault) RequestWithdraw(caller thor.Address, shares *big.Int, now uint64) (id uint64, err error) {
	err = v.transition("requestWithdraw", now, func() error {
		if shares.Sign() <= 0 {
			return reverts.ErrZeroAmount
		}
		if err := v.shares.Burn(caller, shares); err != nil {
			return err
		}
		if id, err = v.withdrawals.Request(caller, shares); err != nil {
			return err
		}
		v.emit(Event{Name: EventWithdrawRequested, Account: caller, Batch: id, Amount: shares})
		return nil
	})
	return id, err
}

// StartBatch freezes the open batch and returns its id and total.
func (v *Vault) StartBatch(now uint64) (id uint64, total *big.Int, err error) {
	err = v.transition("startBatch", now, func() error {
		if id, total, err = v.withdrawals.StartBatch(); err != nil {
			return err
		}
		v.emit(Event{Name: EventBatchStarted, Batch: id, Amount: total})
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	logger.Info("batch started", "id", id, "total", total)
	return id, total, nil
}

// FulfillBatch settles batch id, pulling total - fee of principal from caller.
func (v *Vault) FulfillBatch(caller thor.Address, id uint64, fee *big.Int, now uint64) (net *big.Int, err error) {
	err = v.transition("fulfillBatch", now, func() error {
		if caller.IsZero() {
			return reverts.ErrZeroAddress
		}
		if net, err = v.withdrawals.Fulfill(id, fee); err != nil {
			return err
		}
		v.pay(v.principal, caller, v.address, net)
		v.emit(Event{Name: EventBatchFulfilled, Account: caller, Asset: v.principal, Batch: id, Amount: net})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("batch fulfilled", "id", id, "net", net, "fee", fee)
	return net, nil
}

// ClaimWithdrawnAssets pays caller the principal released by fulfilled batches.
func (v *Vault) ClaimWithdrawnAssets(caller thor.Address, now uint64) (amount *big.Int, err error) {
	err = v.transition("claimWithdrawnAssets", now, func() error {
		if amount, err = v.withdrawals.Claim(caller); err != nil {
			return err
		}
		v.pay(v.principal, v.address, caller, amount)
		v.emit(Event{Name: EventWithdrawClaimed, Account: caller, Asset: v.principal, Amount: amount})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

func (v *Vault) PendingShares(account thor.Address) (*big.Int, error) {
	return v.withdrawals.PendingShares(account)
}

func (v *Vault) ClaimableAssets(account thor.Address) (*big.Int, error) {
	return v.withdrawals.ClaimableAssets(account)
}

func (v *Vault) CurrentBatchID() (uint64, error) {
	return v.withdrawals.CurrentBatchID()
}

func (v *Vault) Batch(id uint64) (*withdrawals.Batch, error) {
	return v.withdrawals.Batch(id)
}

func (v *Vault) BatchParticipants(id uint64) ([]*withdrawals.Entry, error) {
	return v.withdrawals.Participants(id)
}
