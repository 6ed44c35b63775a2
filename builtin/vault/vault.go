// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vault/builtin/gascharger"
	"github.com/vechain/vault/builtin/solidity"
	"github.com/vechain/vault/builtin/vault/assets"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/builtin/vault/rewards"
	"github.com/vechain/vault/builtin/vault/routing"
	"github.com/vechain/vault/builtin/vault/shares"
	"github.com/vechain/vault/builtin/vault/withdrawals"
	"github.com/vechain/vault/kv"
	"github.com/vechain/vault/log"
	"github.com/vechain/vault/state"
	"github.com/vechain/vault/thor"
)

var logger = log.WithContext("pkg", "vault")

func SetLogger(l log.Logger) {
	logger = l
}

// transfer is an asset movement deferred to the end of an operation.
type transfer struct {
	asset  thor.Address
	from   thor.Address
	to     thor.Address
	amount *big.Int
}

// Vault implements the accounting core of a pooled staking vault.
// Every mutating method is one atomic transition: it either applies fully or
// leaves the state untouched. A Vault is not safe for concurrent use.
type Vault struct {
	address   thor.Address
	principal thor.Address
	state     *state.State
	store     kv.Store
	charger   *gascharger.Charger

	assets      *assets.Ledger
	shares      *shares.Service
	routing     *routing.Resolver
	rewards     *rewards.Ledger
	withdrawals *withdrawals.Service

	busy      bool
	now       uint64
	transfers []transfer
	events    []*Event
	onEvents  EventHandler
}

// New creates a vault at addr whose principal asset is principal.
// When store is not nil every successful transition is committed to it.
func New(addr, principal thor.Address, st *state.State, store kv.Store) *Vault {
	charger := gascharger.New()
	sctx := solidity.NewContext(addr, st, charger)

	v := &Vault{
		address:     addr,
		principal:   principal,
		state:       st,
		store:       store,
		charger:     charger,
		assets:      assets.New(sctx),
		withdrawals: withdrawals.New(sctx),
	}
	v.shares = shares.New(sctx, v.balanceChanged)
	v.routing = routing.New(sctx, v.shares)
	v.rewards = rewards.New(sctx, v.shares, v.routing)
	return v
}

func (v *Vault) Address() thor.Address {
	return v.address
}

func (v *Vault) Principal() thor.Address {
	return v.principal
}

// SetTransferHook installs a callback run after each asset transfer of the vault.
func (v *Vault) SetTransferHook(hook assets.TransferHook) {
	v.assets.SetHook(hook)
}

// balanceChanged runs before every mint, burn and transfer of shares.
func (v *Vault) balanceChanged(from, to thor.Address, amount *big.Int) error {
	return v.routing.Route(from, to, amount, v.settle)
}

func (v *Vault) settle(account thor.Address) error {
	return v.rewards.SettleAll(account, v.now)
}

// pay schedules an asset movement for the end of the current transition.
func (v *Vault) pay(asset, from, to thor.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	v.transfers = append(v.transfers, transfer{asset, from, to, new(big.Int).Set(amount)})
}

// transition runs fn as one atomic operation named op.
// Deferred transfers run after fn, once the ledger state is final.
func (v *Vault) transition(op string, now uint64, fn func() error) (err error) {
	if v.busy {
		recordOperation(op, reverts.ErrReentrant, 0)
		return reverts.ErrReentrant
	}
	v.busy = true
	v.now = now
	v.transfers = nil
	v.events = nil
	v.charger.Reset()
	checkpoint := v.state.NewCheckpoint()

	defer func() {
		v.busy = false
		v.transfers = nil
		v.events = nil
		recordOperation(op, err, v.charger.TotalGas())
		if err == nil {
			v.updateGauges()
		}
	}()

	logger.Debug("executing operation", "op", op, "now", now)

	if err = fn(); err == nil {
		err = v.flush()
	}
	if err == nil {
		if v.store != nil {
			err = v.state.Commit(v.store)
		} else {
			v.state.Keep(checkpoint)
		}
	}
	if err != nil {
		v.state.RevertTo(checkpoint)
		if reverts.IsRevertErr(err) {
			logger.Debug("operation reverted", "op", op, "kind", reverts.KindOf(err), "err", err)
		} else {
			logger.Warn("operation failed", "op", op, "err", err)
		}
		return err
	}

	logger.Debug("operation applied", "op", op, "gas", v.charger.TotalGas())
	if v.onEvents != nil && len(v.events) > 0 {
		v.onEvents(v.events)
	}
	return nil
}

func (v *Vault) flush() error {
	pending := v.transfers
	v.transfers = nil
	for _, t := range pending {
		if err := v.assets.Transfer(t.asset, t.from, t.to, t.amount); err != nil {
			return errors.WithMessagef(err, "transfer %v of %v", t.amount, t.asset)
		}
	}
	return nil
}

// Fund credits amount of asset to holder. It is a faucet for development networks.
func (v *Vault) Fund(asset, holder thor.Address, amount *big.Int, now uint64) error {
	return v.transition("fund", now, func() error {
		return v.assets.Mint(asset, holder, amount)
	})
}

// SetMaxDeposits caps the principal the vault accepts. Zero removes the cap.
func (v *Vault) SetMaxDeposits(max *big.Int, now uint64) error {
	return v.transition("setMaxDeposits", now, func() error {
		if max.Sign() < 0 {
			return reverts.ErrZeroAmount
		}
		v.shares.SetMaxDeposits(max)
		return nil
	})
}

// Deposit pulls amount of principal from caller and issues the same amount of shares to receiver.
func (v *Vault) Deposit(caller, receiver thor.Address, amount *big.Int, now uint64) error {
	return v.transition("deposit", now, func() error {
		if caller.IsZero() {
			return reverts.ErrZeroAddress
		}
		if err := v.shares.Deposit(receiver, amount); err != nil {
			return err
		}
		v.pay(v.principal, caller, v.address, amount)
		v.emit(Event{Name: EventDeposit, Account: receiver, Counterparty: caller, Asset: v.principal, Amount: amount})
		return nil
	})
}

// Transfer moves shares from one holder to another.
func (v *Vault) Transfer(from, to thor.Address, amount *big.Int, now uint64) error {
	return v.transition("transfer", now, func() error {
		if err := v.shares.Transfer(from, to, amount); err != nil {
			return err
		}
		v.emit(Event{Name: EventTransfer, Account: from, Counterparty: to, Amount: amount})
		return nil
	})
}

// SetPassThrough flags or unflags account as a pass-through holder.
// Rewards earned by account so far are settled under its current kind.
func (v *Vault) SetPassThrough(account thor.Address, passThrough bool, now uint64) error {
	return v.transition("setPassThrough", now, func() error {
		if account.IsZero() {
			return reverts.ErrZeroAddress
		}
		if err := v.settle(account); err != nil {
			return err
		}
		kind := routing.Ordinary
		if passThrough {
			kind = routing.PassThrough
		}
		if err := v.routing.SetKind(account, kind); err != nil {
			return err
		}
		v.emit(Event{Name: EventPassThroughSet, Account: account})
		return nil
	})
}
