// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/vault/thor"
)

// Event names.
const (
	EventDeposit           = "Deposit"
	EventTransfer          = "Transfer"
	EventRewardNotified    = "RewardNotified"
	EventRewardPaid        = "RewardPaid"
	EventDustSwept         = "DustSwept"
	EventWithdrawRequested = "WithdrawRequested"
	EventBatchStarted      = "BatchStarted"
	EventBatchFulfilled    = "BatchFulfilled"
	EventWithdrawClaimed   = "WithdrawClaimed"
	EventPassThroughSet    = "PassThroughSet"
)

// Event describes an effect of an applied transition.
// Fields that do not apply to an event are left zero.
type Event struct {
	Name         string
	Time         uint64
	Account      thor.Address
	Counterparty thor.Address
	Asset        thor.Address
	Batch        uint64
	Amount       *big.Int
}

// EventHandler receives the events of one transition, after it is committed.
type EventHandler func(events []*Event)

// SetEventHandler installs h. Events of reverted transitions are never delivered.
func (v *Vault) SetEventHandler(h EventHandler) {
	v.onEvents = h
}

func (v *Vault) emit(ev Event) {
	ev.Time = v.now
	if ev.Amount == nil {
		ev.Amount = new(big.Int)
	} else {
		ev.Amount = new(big.Int).Set(ev.Amount)
	}
	v.events = append(v.events, &ev)
}
