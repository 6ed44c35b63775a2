// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"math/big"

	"github.com/vechain/vault/builtin/vault"
	"github.com/vechain/vault/thor"
)

// Event is a vault event as stored in db.
type Event struct {
	Seq          uint64 // assigned on insert
	Name         string
	Time         uint64
	Account      thor.Address
	Counterparty thor.Address
	Asset        thor.Address
	Batch        uint64
	Amount       *big.Int
}

// NewEvents converts vault events to storable events.
func NewEvents(events []*vault.Event) []*Event {
	out := make([]*Event, len(events))
	for i, ev := range events {
		out[i] = &Event{
			Name:         ev.Name,
			Time:         ev.Time,
			Account:      ev.Account,
			Counterparty: ev.Counterparty,
			Asset:        ev.Asset,
			Batch:        ev.Batch,
			Amount:       ev.Amount,
		}
	}
	return out
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds the event time, both ends included.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by the non-nil fields.
// Account matches either side of an event.
type EventCriteria struct {
	Name    string
	Account *thor.Address
	Asset   *thor.Address
	Batch   *uint64
}

// EventFilter selects events matching any of CriteriaSet.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
