// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/vault/eventdb"
	"github.com/vechain/vault/thor"
)

type EventCriteria struct {
	Name    string        `json:"name"`
	Account *thor.Address `json:"account"`
	Asset   *thor.Address `json:"asset"`
	Batch   *uint64       `json:"batch"`
}

// Range bounds the event time in unix seconds. Missing ends are open.
type Range struct {
	From *uint64 `json:"from"`
	To   *uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       eventdb.Order    `json:"order"`
}

// FilteredEvent is a stored vault event.
type FilteredEvent struct {
	Seq          uint64               `json:"seq"`
	Name         string               `json:"name"`
	Time         uint64               `json:"time"`
	Account      thor.Address         `json:"account"`
	Counterparty thor.Address         `json:"counterparty"`
	Asset        thor.Address         `json:"asset"`
	Batch        uint64               `json:"batch"`
	Amount       math.HexOrDecimal256 `json:"amount"`
}

// ConvertEvent converts a db event into its json form.
func ConvertEvent(ev *eventdb.Event) *FilteredEvent {
	amount := ev.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	return &FilteredEvent{
		Seq:          ev.Seq,
		Name:         ev.Name,
		Time:         ev.Time,
		Account:      ev.Account,
		Counterparty: ev.Counterparty,
		Asset:        ev.Asset,
		Batch:        ev.Batch,
		Amount:       math.HexOrDecimal256(*amount),
	}
}

func convertFilter(ef *EventFilter) *eventdb.EventFilter {
	filter := &eventdb.EventFilter{
		Order: ef.Order,
	}
	for _, c := range ef.CriteriaSet {
		filter.CriteriaSet = append(filter.CriteriaSet, &eventdb.EventCriteria{
			Name:    c.Name,
			Account: c.Account,
			Asset:   c.Asset,
			Batch:   c.Batch,
		})
	}
	if ef.Range != nil {
		filter.Range = &eventdb.Range{}
		if ef.Range.From != nil {
			filter.Range.From = *ef.Range.From
		}
		if ef.Range.To != nil {
			filter.Range.To = *ef.Range.To
		} else {
			filter.Range.To = ^uint64(0) // open
		}
	}
	if ef.Options != nil {
		filter.Options = &eventdb.Options{
			Offset: ef.Options.Offset,
			Limit:  ef.Options.Limit,
		}
	}
	return filter
}
