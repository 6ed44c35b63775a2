// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package withdrawals

import (
	"encoding/binary"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/thor"
)

// Status is the lifecycle stage of a batch.
type Status uint8

const (
	StatusOpen Status = iota
	StatusFrozen
	StatusFulfilled
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusFrozen:
		return "frozen"
	case StatusFulfilled:
		return "fulfilled"
	default:
		return "unknown"
	}
}

// Batch groups withdrawal requests settled together.
type Batch struct {
	ID        uint64
	Total     *big.Int
	Count     uint64 // participants
	Frozen    bool
	Fulfilled bool
	Fee       *big.Int
	Net       *big.Int
}

func (b *Batch) normalize(id uint64) {
	b.ID = id
	if b.Total == nil {
		b.Total = new(big.Int)
	}
	if b.Fee == nil {
		b.Fee = new(big.Int)
	}
	if b.Net == nil {
		b.Net = new(big.Int)
	}
}

func (b *Batch) Status() Status {
	switch {
	case b.Fulfilled:
		return StatusFulfilled
	case b.Frozen:
		return StatusFrozen
	default:
		return StatusOpen
	}
}

// Entry is the accumulated request of one participant in a batch.
type Entry struct {
	Account thor.Address
	Amount  *big.Int
}

type entryKey struct {
	batch uint64
	index uint64
}

func (k entryKey) Bytes() []byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], k.batch)
	binary.BigEndian.PutUint64(b[8:], k.index)
	return b[:]
}

type participantKey struct {
	batch   uint64
	account thor.Address
}

func (k participantKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], k.batch)
	return append(b[:], k.account.Bytes()...)
}

// Allocate splits net across entries pro rata to their amounts, in entry order.
// The last entry takes the remainder so the allocations sum to net exactly.
func Allocate(entries []*Entry, total, net *big.Int) ([]*big.Int, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	t, overflow := uint256.FromBig(total)
	if overflow || t.IsZero() {
		return nil, reverts.ErrOverflow
	}
	n, overflow := uint256.FromBig(net)
	if overflow {
		return nil, reverts.ErrOverflow
	}

	shares := make([]*big.Int, len(entries))
	allocated := new(uint256.Int)
	for i, entry := range entries {
		if i == len(entries)-1 {
			rest, underflow := new(uint256.Int).SubOverflow(n, allocated)
			if underflow {
				return nil, reverts.ErrOverflow
			}
			shares[i] = rest.ToBig()
			break
		}
		amount, overflow := uint256.FromBig(entry.Amount)
		if overflow {
			return nil, reverts.ErrOverflow
		}
		share, overflow := new(uint256.Int).MulDivOverflow(amount, n, t)
		if overflow {
			return nil, reverts.ErrOverflow
		}
		allocated.Add(allocated, share)
		shares[i] = share.ToBig()
	}
	return shares, nil
}
