// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package withdrawals

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vault/builtin/solidity"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/log"
	"github.com/vechain/vault/thor"
)

var (
	slotCurrentBatch = thor.BytesToBytes32([]byte(("withdrawal-current-batch")))
	slotBatches      = thor.BytesToBytes32([]byte(("withdrawal-batches")))
	slotEntries      = thor.BytesToBytes32([]byte(("withdrawal-entries")))
	slotParticipants = thor.BytesToBytes32([]byte(("withdrawal-participants")))
	slotPending      = thor.BytesToBytes32([]byte(("withdrawal-pending")))
	slotClaimable    = thor.BytesToBytes32([]byte(("withdrawal-claimable")))

	logger = log.WithContext("pkg", "withdrawals")
)

// Service queues withdrawal requests into batches and tracks what participants may claim.
type Service struct {
	current      *solidity.Uint256
	batches      *solidity.Mapping[solidity.Uint64Key, *Batch]
	entries      *solidity.Mapping[entryKey, *Entry]
	participants *solidity.Mapping[participantKey, uint64] // entry index + 1
	pending      *solidity.Mapping[thor.Address, *big.Int]
	claimable    *solidity.Mapping[thor.Address, *big.Int]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		current:      solidity.NewUint256(sctx, slotCurrentBatch),
		batches:      solidity.NewMapping[solidity.Uint64Key, *Batch](sctx, slotBatches),
		entries:      solidity.NewMapping[entryKey, *Entry](sctx, slotEntries),
		participants: solidity.NewMapping[participantKey, uint64](sctx, slotParticipants),
		pending:      solidity.NewMapping[thor.Address, *big.Int](sctx, slotPending),
		claimable:    solidity.NewMapping[thor.Address, *big.Int](sctx, slotClaimable),
	}
}

// CurrentBatchID returns the id of the open batch.
func (s *Service) CurrentBatchID() (uint64, error) {
	id, err := s.current.Get()
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}

// Batch returns batch id. Ids beyond the open batch are reported as empty open batches.
func (s *Service) Batch(id uint64) (*Batch, error) {
	b, err := s.batches.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get batch")
	}
	b.normalize(id)
	return b, nil
}

// Participants returns the entries of batch id in request order.
func (s *Service) Participants(id uint64) ([]*Entry, error) {
	b, err := s.Batch(id)
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, 0, b.Count)
	for i := range b.Count {
		entry, err := s.entries.Get(entryKey{id, i})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get batch entry")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) PendingShares(account thor.Address) (*big.Int, error) {
	return s.pending.Get(account)
}

func (s *Service) ClaimableAssets(account thor.Address) (*big.Int, error) {
	return s.claimable.Get(account)
}

// Request adds shares to the entry of account in the open batch.
// The shares must already be burned by the caller.
func (s *Service) Request(account thor.Address, shares *big.Int) (uint64, error) {
	if shares.Sign() <= 0 {
		return 0, reverts.ErrZeroAmount
	}
	if account.IsZero() {
		return 0, reverts.ErrZeroAddress
	}
	id, err := s.CurrentBatchID()
	if err != nil {
		return 0, err
	}
	b, err := s.Batch(id)
	if err != nil {
		return 0, err
	}
	if b.Frozen {
		return 0, reverts.ErrBatchFrozen
	}

	pk := participantKey{id, account}
	idx, err := s.participants.Get(pk)
	if err != nil {
		return 0, err
	}
	if idx == 0 {
		if err := s.entries.Set(entryKey{id, b.Count}, &Entry{Account: account, Amount: new(big.Int).Set(shares)}, true); err != nil {
			return 0, err
		}
		b.Count++
		if err := s.participants.Set(pk, b.Count, true); err != nil {
			return 0, err
		}
	} else {
		ek := entryKey{id, idx - 1}
		entry, err := s.entries.Get(ek)
		if err != nil {
			return 0, err
		}
		entry.Amount.Add(entry.Amount, shares)
		if err := s.entries.Set(ek, entry, false); err != nil {
			return 0, err
		}
	}

	b.Total.Add(b.Total, shares)
	if err := s.batches.Set(solidity.Uint64Key(id), b, b.Count == 1); err != nil {
		return 0, err
	}

	pending, err := s.pending.Get(account)
	if err != nil {
		return 0, err
	}
	if err := s.pending.Set(account, pending.Add(pending, shares), pending.Sign() == 0); err != nil {
		return 0, err
	}
	return id, nil
}

// StartBatch freezes the open batch and opens the next one.
func (s *Service) StartBatch() (uint64, *big.Int, error) {
	id, err := s.CurrentBatchID()
	if err != nil {
		return 0, nil, err
	}
	b, err := s.Batch(id)
	if err != nil {
		return 0, nil, err
	}
	if b.Frozen {
		return 0, nil, reverts.ErrBatchFrozen
	}
	if b.Count == 0 {
		return 0, nil, reverts.ErrBatchEmpty
	}

	b.Frozen = true
	if err := s.batches.Set(solidity.Uint64Key(id), b, false); err != nil {
		return 0, nil, err
	}
	s.current.Set(new(big.Int).SetUint64(id + 1))

	logger.Debug("froze batch", "id", id, "total", b.Total, "participants", b.Count)
	return id, b.Total, nil
}

// Fulfill settles frozen batch id with total - fee assets, moving each participant's
// pending shares to claimable assets. It returns the net amount to collect.
func (s *Service) Fulfill(id uint64, fee *big.Int) (*big.Int, error) {
	if fee.Sign() < 0 {
		return nil, reverts.ErrFeeExceedsTotal
	}
	b, err := s.Batch(id)
	if err != nil {
		return nil, err
	}
	if b.Fulfilled {
		return nil, reverts.ErrBatchFulfilled
	}
	if !b.Frozen {
		return nil, errors.WithMessagef(reverts.ErrBatchNotFrozen, "batch %d", id)
	}
	if fee.Cmp(b.Total) > 0 {
		return nil, errors.WithMessagef(reverts.ErrFeeExceedsTotal, "fee %v, total %v", fee, b.Total)
	}

	net := new(big.Int).Sub(b.Total, fee)
	entries, err := s.Participants(id)
	if err != nil {
		return nil, err
	}
	shares, err := Allocate(entries, b.Total, net)
	if err != nil {
		return nil, err
	}

	for i, entry := range entries {
		pending, err := s.pending.Get(entry.Account)
		if err != nil {
			return nil, err
		}
		if pending.Cmp(entry.Amount) < 0 {
			return nil, errors.Errorf("pending shares of %v below batch entry", entry.Account)
		}
		pending.Sub(pending, entry.Amount)
		if pending.Sign() == 0 {
			s.pending.Delete(entry.Account)
		} else if err := s.pending.Set(entry.Account, pending, false); err != nil {
			return nil, err
		}

		claimable, err := s.claimable.Get(entry.Account)
		if err != nil {
			return nil, err
		}
		if err := s.claimable.Set(entry.Account, claimable.Add(claimable, shares[i]), claimable.Sign() == 0); err != nil {
			return nil, err
		}
	}

	b.Fulfilled = true
	b.Fee = new(big.Int).Set(fee)
	b.Net = net
	if err := s.batches.Set(solidity.Uint64Key(id), b, false); err != nil {
		return nil, err
	}

	logger.Debug("fulfilled batch", "id", id, "net", net, "fee", fee)
	return net, nil
}

// Claim releases the claimable assets of account.
func (s *Service) Claim(account thor.Address) (*big.Int, error) {
	amount, err := s.claimable.Get(account)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, reverts.ErrNothingToClaim
	}
	s.claimable.Delete(account)
	return amount, nil
}
