// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/thor"
)

var precision = uint256.MustFromBig(thor.RewardPrecision)

// Stream is the linear emission of one reward asset.
type Stream struct {
	Asset          thor.Address
	Accumulator    *big.Int // reward per share, scaled by thor.RewardPrecision
	TotalNotified  *big.Int
	RewardRate     *big.Int // per second
	PeriodEnd      uint64
	LastUpdateTime uint64
	RoundingDust   *big.Int
}

// Checkpoint is the reward position of one account in one stream.
type Checkpoint struct {
	PaidPerShare *big.Int
	Accrued      *big.Int
}

// Payout is an amount of reward asset released by a claim.
type Payout struct {
	Asset  thor.Address
	Amount *big.Int
}

func (s *Stream) normalize() {
	if s.Accumulator == nil {
		s.Accumulator = new(big.Int)
	}
	if s.TotalNotified == nil {
		s.TotalNotified = new(big.Int)
	}
	if s.RewardRate == nil {
		s.RewardRate = new(big.Int)
	}
	if s.RoundingDust == nil {
		s.RoundingDust = new(big.Int)
	}
}

func (c *Checkpoint) normalize() {
	if c.PaidPerShare == nil {
		c.PaidPerShare = new(big.Int)
	}
	if c.Accrued == nil {
		c.Accrued = new(big.Int)
	}
}

// Active reports whether the emission period has not ended at now.
func (s *Stream) Active(now uint64) bool {
	return now <= s.PeriodEnd
}

// accrue releases the emission up to min(now, PeriodEnd) into the accumulator.
// With no shares outstanding the released amount goes to the rounding dust.
func (s *Stream) accrue(now uint64, totalShares *big.Int) error {
	until := min(now, s.PeriodEnd)
	if until <= s.LastUpdateTime {
		return nil
	}

	emitted := new(big.Int).SetUint64(until - s.LastUpdateTime)
	emitted.Mul(emitted, s.RewardRate)

	if totalShares.Sign() == 0 {
		s.RoundingDust.Add(s.RoundingDust, emitted)
	} else {
		e, overflow := uint256.FromBig(emitted)
		if overflow {
			return reverts.ErrOverflow
		}
		total, overflow := uint256.FromBig(totalShares)
		if overflow {
			return reverts.ErrOverflow
		}
		delta, overflow := new(uint256.Int).MulDivOverflow(e, precision, total)
		if overflow {
			return reverts.ErrOverflow
		}
		acc, overflow := uint256.FromBig(s.Accumulator)
		if overflow {
			return reverts.ErrOverflow
		}
		if _, overflow := acc.AddOverflow(acc, delta); overflow {
			return reverts.ErrOverflow
		}
		s.Accumulator = acc.ToBig()
	}
	s.LastUpdateTime = until
	return nil
}

// notify starts a new period of duration seconds carrying amount plus whatever the
// current period has not released yet. The stream must be accrued up to now.
func (s *Stream) notify(amount *big.Int, duration, now uint64) error {
	periodEnd := now + duration
	if periodEnd < now {
		return reverts.ErrOverflow
	}

	total := new(big.Int).Set(amount)
	if now < s.PeriodEnd {
		leftover := new(big.Int).SetUint64(s.PeriodEnd - now)
		total.Add(total, leftover.Mul(leftover, s.RewardRate))
	}

	rate, rem := new(big.Int).QuoRem(total, new(big.Int).SetUint64(duration), new(big.Int))
	s.RewardRate = rate
	s.RoundingDust.Add(s.RoundingDust, rem)
	s.TotalNotified.Add(s.TotalNotified, amount)
	s.PeriodEnd = periodEnd
	s.LastUpdateTime = now
	return nil
}

// earned is balance * (accumulator - paid) / precision.
func earned(balance, accumulator, paid *big.Int) (*big.Int, error) {
	if accumulator.Cmp(paid) <= 0 || balance.Sign() == 0 {
		return new(big.Int), nil
	}
	bal, overflow := uint256.FromBig(balance)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	delta, overflow := uint256.FromBig(new(big.Int).Sub(accumulator, paid))
	if overflow {
		return nil, reverts.ErrOverflow
	}
	amount, overflow := new(uint256.Int).MulDivOverflow(bal, delta, precision)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	return amount.ToBig(), nil
}
