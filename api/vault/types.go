// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/vault/builtin/vault/rewards"
	"github.com/vechain/vault/builtin/vault/withdrawals"
	"github.com/vechain/vault/thor"
)

// Summary for marshal vault wide figures
type Summary struct {
	Address          thor.Address         `json:"address"`
	Principal        thor.Address         `json:"principal"`
	TotalShares      math.HexOrDecimal256 `json:"totalShares"`
	DepositPrincipal math.HexOrDecimal256 `json:"depositPrincipal"`
	MaxDeposits      math.HexOrDecimal256 `json:"maxDeposits"`
	CurrentBatch     uint64               `json:"currentBatch"`
	RewardAssets     []thor.Address       `json:"rewardAssets"`
	MaxRewardAssets  uint64               `json:"maxRewardAssets"`
	Timestamp        uint64               `json:"timestamp"`
}

// Account for marshal the position of one holder
type Account struct {
	Address          thor.Address         `json:"address"`
	Kind             string               `json:"kind"`
	Shares           math.HexOrDecimal256 `json:"shares"`
	EffectiveBalance math.HexOrDecimal256 `json:"effectiveBalance"`
	RoutedShares     math.HexOrDecimal256 `json:"routedShares"`
	PendingShares    math.HexOrDecimal256 `json:"pendingShares"`
	ClaimableAssets  math.HexOrDecimal256 `json:"claimableAssets"`
	Rewards          []*Reward            `json:"rewards"`
}

// Reward is an amount of one reward asset.
type Reward struct {
	Asset  thor.Address         `json:"asset"`
	Amount math.HexOrDecimal256 `json:"amount"`
}

type Stream struct {
	Asset          thor.Address         `json:"asset"`
	Accumulator    math.HexOrDecimal256 `json:"accumulator"`
	TotalNotified  math.HexOrDecimal256 `json:"totalNotified"`
	RewardRate     math.HexOrDecimal256 `json:"rewardRate"`
	PeriodEnd      uint64               `json:"periodEnd"`
	LastUpdateTime uint64               `json:"lastUpdateTime"`
	RoundingDust   math.HexOrDecimal256 `json:"roundingDust"`
	Duration       uint64               `json:"duration"`
	Active         bool                 `json:"active"`
}

type Batch struct {
	ID     uint64               `json:"id"`
	Status string               `json:"status"`
	Total  math.HexOrDecimal256 `json:"total"`
	Count  uint64               `json:"count"`
	Fee    math.HexOrDecimal256 `json:"fee"`
	Net    math.HexOrDecimal256 `json:"net"`
}

type Participant struct {
	Account thor.Address         `json:"account"`
	Amount  math.HexOrDecimal256 `json:"amount"`
}

// DepositRequest represents deposit body. The signer pays the principal.
type DepositRequest struct {
	Receiver thor.Address          `json:"receiver"`
	Amount   *math.HexOrDecimal256 `json:"amount"`
}

type TransferRequest struct {
	To     thor.Address          `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type WithdrawRequest struct {
	Shares *math.HexOrDecimal256 `json:"shares"`
}

type WithdrawResponse struct {
	BatchID uint64 `json:"batchId"`
}

type FulfillRequest struct {
	Fee *math.HexOrDecimal256 `json:"fee"`
}

type NotifyRequest struct {
	Asset  thor.Address          `json:"asset"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type DurationRequest struct {
	Asset    thor.Address `json:"asset"`
	Duration uint64       `json:"duration"`
}

type ClaimRequest struct {
	Asset    thor.Address `json:"asset"`
	Receiver thor.Address `json:"receiver"`
}

type MaxRewardAssetsRequest struct {
	Max uint64 `json:"max"`
}

type MaxDepositsRequest struct {
	Max *math.HexOrDecimal256 `json:"max"`
}

type PassThroughRequest struct {
	Account     thor.Address `json:"account"`
	PassThrough bool         `json:"passThrough"`
}

// FundRequest represents the body of the development faucet
type FundRequest struct {
	Asset  thor.Address          `json:"asset"`
	Holder thor.Address          `json:"holder"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// AmountResponse carries the amount released by an operation.
type AmountResponse struct {
	Amount math.HexOrDecimal256 `json:"amount"`
}

func hex(v *big.Int) math.HexOrDecimal256 {
	if v == nil {
		return math.HexOrDecimal256{}
	}
	return math.HexOrDecimal256(*v)
}

// amount converts an optional body field, a missing value reads as zero.
func amount(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}

func convertStream(s *rewards.Stream, duration, now uint64) *Stream {
	return &Stream{
		Asset:          s.Asset,
		Accumulator:    hex(s.Accumulator),
		TotalNotified:  hex(s.TotalNotified),
		RewardRate:     hex(s.RewardRate),
		PeriodEnd:      s.PeriodEnd,
		LastUpdateTime: s.LastUpdateTime,
		RoundingDust:   hex(s.RoundingDust),
		Duration:       duration,
		Active:         s.Active(now),
	}
}

func convertBatch(b *withdrawals.Batch) *Batch {
	return &Batch{
		ID:     b.ID,
		Status: b.Status().String(),
		Total:  hex(b.Total),
		Count:  b.Count,
		Fee:    hex(b.Fee),
		Net:    hex(b.Net),
	}
}

func convertParticipants(entries []*withdrawals.Entry) []*Participant {
	participants := make([]*Participant, 0, len(entries))
	for _, e := range entries {
		participants = append(participants, &Participant{
			Account: e.Account,
			Amount:  hex(e.Amount),
		})
	}
	return participants
}

func convertPayouts(payouts []rewards.Payout) []*Reward {
	list := make([]*Reward, 0, len(payouts))
	for _, p := range payouts {
		list = append(list, &Reward{Asset: p.Asset, Amount: hex(p.Amount)})
	}
	return list
}
