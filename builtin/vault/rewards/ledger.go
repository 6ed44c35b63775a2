// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vault/builtin/solidity"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/log"
	"github.com/vechain/vault/thor"
)

var (
	slotStreams     = thor.BytesToBytes32([]byte(("reward-streams")))
	slotHandles     = thor.BytesToBytes32([]byte(("reward-handles")))
	slotCount       = thor.BytesToBytes32([]byte(("reward-count")))
	slotMaxAssets   = thor.BytesToBytes32([]byte(("reward-max-assets")))
	slotDurations   = thor.BytesToBytes32([]byte(("reward-durations")))
	slotCheckpoints = thor.BytesToBytes32([]byte(("reward-checkpoints")))

	logger = log.WithContext("pkg", "rewards")
)

// ShareSupply returns the shares outstanding.
type ShareSupply interface {
	TotalShares() (*big.Int, error)
}

// EffectiveBalances returns the balance an account accrues rewards on.
type EffectiveBalances interface {
	EffectiveBalance(account thor.Address) (*big.Int, error)
}

type checkpointKey struct {
	account thor.Address
	asset   thor.Address
}

func (k checkpointKey) Bytes() []byte {
	return append(k.account.Bytes(), k.asset.Bytes()...)
}

// Ledger streams reward assets to share holders.
// Streams live in an arena indexed by a handle assigned at first notification.
type Ledger struct {
	streams     *solidity.Mapping[solidity.Uint64Key, *Stream]
	handles     *solidity.Mapping[thor.Address, uint64] // handle + 1
	count       *solidity.Uint256
	maxAssets   *solidity.Uint256
	durations   *solidity.Mapping[thor.Address, uint64]
	checkpoints *solidity.Mapping[checkpointKey, *Checkpoint]

	supply   ShareSupply
	balances EffectiveBalances
}

func New(sctx *solidity.Context, supply ShareSupply, balances EffectiveBalances) *Ledger {
	return &Ledger{
		streams:     solidity.NewMapping[solidity.Uint64Key, *Stream](sctx, slotStreams),
		handles:     solidity.NewMapping[thor.Address, uint64](sctx, slotHandles),
		count:       solidity.NewUint256(sctx, slotCount),
		maxAssets:   solidity.NewUint256(sctx, slotMaxAssets),
		durations:   solidity.NewMapping[thor.Address, uint64](sctx, slotDurations),
		checkpoints: solidity.NewMapping[checkpointKey, *Checkpoint](sctx, slotCheckpoints),
		supply:      supply,
		balances:    balances,
	}
}

// MaxRewardAssets returns the registration limit.
func (l *Ledger) MaxRewardAssets() (uint64, error) {
	max, err := l.maxAssets.Get()
	if err != nil {
		return 0, err
	}
	if max.Sign() == 0 {
		return uint64(thor.DefaultMaxRewardAssets), nil
	}
	return max.Uint64(), nil
}

// SetMaxRewardAssets changes the registration limit. It cannot drop below the registered count.
func (l *Ledger) SetMaxRewardAssets(max uint64) error {
	if max == 0 {
		return reverts.ErrZeroAmount
	}
	count, err := l.assetCount()
	if err != nil {
		return err
	}
	if max < count {
		return errors.WithMessagef(reverts.ErrTooManyRewardAssets, "%d assets registered", count)
	}
	l.maxAssets.Set(new(big.Int).SetUint64(max))
	return nil
}

func (l *Ledger) assetCount() (uint64, error) {
	count, err := l.count.Get()
	if err != nil {
		return 0, err
	}
	return count.Uint64(), nil
}

// RewardsDuration returns the configured period length of asset, zero when unset.
func (l *Ledger) RewardsDuration(asset thor.Address) (uint64, error) {
	return l.durations.Get(asset)
}

// SetRewardsDuration sets the period length used by the next notification of asset.
func (l *Ledger) SetRewardsDuration(asset thor.Address, duration, now uint64) error {
	if asset.IsZero() {
		return reverts.ErrZeroAddress
	}
	if duration == 0 {
		return reverts.ErrZeroDuration
	}
	_, stream, err := l.lookup(asset)
	if err != nil {
		return err
	}
	if stream != nil && stream.Active(now) {
		return errors.WithMessagef(reverts.ErrPeriodActive, "period ends at %d", stream.PeriodEnd)
	}
	current, err := l.durations.Get(asset)
	if err != nil {
		return err
	}
	return l.durations.Set(asset, duration, current == 0)
}

// RewardAssets lists registered reward assets in registration order.
func (l *Ledger) RewardAssets() ([]thor.Address, error) {
	count, err := l.assetCount()
	if err != nil {
		return nil, err
	}
	assets := make([]thor.Address, 0, count)
	for handle := range count {
		stream, err := l.streams.Get(solidity.Uint64Key(handle))
		if err != nil {
			return nil, err
		}
		assets = append(assets, stream.Asset)
	}
	return assets, nil
}

// Stream returns the stored state of the stream of asset.
func (l *Ledger) Stream(asset thor.Address) (*Stream, error) {
	_, stream, err := l.lookup(asset)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, reverts.ErrAssetNotRegistered
	}
	return stream, nil
}

// Checkpoint returns the stored checkpoint of account for asset.
func (l *Ledger) Checkpoint(account, asset thor.Address) (*Checkpoint, error) {
	cp, err := l.checkpoints.Get(checkpointKey{account, asset})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward checkpoint")
	}
	cp.normalize()
	return cp, nil
}

// lookup returns the handle and stream of asset, or a nil stream when not registered.
func (l *Ledger) lookup(asset thor.Address) (solidity.Uint64Key, *Stream, error) {
	h, err := l.handles.Get(asset)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to get reward handle")
	}
	if h == 0 {
		return 0, nil, nil
	}
	handle := solidity.Uint64Key(h - 1)
	stream, err := l.streams.Get(handle)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to get reward stream")
	}
	stream.normalize()
	return handle, stream, nil
}

func (l *Ledger) register(asset thor.Address) (solidity.Uint64Key, *Stream, error) {
	count, err := l.assetCount()
	if err != nil {
		return 0, nil, err
	}
	max, err := l.MaxRewardAssets()
	if err != nil {
		return 0, nil, err
	}
	if count >= max {
		return 0, nil, errors.WithMessagef(reverts.ErrTooManyRewardAssets, "limit %d", max)
	}

	handle := solidity.Uint64Key(count)
	stream := &Stream{Asset: asset}
	stream.normalize()
	if err := l.streams.Set(handle, stream, true); err != nil {
		return 0, nil, err
	}
	if err := l.handles.Set(asset, count+1, true); err != nil {
		return 0, nil, err
	}
	l.count.Set(new(big.Int).SetUint64(count + 1))

	logger.Debug("registered reward asset", "asset", asset, "handle", count)
	return handle, stream, nil
}

// Notify adds amount to the emission of asset, registering the asset on first use.
// The caller pulls amount from the notifier.
func (l *Ledger) Notify(asset thor.Address, amount *big.Int, now uint64) error {
	if amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if asset.IsZero() {
		return reverts.ErrZeroAddress
	}
	duration, err := l.durations.Get(asset)
	if err != nil {
		return err
	}
	if duration == 0 {
		return reverts.ErrDurationNotSet
	}
	total, err := l.supply.TotalShares()
	if err != nil {
		return err
	}
	if total.Sign() == 0 {
		return reverts.ErrZeroShares
	}

	handle, stream, err := l.lookup(asset)
	if err != nil {
		return err
	}
	if stream == nil {
		if handle, stream, err = l.register(asset); err != nil {
			return err
		}
	}

	if err := stream.accrue(now, total); err != nil {
		return err
	}
	if err := stream.notify(amount, duration, now); err != nil {
		return err
	}

	logger.Debug("notified reward", "asset", asset, "amount", amount, "rate", stream.RewardRate, "periodEnd", stream.PeriodEnd)
	return l.streams.Set(handle, stream, false)
}

// settle accrues the stream of asset up to now and persists it.
func (l *Ledger) settle(handle solidity.Uint64Key, stream *Stream, now uint64) error {
	total, err := l.supply.TotalShares()
	if err != nil {
		return err
	}
	before := stream.LastUpdateTime
	if err := stream.accrue(now, total); err != nil {
		return err
	}
	if stream.LastUpdateTime == before {
		return nil
	}
	return l.streams.Set(handle, stream, false)
}

func (l *Ledger) settleUser(account thor.Address, handle solidity.Uint64Key, stream *Stream, now uint64) (*Checkpoint, error) {
	if err := l.settle(handle, stream, now); err != nil {
		return nil, err
	}
	cp, err := l.Checkpoint(account, stream.Asset)
	if err != nil {
		return nil, err
	}
	if cp.PaidPerShare.Cmp(stream.Accumulator) == 0 {
		return cp, nil
	}

	balance, err := l.balances.EffectiveBalance(account)
	if err != nil {
		return nil, err
	}
	amount, err := earned(balance, stream.Accumulator, cp.PaidPerShare)
	if err != nil {
		return nil, err
	}
	isNew := cp.PaidPerShare.Sign() == 0 && cp.Accrued.Sign() == 0
	cp.Accrued.Add(cp.Accrued, amount)
	cp.PaidPerShare = new(big.Int).Set(stream.Accumulator)
	if err := l.checkpoints.Set(checkpointKey{account, stream.Asset}, cp, isNew); err != nil {
		return nil, err
	}
	return cp, nil
}

// SettleUser credits account with what it earned on asset since its last checkpoint.
func (l *Ledger) SettleUser(account, asset thor.Address, now uint64) error {
	handle, stream, err := l.lookup(asset)
	if err != nil {
		return err
	}
	if stream == nil {
		return reverts.ErrAssetNotRegistered
	}
	_, err = l.settleUser(account, handle, stream, now)
	return err
}

// SettleAll settles account on every registered asset.
// It must run before any change of the effective balance of account.
func (l *Ledger) SettleAll(account thor.Address, now uint64) error {
	count, err := l.assetCount()
	if err != nil {
		return err
	}
	for h := range count {
		handle := solidity.Uint64Key(h)
		stream, err := l.streams.Get(handle)
		if err != nil {
			return err
		}
		stream.normalize()
		if _, err := l.settleUser(account, handle, stream, now); err != nil {
			return err
		}
	}
	return nil
}

// Claim settles account and releases its accrued amount of asset.
// Claiming nothing is not an error.
func (l *Ledger) Claim(account, asset thor.Address, now uint64) (*big.Int, error) {
	handle, stream, err := l.lookup(asset)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, reverts.ErrAssetNotRegistered
	}
	cp, err := l.settleUser(account, handle, stream, now)
	if err != nil {
		return nil, err
	}
	amount := cp.Accrued
	if amount.Sign() == 0 {
		return amount, nil
	}
	cp.Accrued = new(big.Int)
	if err := l.checkpoints.Set(checkpointKey{account, asset}, cp, false); err != nil {
		return nil, err
	}
	return amount, nil
}

// ClaimAll claims every registered asset for account. Zero payouts are omitted.
func (l *Ledger) ClaimAll(account thor.Address, now uint64) ([]Payout, error) {
	assets, err := l.RewardAssets()
	if err != nil {
		return nil, err
	}
	var payouts []Payout
	for _, asset := range assets {
		amount, err := l.Claim(account, asset, now)
		if err != nil {
			return nil, err
		}
		if amount.Sign() > 0 {
			payouts = append(payouts, Payout{Asset: asset, Amount: amount})
		}
	}
	return payouts, nil
}

// Preview returns what a claim of asset by account would release at now, without writing.
func (l *Ledger) Preview(account, asset thor.Address, now uint64) (*big.Int, error) {
	_, stream, err := l.lookup(asset)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, reverts.ErrAssetNotRegistered
	}
	total, err := l.supply.TotalShares()
	if err != nil {
		return nil, err
	}
	if err := stream.accrue(now, total); err != nil {
		return nil, err
	}
	cp, err := l.Checkpoint(account, asset)
	if err != nil {
		return nil, err
	}
	balance, err := l.balances.EffectiveBalance(account)
	if err != nil {
		return nil, err
	}
	amount, err := earned(balance, stream.Accumulator, cp.PaidPerShare)
	if err != nil {
		return nil, err
	}
	return amount.Add(amount, cp.Accrued), nil
}

// SweepDust accrues asset up to now, then releases its rounding dust.
func (l *Ledger) SweepDust(asset thor.Address, now uint64) (*big.Int, error) {
	handle, stream, err := l.lookup(asset)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, reverts.ErrAssetNotRegistered
	}
	if err := l.settle(handle, stream, now); err != nil {
		return nil, err
	}
	dust := stream.RoundingDust
	if dust.Sign() == 0 {
		return dust, nil
	}
	stream.RoundingDust = new(big.Int)
	if err := l.streams.Set(handle, stream, false); err != nil {
		return nil, err
	}
	return dust, nil
}
