// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package routing

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vault/builtin/solidity"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/thor"
)

var (
	slotKinds  = thor.BytesToBytes32([]byte(("holder-kinds")))
	slotRouted = thor.BytesToBytes32([]byte(("routed-shares")))
	slotHeld   = thor.BytesToBytes32([]byte(("held-routed-shares")))
)

// Kind tells how a holder's shares accrue rewards.
type Kind uint8

const (
	// Ordinary holders accrue on their own balance.
	Ordinary Kind = iota
	// PassThrough holders accrue nothing; whoever routed shares into them does.
	PassThrough
)

func (k Kind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case PassThrough:
		return "pass-through"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "ordinary":
		return Ordinary, nil
	case "pass-through":
		return PassThrough, nil
	default:
		return 0, errors.Errorf("unknown holder kind %q", s)
	}
}

// BalanceReader returns raw share balances.
type BalanceReader interface {
	BalanceOf(account thor.Address) (*big.Int, error)
}

// SettleFunc brings the reward checkpoints of account up to date.
type SettleFunc func(account thor.Address) error

// Resolver computes effective balances and applies routing on share movements.
//
// routed counts, per depositor, the shares it moved into pass-through holders.
// held counts, per pass-through holder, the routed shares it carries. A holder
// never carries more routed shares than its raw balance, so the effective
// balances of all accounts never add up to more than the total supply.
type Resolver struct {
	kinds    *solidity.Mapping[thor.Address, Kind]
	routed   *solidity.Mapping[thor.Address, *big.Int]
	held     *solidity.Mapping[thor.Address, *big.Int]
	balances BalanceReader
}

func New(sctx *solidity.Context, balances BalanceReader) *Resolver {
	return &Resolver{
		kinds:    solidity.NewMapping[thor.Address, Kind](sctx, slotKinds),
		routed:   solidity.NewMapping[thor.Address, *big.Int](sctx, slotRouted),
		held:     solidity.NewMapping[thor.Address, *big.Int](sctx, slotHeld),
		balances: balances,
	}
}

// Kind returns the holder kind of account. The zero address is always Ordinary.
func (r *Resolver) Kind(account thor.Address) (Kind, error) {
	if account.IsZero() {
		return Ordinary, nil
	}
	kind, err := r.kinds.Get(account)
	if err != nil {
		return Ordinary, errors.Wrap(err, "failed to get holder kind")
	}
	return kind, nil
}

// SetKind changes the holder kind. Callers settle account beforehand.
// An account that routed shares out, or a holder still carrying routed shares,
// keeps its kind until those shares are routed back.
func (r *Resolver) SetKind(account thor.Address, kind Kind) error {
	if account.IsZero() {
		return reverts.ErrZeroAddress
	}
	current, err := r.Kind(account)
	if err != nil {
		return err
	}
	if current == kind {
		return reverts.ErrAlreadyFlagged
	}
	if kind == Ordinary {
		held, err := r.HeldShares(account)
		if err != nil {
			return err
		}
		if held.Sign() > 0 {
			return errors.WithMessagef(reverts.ErrRoutedOutstanding, "%v carries %v", account, held)
		}
		r.kinds.Delete(account)
		return nil
	}
	routed, err := r.RoutedShares(account)
	if err != nil {
		return err
	}
	if routed.Sign() > 0 {
		return errors.WithMessagef(reverts.ErrRoutedOutstanding, "%v routed %v", account, routed)
	}
	return r.kinds.Set(account, kind, true)
}

// RoutedShares returns the shares account has moved into pass-through holders.
func (r *Resolver) RoutedShares(account thor.Address) (*big.Int, error) {
	routed, err := r.routed.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get routed shares")
	}
	return routed, nil
}

// HeldShares returns the routed shares a pass-through holder carries.
func (r *Resolver) HeldShares(holder thor.Address) (*big.Int, error) {
	held, err := r.held.Get(holder)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get held shares")
	}
	return held, nil
}

// EffectiveBalance is the balance that accrues rewards for account.
func (r *Resolver) EffectiveBalance(account thor.Address) (*big.Int, error) {
	kind, err := r.Kind(account)
	if err != nil {
		return nil, err
	}
	return r.effectiveBalance(account, kind)
}

func (r *Resolver) effectiveBalance(account thor.Address, kind Kind) (*big.Int, error) {
	if kind == PassThrough {
		return new(big.Int), nil
	}
	bal, err := r.balances.BalanceOf(account)
	if err != nil {
		return nil, err
	}
	routed, err := r.RoutedShares(account)
	if err != nil {
		return nil, err
	}
	return bal.Add(bal, routed), nil
}

func store(m *solidity.Mapping[thor.Address, *big.Int], key thor.Address, prev, value *big.Int) error {
	if value.Sign() == 0 {
		m.Delete(key)
		return nil
	}
	return m.Set(key, value, prev.Sign() == 0)
}

// Route settles the parties of a share movement and updates routed shares.
// A zero from is a mint and a zero to is a burn. Pass-through holders cannot
// burn, since the zero address has no routed shares to release.
func (r *Resolver) Route(from, to thor.Address, amount *big.Int, settle SettleFunc) error {
	fromKind, err := r.Kind(from)
	if err != nil {
		return err
	}
	toKind, err := r.Kind(to)
	if err != nil {
		return err
	}

	switch {
	case from.IsZero() || to.IsZero():
		if fromKind == PassThrough {
			return errors.WithMessagef(reverts.ErrInsufficientRoutedShares, "pass-through %v cannot burn", from)
		}
		for _, account := range []thor.Address{from, to} {
			if account.IsZero() {
				continue
			}
			if err := settle(account); err != nil {
				return err
			}
		}
		return nil

	case fromKind == Ordinary && toKind == PassThrough:
		if err := settle(from); err != nil {
			return err
		}
		return r.shift(thor.Address{}, to, from, amount, false)

	case fromKind == PassThrough && toKind == Ordinary:
		if err := settle(to); err != nil {
			return err
		}
		return r.shift(from, thor.Address{}, to, amount, true)

	case fromKind == PassThrough && toKind == PassThrough:
		if err := settle(from); err != nil {
			return err
		}
		if err := settle(to); err != nil {
			return err
		}
		held, err := r.HeldShares(from)
		if err != nil {
			return err
		}
		// routed shares follow the movement as far as from carries them
		moved := amount
		if held.Cmp(amount) < 0 {
			moved = held
		}
		if moved.Sign() == 0 {
			return nil
		}
		return r.shift(from, to, thor.Address{}, moved, false)

	default:
		if err := settle(from); err != nil {
			return err
		}
		return settle(to)
	}
}

// shift moves amount of held shares from one holder to another and adjusts the
// routed shares of depositor. A zero holder or depositor is left untouched.
// When release is set the depositor gives routed shares back instead of adding.
func (r *Resolver) shift(fromHolder, toHolder, depositor thor.Address, amount *big.Int, release bool) error {
	type update struct {
		m          *solidity.Mapping[thor.Address, *big.Int]
		key        thor.Address
		prev, next *big.Int
	}
	var updates []update

	if !depositor.IsZero() {
		routed, err := r.RoutedShares(depositor)
		if err != nil {
			return err
		}
		next := new(big.Int).Add(routed, amount)
		if release {
			if routed.Cmp(amount) < 0 {
				return errors.WithMessagef(reverts.ErrInsufficientRoutedShares, "%v routed %v, needs %v", depositor, routed, amount)
			}
			next.Sub(routed, amount)
		}
		updates = append(updates, update{r.routed, depositor, routed, next})
	}
	if !fromHolder.IsZero() {
		held, err := r.HeldShares(fromHolder)
		if err != nil {
			return err
		}
		if held.Cmp(amount) < 0 {
			return errors.WithMessagef(reverts.ErrInsufficientRoutedShares, "%v carries %v, needs %v", fromHolder, held, amount)
		}
		updates = append(updates, update{r.held, fromHolder, held, new(big.Int).Sub(held, amount)})
	}
	if !toHolder.IsZero() {
		held, err := r.HeldShares(toHolder)
		if err != nil {
			return err
		}
		updates = append(updates, update{r.held, toHolder, held, new(big.Int).Add(held, amount)})
	}

	for _, u := range updates {
		if err := store(u.m, u.key, u.prev, u.next); err != nil {
			return err
		}
	}
	return nil
}
