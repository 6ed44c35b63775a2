// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shares

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vault/builtin/solidity"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/thor"
)

var (
	slotBalances    = thor.BytesToBytes32([]byte(("share-balances")))
	slotTotalShares = thor.BytesToBytes32([]byte(("total-shares")))
	slotPrincipal   = thor.BytesToBytes32([]byte(("deposit-principal")))
	slotMaxDeposits = thor.BytesToBytes32([]byte(("max-deposits")))
)

// BalanceHook runs before any share balance changes. from is zero on mint, to is zero on burn.
type BalanceHook func(from, to thor.Address, amount *big.Int) error

// Service keeps share balances. Shares are issued 1:1 against deposited principal.
type Service struct {
	balances    *solidity.Mapping[thor.Address, *big.Int]
	totalShares *solidity.Uint256
	principal   *solidity.Uint256
	maxDeposits *solidity.Uint256

	hook BalanceHook
}

func New(sctx *solidity.Context, hook BalanceHook) *Service {
	return &Service{
		balances:    solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		totalShares: solidity.NewUint256(sctx, slotTotalShares),
		principal:   solidity.NewUint256(sctx, slotPrincipal),
		maxDeposits: solidity.NewUint256(sctx, slotMaxDeposits),
		hook:        hook,
	}
}

func (s *Service) BalanceOf(account thor.Address) (*big.Int, error) {
	bal, err := s.balances.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get share balance")
	}
	return bal, nil
}

func (s *Service) TotalShares() (*big.Int, error) {
	return s.totalShares.Get()
}

func (s *Service) DepositPrincipal() (*big.Int, error) {
	return s.principal.Get()
}

// MaxDeposits returns the principal cap. Zero means unlimited.
func (s *Service) MaxDeposits() (*big.Int, error) {
	return s.maxDeposits.Get()
}

func (s *Service) SetMaxDeposits(max *big.Int) {
	s.maxDeposits.Set(max)
}

// Deposit issues amount shares to receiver against the same amount of principal.
func (s *Service) Deposit(receiver thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if receiver.IsZero() {
		return reverts.ErrZeroAddress
	}

	max, err := s.maxDeposits.Get()
	if err != nil {
		return err
	}
	if max.Sign() > 0 {
		principal, err := s.principal.Get()
		if err != nil {
			return err
		}
		if principal.Add(principal, amount).Cmp(max) > 0 {
			return reverts.ErrExceedsMaxDeposits
		}
	}
	return s.Mint(receiver, amount)
}

// Mint creates shares for to, increasing total shares and principal.
func (s *Service) Mint(to thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	if err := s.hook(thor.Address{}, to, amount); err != nil {
		return err
	}
	if err := s.credit(to, amount); err != nil {
		return err
	}
	if err := s.totalShares.Add(amount); err != nil {
		return err
	}
	return s.principal.Add(amount)
}

// Burn destroys shares of from, decreasing total shares and principal.
func (s *Service) Burn(from thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if from.IsZero() {
		return reverts.ErrZeroAddress
	}
	if err := s.ensureBalance(from, amount); err != nil {
		return err
	}
	if err := s.hook(from, thor.Address{}, amount); err != nil {
		return err
	}
	if err := s.debit(from, amount); err != nil {
		return err
	}
	if err := s.totalShares.Sub(amount); err != nil {
		return err
	}
	return s.principal.Sub(amount)
}

// Transfer moves shares between two holders.
func (s *Service) Transfer(from, to thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if from.IsZero() || to.IsZero() {
		return reverts.ErrZeroAddress
	}
	if err := s.ensureBalance(from, amount); err != nil {
		return err
	}
	if err := s.hook(from, to, amount); err != nil {
		return err
	}
	if err := s.debit(from, amount); err != nil {
		return err
	}
	return s.credit(to, amount)
}

func (s *Service) ensureBalance(account thor.Address, amount *big.Int) error {
	bal, err := s.BalanceOf(account)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errors.WithMessagef(reverts.ErrInsufficientBalance, "%v holds %v shares, needs %v", account, bal, amount)
	}
	return nil
}

func (s *Service) credit(account thor.Address, amount *big.Int) error {
	bal, err := s.BalanceOf(account)
	if err != nil {
		return err
	}
	return s.balances.Set(account, bal.Add(bal, amount), bal.Sign() == 0)
}

func (s *Service) debit(account thor.Address, amount *big.Int) error {
	bal, err := s.BalanceOf(account)
	if err != nil {
		return err
	}
	bal.Sub(bal, amount)
	if bal.Sign() == 0 {
		s.balances.Delete(account)
		return nil
	}
	return s.balances.Set(account, bal, false)
}
