// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package withdrawals

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vault/builtin/solidity"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/state"
	"github.com/vechain/vault/test/datagen"
	"github.com/vechain/vault/thor"
)

func newSvc() *Service {
	return New(solidity.NewContext(thor.BytesToAddress([]byte("withdrawals")), state.New(nil), nil))
}

func amountOf(t *testing.T, get func(thor.Address) (*big.Int, error), account thor.Address) string {
	t.Helper()
	v, err := get(account)
	require.NoError(t, err)
	return v.String()
}

func TestService_RequestAccumulates(t *testing.T) {
	svc := newSvc()
	alice := datagen.RandAddress()
	bob := datagen.RandAddress()

	id, err := svc.Request(alice, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	_, err = svc.Request(bob, big.NewInt(5))
	require.NoError(t, err)
	_, err = svc.Request(alice, big.NewInt(7))
	require.NoError(t, err)

	b, err := svc.Batch(0)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, b.Status())
	assert.Equal(t, "22", b.Total.String())
	assert.Equal(t, uint64(2), b.Count)

	entries, err := svc.Participants(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, alice, entries[0].Account)
	assert.Equal(t, "17", entries[0].Amount.String())
	assert.Equal(t, bob, entries[1].Account)
	assert.Equal(t, "5", entries[1].Amount.String())

	assert.Equal(t, "17", amountOf(t, svc.PendingShares, alice))

	_, err = svc.Request(alice, big.NewInt(0))
	assert.ErrorIs(t, err, reverts.ErrZeroAmount)
}

func TestService_StateMachine(t *testing.T) {
	svc := newSvc()
	alice := datagen.RandAddress()

	_, _, err := svc.StartBatch()
	assert.ErrorIs(t, err, reverts.ErrBatchEmpty)

	_, err = svc.Request(alice, big.NewInt(10))
	require.NoError(t, err)

	_, err = svc.Fulfill(0, big.NewInt(0))
	assert.ErrorIs(t, err, reverts.ErrBatchNotFrozen)

	id, total, err := svc.StartBatch()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, "10", total.String())

	current, err := svc.CurrentBatchID()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), current)

	// the new open batch is empty
	_, _, err = svc.StartBatch()
	assert.ErrorIs(t, err, reverts.ErrBatchEmpty)

	_, err = svc.Fulfill(0, big.NewInt(11))
	assert.ErrorIs(t, err, reverts.ErrFeeExceedsTotal)

	net, err := svc.Fulfill(0, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, "9", net.String())

	b, err := svc.Batch(0)
	require.NoError(t, err)
	assert.Equal(t, StatusFulfilled, b.Status())
	assert.Equal(t, "1", b.Fee.String())
	assert.Equal(t, "9", b.Net.String())

	_, err = svc.Fulfill(0, big.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrBatchFulfilled)

	assert.Equal(t, "0", amountOf(t, svc.PendingShares, alice))
	assert.Equal(t, "9", amountOf(t, svc.ClaimableAssets, alice))

	claimed, err := svc.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, "9", claimed.String())

	_, err = svc.Claim(alice)
	assert.ErrorIs(t, err, reverts.ErrNothingToClaim)
}

func TestService_FulfillOutOfOrder(t *testing.T) {
	svc := newSvc()
	alice := datagen.RandAddress()

	_, err := svc.Request(alice, big.NewInt(10))
	require.NoError(t, err)
	_, _, err = svc.StartBatch()
	require.NoError(t, err)

	id, err := svc.Request(alice, big.NewInt(20))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	_, _, err = svc.StartBatch()
	require.NoError(t, err)

	assert.Equal(t, "30", amountOf(t, svc.PendingShares, alice))

	_, err = svc.Fulfill(1, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, "10", amountOf(t, svc.PendingShares, alice))
	assert.Equal(t, "20", amountOf(t, svc.ClaimableAssets, alice))

	_, err = svc.Fulfill(0, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, "0", amountOf(t, svc.PendingShares, alice))
	assert.Equal(t, "30", amountOf(t, svc.ClaimableAssets, alice))
}

func TestService_FulfillSumsToNet(t *testing.T) {
	svc := newSvc()
	users := datagen.RandAddresses(3)
	for i, amount := range []int64{3, 7, 5} {
		_, err := svc.Request(users[i], big.NewInt(amount))
		require.NoError(t, err)
	}
	_, _, err := svc.StartBatch()
	require.NoError(t, err)

	net, err := svc.Fulfill(0, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, "14", net.String())

	assert.Equal(t, "2", amountOf(t, svc.ClaimableAssets, users[0]))
	assert.Equal(t, "6", amountOf(t, svc.ClaimableAssets, users[1]))
	assert.Equal(t, "6", amountOf(t, svc.ClaimableAssets, users[2]))
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name    string
		amounts []int64
		fee     int64
	}{
		{"no fee", []int64{10, 20, 30}, 0},
		{"fee equals total", []int64{1, 1, 1}, 3},
		{"single participant", []int64{42}, 5},
		{"near zero deposits", []int64{1, 1, 1, 1, 1, 1, 1}, 6},
		{"uneven", []int64{3, 7, 5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := new(big.Int)
			entries := make([]*Entry, 0, len(tt.amounts))
			for _, a := range tt.amounts {
				entries = append(entries, &Entry{Account: datagen.RandAddress(), Amount: big.NewInt(a)})
				total.Add(total, big.NewInt(a))
			}
			net := new(big.Int).Sub(total, big.NewInt(tt.fee))

			shares, err := Allocate(entries, total, net)
			require.NoError(t, err)
			require.Len(t, shares, len(entries))

			sum := new(big.Int)
			for _, s := range shares {
				assert.True(t, s.Sign() >= 0)
				sum.Add(sum, s)
			}
			assert.Equal(t, net.String(), sum.String())
		})
	}
}

func TestAllocate_Random(t *testing.T) {
	for range 50 {
		n := datagen.RandIntN(20) + 1
		total := new(big.Int)
		entries := make([]*Entry, 0, n)
		for range n {
			a := datagen.RandAmount(1_000_000_000)
			entries = append(entries, &Entry{Account: datagen.RandAddress(), Amount: a})
			total.Add(total, a)
		}
		fee := new(big.Int).Sub(datagen.RandAmount(total.Int64()), big.NewInt(1))
		net := new(big.Int).Sub(total, fee)

		shares, err := Allocate(entries, total, net)
		require.NoError(t, err)
		sum := new(big.Int)
		for _, s := range shares {
			sum.Add(sum, s)
		}
		assert.Equal(t, net.String(), sum.String())
	}
}
