// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb_test

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vault/builtin/vault"
	"github.com/vechain/vault/eventdb"
	"github.com/vechain/vault/test/datagen"
	"github.com/vechain/vault/thor"
)

func newTestDB(t *testing.T) *eventdb.EventDB {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seqs(events []*eventdb.Event) []uint64 {
	out := make([]uint64, len(events))
	for i, ev := range events {
		out[i] = ev.Seq
	}
	return out
}

func TestEventDB(t *testing.T) {
	db := newTestDB(t)
	alice := datagen.RandAddress()
	bob := datagen.RandAddress()
	asset := datagen.RandAddress()

	events := eventdb.NewEvents([]*vault.Event{
		{Name: vault.EventDeposit, Time: 10, Account: alice, Counterparty: alice, Asset: asset, Amount: big.NewInt(100)},
		{Name: vault.EventTransfer, Time: 20, Account: alice, Counterparty: bob, Amount: big.NewInt(40)},
		{Name: vault.EventWithdrawRequested, Time: 30, Account: bob, Batch: 2, Amount: big.NewInt(40)},
		{Name: vault.EventBatchStarted, Time: 40, Batch: 2, Amount: new(big.Int)},
	})
	require.NoError(t, db.Insert(events))
	assert.Equal(t, []uint64{1, 2, 3, 4}, seqs(events))

	ctx := context.Background()

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, vault.EventDeposit, all[0].Name)
	assert.Equal(t, alice, all[0].Account)
	assert.Equal(t, asset, all[0].Asset)
	assert.Equal(t, "100", all[0].Amount.String())
	assert.Equal(t, uint64(10), all[0].Time)
	assert.Equal(t, 0, all[3].Amount.Sign())

	// account matches both sides
	got, err := db.FilterEvents(ctx, &eventdb.EventFilter{
		CriteriaSet: []*eventdb.EventCriteria{{Account: &bob}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, seqs(got))

	batch := uint64(2)
	got, err = db.FilterEvents(ctx, &eventdb.EventFilter{
		CriteriaSet: []*eventdb.EventCriteria{
			{Name: vault.EventDeposit},
			{Batch: &batch, Name: vault.EventBatchStarted},
		},
		Order: eventdb.DESC,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 1}, seqs(got))

	got, err = db.FilterEvents(ctx, &eventdb.EventFilter{
		Range:   &eventdb.Range{From: 15, To: 35},
		Options: &eventdb.Options{Offset: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, seqs(got))

	// a range without upper bound
	got, err = db.FilterEvents(ctx, &eventdb.EventFilter{
		Range: &eventdb.Range{From: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, seqs(got))

	none := thor.BytesToAddress([]byte("none"))
	got, err = db.FilterEvents(ctx, &eventdb.EventFilter{
		CriteriaSet: []*eventdb.EventCriteria{{Asset: &none}},
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEventDBPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	db, err := eventdb.New(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	assert.NotEmpty(t, db.DriverVersion())
	require.NoError(t, db.Insert([]*eventdb.Event{{Name: vault.EventDeposit, Amount: big.NewInt(1)}}))
	require.NoError(t, db.Close())

	db, err = eventdb.New(path)
	require.NoError(t, err)
	defer db.Close()
	events, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, "1", events[0].Amount.String())
}
