// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"database/sql"
	"math"
	"math/big"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/vault/metrics"
	"github.com/vechain/vault/thor"
)

var (
	metricInserted    = metrics.LazyLoadCounter("eventdb_inserted_count")
	metricQueryMillis = metrics.LazyLoadHistogram("eventdb_query_duration_ms", metrics.BucketHTTPReqs)
)

const memPath = ":memory:"

type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open event db at given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if path == memPath {
		// every connection to :memory: opens a distinct database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create an event db in ram.
func NewMem() (*EventDB, error) {
	return New(memPath)
}

// Close close the event db.
func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

func (db *EventDB) DriverVersion() string {
	return db.driverVersion
}

// Insert writes events within one db transaction and assigns their Seq.
func (db *EventDB) Insert(events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	for _, ev := range events {
		res, err := tx.Exec("INSERT INTO event(name, time, account, counterparty, asset, batch, amount) VALUES (?, ?, ?, ?, ?, ?, ?);",
			ev.Name,
			int64(ev.Time),
			ev.Account.Bytes(),
			ev.Counterparty.Bytes(),
			ev.Asset.Bytes(),
			int64(ev.Batch),
			amountValue(ev.Amount),
		)
		if err != nil {
			tx.Rollback()
			return errors.Wrap(err, "insert event")
		}
		seq, err := res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return err
		}
		ev.Seq = uint64(seq)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	metricInserted().Add(int64(len(events)))
	return nil
}

func (db *EventDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	defer func(start time.Time) {
		metricQueryMillis().Observe(time.Since(start).Milliseconds())
	}(time.Now())

	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, clamp(filter.Range.From))
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, clamp(filter.Range.To))
			stmt += " AND time <= ? "
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Name != "" {
			args = append(args, criteria.Name)
			stmt += " AND name = ? "
		}
		if criteria.Account != nil {
			args = append(args, criteria.Account.Bytes(), criteria.Account.Bytes())
			stmt += " AND (account = ? OR counterparty = ?) "
		}
		if criteria.Asset != nil {
			args = append(args, criteria.Asset.Bytes())
			stmt += " AND asset = ? "
		}
		if criteria.Batch != nil {
			args = append(args, clamp(*criteria.Batch))
			stmt += " AND batch = ? "
		}
		stmt += ")"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, clamp(filter.Options.Offset), clamp(filter.Options.Limit))
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq          int64
			name         string
			evTime       int64
			account      []byte
			counterparty []byte
			asset        []byte
			batch        int64
			amount       []byte
		)
		if err := rows.Scan(
			&seq,
			&name,
			&evTime,
			&account,
			&counterparty,
			&asset,
			&batch,
			&amount,
		); err != nil {
			return nil, err
		}
		events = append(events, &Event{
			Seq:          uint64(seq),
			Name:         name,
			Time:         uint64(evTime),
			Account:      thor.BytesToAddress(account),
			Counterparty: thor.BytesToAddress(counterparty),
			Asset:        thor.BytesToAddress(asset),
			Batch:        uint64(batch),
			Amount:       new(big.Int).SetBytes(amount),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func amountValue(amount *big.Int) []byte {
	if amount == nil {
		return nil
	}
	return amount.Bytes()
}

// sqlite integers are signed 64-bit.
func clamp(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
