// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

// create a table for vault events
const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	name text not null,
	time integer,
	account blob(20),
	counterparty blob(20),
	asset blob(20),
	batch integer,
	amount blob
);

CREATE INDEX if not exists timeIndex on event(time);
CREATE INDEX if not exists nameIndex on event(name);
CREATE INDEX if not exists accountIndex on event(account);
CREATE INDEX if not exists counterpartyIndex on event(counterparty);
CREATE INDEX if not exists assetIndex on event(asset);
`
