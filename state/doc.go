// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the ledger state of vault contracts.
//
// Two kinds of values are kept: contract storage slots, addressed by
// (contract address, slot), and asset balances, addressed by (asset, holder).
// All writes go to a journal first. A checkpoint can be reverted, dropping
// every write made after it, and Stage/Commit flushes the journal to the
// backing kv store in a single batch.
package state
