// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/vechain/vault/builtin/gascharger"
	"github.com/vechain/vault/state"
	"github.com/vechain/vault/thor"
)

// Context binds storage helpers to a contract address inside a state.
type Context struct {
	address thor.Address
	state   *state.State
	charger *gascharger.Charger
}

// NewContext creates a storage context. charger may be nil.
func NewContext(address thor.Address, state *state.State, charger *gascharger.Charger) *Context {
	return &Context{
		address: address,
		state:   state,
		charger: charger,
	}
}

func (c *Context) Address() thor.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) UseGas(gas uint64) {
	if c.charger != nil {
		c.charger.Charge(gas)
	}
}
