// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dsa

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/vechain/vault/thor"
)

// Signer recovers the address that signed msgHash.
// sig is in the 65 bytes [R || S || V] form produced by Sign.
func Signer(msgHash thor.Bytes32, sig []byte) (thor.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return thor.Address{}, errors.Errorf("invalid signature length %d", len(sig))
	}
	if sig[crypto.RecoveryIDOffset] > 3 {
		return thor.Address{}, errors.New("invalid signature recovery id")
	}
	// compact form puts the recovery code first
	compact := make([]byte, crypto.SignatureLength)
	compact[0] = sig[crypto.RecoveryIDOffset] + 27
	copy(compact[1:], sig[:crypto.RecoveryIDOffset])

	pub, _, err := ecdsa.RecoverCompact(compact, msgHash[:])
	if err != nil {
		return thor.Address{}, err
	}
	return thor.BytesToAddress(crypto.Keccak256(pub.SerializeUncompressed()[1:])[12:]), nil
}

// Sign signs msgHash with privateKey.
func Sign(msgHash thor.Bytes32, privateKey []byte) ([]byte, error) {
	priv, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, err
	}

	return crypto.Sign(msgHash[:], priv)
}
