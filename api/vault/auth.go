// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"bytes"
	"encoding/binary"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/vechain/vault/api/utils"
	"github.com/vechain/vault/dsa"
	"github.com/vechain/vault/thor"
)

// Headers of a signed request.
const (
	HeaderTimestamp = "X-Vault-Timestamp"
	HeaderSignature = "X-Vault-Signature"
)

const (
	// AuthWindow is how far, in seconds, a request timestamp may be from the server clock.
	AuthWindow    = uint64(60)
	maxBodySize   = 64 * 1024
	seenCacheSize = 16384
)

// SigningHash is the hash a caller signs to authenticate a request.
func SigningHash(method, path string, timestamp uint64, body []byte) thor.Bytes32 {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], timestamp)
	return thor.Blake2b([]byte(method+" "+path), ts[:], body)
}

// SignRequest sets the authentication headers of req, whose body is body.
func SignRequest(req *http.Request, body []byte, timestamp uint64, privateKey []byte) error {
	sig, err := dsa.Sign(SigningHash(req.Method, req.URL.Path, timestamp, body), privateKey)
	if err != nil {
		return err
	}
	req.Header.Set(HeaderTimestamp, strconv.FormatUint(timestamp, 10))
	req.Header.Set(HeaderSignature, hexutil.Encode(sig))
	return nil
}

// authenticate returns the signer of req. A request is accepted once.
func (v *Vault) authenticate(req *http.Request, body []byte) (thor.Address, error) {
	ts, err := strconv.ParseUint(req.Header.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return thor.Address{}, utils.Unauthorized(errors.WithMessage(err, "timestamp"))
	}
	now := v.clock()
	if ts+AuthWindow < now || ts > now+AuthWindow {
		return thor.Address{}, utils.Unauthorized(errors.Errorf("timestamp %d outside the window of %d", ts, now))
	}
	sig, err := hexutil.Decode(req.Header.Get(HeaderSignature))
	if err != nil {
		return thor.Address{}, utils.Unauthorized(errors.WithMessage(err, "signature"))
	}
	hash := SigningHash(req.Method, req.URL.Path, ts, body)
	signer, err := dsa.Signer(hash, sig)
	if err != nil {
		return thor.Address{}, utils.Unauthorized(errors.WithMessage(err, "signature"))
	}

	// keyed by signer, so a malleated signature of the same request is a replay too
	if seen, _ := v.seen.ContainsOrAdd(thor.Blake2b(hash[:], signer[:]), struct{}{}); seen {
		return thor.Address{}, utils.Unauthorized(errors.New("request already accepted"))
	}
	return signer, nil
}

// parseSigned authenticates req and decodes its body into out.
// A nil out accepts an empty body or an empty object.
func (v *Vault) parseSigned(req *http.Request, out any) (thor.Address, error) {
	raw, err := io.ReadAll(io.LimitReader(req.Body, maxBodySize))
	if err != nil {
		return thor.Address{}, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := v.authenticate(req, raw)
	if err != nil {
		return thor.Address{}, err
	}
	if out == nil {
		if len(bytes.TrimSpace(raw)) == 0 {
			return caller, nil
		}
		out = &struct{}{}
	}
	if err := parseBody(bytes.NewReader(raw), out); err != nil {
		return thor.Address{}, err
	}
	return caller, nil
}

func (v *Vault) checkOperator(caller thor.Address) error {
	if !v.opts.Operator.IsZero() && caller != v.opts.Operator {
		return utils.Forbidden(errors.New("caller: not the operator"))
	}
	return nil
}
