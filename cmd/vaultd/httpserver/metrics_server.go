// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/vault/metrics"
)

// NewMetricsServer listens on addr and exposes the prometheus metrics under /metrics.
func NewMetricsServer(addr string) (*Server, error) {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	s, err := newServer(addr, handler)
	if err != nil {
		return nil, errors.WithMessage(err, "metrics API")
	}
	return s, nil
}
