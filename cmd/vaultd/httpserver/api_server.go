// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Server is a listening http server.
type Server struct {
	srv      *http.Server
	listener net.Listener
}

func newServer(addr string, handler http.Handler) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen [%v]", addr)
	}
	return &Server{
		srv:      &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second},
		listener: listener,
	}, nil
}

// NewAPIServer listens on addr for the vault API.
func NewAPIServer(addr string, handler http.Handler) (*Server, error) {
	s, err := newServer(addr, handler)
	if err != nil {
		return nil, errors.WithMessage(err, "API")
	}
	return s, nil
}

// URL returns the base url of the server.
func (s *Server) URL() string {
	return "http://" + s.listener.Addr().String()
}

// Serve blocks until the server is shut down.
func (s *Server) Serve() error {
	if err := s.srv.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close stops the server and drops open connections.
func (s *Server) Close() error {
	return s.srv.Close()
}
