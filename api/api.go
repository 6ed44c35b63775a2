// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/vault/api/events"
	"github.com/vechain/vault/api/middleware"
	"github.com/vechain/vault/api/subscriptions"
	"github.com/vechain/vault/api/vault"
	builtin "github.com/vechain/vault/builtin/vault"
	"github.com/vechain/vault/eventdb"
	"github.com/vechain/vault/log"
	"github.com/vechain/vault/thor"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	Operator             thor.Address
	DevMode              bool
	PprofOn              bool
	EnableMetrics        bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EventsLimit          uint64
	Clock                vault.Clock
}

// New return api router and a func to close the subscriptions.
// Committed vault events are recorded into eventDB when it is not nil.
func New(v *builtin.Vault, eventDB *eventdb.EventDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	vault.New(v, opts.Clock, vault.Options{
		Operator: opts.Operator,
		DevMode:  opts.DevMode,
	}).Mount(router, "/vault")

	subs := subscriptions.New(origins)
	subs.Mount(router, "/subscriptions")
	if eventDB != nil {
		events.New(eventDB, opts.EventsLimit).
			Mount(router, "/events")
	}
	v.SetEventHandler(recordEvents(eventDB, subs))

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold, opts.Log5xxErrors))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", vault.HeaderTimestamp, vault.HeaderSignature}),
	)(handler)

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}

func recordEvents(db *eventdb.EventDB, subs *subscriptions.Subscriptions) builtin.EventHandler {
	return func(evs []*builtin.Event) {
		recorded := eventdb.NewEvents(evs)
		if db != nil {
			if err := db.Insert(recorded); err != nil {
				logger.Warn("failed to record events", "err", err)
			}
		}
		subs.Publish(recorded)
	}
}
