// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/vault/api/events"
	"github.com/vechain/vault/api/utils"
	"github.com/vechain/vault/eventdb"
	"github.com/vechain/vault/log"
	"github.com/vechain/vault/metrics"
	"github.com/vechain/vault/thor"
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricSubscribers = metrics.LazyLoadGauge("subscriptions_active")
	metricDropped     = metrics.LazyLoadCounter("subscriptions_dropped_count")
)

const (
	subscriberBuffer = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 7) / 10
)

type Subscriptions struct {
	feed     *eventFeed
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

// New creates the subscriptions api. Browser clients must come from one of allowedOrigins.
func New(allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		feed: newEventFeed(),
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				origin = strings.ToLower(origin)
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

// Publish pushes committed events to subscribers.
func (s *Subscriptions) Publish(events []*eventdb.Event) {
	s.feed.Send(events)
}

type criteria struct {
	name    string
	account *thor.Address
	asset   *thor.Address
}

func parseCriteria(req *http.Request) (*criteria, error) {
	query := req.URL.Query()
	c := &criteria{name: query.Get("name")}
	for _, field := range []struct {
		key string
		dst **thor.Address
	}{{"account", &c.account}, {"asset", &c.asset}} {
		raw := query.Get(field.key)
		if raw == "" {
			continue
		}
		addr, err := thor.ParseAddress(raw)
		if err != nil {
			return nil, errors.WithMessage(err, field.key)
		}
		*field.dst = &addr
	}
	return c, nil
}

func (c *criteria) match(ev *eventdb.Event) bool {
	if c.name != "" && c.name != ev.Name {
		return false
	}
	if c.account != nil && *c.account != ev.Account && *c.account != ev.Counterparty {
		return false
	}
	if c.asset != nil && *c.asset != ev.Asset {
		return false
	}
	return true
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	c, err := parseCriteria(req)
	if err != nil {
		return utils.BadRequest(err)
	}
	if !s.enter() {
		return utils.HTTPError(errors.New("closing"), http.StatusServiceUnavailable)
	}
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already replied
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	metricSubscribers().Add(1)
	defer metricSubscribers().Add(-1)

	ch := make(chan *eventdb.Event, subscriberBuffer)
	s.feed.Subscribe(ch)
	defer s.feed.Unsubscribe(ch)

	if err := s.pipe(conn, ch, c); err != nil {
		logger.Debug("subscription closed", "err", err)
	}
	return nil
}

// pipe writes matching events to conn until the peer leaves or the api closes.
func (s *Subscriptions) pipe(conn *websocket.Conn, ch <-chan *eventdb.Event, c *criteria) error {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-ch:
			if !c.match(ev) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(events.ConvertEvent(ev)); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-closed:
			return nil
		case <-s.done:
			return conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
		}
	}
}

func (s *Subscriptions) enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// Close disconnects all subscribers. Hijacked connections are not closed by the http server.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
