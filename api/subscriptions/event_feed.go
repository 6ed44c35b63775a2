// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"sync"

	"github.com/vechain/vault/eventdb"
)

type eventFeed struct {
	listeners map[chan *eventdb.Event]struct{}
	mu        sync.RWMutex
}

func newEventFeed() *eventFeed {
	return &eventFeed{
		listeners: make(map[chan *eventdb.Event]struct{}),
	}
}

func (f *eventFeed) Subscribe(ch chan *eventdb.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listeners[ch] = struct{}{}
}

func (f *eventFeed) Unsubscribe(ch chan *eventdb.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.listeners, ch)
}

// Send delivers events to every listener. A listener whose buffer is full misses them.
func (f *eventFeed) Send(events []*eventdb.Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, ev := range events {
		for lsn := range f.listeners {
			select {
			case lsn <- ev:
			default:
				metricDropped().Add(1)
			}
		}
	}
}
