// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

// StackedMap maintains maps in a stack.
// Each map inherits key/value of map that is at lower level.
// It acts as a map with save-restore/snapshot-revert manner.
type StackedMap struct {
	src            MapGetter
	mapStack       []*level
	keyRevisionMap map[any][]int
}

type level struct {
	kvs     map[any]any
	journal []*JournalEntry
	pos     map[any]int // journal index per key, once the level is compacted
}

func newLevel() *level {
	return &level{kvs: make(map[any]any)}
}

// JournalEntry entry of journal.
type JournalEntry struct {
	Key   any
	Value any
}

// MapGetter defines getter method of map.
type MapGetter func(key any) (value any, exist bool, err error)

// New create an instance of StackedMap.
// src acts as source of data.
func New(src MapGetter) *StackedMap {
	sm := &StackedMap{
		src:            src,
		keyRevisionMap: make(map[any][]int),
	}
	sm.Push()
	return sm
}

// Depth returns depth of stack.
func (sm *StackedMap) Depth() int {
	return len(sm.mapStack)
}

// Push pushes a new map on stack.
// It returns stack depth before push.
func (sm *StackedMap) Push() int {
	sm.mapStack = append(sm.mapStack, newLevel())
	return len(sm.mapStack) - 1
}

// Pop pop the map at top of stack.
// It will revert all Put operations since last Push.
func (sm *StackedMap) Pop() {
	top := sm.mapStack[len(sm.mapStack)-1]
	for key := range top.kvs {
		revs := sm.keyRevisionMap[key]
		revs = revs[:len(revs)-1]
		if len(revs) == 0 {
			delete(sm.keyRevisionMap, key)
		} else {
			sm.keyRevisionMap[key] = revs
		}
	}
	sm.mapStack = sm.mapStack[:len(sm.mapStack)-1]
}

// PopTo pop maps until stack depth reaches depth.
func (sm *StackedMap) PopTo(depth int) {
	for len(sm.mapStack) > depth {
		sm.Pop()
	}
}

// Get gets value for given key.
// The second return value indicates whether the given key is found.
func (sm *StackedMap) Get(key any) (any, bool, error) {
	if revs, ok := sm.keyRevisionMap[key]; ok {
		lvl := sm.mapStack[revs[len(revs)-1]]
		if v, ok := lvl.kvs[key]; ok {
			return v, true, nil
		}
	}
	return sm.src(key)
}

// Put puts key value into map at stack top.
// It will panic if stack is empty.
func (sm *StackedMap) Put(key, value any) {
	rev := len(sm.mapStack) - 1
	top := sm.mapStack[rev]
	if _, ok := top.kvs[key]; !ok {
		// records key revision for fast access
		sm.keyRevisionMap[key] = append(sm.keyRevisionMap[key], rev)
	}
	top.kvs[key] = value
	top.record(&JournalEntry{Key: key, Value: value})
}

func (l *level) record(entry *JournalEntry) {
	if p, ok := l.pos[entry.Key]; ok {
		l.journal[p] = entry
		return
	}
	if l.pos != nil {
		l.pos[entry.Key] = len(l.journal)
	}
	l.journal = append(l.journal, entry)
}

// compact keeps only the last journal entry of each key, in first write order.
func (l *level) compact() {
	if l.pos != nil {
		return
	}
	journal := l.journal
	l.journal = make([]*JournalEntry, 0, len(l.kvs))
	l.pos = make(map[any]int, len(l.kvs))
	for _, entry := range journal {
		l.record(entry)
	}
}

// Merge folds the maps above depth into the map below them, keeping their
// values, and shrinks the stack to depth. Unlike PopTo nothing is reverted.
// The journal of the folded map keeps one entry per key.
func (sm *StackedMap) Merge(depth int) {
	if depth < 1 || depth >= len(sm.mapStack) {
		return
	}
	base := sm.mapStack[depth-1]
	base.compact()
	for _, lvl := range sm.mapStack[depth:] {
		for _, entry := range lvl.journal {
			base.record(entry)
		}
		for key, value := range lvl.kvs {
			base.kvs[key] = value
			revs := sm.keyRevisionMap[key]
			i := len(revs)
			for i > 0 && revs[i-1] >= depth-1 {
				i--
			}
			sm.keyRevisionMap[key] = append(revs[:i], depth-1)
		}
	}
	sm.mapStack = sm.mapStack[:depth]
}

// Journal returns journal of all Put operations.
func (sm *StackedMap) Journal() (j []*JournalEntry) {
	for _, lvl := range sm.mapStack {
		j = append(j, lvl.journal...)
	}
	return
}
