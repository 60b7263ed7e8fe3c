// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ebpfmaps

import (
	"container/list"
	"sync"
)

// SimMaps is an in-memory Maps implementation with the same LRU-eviction and
// best-effort semantics as the real eBPF maps: callers must tolerate silent
// eviction. It backs internal/ingress and internal/egress's pure-Go
// reference engines, and the unit tests that exercise those invariants
// without root or a loaded kernel collection.
//
// Modeled on grimm-is-flywall/internal/ebpf/maps/manager.go's ManagedMap /
// CounterMap split, generalized to Phantom Grid's fixed map catalog and to
// include the LRU whitelist/replay tables grimm-is-flywall's flow maps didn't need.
type SimMaps struct {
	mu sync.Mutex

	counters map[string]uint64
	patterns map[uint32]uint64

	whitelist *lruU64[[4]byte]
	replay    *lruU64[uint64]

	config map[uint32]uint32

	totpSecret [SecretLen]byte
	hmacSecret [SecretLen]byte
}

// NewSimMaps creates an empty SimMaps with capacity limits.
func NewSimMaps() *SimMaps {
	return &SimMaps{
		counters:  make(map[string]uint64),
		patterns:  make(map[uint32]uint64),
		whitelist: newLRU[[4]byte](WhitelistCapacity),
		replay:    newLRU[uint64](ReplayCapacity),
		config:    make(map[uint32]uint32),
	}
}

func (m *SimMaps) CounterInc(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

func (m *SimMaps) CounterValue(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

func (m *SimMaps) PatternCounterInc(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns[id]++
}

func (m *SimMaps) PatternCounterValue(id uint32) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patterns[id]
}

func (m *SimMaps) WhitelistGet(srcIP [4]byte, nowNS uint64) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiryNS, ok := m.whitelist.get(srcIP)
	if !ok {
		return 0, false
	}
	if nowNS > expiryNS {
		m.whitelist.delete(srcIP)
		return 0, false
	}
	return expiryNS, true
}

func (m *SimMaps) WhitelistPut(srcIP [4]byte, expiryNS uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.whitelist.put(srcIP, expiryNS)
}

func (m *SimMaps) WhitelistDelete(srcIP [4]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.whitelist.delete(srcIP)
}

func (m *SimMaps) ReplayCheckAndRecord(sigPrefix uint64, nowNS uint64, windowNS uint64) ReplayOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seenNS, ok := m.replay.get(sigPrefix); ok {
		if nowNS-seenNS < windowNS {
			return ReplayHit
		}
	}
	m.replay.put(sigPrefix, nowNS)
	return ReplayFresh
}

func (m *SimMaps) ConfigGet(key uint32) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.config[key]
	return v, ok
}

func (m *SimMaps) ConfigSet(key uint32, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config[key] = value
}

func (m *SimMaps) SecretByte(which int, index int) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= SecretLen {
		return 0
	}
	if which == SecretHMAC {
		return m.hmacSecret[index]
	}
	return m.totpSecret[index]
}

func (m *SimMaps) SetSecret(which int, blob [SecretLen]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if which == SecretHMAC {
		m.hmacSecret = blob
	} else {
		m.totpSecret = blob
	}
}

// lruU64 is a small fixed-capacity LRU map keyed by a comparable type K with
// uint64 values (expiry timestamps / first-seen timestamps). Eviction is
// silent, matching BPF_MAP_TYPE_LRU_HASH semantics.
type lruU64[K comparable] struct {
	capacity int
	order    *list.List
	elems    map[K]*list.Element
}

type lruEntry[K comparable] struct {
	key   K
	value uint64
}

func newLRU[K comparable](capacity int) *lruU64[K] {
	return &lruU64[K]{
		capacity: capacity,
		order:    list.New(),
		elems:    make(map[K]*list.Element),
	}
}

func (l *lruU64[K]) get(key K) (uint64, bool) {
	el, ok := l.elems[key]
	if !ok {
		return 0, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*lruEntry[K]).value, true
}

func (l *lruU64[K]) put(key K, value uint64) {
	if el, ok := l.elems[key]; ok {
		el.Value.(*lruEntry[K]).value = value
		l.order.MoveToFront(el)
		return
	}
	if l.order.Len() >= l.capacity {
		oldest := l.order.Back()
		if oldest != nil {
			l.order.Remove(oldest)
			delete(l.elems, oldest.Value.(*lruEntry[K]).key)
		}
	}
	el := l.order.PushFront(&lruEntry[K]{key: key, value: value})
	l.elems[key] = el
}

func (l *lruU64[K]) delete(key K) {
	if el, ok := l.elems[key]; ok {
		l.order.Remove(el)
		delete(l.elems, key)
	}
}
