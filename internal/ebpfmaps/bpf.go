// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ebpfmaps

import (
	"encoding/binary"

	"github.com/cilium/ebpf"
)

// BPFMaps implements Maps over a loaded cilium/ebpf collection's real map
// handles. Grounded on grimm-is-flywall/internal/ebpf/maps/manager.go's
// ManagedMap registry and CounterMap.Increment/GetCounter idiom, generalized
// from a single-counter-map shape to Phantom Grid's full catalog.
type BPFMaps struct {
	counters map[string]*ebpf.Map
	patterns *ebpf.Map
	whitelist *ebpf.Map
	replay    *ebpf.Map
	config    *ebpf.Map
	totp      *ebpf.Map
	hmac      *ebpf.Map
}

// NewBPFMaps binds a BPFMaps to the named maps of a loaded collection. It
// returns an error listing any map missing from the catalog: a mismatch
// between kernel and user space is a configuration error.
func NewBPFMaps(coll *ebpf.Collection) (*BPFMaps, error) {
	get := func(name string) (*ebpf.Map, error) {
		m, ok := coll.Maps[name]
		if !ok {
			return nil, &MissingMapError{Name: name}
		}
		return m, nil
	}

	b := &BPFMaps{counters: make(map[string]*ebpf.Map)}
	for _, name := range []string{
		MapAttackStats, MapStealthDrops, MapOSMutations,
		MapSPAAuthSuccess, MapSPAAuthFailed, MapSPAReplayBlocked, MapEgressBlocks,
	} {
		m, err := get(name)
		if err != nil {
			return nil, err
		}
		b.counters[name] = m
	}

	var err error
	if b.patterns, err = get(MapSuspiciousPatterns); err != nil {
		return nil, err
	}
	if b.whitelist, err = get(MapSPAWhitelist); err != nil {
		return nil, err
	}
	if b.replay, err = get(MapSPAReplayProtection); err != nil {
		return nil, err
	}
	if b.config, err = get(MapSPAConfig); err != nil {
		return nil, err
	}
	if b.totp, err = get(MapSPATOTPSecret); err != nil {
		return nil, err
	}
	if b.hmac, err = get(MapSPAHMACSecret); err != nil {
		return nil, err
	}
	return b, nil
}

// MissingMapError signals a collection that doesn't match the expected catalog.
type MissingMapError struct{ Name string }

func (e *MissingMapError) Error() string {
	return "ebpfmaps: required map " + e.Name + " not found in collection"
}

func (b *BPFMaps) CounterInc(name string) {
	m, ok := b.counters[name]
	if !ok {
		return // best-effort: an unknown counter name is a no-op
	}
	var key uint32
	var val uint64
	_ = m.Lookup(&key, &val)
	val++
	_ = m.Update(&key, &val, ebpf.UpdateAny)
}

func (b *BPFMaps) CounterValue(name string) uint64 {
	m, ok := b.counters[name]
	if !ok {
		return 0
	}
	var key uint32
	var val uint64
	_ = m.Lookup(&key, &val)
	return val
}

func (b *BPFMaps) PatternCounterInc(id uint32) {
	var val uint64
	_ = b.patterns.Lookup(&id, &val)
	val++
	_ = b.patterns.Update(&id, &val, ebpf.UpdateAny)
}

func (b *BPFMaps) PatternCounterValue(id uint32) uint64 {
	var val uint64
	_ = b.patterns.Lookup(&id, &val)
	return val
}

func (b *BPFMaps) WhitelistGet(srcIP [4]byte, nowNS uint64) (uint64, bool) {
	key := binary.BigEndian.Uint32(srcIP[:])
	var expiry uint64
	if err := b.whitelist.Lookup(&key, &expiry); err != nil {
		return 0, false
	}
	if nowNS > expiry {
		_ = b.whitelist.Delete(&key)
		return 0, false
	}
	return expiry, true
}

func (b *BPFMaps) WhitelistPut(srcIP [4]byte, expiryNS uint64) {
	key := binary.BigEndian.Uint32(srcIP[:])
	_ = b.whitelist.Update(&key, &expiryNS, ebpf.UpdateAny)
}

func (b *BPFMaps) WhitelistDelete(srcIP [4]byte) {
	key := binary.BigEndian.Uint32(srcIP[:])
	_ = b.whitelist.Delete(&key)
}

func (b *BPFMaps) ReplayCheckAndRecord(sigPrefix uint64, nowNS uint64, windowNS uint64) ReplayOutcome {
	var seenNS uint64
	if err := b.replay.Lookup(&sigPrefix, &seenNS); err == nil {
		if nowNS-seenNS < windowNS {
			return ReplayHit
		}
	}
	_ = b.replay.Update(&sigPrefix, &nowNS, ebpf.UpdateAny)
	return ReplayFresh
}

func (b *BPFMaps) ConfigGet(key uint32) (uint32, bool) {
	var val uint32
	if err := b.config.Lookup(&key, &val); err != nil {
		return 0, false
	}
	return val, true
}

func (b *BPFMaps) ConfigSet(key uint32, value uint32) {
	_ = b.config.Update(&key, &value, ebpf.UpdateAny)
}

func (b *BPFMaps) SecretByte(which int, index int) byte {
	m := b.totp
	if which == SecretHMAC {
		m = b.hmac
	}
	idx := uint32(index)
	var val uint8
	_ = m.Lookup(&idx, &val)
	return val
}

func (b *BPFMaps) SetSecret(which int, blob [SecretLen]byte) {
	m := b.totp
	if which == SecretHMAC {
		m = b.hmac
	}
	for i := 0; i < SecretLen; i++ {
		idx := uint32(i)
		val := blob[i]
		_ = m.Update(&idx, &val, ebpf.UpdateAny)
	}
}
