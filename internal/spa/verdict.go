// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package spa

import "github.com/haidang24/phantom-grid/internal/ebpfmaps"

// Verdict mirrors the kernel program's possible dispositions of a datagram
// sent to the SPA magic port.
type Verdict int

const (
	VerdictDrop Verdict = iota
	VerdictPass
)

// Config carries the structural-validation knobs spa_config holds.
// StaticToken is compared byte-for-byte; ReplayWindowNS bounds the
// anti-replay table. DynamicStrictUnknown resolves an open design question
// on unknown-shape dynamic-mode payloads: false (default) PASSes them to
// user space as a deliberate relaxation, true DROPs them unconditionally
// like a static-only build.
type Config struct {
	Mode                 Mode
	StaticToken          []byte
	ReplayWindowNS       uint64
	DynamicStrictUnknown bool
}

// Engine is the pure-Go reference implementation of the kernel-side SPA
// structural check (no crypto). It is exercised directly by tests
// and also transliterated 1:1 into internal/ebpf/programs/c/phantom_ingress.c,
// except for DynamicStrictUnknown: the kernel program always PASSes
// unknown-shape dynamic packets.
type Engine struct {
	cfg  Config
	maps ebpfmaps.Maps
}

func NewEngine(cfg Config, maps ebpfmaps.Maps) *Engine {
	return &Engine{cfg: cfg, maps: maps}
}

// Verify implements SPA verification in full: static-mode exact match with
// whitelist admission, or dynamic/asymmetric structural validation with
// anti-replay admission and PASS-through to user space for crypto.
func (e *Engine) Verify(srcIP [4]byte, payload []byte, nowNS uint64, whitelistTTLNS uint64) Verdict {
	switch e.cfg.Mode {
	case ModeStatic:
		return e.verifyStatic(srcIP, payload, nowNS, whitelistTTLNS)
	default:
		return e.verifyDynamic(payload, nowNS)
	}
}

func (e *Engine) verifyStatic(srcIP [4]byte, payload []byte, nowNS uint64, whitelistTTLNS uint64) Verdict {
	if len(payload) != len(e.cfg.StaticToken) || !constantTimeEqual(payload, e.cfg.StaticToken) {
		e.maps.CounterInc(ebpfmaps.MapSPAAuthFailed)
		return VerdictDrop
	}
	e.maps.WhitelistPut(srcIP, nowNS+whitelistTTLNS)
	e.maps.CounterInc(ebpfmaps.MapSPAAuthSuccess)
	return VerdictDrop
}

func (e *Engine) verifyDynamic(payload []byte, nowNS uint64) Verdict {
	pkt, ok := ParseDynamic(payload)
	if !ok {
		if e.cfg.DynamicStrictUnknown {
			return VerdictDrop
		}
		return VerdictPass
	}

	outcome := e.maps.ReplayCheckAndRecord(pkt.SigPrefix(), nowNS, e.cfg.ReplayWindowNS)
	if outcome == ebpfmaps.ReplayHit {
		e.maps.CounterInc(ebpfmaps.MapSPAReplayBlocked)
		return VerdictDrop
	}
	// Structurally admitted; crypto deferred to user space.
	return VerdictPass
}

// constantTimeEqual avoids leaking token-length mismatch timing beyond the
// cheap length check already performed by the caller.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
