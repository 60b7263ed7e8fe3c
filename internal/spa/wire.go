// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package spa implements the Single Packet Authorization verifier, split the
// same way the kernel/user-space boundary splits it: the kernel-side check
// (Engine.Verify in verdict.go) does only structural validation and
// anti-replay admission, never crypto; the Authenticator in crypto.go does
// the TOTP+signature validation that is out of scope for the fast path.
// Grounded on _examples/original_source/bpf/phantom.c's spa_verify and on
// grimm-is-flywall/internal/ebpf/ips/patterns.go for the counter-on-match
// idiom this package generalizes to a whitelist/replay side effect.
package spa

import "encoding/binary"

// Mode identifies the configured SPA scheme, mirrors ebpfmaps.SPAMode*.
type Mode int

const (
	ModeStatic Mode = iota
	ModeDynamic
	ModeAsymmetric
)

// DefaultStaticToken is default static-mode token.
const DefaultStaticToken = "PHANTOM_GRID_SPA_2025"

const (
	dynHeaderLen    = 14
	dynSigLen       = 32
	asymSigLen      = 64
	protocolVersion = 1
)

// DynamicPacket is the parsed fixed-width header lays out, offsets
// 0-13, plus the trailing signature.
type DynamicPacket struct {
	Version   uint8
	Mode      uint8 // 1 = dynamic/HMAC-SHA256, 2 = asymmetric/Ed25519
	Timestamp uint64
	TOTP      uint32
	Signature []byte
}

// ParseDynamic validates the structural shape requires: version 1,
// a known mode byte, and payload length exactly 14+len(signature). It does
// not touch any crypto or shared state; callers decide replay/whitelist
// effects from the result.
func ParseDynamic(payload []byte) (DynamicPacket, bool) {
	if len(payload) < dynHeaderLen {
		return DynamicPacket{}, false
	}
	version := payload[0]
	mode := payload[1]
	if version != protocolVersion {
		return DynamicPacket{}, false
	}

	var sigLen int
	switch mode {
	case 1:
		sigLen = dynSigLen
	case 2:
		sigLen = asymSigLen
	default:
		return DynamicPacket{}, false
	}
	if len(payload) != dynHeaderLen+sigLen {
		return DynamicPacket{}, false
	}

	return DynamicPacket{
		Version:   version,
		Mode:      mode,
		Timestamp: binary.BigEndian.Uint64(payload[2:10]),
		TOTP:      binary.BigEndian.Uint32(payload[10:14]),
		Signature: payload[dynHeaderLen:],
	}, true
}

// SigPrefix returns the first 8 bytes of the signature as a big-endian
// uint64, the replay table's key.
func (p DynamicPacket) SigPrefix() uint64 {
	if len(p.Signature) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(p.Signature[:8])
}
