// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package egress implements the DLP (data-loss-prevention) scanner that
// pattern-matches outbound honeypot traffic for sensitive data leaking out
// of the deception surface. Grounded on
// grimm-is-flywall/internal/ebpf/ips/patterns.go's ordered-pattern,
// first-hit-wins scanning idiom, generalized from IPS signatures to the
// five DLP patterns below.
package egress

import (
	"bytes"

	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
	"github.com/haidang24/phantom-grid/internal/packetview"
)

// Pattern IDs for the egress DLP scanner.
const (
	PatternPasswd    uint32 = 1
	PatternPEMKey    uint32 = 2
	PatternBase64    uint32 = 3
	PatternSQLDump   uint32 = 4
	PatternPANDigits uint32 = 5
)

const maxScanLen = 512

// Verdict is the scanner's disposition of an outbound packet.
type Verdict int

const (
	VerdictPass Verdict = iota
	VerdictDrop
)

// Mode selects enforcement vs observe-only: DROP on a match in enforcement
// mode, PASS (but still counted) in observe-only mode.
type Mode int

const (
	ModeEnforce Mode = iota
	ModeObserveOnly
)

// Scanner is the pure-Go reference DLP engine, transliterated into
// internal/ebpf/programs/c/phantom_egress.c.
type Scanner struct {
	mode         Mode
	honeypotPort uint16
	enablePAN    bool
}

func NewScanner(mode Mode, honeypotPort uint16, enablePAN bool) *Scanner {
	return &Scanner{mode: mode, honeypotPort: honeypotPort, enablePAN: enablePAN}
}

// Process scans frame if it is an outbound TCP packet sourced from the
// honeypot port. It never mutates the frame.
func (s *Scanner) Process(frame []byte, maps ebpfmaps.Maps) Verdict {
	cur := packetview.NewCursor(frame)
	eth, cur, ok := cur.Ethernet()
	if !ok || eth.EtherType != packetview.EtherTypeIPv4 {
		return VerdictPass
	}
	ip, cur, ok := cur.IPv4()
	if !ok || ip.Protocol != packetview.ProtoTCP {
		return VerdictPass
	}
	tcp, next, ok := cur.TCP()
	if !ok || tcp.SrcPort != s.honeypotPort {
		return VerdictPass
	}

	payload := next.Remaining()
	if len(payload) > maxScanLen {
		payload = payload[:maxScanLen]
	}

	id, hit := s.scan(payload)
	if !hit {
		return VerdictPass
	}

	maps.CounterInc(ebpfmaps.MapEgressBlocks)
	maps.PatternCounterInc(id)

	if s.mode == ModeObserveOnly {
		return VerdictPass
	}
	return VerdictDrop
}

// scan tests the patterns in order; the first hit wins.
func (s *Scanner) scan(payload []byte) (uint32, bool) {
	if bytes.HasPrefix(payload, []byte("root:x:0:0:")) {
		return PatternPasswd, true
	}
	if bytes.HasPrefix(payload, []byte("-----BEGIN")) {
		return PatternPEMKey, true
	}
	if isBase64Dense(payload) {
		return PatternBase64, true
	}
	if bytes.HasPrefix(payload, []byte("INSERT INTO")) {
		return PatternSQLDump, true
	}
	if s.enablePAN && hasLongDigitRun(payload) {
		return PatternPANDigits, true
	}
	return 0, false
}

// isBase64Dense implements pattern 3: over the first 64 bytes, the
// fraction of base64-alphabet characters exceeds 95%, and the scanned
// length is itself greater than 64.
func isBase64Dense(payload []byte) bool {
	const window = 64
	if len(payload) <= window {
		return false
	}
	sample := payload[:window]
	var count int
	for _, b := range sample {
		if isBase64Char(b) {
			count++
		}
	}
	return float64(count) > 0.95*float64(len(sample))
}

func isBase64Char(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '+' || b == '/' || b == '=':
		return true
	default:
		return false
	}
}

// hasLongDigitRun implements pattern 5: a run of at least 13
// digits, ignoring spaces, hyphens, and newlines interleaved within the run
// (a naive PAN/credit-card-number heuristic).
func hasLongDigitRun(payload []byte) bool {
	const minRun = 13
	run := 0
	for _, b := range payload {
		switch {
		case b >= '0' && b <= '9':
			run++
			if run >= minRun {
				return true
			}
		case b == ' ' || b == '-' || b == '\n':
			// ignored, does not break the run
		default:
			run = 0
		}
	}
	return false
}
