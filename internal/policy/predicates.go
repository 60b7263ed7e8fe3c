// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package policy implements the pure predicates the ingress classifier
// needs: is_critical_port, is_fake_port, is_stealth_scan, is_honeypot_port. They are
// driven by a PortSet generated at config-load time (see cmd/gen-ports),
// generalizing _examples/original_source/bpf/phantom.c's compile-time
// #define port list into a runtime/config-driven set shared with the
// generated C header so kernel and user space can never disagree.
package policy

import "github.com/haidang24/phantom-grid/internal/packetview"

// PortSet is the immutable set of configured ports: critical assets,
// decoy/fake services, the honeypot, and the SPA magic port.
type PortSet struct {
	Critical  map[uint16]struct{}
	Fake      map[uint16]struct{}
	Honeypot  uint16
	SPAMagic  uint16
}

// NewPortSet builds a PortSet from slices, as loaded from config.
func NewPortSet(critical, fake []uint16, honeypot, spaMagic uint16) PortSet {
	ps := PortSet{
		Critical: make(map[uint16]struct{}, len(critical)),
		Fake:     make(map[uint16]struct{}, len(fake)),
		Honeypot: honeypot,
		SPAMagic: spaMagic,
	}
	for _, p := range critical {
		ps.Critical[p] = struct{}{}
	}
	for _, p := range fake {
		ps.Fake[p] = struct{}{}
	}
	return ps
}

// Overlap returns the ports present in both the critical and fake sets.
// Operators should be warned at load time when the two sets intersect,
// since intent is ambiguous; critical still wins at runtime either way.
func (ps PortSet) Overlap() []uint16 {
	var dup []uint16
	for p := range ps.Critical {
		if _, ok := ps.Fake[p]; ok {
			dup = append(dup, p)
		}
	}
	return dup
}

// IsCriticalPort reports whether port hosts a real sensitive service
// protected by the Phantom Protocol.
func (ps PortSet) IsCriticalPort(port uint16) bool {
	_, ok := ps.Critical[port]
	return ok
}

// IsFakePort reports whether port is one of the honeypot's additional mirage
// sockets, serviced directly without redirection.
func (ps PortSet) IsFakePort(port uint16) bool {
	_, ok := ps.Fake[port]
	return ok
}

// IsHoneypotPort reports whether port is the single honeypot listener port.
func (ps PortSet) IsHoneypotPort(port uint16) bool {
	return port == ps.Honeypot
}

// IsSPAMagicPort reports whether port is the configured SPA magic UDP port.
func (ps PortSet) IsSPAMagicPort(port uint16) bool {
	return port == ps.SPAMagic
}

// IsStealthScan classifies the 6 TCP control bits against the four named
// stealth scan patterns (Xmas, Null, FIN, ACK). Flags is expected in the
// packetview.Flag* bit layout (FIN|SYN|RST|PSH|ACK|URG, low 6 bits).
func IsStealthScan(flags uint8) bool {
	fin := flags&packetview.FlagFIN != 0
	syn := flags&packetview.FlagSYN != 0
	rst := flags&packetview.FlagRST != 0
	psh := flags&packetview.FlagPSH != 0
	ack := flags&packetview.FlagACK != 0
	urg := flags&packetview.FlagURG != 0

	xmas := fin && urg && psh && !syn && !rst
	null := flags == 0
	finOnly := fin && !syn && !rst && !psh && !ack && !urg
	ackOnly := ack && !syn && !fin && !rst

	return xmas || null || finOnly || ackOnly
}
