// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ingress is the pure-Go reference implementation of the ingress
// classifier/redirector, with RedirectOnlySYN set exactly the semantics
// transliterated into internal/ebpf/programs/c/phantom_ingress.c (the kernel
// program implements variant A only). It exists
// so scenarios can be asserted in ordinary `go test`, without a
// loaded XDP program or root, mirroring how
// grimm-is-flywall/internal/ebpf/ips/patterns.go keeps detection logic in
// plain Go next to its eBPF counterpart.
package ingress

import (
	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
	"github.com/haidang24/phantom-grid/internal/packetview"
	"github.com/haidang24/phantom-grid/internal/policy"
	"github.com/haidang24/phantom-grid/internal/spa"
)

// Verdict is the program's disposition of a frame.
type Verdict int

const (
	VerdictPass Verdict = iota
	VerdictDrop
)

// Config bundles everything the engine needs beyond the shared maps: the
// configured port set, whitelist TTL, and SPA engine.
type Config struct {
	Ports          policy.PortSet
	WhitelistTTLNS uint64
	SPA            *spa.Engine
	// RedirectOnlySYN selects variant A: only
	// SYN-without-ACK packets are redirected; all other TCP passes
	// unmodified. false selects variant B.
	RedirectOnlySYN bool
}

// Engine runs the per-packet state machine against a raw Ethernet frame.
type Engine struct {
	cfg  Config
	maps ebpfmaps.Maps
}

func NewEngine(cfg Config, maps ebpfmaps.Maps) *Engine {
	return &Engine{cfg: cfg, maps: maps}
}

// Process runs ordered rules against frame, possibly mutating it
// in place (checksum zeroing, port/TTL/window rewrite for redirected SYNs).
// The returned frame is only meaningful when the verdict is Pass.
func (e *Engine) Process(frame []byte, nowNS uint64) (Verdict, []byte) {
	cur := packetview.NewCursor(frame)

	eth, cur, ok := cur.Ethernet()
	if !ok {
		return VerdictPass, frame // malformed: fail-open
	}
	if eth.EtherType != packetview.EtherTypeIPv4 {
		return VerdictPass, frame
	}

	ip, cur, ok := cur.IPv4()
	if !ok {
		return VerdictPass, frame
	}

	switch ip.Protocol {
	case packetview.ProtoICMP:
		return VerdictPass, frame // rule 1
	case packetview.ProtoUDP:
		return e.processUDP(cur, ip, nowNS, frame)
	case packetview.ProtoTCP:
		return e.processTCP(cur, ip, nowNS, frame)
	default:
		return VerdictPass, frame
	}
}

func (e *Engine) processUDP(cur packetview.Cursor, ip packetview.IPv4Header, nowNS uint64, frame []byte) (Verdict, []byte) {
	udp, next, ok := cur.UDP()
	if !ok {
		return VerdictPass, frame
	}
	if !e.cfg.Ports.IsSPAMagicPort(udp.DstPort) {
		return VerdictPass, frame // DNS/DHCP/NTP/etc, rule 2
	}

	v := e.cfg.SPA.Verify(ip.SrcIP, next.Remaining(), nowNS, e.cfg.WhitelistTTLNS)
	if v == spa.VerdictDrop {
		return VerdictDrop, frame
	}
	return VerdictPass, frame
}

func (e *Engine) processTCP(cur packetview.Cursor, ip packetview.IPv4Header, nowNS uint64, frame []byte) (Verdict, []byte) {
	tcp, _, ok := cur.TCP()
	if !ok {
		return VerdictPass, frame
	}

	// 3.1 honeypot port: pass unmodified, never mutate.
	if e.cfg.Ports.IsHoneypotPort(tcp.DstPort) {
		return VerdictPass, frame
	}

	// 3.2 critical set checked before fake set.
	if e.cfg.Ports.IsCriticalPort(tcp.DstPort) {
		_, whitelisted := e.maps.WhitelistGet(ip.SrcIP, nowNS)
		if whitelisted {
			return VerdictPass, frame
		}
		return VerdictDrop, frame
	}

	// 3.3 fake/mirage set.
	if e.cfg.Ports.IsFakePort(tcp.DstPort) {
		e.maps.CounterInc(ebpfmaps.MapAttackStats)
		return VerdictPass, frame
	}

	// 3.4 stealth-scan detection.
	if policy.IsStealthScan(tcp.Flags) {
		e.maps.CounterInc(ebpfmaps.MapStealthDrops)
		return VerdictDrop, frame
	}

	// Variant A only redirects bare SYNs, preserving established/outbound
	// flows.
	isBareSYN := tcp.Flags&packetview.FlagSYN != 0 && tcp.Flags&packetview.FlagACK == 0
	if e.cfg.RedirectOnlySYN && !isBareSYN {
		return VerdictPass, frame
	}

	// 3.5 redirect to honeypot with OS mutation.
	cur.SetTCPDestPort(tcp, e.cfg.Ports.Honeypot)
	cur.ZeroTCPChecksum(tcp)
	mutateOSPersonality(cur, ip, tcp, e.maps)
	e.maps.CounterInc(ebpfmaps.MapAttackStats)
	return VerdictPass, frame
}
