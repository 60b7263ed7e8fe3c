// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package loader attaches Phantom Grid's two kernel programs (XDP ingress,
// TC egress) to a network interface and exposes their collections' maps to
// the rest of the daemon. Generalized from grimm-is-flywall's
// internal/ebpf/loader.Loader, which manages an arbitrary program/attach-type
// catalog; Phantom Grid only ever has these two fixed programs so the API
// surface is narrower.
package loader

import (
	"fmt"
	"net"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"

	"github.com/haidang24/phantom-grid/internal/ebpf/programs"
	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
)

// Loader owns the loaded collections, attach links, and the Maps facade
// handed to the rest of the daemon.
type Loader struct {
	mu sync.Mutex

	ingress *programs.IngressProgram
	egress  *programs.EgressProgram
	links   []link.Link

	Maps ebpfmaps.Maps
}

// New loads both kernel programs' collections (not yet attached).
func New() (*Loader, error) {
	ingress, err := programs.NewIngressProgram()
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	egress, err := programs.NewEgressProgram()
	if err != nil {
		ingress.Close()
		return nil, fmt.Errorf("loader: %w", err)
	}

	maps, err := ebpfmaps.NewBPFMaps(ingress.Collection)
	if err != nil {
		ingress.Close()
		egress.Close()
		return nil, fmt.Errorf("loader: ingress maps: %w", err)
	}

	return &Loader{ingress: ingress, egress: egress, Maps: maps}, nil
}

// AttachIngress attaches the XDP ingress program to iface in generic mode,
// matching the checksum-zeroing discipline assumes.
func (l *Loader) AttachIngress(iface string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ifaceObj, err := net.InterfaceByName(iface)
	if err != nil {
		return fmt.Errorf("loader: find interface %s: %w", iface, err)
	}
	prog, err := l.ingress.Program()
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}

	lnk, err := link.AttachXDP(link.XDPOptions{Program: prog, Interface: ifaceObj.Index, Flags: link.XDPGenericMode})
	if err != nil {
		return fmt.Errorf("loader: attach xdp on %s: %w", iface, err)
	}
	l.links = append(l.links, lnk)
	return nil
}

// AttachEgress attaches the TC egress DLP program to iface.
func (l *Loader) AttachEgress(iface string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ifaceObj, err := net.InterfaceByName(iface)
	if err != nil {
		return fmt.Errorf("loader: find interface %s: %w", iface, err)
	}
	prog, err := l.egress.Program()
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}

	lnk, err := link.AttachTCX(link.TCXOptions{
		Program:   prog,
		Interface: ifaceObj.Index,
		Attach:    ebpf.AttachTCXEgress,
	})
	if err != nil {
		return fmt.Errorf("loader: attach tc egress on %s: %w", iface, err)
	}
	l.links = append(l.links, lnk)
	return nil
}

// Close detaches every link and releases both collections.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, lnk := range l.links {
		if err := lnk.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.links = nil

	if l.ingress != nil {
		l.ingress.Close()
	}
	if l.egress != nil {
		l.egress.Close()
	}
	return firstErr
}
