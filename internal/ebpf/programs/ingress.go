// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package programs

import (
	"fmt"

	"github.com/cilium/ebpf"
)

// IngressProgram loads and owns the XDP ingress collection produced by
// LoadPhantomIngress (generated by `go generate` from phantom_ingress.c).
type IngressProgram struct {
	Collection *ebpf.Collection
}

// NewIngressProgram loads the XDP ingress program's collection. Map
// pinning is disabled; Phantom Grid expects a single daemon instance per
// host.
func NewIngressProgram() (*IngressProgram, error) {
	spec, err := LoadPhantomIngress()
	if err != nil {
		return nil, fmt.Errorf("load phantom ingress spec: %w", err)
	}
	for _, m := range spec.Maps {
		m.Pinning = ebpf.PinNone
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("load phantom ingress collection: %w", err)
	}
	return &IngressProgram{Collection: coll}, nil
}

// Program returns the xdp section's *ebpf.Program for attaching.
func (p *IngressProgram) Program() (*ebpf.Program, error) {
	prog := p.Collection.Programs["phantom_ingress_prog"]
	if prog == nil {
		return nil, fmt.Errorf("phantom_ingress_prog not found in collection")
	}
	return prog, nil
}

func (p *IngressProgram) Close() error {
	if p.Collection != nil {
		p.Collection.Close()
	}
	return nil
}
