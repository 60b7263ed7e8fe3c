// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package programs

import (
	"fmt"

	"github.com/cilium/ebpf"
)

// EgressProgram loads and owns the TC egress collection produced by
// LoadPhantomEgress (generated by `go generate` from phantom_egress.c).
type EgressProgram struct {
	Collection *ebpf.Collection
}

func NewEgressProgram() (*EgressProgram, error) {
	spec, err := LoadPhantomEgress()
	if err != nil {
		return nil, fmt.Errorf("load phantom egress spec: %w", err)
	}
	for _, m := range spec.Maps {
		m.Pinning = ebpf.PinNone
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("load phantom egress collection: %w", err)
	}
	return &EgressProgram{Collection: coll}, nil
}

// Program returns the tc section's *ebpf.Program for attaching.
func (p *EgressProgram) Program() (*ebpf.Program, error) {
	prog := p.Collection.Programs["phantom_egress_prog"]
	if prog == nil {
		return nil, fmt.Errorf("phantom_egress_prog not found in collection")
	}
	return prog, nil
}

func (p *EgressProgram) Close() error {
	if p.Collection != nil {
		p.Collection.Close()
	}
	return nil
}
