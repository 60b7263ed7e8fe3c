// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"fmt"
	"net"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/vishvananda/netlink"

	"github.com/haidang24/phantom-grid/internal/logging"
	"github.com/haidang24/phantom-grid/internal/policy"
	"github.com/haidang24/phantom-grid/internal/spa"
)

// Load decodes an HCL config file over Defaults() and validates it. The
// ports, spa and egress blocks must each be present (they may be empty);
// attributes left out of them keep their Defaults() values.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks structural invariants that HCL decoding alone can't
// enforce: a known SPA mode, and a non-empty attach interface name. Whether
// the interface exists is checked separately by ValidateInterface.
func (c *Config) Validate() error {
	switch c.SPA.Mode {
	case "static", "dynamic", "asymmetric":
	default:
		return fmt.Errorf("spa.mode must be static, dynamic, or asymmetric, got %q", c.SPA.Mode)
	}
	if c.Interface == "" {
		return fmt.Errorf("interface is required")
	}
	return nil
}

// ValidateInterface confirms the configured attach interface exists and is
// up, using netlink the way grimm-is-flywall validates interfaces before
// attaching programs to them.
func (c *Config) ValidateInterface() error {
	link, err := netlink.LinkByName(c.Interface)
	if err != nil {
		return fmt.Errorf("config: interface %q not found: %w", c.Interface, err)
	}
	if link.Attrs().Flags&net.FlagUp == 0 {
		return fmt.Errorf("config: interface %q is down", c.Interface)
	}
	return nil
}

// PortSet builds the policy.PortSet this configuration describes.
func (c *Config) PortSet() policy.PortSet {
	return policy.NewPortSet(
		toUint16s(c.Ports.Critical),
		toUint16s(c.Ports.Fake),
		uint16(c.Ports.Honeypot),
		uint16(c.Ports.SPAMagic),
	)
}

// SPAMode maps the configured string mode onto spa.Mode.
func (c *Config) SPAMode() spa.Mode {
	switch c.SPA.Mode {
	case "dynamic":
		return spa.ModeDynamic
	case "asymmetric":
		return spa.ModeAsymmetric
	default:
		return spa.ModeStatic
	}
}

// WarnOnPortOverlap logs load-time warning when the critical and
// fake sets intersect. Critical still wins at runtime; this is advisory.
func (c *Config) WarnOnPortOverlap(logger *logging.Logger) {
	overlap := c.PortSet().Overlap()
	if len(overlap) == 0 {
		return
	}
	logger.Warn("critical and fake port sets overlap; critical wins at runtime", "ports", overlap)
}

func toUint16s(ints []int) []uint16 {
	out := make([]uint16, len(ints))
	for i, v := range ints {
		out[i] = uint16(v)
	}
	return out
}
