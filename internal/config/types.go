// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads Phantom Grid's HCL configuration file: attach
// interfaces, the port set, SPA mode/secrets, whitelist TTL, and the egress
// DLP enforcement mode. Grounded on grimm-is-flywall/internal/config's
// hcl-tag-and-`@default:`-comment convention and its SecureString type.
package config

// SecureString hides its value everywhere except the single call site that
// needs the real bytes, the same masking discipline grimm-is-flywall's SecureString
// applies to passwords and keys.
type SecureString string

func (s SecureString) String() string {
	if s == "" {
		return ""
	}
	return "(hidden)"
}

func (s SecureString) GoString() string { return "(hidden)" }

func (s SecureString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte(`""`), nil
	}
	return []byte(`"(hidden)"`), nil
}

func (s *SecureString) UnmarshalText(text []byte) error {
	*s = SecureString(string(text))
	return nil
}

// Config is the root of Phantom Grid's HCL configuration.
type Config struct {
	// Network interface to attach the XDP ingress and TC egress programs
	// to.
	Interface string `hcl:"interface" json:"interface"`

	Ports      PortsConfig `hcl:"ports,block" json:"ports"`
	SPA        SPAConfig   `hcl:"spa,block" json:"spa"`
	Egress     EgressConfig `hcl:"egress,block" json:"egress"`

	// Whitelist TTL in seconds, default 30.
	// @default: 30
	WhitelistTTLSeconds int `hcl:"whitelist_ttl_seconds,optional" json:"whitelist_ttl_seconds"`
}

// PortsConfig is the port set "Port set" row describes.
type PortsConfig struct {
	// @default: 9999
	Honeypot int `hcl:"honeypot_port,optional" json:"honeypot_port"`
	// @default: 1337
	SPAMagic int `hcl:"spa_magic_port,optional" json:"spa_magic_port"`

	Critical []int `hcl:"critical,optional" json:"critical"`
	Fake     []int `hcl:"fake,optional" json:"fake"`
}

// SPAConfig configures the Single Packet Authorization scheme.
type SPAConfig struct {
	// "static", "dynamic", or "asymmetric".
	// @default: "static"
	Mode string `hcl:"mode,optional" json:"mode"`

	// Static-mode shared token. Ignored for dynamic/asymmetric modes.
	StaticToken SecureString `hcl:"static_token,optional" json:"static_token"`

	// Path to the CBOR-encoded secret bundle (see internal/controlplane's
	// secret rotation format) for dynamic/asymmetric modes.
	SecretBundlePath string `hcl:"secret_bundle_path,optional" json:"secret_bundle_path"`

	// @default: 30
	TOTPStepSeconds int `hcl:"totp_step_seconds,optional" json:"totp_step_seconds"`
	// @default: 1
	TOTPTolerance int `hcl:"totp_tolerance,optional" json:"totp_tolerance"`
	// @default: 5
	ReplayWindowSeconds int `hcl:"replay_window_seconds,optional" json:"replay_window_seconds"`

	// Selects the handling of unknown-shape dynamic-mode packets: false
	// (default) PASSes them for user-space policy to handle; true DROPs them
	// like a static-only build. Only the internal/spa reference engine
	// (spa.Config.DynamicStrictUnknown) implements the DROP; nothing passes
	// this field on, and the kernel ingress program always PASSes
	// unknown-shape dynamic packets.
	// @default: false
	DynamicStrictUnknown bool `hcl:"dynamic_strict_unknown,optional" json:"dynamic_strict_unknown"`
}

// EgressConfig configures the DLP scanner.
type EgressConfig struct {
	// @default: true
	Enforce bool `hcl:"enforce,optional" json:"enforce"`
	// @default: true
	EnablePANHeuristic bool `hcl:"enable_pan_heuristic,optional" json:"enable_pan_heuristic"`
}

// Defaults returns a Config with documented defaults applied,
// before any HCL file is decoded over it.
func Defaults() Config {
	return Config{
		Ports: PortsConfig{
			Honeypot: 9999,
			SPAMagic: 1337,
			Critical: []int{22, 3306, 5432, 27017, 6379, 8080, 8443},
			Fake:     []int{80, 443, 21, 23},
		},
		SPA: SPAConfig{
			Mode:                "static",
			StaticToken:         "PHANTOM_GRID_SPA_2025",
			TOTPStepSeconds:     30,
			TOTPTolerance:       1,
			ReplayWindowSeconds: 5,
		},
		Egress: EgressConfig{
			Enforce:            true,
			EnablePANHeuristic: true,
		},
		WhitelistTTLSeconds: 30,
	}
}
