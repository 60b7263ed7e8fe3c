// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package controlplane is Phantom Grid's user-space half: it loads and
// rotates SPA secrets, performs the TOTP/signature verification the kernel
// fast path defers, re-applies config slots on reload, and serves a
// read-only HTTP status surface. Grounded on
// grimm-is-flywall/internal/ctlplane's ConfigManager/ApplyHook split between
// staged and running state, generalized to Phantom Grid's much smaller
// secret-and-counter surface.
package controlplane

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/hkdf"

	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
)

// SecretBundle is the CBOR-encoded on-disk format for dynamic/asymmetric SPA
// secrets, referenced but not defined by "secret bundle" mention.
// A single master secret is split via HKDF into the kernel-readable TOTP and
// HMAC blobs so the file on disk holds one value to rotate, not three.
type SecretBundle struct {
	// Master is the root secret HKDF derives both kernel-facing blobs from.
	Master []byte `cbor:"master"`

	// Ed25519PrivateKey is present only for asymmetric mode; Ed25519PublicKey
	// is derived from it and handed to spa.Authenticator, never written to
	// the kernel map (the kernel never verifies signatures).
	Ed25519PrivateKey ed25519.PrivateKey `cbor:"ed25519_private_key,omitempty"`
}

// LoadSecretBundle reads and CBOR-decodes path.
func LoadSecretBundle(path string) (*SecretBundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("controlplane: open secret bundle %s: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("controlplane: read secret bundle %s: %w", path, err)
	}

	var bundle SecretBundle
	if err := cbor.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("controlplane: decode secret bundle %s: %w", path, err)
	}
	return &bundle, nil
}

// GenerateSecretBundle produces a fresh random master secret and, when
// asymmetric is true, an Ed25519 keypair, for operators bootstrapping a new
// deployment.
func GenerateSecretBundle(asymmetric bool) (*SecretBundle, error) {
	master := make([]byte, 32)
	if _, err := rand.Read(master); err != nil {
		return nil, fmt.Errorf("controlplane: generate master secret: %w", err)
	}
	bundle := &SecretBundle{Master: master}
	if asymmetric {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("controlplane: generate ed25519 keypair: %w", err)
		}
		bundle.Ed25519PrivateKey = priv
	}
	return bundle, nil
}

// Save CBOR-encodes the bundle to path with owner-only permissions.
func (b *SecretBundle) Save(path string) error {
	raw, err := cbor.Marshal(b)
	if err != nil {
		return fmt.Errorf("controlplane: encode secret bundle: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("controlplane: write secret bundle %s: %w", path, err)
	}
	return nil
}

// derivedSecrets is the fixed-size pair the kernel wants, split from Master
// via HKDF-SHA256 with distinct info labels so one master value rotates
// both kernel blobs in lockstep.
type derivedSecrets struct {
	totp [ebpfmaps.SecretLen]byte
	hmac [ebpfmaps.SecretLen]byte
}

func (b *SecretBundle) derive() (derivedSecrets, error) {
	var out derivedSecrets

	totpReader := hkdf.New(sha256.New, b.Master, nil, []byte("phantom-grid/spa/totp"))
	if _, err := io.ReadFull(totpReader, out.totp[:]); err != nil {
		return derivedSecrets{}, fmt.Errorf("controlplane: derive totp secret: %w", err)
	}

	hmacReader := hkdf.New(sha256.New, b.Master, nil, []byte("phantom-grid/spa/hmac"))
	if _, err := io.ReadFull(hmacReader, out.hmac[:]); err != nil {
		return derivedSecrets{}, fmt.Errorf("controlplane: derive hmac secret: %w", err)
	}

	return out, nil
}

// HMACSecret returns the same derived HMAC-SHA256 key InstallSecrets writes
// into the kernel map, so the control plane's spa.Authenticator verifies
// against the identical secret the structural check's counterpart would if
// the kernel ever grew the crypto it currently defers.
func (b *SecretBundle) HMACSecret() ([]byte, error) {
	derived, err := b.derive()
	if err != nil {
		return nil, err
	}
	out := make([]byte, ebpfmaps.SecretLen)
	copy(out, derived.hmac[:])
	return out, nil
}

// Ed25519PublicKey returns the public half of the bundle's signing key, nil
// if the bundle carries no private key (static/dynamic-only deployments).
func (b *SecretBundle) Ed25519PublicKey() ed25519.PublicKey {
	if len(b.Ed25519PrivateKey) == 0 {
		return nil
	}
	return b.Ed25519PrivateKey.Public().(ed25519.PublicKey)
}

// InstallSecrets writes the bundle's derived TOTP and HMAC blobs into the
// kernel-shared maps, the one point where control-plane secret material
// crosses into ebpfmaps.Maps.
func InstallSecrets(maps ebpfmaps.Maps, bundle *SecretBundle) error {
	derived, err := bundle.derive()
	if err != nil {
		return err
	}
	maps.SetSecret(ebpfmaps.SecretTOTP, derived.totp)
	maps.SetSecret(ebpfmaps.SecretHMAC, derived.hmac)
	return nil
}
