// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package spa

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

// Authenticator performs the cryptographic half of dynamic/asymmetric SPA
// validation that the kernel fast path deliberately never does: TOTP
// timestamp-window matching plus HMAC-SHA256 or Ed25519 signature
// verification. It is the control plane's counterpart to Engine.Verify,
// which only gets the packet that far once structural+replay checks pass.
type Authenticator struct {
	hmacSecret []byte
	ed25519Pub ed25519.PublicKey
	totpStep   uint64
	totpTol    uint64
}

// NewAuthenticator builds an Authenticator from the secrets and TOTP
// parameters the control plane loaded at startup (secret blob /
// config slots).
func NewAuthenticator(hmacSecret []byte, ed25519Pub ed25519.PublicKey, totpStep, totpTolerance uint64) *Authenticator {
	return &Authenticator{
		hmacSecret: hmacSecret,
		ed25519Pub: ed25519Pub,
		totpStep:   totpStep,
		totpTol:    totpTolerance,
	}
}

// signedContent reproduces what the client signs: the header bytes up to
// but excluding the signature (offsets 0-13) of the fixed wire layout.
func signedContent(pkt DynamicPacket) []byte {
	buf := make([]byte, dynHeaderLen)
	buf[0] = pkt.Version
	buf[1] = pkt.Mode
	binary.BigEndian.PutUint64(buf[2:10], pkt.Timestamp)
	binary.BigEndian.PutUint32(buf[10:14], pkt.TOTP)
	return buf
}

// Verify checks the TOTP window and the signature, returning nil on full
// authentication success. On success the caller (the control plane) writes
// the whitelist entry itself.
func (a *Authenticator) Verify(pkt DynamicPacket, nowUnixSec uint64) error {
	if !a.totpInWindow(pkt.TOTP, pkt.Timestamp, nowUnixSec) {
		return fmt.Errorf("spa: totp out of tolerance window")
	}

	switch pkt.Mode {
	case 1:
		return a.verifyHMAC(pkt)
	case 2:
		return a.verifyEd25519(pkt)
	default:
		return fmt.Errorf("spa: unknown mode %d", pkt.Mode)
	}
}

// totpInWindow checks the client TOTP counter falls within totpTol steps of
// the server's own counter derived from nowUnixSec, per : "within
// totp_tolerance steps of timestamp / totp_step". RFC 6238 counter
// arithmetic, truncated to uint32 to match the wire field width.
func (a *Authenticator) totpInWindow(clientTOTP uint32, timestamp uint64, nowUnixSec uint64) bool {
	if a.totpStep == 0 {
		return false
	}
	serverCounter := nowUnixSec / a.totpStep
	clientCounter := timestamp / a.totpStep

	diff := serverCounter - clientCounter
	if clientCounter > serverCounter {
		diff = clientCounter - serverCounter
	}
	if diff > a.totpTol {
		return false
	}
	return uint32(clientCounter) == clientTOTP
}

func (a *Authenticator) verifyHMAC(pkt DynamicPacket) error {
	if len(pkt.Signature) != dynSigLen {
		return fmt.Errorf("spa: bad hmac signature length %d", len(pkt.Signature))
	}
	mac := hmac.New(sha256.New, a.hmacSecret)
	mac.Write(signedContent(pkt))
	expected := mac.Sum(nil)
	if subtle.ConstantTimeCompare(expected, pkt.Signature) != 1 {
		return fmt.Errorf("spa: hmac mismatch")
	}
	return nil
}

func (a *Authenticator) verifyEd25519(pkt DynamicPacket) error {
	if len(pkt.Signature) != asymSigLen {
		return fmt.Errorf("spa: bad ed25519 signature length %d", len(pkt.Signature))
	}
	if len(a.ed25519Pub) != ed25519.PublicKeySize {
		return fmt.Errorf("spa: no ed25519 public key configured")
	}
	if !ed25519.Verify(a.ed25519Pub, signedContent(pkt), pkt.Signature) {
		return fmt.Errorf("spa: ed25519 signature invalid")
	}
	return nil
}
