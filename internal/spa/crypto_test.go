// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package spa_test

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haidang24/phantom-grid/internal/spa"
)

func signedHeader(mode uint8, ts uint64, totp uint32) []byte {
	buf := make([]byte, 14)
	buf[0] = 1
	buf[1] = mode
	binary.BigEndian.PutUint64(buf[2:10], ts)
	binary.BigEndian.PutUint32(buf[10:14], totp)
	return buf
}

func TestAuthenticatorHMACSuccess(t *testing.T) {
	secret := []byte("super-secret-hmac-key")
	const step, tol uint64 = 30, 1
	now := uint64(1_700_000_000)
	counter := uint32(now / step)

	hdr := signedHeader(1, now, counter)
	mac := hmac.New(sha256.New, secret)
	mac.Write(hdr)
	sig := mac.Sum(nil)

	pkt, ok := spa.ParseDynamic(append(hdr, sig...))
	require.True(t, ok)

	auth := spa.NewAuthenticator(secret, nil, step, tol)
	assert.NoError(t, auth.Verify(pkt, now))
}

func TestAuthenticatorHMACWrongSecretFails(t *testing.T) {
	const step, tol uint64 = 30, 1
	now := uint64(1_700_000_000)
	counter := uint32(now / step)
	hdr := signedHeader(1, now, counter)

	mac := hmac.New(sha256.New, []byte("right-key"))
	mac.Write(hdr)
	sig := mac.Sum(nil)
	pkt, ok := spa.ParseDynamic(append(hdr, sig...))
	require.True(t, ok)

	auth := spa.NewAuthenticator([]byte("wrong-key"), nil, step, tol)
	assert.Error(t, auth.Verify(pkt, now))
}

func TestAuthenticatorTOTPOutsideToleranceFails(t *testing.T) {
	secret := []byte("super-secret-hmac-key")
	const step, tol uint64 = 30, 1
	now := uint64(1_700_000_000)
	staleCounter := uint32(now/step) - 10

	hdr := signedHeader(1, now-10*step, staleCounter)
	mac := hmac.New(sha256.New, secret)
	mac.Write(hdr)
	sig := mac.Sum(nil)
	pkt, ok := spa.ParseDynamic(append(hdr, sig...))
	require.True(t, ok)

	auth := spa.NewAuthenticator(secret, nil, step, tol)
	assert.Error(t, auth.Verify(pkt, now))
}

func TestAuthenticatorEd25519Success(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	const step, tol uint64 = 30, 1
	now := uint64(1_700_000_000)
	counter := uint32(now / step)
	hdr := signedHeader(2, now, counter)
	sig := ed25519.Sign(priv, hdr)

	pkt, ok := spa.ParseDynamic(append(hdr, sig...))
	require.True(t, ok)

	auth := spa.NewAuthenticator(nil, pub, step, tol)
	assert.NoError(t, auth.Verify(pkt, now))
}

func TestAuthenticatorEd25519TamperedSignatureFails(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	const step, tol uint64 = 30, 1
	now := uint64(1_700_000_000)
	counter := uint32(now / step)
	hdr := signedHeader(2, now, counter)
	sig := ed25519.Sign(priv, hdr)
	sig[0] ^= 0xFF

	pkt, ok := spa.ParseDynamic(append(hdr, sig...))
	require.True(t, ok)

	auth := spa.NewAuthenticator(nil, pub, step, tol)
	assert.Error(t, auth.Verify(pkt, now))
}
