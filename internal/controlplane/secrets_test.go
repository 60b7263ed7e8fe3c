// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package controlplane_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haidang24/phantom-grid/internal/controlplane"
	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
)

func TestGenerateSaveLoadRoundTrip(t *testing.T) {
	bundle, err := controlplane.GenerateSecretBundle(false)
	require.NoError(t, err)
	assert.Empty(t, bundle.Ed25519PublicKey())

	path := filepath.Join(t.TempDir(), "secrets.cbor")
	require.NoError(t, bundle.Save(path))

	loaded, err := controlplane.LoadSecretBundle(path)
	require.NoError(t, err)
	assert.Equal(t, bundle.Master, loaded.Master)
}

func TestGenerateAsymmetricBundleIncludesEd25519Key(t *testing.T) {
	bundle, err := controlplane.GenerateSecretBundle(true)
	require.NoError(t, err)
	assert.NotEmpty(t, bundle.Ed25519PublicKey())
}

func TestInstallSecretsWritesDerivedBlobsToMaps(t *testing.T) {
	bundle, err := controlplane.GenerateSecretBundle(false)
	require.NoError(t, err)

	maps := ebpfmaps.NewSimMaps()
	require.NoError(t, controlplane.InstallSecrets(maps, bundle))

	var totp, hmacBlob [ebpfmaps.SecretLen]byte
	for i := 0; i < ebpfmaps.SecretLen; i++ {
		totp[i] = maps.SecretByte(ebpfmaps.SecretTOTP, i)
		hmacBlob[i] = maps.SecretByte(ebpfmaps.SecretHMAC, i)
	}
	assert.NotEqual(t, totp, hmacBlob, "totp and hmac secrets must be derived independently")

	// Deriving twice from the same master must be deterministic.
	maps2 := ebpfmaps.NewSimMaps()
	require.NoError(t, controlplane.InstallSecrets(maps2, bundle))
	var totp2 [ebpfmaps.SecretLen]byte
	for i := 0; i < ebpfmaps.SecretLen; i++ {
		totp2[i] = maps2.SecretByte(ebpfmaps.SecretTOTP, i)
	}
	assert.Equal(t, totp, totp2)
}
