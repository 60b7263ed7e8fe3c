// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package controlplane_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haidang24/phantom-grid/internal/config"
	"github.com/haidang24/phantom-grid/internal/controlplane"
	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
	"github.com/haidang24/phantom-grid/internal/logging"
)

const reloadHCL = `
interface = "eth0"
ports {}
spa {
  mode = "dynamic"
  totp_step_seconds = 60
  totp_tolerance = 2
  replay_window_seconds = 10
}
egress {}
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "phantom-grid.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Output: io.Discard})
}

func TestReloadAppliesConfigSlotsToMaps(t *testing.T) {
	path := writeConfig(t, reloadHCL)
	initial := config.Defaults()
	initial.Interface = "eth0"

	maps := ebpfmaps.NewSimMaps()
	rm := controlplane.NewReloadManager(path, &initial, maps, testLogger())

	require.NoError(t, rm.Reload())

	step, ok := maps.ConfigGet(ebpfmaps.ConfigTOTPStep)
	require.True(t, ok)
	assert.Equal(t, uint32(60), step)

	tol, ok := maps.ConfigGet(ebpfmaps.ConfigTOTPTolerance)
	require.True(t, ok)
	assert.Equal(t, uint32(2), tol)

	mode, ok := maps.ConfigGet(ebpfmaps.ConfigSPAMode)
	require.True(t, ok)
	assert.Equal(t, ebpfmaps.SPAModeDynamic, mode)

	assert.Equal(t, "dynamic", rm.Current().SPA.Mode)
}

func TestReloadSecretsInstallsNewBundle(t *testing.T) {
	path := writeConfig(t, reloadHCL)
	initial := config.Defaults()
	initial.Interface = "eth0"
	maps := ebpfmaps.NewSimMaps()
	rm := controlplane.NewReloadManager(path, &initial, maps, testLogger())

	bundle, err := controlplane.GenerateSecretBundle(false)
	require.NoError(t, err)
	bundlePath := filepath.Join(t.TempDir(), "secrets.cbor")
	require.NoError(t, bundle.Save(bundlePath))

	require.NoError(t, rm.ReloadSecrets(bundlePath))
	var totp [ebpfmaps.SecretLen]byte
	for i := 0; i < ebpfmaps.SecretLen; i++ {
		totp[i] = maps.SecretByte(ebpfmaps.SecretTOTP, i)
	}
	assert.NotEqual(t, [ebpfmaps.SecretLen]byte{}, totp, "installed totp secret must not be all-zero")
}

func TestReloadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `interface = "eth0"
spa { mode = "quantum" }`)
	initial := config.Defaults()
	initial.Interface = "eth0"
	maps := ebpfmaps.NewSimMaps()
	rm := controlplane.NewReloadManager(path, &initial, maps, testLogger())

	assert.Error(t, rm.Reload())
	// Current config is left untouched on a failed reload.
	assert.Equal(t, "static", rm.Current().SPA.Mode)
}
