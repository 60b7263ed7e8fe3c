// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ebpfmaps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
)

func TestCountersMonotonic(t *testing.T) {
	m := ebpfmaps.NewSimMaps()
	m.CounterInc(ebpfmaps.MapAttackStats)
	m.CounterInc(ebpfmaps.MapAttackStats)
	assert.Equal(t, uint64(2), m.CounterValue(ebpfmaps.MapAttackStats))
}

func TestWhitelistExpiryLazyDelete(t *testing.T) {
	m := ebpfmaps.NewSimMaps()
	ip := [4]byte{203, 0, 113, 7}

	m.WhitelistPut(ip, 1000)
	_, ok := m.WhitelistGet(ip, 500)
	require.True(t, ok, "entry should be present before expiry")

	_, ok = m.WhitelistGet(ip, 2000)
	require.False(t, ok, "entry should be gone once read past its expiry")

	_, ok = m.WhitelistGet(ip, 2000)
	require.False(t, ok, "deleted entry stays absent")
}

func TestWhitelistLRUEviction(t *testing.T) {
	m := ebpfmaps.NewSimMaps()
	for i := 0; i < ebpfmaps.WhitelistCapacity+10; i++ {
		ip := [4]byte{10, 0, byte(i >> 8), byte(i)}
		m.WhitelistPut(ip, 1_000_000_000)
	}
	// The earliest entries should have been evicted; callers must tolerate this.
	_, ok := m.WhitelistGet([4]byte{10, 0, 0, 0}, 0)
	assert.False(t, ok)
}

func TestReplayCheckAndRecord(t *testing.T) {
	m := ebpfmaps.NewSimMaps()
	const sig = uint64(0xdeadbeefcafef00d)
	const window = uint64(5 * 1e9)

	assert.Equal(t, ebpfmaps.ReplayFresh, m.ReplayCheckAndRecord(sig, 100, window))
	assert.Equal(t, ebpfmaps.ReplayHit, m.ReplayCheckAndRecord(sig, 200, window))

	// Outside the window, the same prefix is fresh again.
	assert.Equal(t, ebpfmaps.ReplayFresh, m.ReplayCheckAndRecord(sig, 100+window+1, window))
}

func TestSecretStore(t *testing.T) {
	m := ebpfmaps.NewSimMaps()
	var blob [ebpfmaps.SecretLen]byte
	blob[0] = 0xAB
	m.SetSecret(ebpfmaps.SecretHMAC, blob)
	assert.Equal(t, byte(0xAB), m.SecretByte(ebpfmaps.SecretHMAC, 0))
	assert.Equal(t, byte(0), m.SecretByte(ebpfmaps.SecretTOTP, 0))
}
