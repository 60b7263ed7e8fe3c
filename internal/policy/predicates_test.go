// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haidang24/phantom-grid/internal/packetview"
	"github.com/haidang24/phantom-grid/internal/policy"
)

func TestPortSetMembership(t *testing.T) {
	ps := policy.NewPortSet([]uint16{22, 5432}, []uint16{80, 443}, 9999, 1337)

	assert.True(t, ps.IsCriticalPort(22))
	assert.False(t, ps.IsCriticalPort(80))
	assert.True(t, ps.IsFakePort(80))
	assert.True(t, ps.IsHoneypotPort(9999))
	assert.True(t, ps.IsSPAMagicPort(1337))
	assert.False(t, ps.IsFakePort(22))
}

func TestPortSetOverlapWarning(t *testing.T) {
	ps := policy.NewPortSet([]uint16{22, 80}, []uint16{80, 443}, 9999, 1337)
	dup := ps.Overlap()
	assert.Equal(t, []uint16{80}, dup)
}

func TestPortSetNoOverlap(t *testing.T) {
	ps := policy.NewPortSet([]uint16{22}, []uint16{80}, 9999, 1337)
	assert.Empty(t, ps.Overlap())
}

func TestIsStealthScanXmas(t *testing.T) {
	flags := packetview.FlagFIN | packetview.FlagURG | packetview.FlagPSH
	assert.True(t, policy.IsStealthScan(flags))
}

func TestIsStealthScanNull(t *testing.T) {
	assert.True(t, policy.IsStealthScan(0))
}

func TestIsStealthScanFINOnly(t *testing.T) {
	assert.True(t, policy.IsStealthScan(packetview.FlagFIN))
}

func TestIsStealthScanACKOnly(t *testing.T) {
	assert.True(t, policy.IsStealthScan(packetview.FlagACK))
}

func TestIsStealthScanSYNIsNotStealth(t *testing.T) {
	assert.False(t, policy.IsStealthScan(packetview.FlagSYN))
}

func TestIsStealthScanSYNACKIsNotStealth(t *testing.T) {
	assert.False(t, policy.IsStealthScan(packetview.FlagSYN|packetview.FlagACK))
}

func TestIsStealthScanACKPatternIgnoresPSHAndURG(t *testing.T) {
	// The ACK pattern only excludes SYN/FIN/RST; PSH/URG alongside ACK still
	// matches, even though that also describes an ordinary established-flow
	// data segment.
	flags := packetview.FlagACK | packetview.FlagPSH | packetview.FlagURG
	assert.True(t, policy.IsStealthScan(flags))
}
