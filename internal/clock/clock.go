// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package clock provides a monotonic-nanosecond time source in the same
// numeric domain as the kernel's bpf_ktime_get_ns(), so user-space whitelist
// and replay-window comparisons stay comparable with timestamps a
// kernel program would have written.
package clock

import "golang.org/x/sys/unix"

// Clock returns monotonic nanoseconds.
type Clock interface {
	NowNS() uint64
}

// System reads CLOCK_MONOTONIC via the same clock family bpf_ktime_get_ns
// draws from.
type System struct{}

// NowNS returns the current monotonic time in nanoseconds.
func (System) NowNS() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return uint64(ts.Sec)*1e9 + uint64(ts.Nsec)
}

// Mock is a deterministic clock for tests, mirroring the
// clock.NewMockClock(...) construction used by grimm-is-flywall's PCAP-replay
// simulator (cmd/flywall-sim).
type Mock struct {
	nowNS uint64
}

// NewMock creates a mock clock starting at the given monotonic nanosecond value.
func NewMock(startNS uint64) *Mock {
	return &Mock{nowNS: startNS}
}

// NowNS returns the current mock time.
func (m *Mock) NowNS() uint64 {
	return m.nowNS
}

// Advance moves the mock clock forward.
func (m *Mock) Advance(deltaNS uint64) {
	m.nowNS += deltaNS
}

// Set pins the mock clock to an exact value.
func (m *Mock) Set(nowNS uint64) {
	m.nowNS = nowNS
}
