// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ingress

import (
	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
	"github.com/haidang24/phantom-grid/internal/packetview"
)

// osProfile is one of the four fingerprint profiles tabulates.
type osProfile struct {
	ttl    uint8
	window uint16
}

var osProfiles = [4]osProfile{
	{ttl: 128, window: 65535}, // Windows
	{ttl: 64, window: 29200},  // Linux
	{ttl: 64, window: 65535},  // FreeBSD
	{ttl: 255, window: 29200}, // Solaris
}

// mutateOSPersonality applies deterministic TTL/window
// substitution keyed by source-port mod 4, zeroing whichever checksum
// covers a field it actually changed.
func mutateOSPersonality(cur packetview.Cursor, ip packetview.IPv4Header, tcp packetview.TCPHeader, maps ebpfmaps.Maps) {
	profile := osProfiles[tcp.SrcPort%4]

	if profile.ttl != ip.TTL {
		cur.SetIPTTL(ip, profile.ttl)
		cur.ZeroIPChecksum(ip)
	}

	if profile.window != tcp.Window {
		cur.SetTCPWindow(tcp, profile.window)
		cur.ZeroTCPChecksum(tcp)
	}

	maps.CounterInc(ebpfmaps.MapOSMutations)
}
