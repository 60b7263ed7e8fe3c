// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package packetview_test

import (
	"net"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/require"

	"github.com/haidang24/phantom-grid/internal/packetview"
)

func buildTCPFrame(t *testing.T, srcPort, dstPort uint16, flags string, payload []byte) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(203, 0, 113, 7),
		DstIP:    net.IPv4(10, 0, 0, 1),
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Window:  29200,
	}
	for _, f := range flags {
		switch f {
		case 'S':
			tcp.SYN = true
		case 'A':
			tcp.ACK = true
		case 'F':
			tcp.FIN = true
		case 'R':
			tcp.RST = true
		case 'P':
			tcp.PSH = true
		case 'U':
			tcp.URG = true
		}
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload)))
	return buf.Bytes()
}

func TestCursorTruncatedEthernetPasses(t *testing.T) {
	c := packetview.NewCursor([]byte{0x01, 0x02, 0x03})
	_, _, ok := c.Ethernet()
	require.False(t, ok)
}

func TestCursorNonIPv4EtherType(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeARP,
	}
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, gopacket.Payload([]byte{0, 0, 0, 0})))

	c := packetview.NewCursor(buf.Bytes())
	ethHdr, next, ok := c.Ethernet()
	require.True(t, ok)
	require.NotEqual(t, uint16(packetview.EtherTypeIPv4), ethHdr.EtherType)
	_ = next
}

func TestCursorParsesTCPSynToPort22(t *testing.T) {
	frame := buildTCPFrame(t, 40000, 22, "S", nil)

	c := packetview.NewCursor(frame)
	_, c, ok := c.Ethernet()
	require.True(t, ok)
	ip, c, ok := c.IPv4()
	require.True(t, ok)
	require.Equal(t, packetview.ProtoTCP, int(ip.Protocol))

	tcp, _, ok := c.TCP()
	require.True(t, ok)
	require.Equal(t, uint16(22), tcp.DstPort)
	require.Equal(t, packetview.FlagSYN, tcp.Flags)
}

func TestCursorTruncatedAtTCPHeaderPasses(t *testing.T) {
	frame := buildTCPFrame(t, 40000, 22, "S", nil)
	// Truncate mid-TCP-header.
	short := frame[:len(frame)-10]

	c := packetview.NewCursor(short)
	_, c, ok := c.Ethernet()
	require.True(t, ok)
	_, c, ok = c.IPv4()
	require.True(t, ok)
	_, _, ok = c.TCP()
	require.False(t, ok)
}

func TestMutateDestPortAndChecksum(t *testing.T) {
	frame := buildTCPFrame(t, 40000, 4444, "S", nil)

	c := packetview.NewCursor(frame)
	_, c, ok := c.Ethernet()
	require.True(t, ok)
	_, c, ok = c.IPv4()
	require.True(t, ok)
	tcp, _, ok := c.TCP()
	require.True(t, ok)

	c.SetTCPDestPort(tcp, 9999)
	c.ZeroTCPChecksum(tcp)

	// Re-parse to confirm the mutation landed.
	c2 := packetview.NewCursor(frame)
	_, c2, _ = c2.Ethernet()
	_, c2, _ = c2.IPv4()
	tcp2, _, ok := c2.TCP()
	require.True(t, ok)
	require.Equal(t, uint16(9999), tcp2.DstPort)
}
