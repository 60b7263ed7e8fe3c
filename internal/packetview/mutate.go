// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package packetview

import "encoding/binary"

// SetTCPDestPort overwrites the TCP destination port in place. Used by the
// redirect rule to DNAT a SYN to the honeypot port.
func (c Cursor) SetTCPDestPort(h TCPHeader, port uint16) {
	binary.BigEndian.PutUint16(c.frame[h.dstPortOffset:], port)
}

// SetTCPWindow overwrites the TCP window in place.
func (c Cursor) SetTCPWindow(h TCPHeader, window uint16) {
	binary.BigEndian.PutUint16(c.frame[h.windowOffset:], window)
}

// ZeroTCPChecksum zeros the TCP checksum field, deferring recomputation to
// the generic XDP path rather than adjusting it incrementally in place.
func (c Cursor) ZeroTCPChecksum(h TCPHeader) {
	binary.BigEndian.PutUint16(c.frame[h.checksumOffset:], 0)
}

// SetIPTTL overwrites the IPv4 TTL in place.
func (c Cursor) SetIPTTL(h IPv4Header, ttl uint8) {
	c.frame[h.ttlProtoOffset] = ttl
}

// ZeroIPChecksum zeros the IPv4 header checksum field.
func (c Cursor) ZeroIPChecksum(h IPv4Header) {
	binary.BigEndian.PutUint16(c.frame[h.checksumOffset:], 0)
}

// TCPPayloadOffset returns the number of bytes from the start of the frame to
// the TCP payload, derived from DataOffset*4.
func TCPPayloadOffset(tcpStart int, h TCPHeader) int {
	hdrLen := int(h.DataOffset) * 4
	if hdrLen < sizeTCPMin {
		hdrLen = sizeTCPMin
	}
	return tcpStart + hdrLen
}
