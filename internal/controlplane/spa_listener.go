// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package controlplane

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/haidang24/phantom-grid/internal/clock"
	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
	"github.com/haidang24/phantom-grid/internal/logging"
	"github.com/haidang24/phantom-grid/internal/spa"
)

// TOTP validation needs real wall-clock seconds, not the monotonic domain
// clock.Clock provides for whitelist/replay comparisons; the listener reads
// time.Now() directly for that one purpose, same as spa_listener's peers in
// internal/spa's tests do.

// SPAListener is the deferred half of dynamic/asymmetric SPA: has
// the kernel pass structurally-valid dynamic packets through rather than
// drop them, because it never does TOTP or signature crypto.
// SPAListener receives that same traffic in user space via a second socket
// bound to the SPA magic port, runs spa.Authenticator, and writes the
// whitelist entry on success. It is rate-limited per expectation
// that the control plane, unlike the kernel fast path, must bound its own
// work under flood.
type SPAListener struct {
	conn          *net.UDPConn
	auth          *spa.Authenticator
	maps          ebpfmaps.Maps
	clock         clock.Clock
	logger        *logging.Logger
	whitelistTTL  time.Duration
	limiter       *rate.Limiter
}

// NewSPAListener binds a UDP socket on magicPort and wires it to auth/maps.
// The limiter defaults to 200 packets/sec with a burst of 400 when rl is
// the zero value, generous enough not to reject legitimate bursts from a
// single operator's client retrying across jittered delay.
func NewSPAListener(magicPort uint16, auth *spa.Authenticator, maps ebpfmaps.Maps, clk clock.Clock, logger *logging.Logger, whitelistTTL time.Duration, rl *rate.Limiter) (*SPAListener, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: int(magicPort)})
	if err != nil {
		return nil, fmt.Errorf("controlplane: listen spa magic port %d: %w", magicPort, err)
	}
	if rl == nil {
		rl = rate.NewLimiter(rate.Limit(200), 400)
	}
	return &SPAListener{
		conn:         conn,
		auth:         auth,
		maps:         maps,
		clock:        clk,
		logger:       logger,
		whitelistTTL: whitelistTTL,
		limiter:      rl,
	}, nil
}

// Close releases the listening socket.
func (l *SPAListener) Close() error {
	return l.conn.Close()
}

// LocalAddr returns the bound socket address, mainly useful for tests that
// bind an ephemeral port (magicPort 0).
func (l *SPAListener) LocalAddr() *net.UDPAddr {
	return l.conn.LocalAddr().(*net.UDPAddr)
}

// Run reads datagrams until ctx is cancelled or the socket errors. Each
// datagram is parsed and authenticated independently; a bad packet only
// costs a log line, never stops the loop.
func (l *SPAListener) Run(ctx context.Context) error {
	buf := make([]byte, 2048)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		l.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("controlplane: spa listener read: %w", err)
		}

		if !l.limiter.Allow() {
			l.logger.Warn("spa listener dropped packet over rate limit", "src", addr.String())
			continue
		}

		l.handle(addr.IP.To4(), buf[:n])
	}
}

func (l *SPAListener) handle(srcIP net.IP, payload []byte) {
	pkt, ok := spa.ParseDynamic(payload)
	if !ok {
		return
	}

	nowUnix := uint64(time.Now().Unix())
	if err := l.auth.Verify(pkt, nowUnix); err != nil {
		l.logger.Debug("spa authentication failed", "err", err)
		return
	}

	var ip [4]byte
	copy(ip[:], srcIP.To4())
	expiry := l.clock.NowNS() + uint64(l.whitelistTTL.Nanoseconds())
	l.maps.WhitelistPut(ip, expiry)
	l.maps.CounterInc(ebpfmaps.MapSPAAuthSuccess)
	l.logger.Info("spa authentication succeeded", "src", srcIP.String())
}
