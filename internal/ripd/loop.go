/*
 * ripd routing daemon. Copyright (C) 2021-present David Coles
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package ripd

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"ripd/internal/riplog"
	"ripd/internal/ripwire"
)

const (
	DefaultRouteTimeout = 180 * time.Second
	DefaultGCPeriod     = 60 * time.Second

	DefaultPeriodicUpdatePeriod = 30 * time.Second
	DefaultExpiryScanPeriod     = 1 * time.Second
)

// datagram is one received UDP payload, fanned in from a per-socket
// reader goroutine to the single loop goroutine that owns table
// mutation. Keeping every mutation on one goroutine means the table
// itself needs no locking.
type datagram struct {
	data []byte
}

// LoopbackTransport is a single reusable sender socket, bound on an
// ephemeral port distinct from any input port, used for every outgoing
// packet regardless of which neighbor it is addressed to.
type LoopbackTransport struct {
	conn *net.UDPConn
	host string
}

// NewLoopbackTransport opens a single UDP socket, on an ephemeral port,
// used to send every outgoing packet to host.
func NewLoopbackTransport(host string) (*LoopbackTransport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(host), Port: 0})
	if err != nil {
		return nil, errors.Wrap(err, "ripd: opening sender socket")
	}
	return &LoopbackTransport{conn: conn, host: host}, nil
}

func (u *LoopbackTransport) SendTo(port uint16, payload []byte) error {
	addr := &net.UDPAddr{IP: net.ParseIP(u.host), Port: int(port)}
	_, err := u.conn.WriteToUDP(payload, addr)
	return err
}

// Close releases the sender socket.
func (u *LoopbackTransport) Close() error {
	return u.conn.Close()
}

// Loop is the event loop / scheduler: it binds one UDP socket per input
// port, multiplexes their readiness with a bounded wait, and fires the
// periodic update, expiry-scan, and (optionally) display tasks at
// independent cadences.
type Loop struct {
	engine *Engine

	sockets  []*net.UDPConn
	incoming chan datagram

	periodicUpdatePeriod time.Duration
	expiryScanPeriod     time.Duration
	displayPeriod        time.Duration

	now      func() time.Time
	log      riplog.Notifier
	renderer func([]RouteView)
}

// LoopOption configures a Loop at construction time.
type LoopOption func(*Loop)

func WithPeriodicUpdatePeriod(d time.Duration) LoopOption {
	return func(l *Loop) { l.periodicUpdatePeriod = d }
}

func WithExpiryScanPeriod(d time.Duration) LoopOption {
	return func(l *Loop) { l.expiryScanPeriod = d }
}

// WithDisplay enables the diagnostic renderer at period d; renderer is
// invoked with the current table snapshot each time it fires.
func WithDisplay(d time.Duration, renderer func([]RouteView)) LoopOption {
	return func(l *Loop) {
		l.displayPeriod = d
		l.renderer = renderer
	}
}

func WithLoopLogger(n riplog.Notifier) LoopOption {
	return func(l *Loop) { l.log = n }
}

func withLoopClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

// NewLoop binds one UDP socket per input port on loopbackHost and
// returns a Loop ready to Run. Sockets are bound eagerly so that a bind
// failure surfaces before the engine ever processes a datagram.
func NewLoop(engine *Engine, loopbackHost string, inputPorts []uint16, opts ...LoopOption) (*Loop, error) {
	l := &Loop{
		engine:               engine,
		incoming:             make(chan datagram, 64),
		periodicUpdatePeriod: DefaultPeriodicUpdatePeriod,
		expiryScanPeriod:     DefaultExpiryScanPeriod,
		now:                  time.Now,
		log:                  riplog.Nil{},
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, port := range inputPorts {
		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(loopbackHost), Port: int(port)})
		if err != nil {
			l.closeSockets()
			return nil, errors.Wrapf(err, "ripd: binding input port %d", port)
		}
		l.sockets = append(l.sockets, conn)
	}

	return l, nil
}

func (l *Loop) closeSockets() {
	for _, conn := range l.sockets {
		conn.Close()
	}
}

// Close releases every bound input socket. Safe to call once Run has
// returned (or to abandon Run early via context cancellation).
func (l *Loop) Close() {
	l.closeSockets()
}

// Run drives the main loop until ctx is cancelled: wait for either a
// datagram or the nearest timer deadline, process it, then re-evaluate
// which periodic tasks are due. Exit is by context cancellation only;
// there is no graceful shutdown handshake.
func (l *Loop) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	for _, conn := range l.sockets {
		go l.readSocket(conn, done)
	}

	now := l.now()
	nextUpdate := now.Add(l.periodicUpdatePeriod)
	nextExpiry := now.Add(l.expiryScanPeriod)
	nextDisplay := now
	if l.displayPeriod > 0 {
		nextDisplay = now.Add(l.displayPeriod)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		deadline := earliest(nextUpdate, nextExpiry)
		if l.displayPeriod > 0 {
			deadline = earliest(deadline, nextDisplay)
		}

		wait := deadline.Sub(l.now())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case dg := <-l.incoming:
			timer.Stop()
			l.engine.OnDatagram(dg.data)

			// Drain every datagram already queued before touching timers,
			// so a single wait processes all currently-readable sockets
			// before any periodic task fires.
		drain:
			for {
				select {
				case dg := <-l.incoming:
					l.engine.OnDatagram(dg.data)
				default:
					break drain
				}
			}

		case <-timer.C:
		}

		now := l.now()

		if !now.Before(nextUpdate) {
			l.engine.SendPeriodicUpdates()
			nextUpdate = now.Add(l.periodicUpdatePeriod)
		}

		if !now.Before(nextExpiry) {
			l.engine.Tick(now)
			nextExpiry = now.Add(l.expiryScanPeriod)
		}

		if l.displayPeriod > 0 && !now.Before(nextDisplay) {
			l.renderer(l.engine.Table().Snapshot(now))
			nextDisplay = now.Add(l.displayPeriod)
		}
	}
}

func (l *Loop) readSocket(conn *net.UDPConn, done <-chan struct{}) {
	buf := make([]byte, ripwire.MaxDatagram)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case l.incoming <- datagram{data: data}:
		case <-done:
			return
		}
	}
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
