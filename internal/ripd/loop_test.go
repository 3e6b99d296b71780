package ripd

import (
	"context"
	"net"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestEarliest(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Second)

	assert.Equal(t, earliest(now, later), now)
	assert.Equal(t, earliest(later, now), now)
}

func TestNewLoopBindsOneSocketPerInputPort(t *testing.T) {
	transport, err := NewLoopbackTransport("127.0.0.1")
	assert.NilError(t, err)
	defer transport.Close()

	engine := NewEngine(1, map[uint16]Neighbor{}, 180*time.Second, 60*time.Second, transport)
	engine.Bootstrap()

	loop, err := NewLoop(engine, "127.0.0.1", []uint16{0, 0})
	assert.NilError(t, err)
	defer loop.Close()

	assert.Equal(t, len(loop.sockets), 2)
}

func TestNewLoopRejectsDuplicatePortBind(t *testing.T) {
	transport, err := NewLoopbackTransport("127.0.0.1")
	assert.NilError(t, err)
	defer transport.Close()

	engine := NewEngine(1, map[uint16]Neighbor{}, 180*time.Second, 60*time.Second, transport)
	engine.Bootstrap()

	// Bind a fixed port once directly, then try to have the loop bind the
	// same port again; the second bind must fail and any socket already
	// opened by this NewLoop call must be cleaned up.
	held, err := NewLoopbackTransport("127.0.0.1")
	assert.NilError(t, err)
	defer held.Close()

	port := held.conn.LocalAddr().(*net.UDPAddr).Port

	_, err = NewLoop(engine, "127.0.0.1", []uint16{uint16(port)})
	assert.Assert(t, err != nil)
}

func TestLoopRunExitsOnContextCancellation(t *testing.T) {
	transport, err := NewLoopbackTransport("127.0.0.1")
	assert.NilError(t, err)
	defer transport.Close()

	engine := NewEngine(1, map[uint16]Neighbor{}, 180*time.Second, 60*time.Second, transport)
	engine.Bootstrap()

	loop, err := NewLoop(engine, "127.0.0.1", []uint16{0},
		WithPeriodicUpdatePeriod(time.Hour),
		WithExpiryScanPeriod(time.Hour),
	)
	assert.NilError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = loop.Run(ctx)
	assert.NilError(t, err)
}
