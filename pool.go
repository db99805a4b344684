package cshldap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// PoolStats is a snapshot of connection pool counters.
type PoolStats struct {
	// ConnectionsCreated is the total number of connections created.
	ConnectionsCreated int64
	// ConnectionsClosed is the total number of connections destroyed.
	ConnectionsClosed int64
	// HealthChecksPassed is the number of idle connections revalidated for reuse.
	HealthChecksPassed int64
	// HealthChecksFailed is the number of idle connections destroyed at recycle time.
	HealthChecksFailed int64
	// PoolHits is the number of checkouts served from the idle set.
	PoolHits int64
	// PoolMisses is the number of checkouts that had to create a connection.
	PoolMisses int64
}

// ConnectionPool hands out at most maxSize concurrently outstanding
// directory connections. Connections are created lazily through the
// ConnectionManager, revalidated with a health check before every reuse
// from idle, and destroyed when the check fails or the holder reports
// them damaged; the next checkout then transparently creates a
// replacement.
//
// Each connection is exclusively owned by its current holder. The pool
// never touches a checked-out connection.
type ConnectionPool struct {
	manager ConnectionManager
	logger  *slog.Logger

	// idle holds connections awaiting reuse. slots holds creation tokens;
	// every live connection, idle or checked out, accounts for one taken
	// token, which bounds the total at maxSize. A caller abandoning a
	// blocked checkout holds neither, so cancellation cannot leak a
	// reservation.
	idle  chan DirectoryConn
	slots chan struct{}

	mu     sync.Mutex
	closed bool

	created      atomic.Int64
	destroyed    atomic.Int64
	checksPassed atomic.Int64
	checksFailed atomic.Int64
	hits         atomic.Int64
	misses       atomic.Int64
}

// NewConnectionPool builds a pool of at most maxSize connections driven
// by the given manager.
func NewConnectionPool(manager ConnectionManager, maxSize int, logger *slog.Logger) *ConnectionPool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &ConnectionPool{
		manager: manager,
		logger:  logger,
		idle:    make(chan DirectoryConn, maxSize),
		slots:   make(chan struct{}, maxSize),
	}
	for i := 0; i < maxSize; i++ {
		p.slots <- struct{}{}
	}
	return p
}

// Checkout returns a healthy connection, blocking until an idle one
// passes its recycle check, a creation slot frees up, or ctx ends.
// Creation failure is terminal for this checkout; it is not retried
// against another server within the same call.
func (p *ConnectionPool) Checkout(ctx context.Context) (DirectoryConn, error) {
	for {
		if p.isClosed() {
			return nil, ErrPoolClosed
		}

		// Prefer recycling an idle connection over creating a new one.
		select {
		case conn := <-p.idle:
			if c, ok := p.recycle(ctx, conn); ok {
				return c, nil
			}
			continue
		default:
		}

		select {
		case conn := <-p.idle:
			if c, ok := p.recycle(ctx, conn); ok {
				return c, nil
			}

		case <-p.slots:
			conn, err := p.manager.Create(ctx)
			if err != nil {
				p.slots <- struct{}{}
				p.misses.Add(1)
				return nil, err
			}
			p.created.Add(1)
			p.misses.Add(1)
			return conn, nil

		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", ErrPoolExhausted, ctx.Err())
			}
			return nil, ctx.Err()
		}
	}
}

// Return gives a connection back to the pool. Holders that observed a
// transport-level failure pass damaged=true so the connection is
// destroyed instead of re-idled.
func (p *ConnectionPool) Return(conn DirectoryConn, damaged bool) {
	if conn == nil {
		return
	}
	if damaged || p.isClosed() {
		p.destroy(conn)
		return
	}
	select {
	case p.idle <- conn:
		p.logger.Debug("connection_returned_to_pool")
	default:
		// More returns than live connections; dispose rather than block.
		p.destroy(conn)
	}
}

// Close destroys all idle connections and rejects further checkouts.
// Checked-out connections are destroyed as they are returned.
func (p *ConnectionPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case conn := <-p.idle:
			p.destroy(conn)
		default:
			p.logger.Debug("connection_pool_closed",
				slog.Int64("connections_created", p.created.Load()),
				slog.Int64("connections_closed", p.destroyed.Load()))
			return
		}
	}
}

// Stats returns a snapshot of the pool counters.
func (p *ConnectionPool) Stats() PoolStats {
	return PoolStats{
		ConnectionsCreated: p.created.Load(),
		ConnectionsClosed:  p.destroyed.Load(),
		HealthChecksPassed: p.checksPassed.Load(),
		HealthChecksFailed: p.checksFailed.Load(),
		PoolHits:           p.hits.Load(),
		PoolMisses:         p.misses.Load(),
	}
}

func (p *ConnectionPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// recycle revalidates an idle connection before handing it out. A failed
// check destroys the connection, freeing its slot for a replacement.
func (p *ConnectionPool) recycle(ctx context.Context, conn DirectoryConn) (DirectoryConn, bool) {
	if err := p.manager.HealthCheck(ctx, conn); err != nil {
		p.checksFailed.Add(1)
		p.logger.Debug("connection_health_check_failed",
			slog.String("error", err.Error()))
		p.destroy(conn)
		return nil, false
	}
	p.checksPassed.Add(1)
	p.hits.Add(1)
	return conn, true
}

func (p *ConnectionPool) destroy(conn DirectoryConn) {
	p.manager.Close(conn)
	p.destroyed.Add(1)
	select {
	case p.slots <- struct{}{}:
	default:
	}
}
