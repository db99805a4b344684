package cshldap

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// DirectoryConn is the subset of *ldap.Conn the client operates on. It
// exists so the pool and the operation surface can be exercised against
// mock connections.
type DirectoryConn interface {
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Modify(req *ldap.ModifyRequest) error
	WhoAmI(controls []ldap.Control) (*ldap.WhoAmIResult, error)
	Close() error
}

// ConnectionManager supplies the pool with connection lifecycle behavior:
// creating a bound connection, validating one for reuse, and disposing of
// one. It is a capability interface; implementations are passed to the
// pool, not subclassed.
type ConnectionManager interface {
	// Create establishes and authenticates a new connection.
	Create(ctx context.Context) (DirectoryConn, error)
	// HealthCheck validates a connection before it is reused from idle.
	HealthCheck(ctx context.Context, conn DirectoryConn) error
	// Close disposes of a connection that failed a health check or was
	// reported damaged.
	Close(conn DirectoryConn)
}

// serverManager creates connections against a fixed list of discovered
// servers: a uniformly random pick per creation, a dial, and a simple
// bind with the shared service credential. Both steps must succeed; no
// partially initialized connection is ever handed out.
type serverManager struct {
	servers      []string
	bindDN       string
	bindPassword string
	dialTimeout  time.Duration
	dialOptions  []ldap.DialOpt
	logger       *slog.Logger
}

func (m *serverManager) Create(ctx context.Context) (DirectoryConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	server := m.servers[rand.IntN(len(m.servers))]
	start := time.Now()

	dialer := &net.Dialer{Timeout: m.dialTimeout}
	opts := append([]ldap.DialOpt{ldap.DialWithDialer(dialer)}, m.dialOptions...)

	conn, err := ldap.DialURL(server, opts...)
	if err != nil {
		m.logger.Warn("connection_dial_failed",
			slog.String("server", server),
			slog.String("error", err.Error()))
		return nil, &ConnectError{Server: server, Err: err}
	}
	conn.SetTimeout(readTimeLimit)

	if err := conn.Bind(m.bindDN, m.bindPassword); err != nil {
		_ = conn.Close()
		m.logger.Warn("connection_bind_failed",
			slog.String("server", server),
			slog.String("bind_dn", m.bindDN),
			slog.String("error", err.Error()))
		return nil, &ConnectError{Server: server, Err: err}
	}

	m.logger.Debug("connection_created",
		slog.String("server", server),
		slog.Duration("duration", time.Since(start)))

	return conn, nil
}

// HealthCheck issues a WhoAmI extended operation, a cheap identity query
// that exercises the full request/response path without touching any
// entry.
func (m *serverManager) HealthCheck(_ context.Context, conn DirectoryConn) error {
	_, err := conn.WhoAmI(nil)
	return err
}

func (m *serverManager) Close(conn DirectoryConn) {
	if err := conn.Close(); err != nil {
		m.logger.Debug("connection_close_error",
			slog.String("error", err.Error()))
	}
}
