package cshldap

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/go-ldap/ldap/v3"
)

// mockConn is a scriptable implementation of DirectoryConn that records
// every request it receives.
type mockConn struct {
	mu sync.Mutex

	// Configuration
	SearchFunc func(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	ModifyFunc func(req *ldap.ModifyRequest) error
	WhoAmIErr  error

	// State tracking
	SearchRequests []*ldap.SearchRequest
	ModifyRequests []*ldap.ModifyRequest
	WhoAmICalls    int
	Closed         bool
}

func (m *mockConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	m.mu.Lock()
	m.SearchRequests = append(m.SearchRequests, req)
	fn := m.SearchFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &ldap.SearchResult{}, nil
}

func (m *mockConn) Modify(req *ldap.ModifyRequest) error {
	m.mu.Lock()
	m.ModifyRequests = append(m.ModifyRequests, req)
	fn := m.ModifyFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return nil
}

func (m *mockConn) WhoAmI(_ []ldap.Control) (*ldap.WhoAmIResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WhoAmICalls++
	return &ldap.WhoAmIResult{}, m.WhoAmIErr
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// mockManager is a scriptable ConnectionManager that tracks every
// connection it creates and closes.
type mockManager struct {
	mu sync.Mutex

	// CreateFunc overrides connection creation. When nil, a fresh healthy
	// mockConn is produced.
	CreateFunc func(ctx context.Context) (DirectoryConn, error)

	Created []*mockConn
	ClosedConns []DirectoryConn
}

func (m *mockManager) Create(ctx context.Context) (DirectoryConn, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx)
	}
	conn := &mockConn{}
	m.mu.Lock()
	m.Created = append(m.Created, conn)
	m.mu.Unlock()
	return conn, nil
}

func (m *mockManager) HealthCheck(_ context.Context, conn DirectoryConn) error {
	if mc, ok := conn.(*mockConn); ok {
		_, err := mc.WhoAmI(nil)
		return err
	}
	return nil
}

func (m *mockManager) Close(conn DirectoryConn) {
	_ = conn.Close()
	m.mu.Lock()
	m.ClosedConns = append(m.ClosedConns, conn)
	m.mu.Unlock()
}

func (m *mockManager) closedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ClosedConns)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockClient wires a Client to a single-connection pool backed by the
// given mock connection.
func newMockClient(conn *mockConn) *Client {
	logger := discardLogger()
	manager := &mockManager{
		CreateFunc: func(context.Context) (DirectoryConn, error) { return conn, nil },
	}
	return &Client{
		config:     &Config{},
		logger:     logger,
		attributes: defaultUserAttributes,
		pool:       NewConnectionPool(manager, 1, logger),
	}
}

// userEntry builds a well-formed member entry for tests. Overrides
// replace an attribute's values; a nil override removes the attribute.
func userEntry(uid string, overrides map[string][]string) *ldap.Entry {
	attrs := []struct {
		name   string
		values []string
	}{
		{attrCN, []string{"John Doe"}},
		{attrUID, []string{uid}},
		{attrKrbPrincipalName, []string{uid + "@CSH.RIT.EDU"}},
		{attrMemberOf, []string{
			"cn=drink," + GroupBaseDN,
			"cn=active," + GroupBaseDN,
		}},
		{attrMail, []string{uid + "@csh.rit.edu"}},
		{attrMobile, []string{"5855550100"}},
		{attrIButton, []string{"1400000000000001"}},
		{attrDrinkBalance, []string{"250"}},
	}

	entry := &ldap.Entry{
		DN:         "uid=" + uid + "," + UserBaseDN,
		Attributes: []*ldap.EntryAttribute{},
	}
	for _, attr := range attrs {
		values := attr.values
		if override, ok := overrides[attr.name]; ok {
			if override == nil {
				continue
			}
			values = override
		}
		entry.Attributes = append(entry.Attributes, &ldap.EntryAttribute{
			Name:   attr.name,
			Values: values,
		})
	}
	return entry
}

func searchResult(entries ...*ldap.Entry) *ldap.SearchResult {
	return &ldap.SearchResult{Entries: entries}
}
