package cshldap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-ldap/ldap/v3"
)

// Client is the operation surface of the directory service. Every call
// borrows a connection from the pool, issues its search or modify, and
// returns the connection afterwards; a connection that hit a
// transport-level failure is discarded instead.
//
// A single Client is safe for use by arbitrarily many goroutines.
type Client struct {
	config     *Config
	pool       *ConnectionPool
	logger     *slog.Logger
	resolver   SRVResolver
	attributes []string
}

// New creates a directory client: it resolves the candidate servers once
// from the well-known SRV record (unless Config.Servers is set) and
// builds the connection pool. Connections themselves are established
// lazily on first checkout.
func New(config *Config, opts ...Option) (*Client, error) {
	return NewContext(context.Background(), config, opts...)
}

// NewContext is New with a caller-supplied context bounding server
// discovery.
func NewContext(ctx context.Context, config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, errors.New("cshldap: config cannot be nil")
	}
	if config.BindDN == "" {
		return nil, errors.New("cshldap: bind DN cannot be empty")
	}
	if config.BindPassword == "" {
		return nil, errors.New("cshldap: bind password cannot be empty")
	}

	logger := slog.Default()
	if config.Logger != nil {
		logger = config.Logger
	}

	c := &Client{
		config:     config,
		logger:     logger,
		resolver:   net.DefaultResolver,
		attributes: config.attributes(),
	}
	for _, opt := range opts {
		opt(c)
	}

	servers := config.Servers
	if len(servers) == 0 {
		var err error
		servers, err = discoverServers(ctx, c.resolver)
		if err != nil {
			c.logger.Error("server_discovery_failed",
				slog.String("error", err.Error()))
			return nil, err
		}
	}

	manager := &serverManager{
		servers:      servers,
		bindDN:       config.BindDN,
		bindPassword: config.BindPassword,
		dialTimeout:  config.dialTimeout(),
		dialOptions:  config.DialOptions,
		logger:       c.logger,
	}
	c.pool = NewConnectionPool(manager, config.poolSize(), c.logger)

	c.logger.Info("directory_client_initialized",
		slog.Int("servers", len(servers)),
		slog.Int("pool_size", config.poolSize()))

	return c, nil
}

// Close shuts down the connection pool.
func (c *Client) Close() {
	c.pool.Close()
}

// Stats returns a snapshot of the connection pool counters.
func (c *Client) Stats() PoolStats {
	return c.pool.Stats()
}

// SearchUsers returns every member whose uid or cn contains query.
func (c *Client) SearchUsers(query string) ([]User, error) {
	return c.SearchUsersContext(context.Background(), query)
}

// SearchUsersContext is SearchUsers with a caller-supplied context.
func (c *Client) SearchUsersContext(ctx context.Context, query string) ([]User, error) {
	q := ldap.EscapeFilter(query)
	return c.searchUsers(ctx, fmt.Sprintf("(|(uid=*%s*)(cn=*%s*))", q, q))
}

// GetAllUsers returns every member entry under the user subtree. This is
// an expensive, unindexed walk; prefer the keyed lookups.
func (c *Client) GetAllUsers() ([]User, error) {
	return c.GetAllUsersContext(context.Background())
}

// GetAllUsersContext is GetAllUsers with a caller-supplied context.
func (c *Client) GetAllUsersContext(ctx context.Context) ([]User, error) {
	return c.searchUsers(ctx, "(objectClass=cshMember)")
}

// GetUser returns the member with the given uid, or nil without an error
// when zero or more than one entry matches.
func (c *Client) GetUser(uid string) (*User, error) {
	return c.GetUserContext(context.Background(), uid)
}

// GetUserContext is GetUser with a caller-supplied context.
func (c *Client) GetUserContext(ctx context.Context, uid string) (*User, error) {
	return c.getOne(ctx, fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(uid)))
}

// GetUserByIButton returns the member holding the given ibutton token,
// under the same exactly-one policy as GetUser.
func (c *Client) GetUserByIButton(token string) (*User, error) {
	return c.GetUserByIButtonContext(context.Background(), token)
}

// GetUserByIButtonContext is GetUserByIButton with a caller-supplied context.
func (c *Client) GetUserByIButtonContext(ctx context.Context, token string) (*User, error) {
	return c.getOne(ctx, fmt.Sprintf("(ibutton=%s)", ldap.EscapeFilter(token)))
}

// GetUserByPhone returns the member with the given mobile number, under
// the same exactly-one policy as GetUser.
func (c *Client) GetUserByPhone(number string) (*User, error) {
	return c.GetUserByPhoneContext(context.Background(), number)
}

// GetUserByPhoneContext is GetUserByPhone with a caller-supplied context.
func (c *Client) GetUserByPhoneContext(ctx context.Context, number string) (*User, error) {
	return c.getOne(ctx, fmt.Sprintf("(mobile=%s)", ldap.EscapeFilter(number)))
}

// UpdateUser applies a sparse change set to the entry it is keyed by.
// Only present fields are touched. An empty change set still issues a
// (no-op) modify.
func (c *Client) UpdateUser(changeSet *UserChangeSet) error {
	return c.UpdateUserContext(context.Background(), changeSet)
}

// UpdateUserContext is UpdateUser with a caller-supplied context.
func (c *Client) UpdateUserContext(ctx context.Context, changeSet *UserChangeSet) error {
	return c.modify(ctx, changeSet.modifyRequest())
}

// DeactivateUser locks the account with the given DN.
func (c *Client) DeactivateUser(dn string) error {
	return c.DeactivateUserContext(context.Background(), dn)
}

// DeactivateUserContext is DeactivateUser with a caller-supplied context.
func (c *Client) DeactivateUserContext(ctx context.Context, dn string) error {
	return c.setAccountLock(ctx, dn, true)
}

// ActivateUser unlocks the account with the given DN.
func (c *Client) ActivateUser(dn string) error {
	return c.ActivateUserContext(context.Background(), dn)
}

// ActivateUserContext is ActivateUser with a caller-supplied context.
func (c *Client) ActivateUserContext(ctx context.Context, dn string) error {
	return c.setAccountLock(ctx, dn, false)
}

func (c *Client) setAccountLock(ctx context.Context, dn string, locked bool) error {
	req := ldap.NewModifyRequest(dn, nil)
	req.Replace(attrNSAccountLock, []string{strconv.FormatBool(locked)})
	return c.modify(ctx, req)
}

func (c *Client) searchUsers(ctx context.Context, filter string) ([]User, error) {
	entries, err := c.search(ctx, filter)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(entries))
	for _, entry := range entries {
		user, err := userFromEntry(entry)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

// getOne decodes the result of a keyed lookup. Zero matches is a miss;
// two or more means the key is not behaving as a unique key, and picking
// one arbitrarily would be worse than reporting no definitive match.
// Both come back as (nil, nil).
func (c *Client) getOne(ctx context.Context, filter string) (*User, error) {
	entries, err := c.search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(entries) != 1 {
		return nil, nil
	}
	return userFromEntry(entries[0])
}

func (c *Client) search(ctx context.Context, filter string) ([]*ldap.Entry, error) {
	conn, err := c.pool.Checkout(ctx)
	if err != nil {
		return nil, err
	}
	damaged := false
	defer func() { c.pool.Return(conn, damaged) }()

	result, err := conn.Search(ldap.NewSearchRequest(
		UserBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		int(readTimeLimit.Seconds()),
		false,
		filter,
		c.attributes,
		nil,
	))
	if err != nil {
		damaged = isTransportError(err)
		c.logger.Warn("search_failed",
			slog.String("filter", filter),
			slog.Bool("connection_damaged", damaged),
			slog.String("error", err.Error()))
		return nil, &SearchError{Filter: filter, Err: err}
	}

	return result.Entries, nil
}

func (c *Client) modify(ctx context.Context, req *ldap.ModifyRequest) error {
	conn, err := c.pool.Checkout(ctx)
	if err != nil {
		return err
	}
	damaged := false
	defer func() { c.pool.Return(conn, damaged) }()

	if err := conn.Modify(req); err != nil {
		damaged = isTransportError(err)
		c.logger.Warn("modify_failed",
			slog.String("dn", req.DN),
			slog.Bool("connection_damaged", damaged),
			slog.String("error", err.Error()))
		return &ModifyError{DN: req.DN, Err: err}
	}

	return nil
}

// isTransportError reports whether an operation failed at the network
// layer, in which case the connection must not be reused.
func isTransportError(err error) bool {
	return ldap.IsErrorWithCode(err, ldap.ErrorNetwork)
}
