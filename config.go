package cshldap

import (
	"log/slog"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Directory constants for the CSH FreeIPA deployment. The search base and
// scope are fixed: every operation targets the member subtree.
const (
	// UserBaseDN is the subtree all searches are rooted at.
	UserBaseDN = "cn=users,cn=accounts,dc=csh,dc=rit,dc=edu"
	// GroupBaseDN is the subtree group memberships are matched against.
	GroupBaseDN = "cn=groups,cn=accounts,dc=csh,dc=rit,dc=edu"

	srvService = "ldap"
	srvProto   = "tcp"
	srvDomain  = "csh.rit.edu"

	defaultPoolSize    = 5
	defaultDialTimeout = 10 * time.Second
	// readTimeLimit bounds every search at the protocol level. A search
	// hitting the limit fails that call; the connection stays usable.
	readTimeLimit = 5 * time.Second
)

// defaultUserAttributes is the attribute set requested on every search.
var defaultUserAttributes = []string{
	attrCN,
	attrUID,
	attrMemberOf,
	attrKrbPrincipalName,
	attrMail,
	attrMobile,
	attrIButton,
	attrDrinkBalance,
}

// Config contains the configuration for the directory client.
type Config struct {
	// BindDN and BindPassword are the shared service credential used for
	// the simple bind on every pooled connection.
	BindDN       string
	BindPassword string

	// Servers is an optional static list of directory URIs. When set, SRV
	// discovery is skipped. When empty, servers are resolved once at
	// construction from the well-known SRV record; re-resolution requires
	// constructing a new client.
	Servers []string

	// PoolSize bounds the number of concurrently outstanding connections.
	// Defaults to 5.
	PoolSize int

	// DialTimeout is the timeout for establishing new connections.
	// Defaults to 10s.
	DialTimeout time.Duration

	// Attributes is the attribute set requested per search. Defaults to
	// the full user-record set.
	Attributes []string

	// Logger receives structured operational events. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// DialOptions are passed through to ldap.DialURL.
	DialOptions []ldap.DialOpt
}

func (c *Config) poolSize() int {
	if c.PoolSize > 0 {
		return c.PoolSize
	}
	return defaultPoolSize
}

func (c *Config) dialTimeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return defaultDialTimeout
}

func (c *Config) attributes() []string {
	if len(c.Attributes) > 0 {
		return c.Attributes
	}
	return defaultUserAttributes
}
