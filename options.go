package cshldap

import (
	"crypto/tls"
	"log/slog"

	"github.com/go-ldap/ldap/v3"
)

// Option represents a functional option for configuring a Client.
type Option func(*Client)

// WithLogger sets a custom structured logger for directory operations.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	client, err := cshldap.New(&config, cshldap.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithResolver sets the resolver used for SRV server discovery. Defaults
// to net.DefaultResolver.
func WithResolver(resolver SRVResolver) Option {
	return func(c *Client) {
		if resolver != nil {
			c.resolver = resolver
		}
	}
}

// WithTLS adds a TLS configuration to the dial options.
//
// Example:
//
//	client, err := cshldap.New(&config, cshldap.WithTLS(&tls.Config{
//		ServerName: "ldap.csh.rit.edu",
//	}))
func WithTLS(tlsConfig *tls.Config) Option {
	return func(c *Client) {
		if tlsConfig != nil {
			c.config.DialOptions = append(c.config.DialOptions, ldap.DialWithTLSConfig(tlsConfig))
		}
	}
}

// WithAttributes overrides the attribute set requested on every search.
func WithAttributes(attributes []string) Option {
	return func(c *Client) {
		if len(attributes) > 0 {
			c.attributes = attributes
		}
	}
}
