package cshldap

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolClosed is returned when checking out from a closed connection pool.
	ErrPoolClosed = errors.New("cshldap: connection pool is closed")
	// ErrPoolExhausted is returned when the caller's deadline expires while
	// waiting for a pooled connection to become available.
	ErrPoolExhausted = errors.New("cshldap: connection pool exhausted")
	// ErrNoServers is returned when SRV resolution succeeds but yields no records.
	ErrNoServers = errors.New("cshldap: no directory servers discovered")
	// ErrMissingAttribute is returned, wrapped in a DecodeError, when a
	// required attribute is absent from a directory entry.
	ErrMissingAttribute = errors.New("cshldap: required attribute missing")
)

// DiscoveryError reports a failed SRV lookup for the directory service.
// It is fatal to client construction: without candidate servers no pool
// can be built.
type DiscoveryError struct {
	// Service is the SRV name that was looked up, e.g. "_ldap._tcp.csh.rit.edu".
	Service string
	Err     error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("cshldap: discovery of %s failed: %v", e.Service, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ConnectError reports a failed connection attempt to a single directory
// server: either the dial or the simple bind was rejected. It fails the
// checkout that triggered the creation; a later checkout picks a fresh
// random server on its own creation path.
type ConnectError struct {
	// Server is the URI of the server that was tried.
	Server string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cshldap: connect to %s failed: %v", e.Server, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SearchError reports a failed directory search.
type SearchError struct {
	// Filter is the filter string of the failed search.
	Filter string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("cshldap: search %s failed: %v", e.Filter, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// ModifyError reports a failed modify operation.
type ModifyError struct {
	// DN is the distinguished name of the entry the modify addressed.
	DN  string
	Err error
}

func (e *ModifyError) Error() string {
	return fmt.Sprintf("cshldap: modify of %s failed: %v", e.DN, e.Err)
}

func (e *ModifyError) Unwrap() error { return e.Err }

// DecodeError reports an entry that was retrieved successfully but could
// not be decoded into a User because a required attribute is missing or
// unparsable.
type DecodeError struct {
	// DN identifies the malformed entry.
	DN string
	// Attribute is the attribute that failed to decode.
	Attribute string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cshldap: decoding %s of entry %s failed: %v", e.Attribute, e.DN, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
