package cshldap

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	records []*net.SRV
	err     error

	service string
	proto   string
	name    string
}

func (r *fakeResolver) LookupSRV(_ context.Context, service, proto, name string) (string, []*net.SRV, error) {
	r.service = service
	r.proto = proto
	r.name = name
	if r.err != nil {
		return "", nil, r.err
	}
	return "_" + service + "._" + proto + "." + name, r.records, nil
}

func TestDiscoverServers(t *testing.T) {
	resolver := &fakeResolver{
		records: []*net.SRV{
			{Target: "stone.csh.rit.edu.", Port: 636},
			{Target: "bronze.csh.rit.edu.", Port: 636},
		},
	}

	servers, err := discoverServers(context.Background(), resolver)
	require.NoError(t, err)

	// One ldaps URI per record, trailing root dot stripped, order kept.
	assert.Equal(t, []string{"ldaps://stone.csh.rit.edu", "ldaps://bronze.csh.rit.edu"}, servers)
	assert.Equal(t, "ldap", resolver.service)
	assert.Equal(t, "tcp", resolver.proto)
	assert.Equal(t, "csh.rit.edu", resolver.name)
}

func TestDiscoverServersTargetWithoutTrailingDot(t *testing.T) {
	resolver := &fakeResolver{
		records: []*net.SRV{{Target: "stone.csh.rit.edu", Port: 636}},
	}

	servers, err := discoverServers(context.Background(), resolver)
	require.NoError(t, err)
	assert.Equal(t, []string{"ldaps://stone.csh.rit.edu"}, servers)
}

func TestDiscoverServersLookupError(t *testing.T) {
	lookupErr := errors.New("NXDOMAIN")
	resolver := &fakeResolver{err: lookupErr}

	servers, err := discoverServers(context.Background(), resolver)
	assert.Nil(t, servers)

	var discoveryErr *DiscoveryError
	require.ErrorAs(t, err, &discoveryErr)
	assert.Equal(t, "_ldap._tcp.csh.rit.edu", discoveryErr.Service)
	assert.True(t, errors.Is(err, lookupErr))
}

func TestDiscoverServersNoRecords(t *testing.T) {
	resolver := &fakeResolver{}

	servers, err := discoverServers(context.Background(), resolver)
	assert.Nil(t, servers)
	assert.True(t, errors.Is(err, ErrNoServers))

	var discoveryErr *DiscoveryError
	assert.ErrorAs(t, err, &discoveryErr)
}
