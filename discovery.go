package cshldap

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// SRVResolver resolves DNS SRV records. *net.Resolver satisfies it; tests
// and split-horizon deployments can substitute their own.
type SRVResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// discoverServers resolves the candidate directory servers from the
// well-known SRV record and turns each target into an ldaps URI. The list
// is returned as-is: no ranking, dedup, or reachability probing. Liveness
// is established lazily by connection attempts, and dead servers are
// weeded out by the pool's recycle-time health checks.
func discoverServers(ctx context.Context, resolver SRVResolver) ([]string, error) {
	service := fmt.Sprintf("_%s._%s.%s", srvService, srvProto, srvDomain)

	_, records, err := resolver.LookupSRV(ctx, srvService, srvProto, srvDomain)
	if err != nil {
		return nil, &DiscoveryError{Service: service, Err: err}
	}
	if len(records) == 0 {
		return nil, &DiscoveryError{Service: service, Err: ErrNoServers}
	}

	servers := make([]string, 0, len(records))
	for _, record := range records {
		host := strings.TrimSuffix(record.Target, ".")
		servers = append(servers, "ldaps://"+host)
	}

	return servers, nil
}
