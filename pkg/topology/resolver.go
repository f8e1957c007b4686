package topology

import (
	"context"
	"errors"
	"net"
	"sort"
)

// Resolver looks up the addresses of a host
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DefaultResolver returns the resolver of the host
func DefaultResolver() Resolver {
	return net.DefaultResolver
}

// Resolve returns the address of hostname. IP literals are returned unchanged.
// Otherwise the first IPv4 address of the sorted lookup result is preferred, so
// the same address is returned as long as DNS does not change.
func Resolve(ctx context.Context, resolver Resolver, hostname string) (string, error) {
	if ip := net.ParseIP(hostname); ip != nil {
		return ip.String(), nil
	}

	addrs, err := resolver.LookupHost(ctx, hostname)
	if err != nil {
		return "", err
	}

	if len(addrs) == 0 {
		return "", &net.DNSError{Err: "no addresses found", Name: hostname, IsNotFound: true}
	}

	sort.Strings(addrs)
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a, nil
		}
	}

	return addrs[0], nil
}

// StaticResolver resolves hosts from a fixed table. Hosts not in the table fail
// with a not found DNS error.
type StaticResolver map[string][]string

// LookupHost implements Resolver
func (r StaticResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	addrs, found := r[host]
	if !found {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}

	return append([]string(nil), addrs...), nil
}

// IsNotFound returns true if the error reports an unknown host
func IsNotFound(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsNotFound
}
