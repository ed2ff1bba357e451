package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNS classes reported by DNSDiagnoser.
const (
	DNSResolves   = "RESOLVES"
	DNSNXDomain   = "NXDOMAIN"
	DNSNoARecord  = "NO_A_RECORD"
	DNSServfail   = "SERVFAIL_or_TIMEOUT"
	DNSInvalidArg = "INVALID_NAME"
)

// DNSReport explains why a host does or does not resolve. It is produced on
// demand and is never part of a status check.
type DNSReport struct {
	Host          string   `json:"host"`
	Class         string   `json:"class"`
	IPs           []string `json:"ips,omitempty"`
	CNAME         string   `json:"cname,omitempty"`
	Nameservers   []string `json:"nameservers,omitempty"`
	ResolverError string   `json:"resolver_error,omitempty"`
}

// Resolver is the subset of *net.Resolver the diagnoser needs.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

type DNSDiagnoser struct {
	Resolver Resolver
	Timeout  time.Duration
}

func NewDNSDiagnoser(timeout time.Duration) *DNSDiagnoser {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DNSDiagnoser{Resolver: net.DefaultResolver, Timeout: timeout}
}

// Diagnose resolves the host of target (a URL or a bare host name).
func (d *DNSDiagnoser) Diagnose(ctx context.Context, target string) DNSReport {
	rep := DNSReport{Host: HostOf(target)}
	if rep.Host == "" || strings.Contains(rep.Host, "/") {
		rep.Class = DNSInvalidArg
		return rep
	}

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	ips, err := d.Resolver.LookupIPAddr(ctx, rep.Host)
	switch {
	case err == nil && len(ips) > 0:
		for _, ip := range ips {
			rep.IPs = append(rep.IPs, ip.String())
		}
		rep.Class = DNSResolves
	case err != nil:
		rep.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				rep.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				rep.Class = DNSServfail
			}
		}
	}

	if cname, err := d.Resolver.LookupCNAME(ctx, rep.Host); err == nil && !strings.EqualFold(cname, rep.Host+".") {
		rep.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := d.Resolver.LookupNS(ctx, rep.Host); err == nil && len(ns) > 0 {
		for _, n := range ns {
			rep.Nameservers = append(rep.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if rep.Class == DNSNXDomain {
			rep.Class = DNSNoARecord
		}
	}

	if rep.Class == "" {
		switch {
		case len(rep.Nameservers) > 0:
			rep.Class = DNSNoARecord
		case rep.ResolverError != "":
			rep.Class = DNSServfail
		default:
			rep.Class = DNSNXDomain
		}
	}
	return rep
}

// HostOf returns the host name of a URL, or the trimmed input when it does
// not parse as one.
func HostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
