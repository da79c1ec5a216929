package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNSClass summarises how a probe host resolves.
type DNSClass string

const (
	DNSResolves    DNSClass = "RESOLVES"
	DNSNXDomain    DNSClass = "NXDOMAIN"
	DNSNoARecord   DNSClass = "NO_A_RECORD"
	DNSServfail    DNSClass = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName DNSClass = "INVALID_NAME"
)

var dnsTimeout = 3 * time.Second

// DNSStatus is a diagnostic snapshot used to explain a failed probe.
type DNSStatus struct {
	Domain        string   `json:"domain" yaml:"domain"`
	HasAOrAAAA    bool     `json:"has_a_or_aaaa" yaml:"has_a_or_aaaa"`
	IPs           []net.IP `json:"ips,omitempty" yaml:"ips,omitempty"`
	CNAME         string   `json:"cname,omitempty" yaml:"cname,omitempty"`
	HasNS         bool     `json:"has_ns" yaml:"has_ns"`
	Nameservers   []string `json:"nameservers,omitempty" yaml:"nameservers,omitempty"`
	Class         DNSClass `json:"class" yaml:"class"`
	ResolverError string   `json:"resolver_error,omitempty" yaml:"resolver_error,omitempty"`
}

var dnsResolver = &net.Resolver{} // OS resolver

// CheckDNS classifies target, which may be a bare host or a probe URL.
func CheckDNS(ctx context.Context, target string) DNSStatus {
	s := DNSStatus{Domain: HostOf(target)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") || strings.ContainsAny(s.Domain, " /") {
		s.Class = DNSInvalidName
		return s
	}
	if ip := net.ParseIP(s.Domain); ip != nil {
		s.HasAOrAAAA = true
		s.IPs = []net.IP{ip}
		s.Class = DNSResolves
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, err := dnsResolver.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.HasAOrAAAA = true
		s.IPs = ips
		s.Class = DNSResolves
	} else if err != nil {
		var de *net.DNSError
		s.ResolverError = err.Error()
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServfail
			}
		}
	}

	if cname, err := dnsResolver.LookupCNAME(ctx, s.Domain); err == nil && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := dnsResolver.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		s.HasNS = true
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if s.Class == DNSNXDomain {
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		switch {
		case s.HasAOrAAAA:
			s.Class = DNSResolves
		case s.HasNS:
			s.Class = DNSNoARecord
		case s.ResolverError != "":
			s.Class = DNSServfail
		default:
			s.Class = DNSNXDomain
		}
	}
	return s
}

// HostOf pulls the hostname out of a URL; anything that does not parse as
// one is returned trimmed.
func HostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
