package probe

import "strings"

// HostAdjuster rewrites the configured host once, when an observation
// stream starts. Single-shot checks use the host as given.
type HostAdjuster func(host string) string

// Identity returns host unchanged.
func Identity(host string) string { return host }

// StripScheme turns a URL such as "https://example.com/path" into the bare
// host "example.com", which is what a TCP dial needs.
func StripScheme(host string) string {
	for _, prefix := range []string{"http://", "https://"} {
		if len(host) >= len(prefix) && strings.EqualFold(host[:len(prefix)], prefix) {
			host = host[len(prefix):]
			break
		}
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	return host
}

// EnsureScheme prefixes scheme:// when host carries no scheme yet.
func EnsureScheme(scheme string) HostAdjuster {
	return func(host string) string {
		if strings.Contains(host, "://") {
			return host
		}
		return scheme + "://" + host
	}
}
