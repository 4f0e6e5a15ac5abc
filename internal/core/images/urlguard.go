package images

import (
	"fmt"
	"net/url"
	"strings"
)

// blockedHostPatterns rejects hosts containing loopback, RFC 1918 private
// and RFC 3927 link-local prefixes. Substring matching is deliberate: it is
// a defense-in-depth blocklist, not a resolver.
var blockedHostPatterns = []string{
	"localhost",
	"127.",
	"0.0.0.0",
	"10.",
	"172.16.",
	"172.17.",
	"172.18.",
	"172.19.",
	"172.20.",
	"172.21.",
	"192.168.",
	"169.254.",
}

// blockedHostnames are cloud metadata endpoints, matched exactly.
var blockedHostnames = []string{
	"metadata.google.internal",
	"169.254.169.254",
	"metadata.azure.internal",
	"metadata.platformequinix.com",
}

// blockedPorts are well-known non-HTTP service ports.
var blockedPorts = []string{"22", "23", "25", "445", "3306", "5432", "27017"}

// ValidateURL parses a candidate ingest URL and rejects anything that could
// reach internal or metadata network endpoints.
//
// This guard matches hostnames as strings and does not resolve DNS, so a
// public hostname resolving to a private address (DNS rebinding) bypasses
// it. Callers must not treat it as a complete SSRF defense.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only HTTP(S) URLs are supported", ErrInvalidURL)
	}

	host := u.Hostname()
	for _, pattern := range blockedHostPatterns {
		if strings.Contains(host, pattern) {
			return nil, fmt.Errorf("%w: host contains blocked pattern %q", ErrInvalidURL, pattern)
		}
	}

	for _, blocked := range blockedHostnames {
		if strings.EqualFold(host, blocked) {
			return nil, fmt.Errorf("%w: host %q is blocked", ErrInvalidURL, blocked)
		}
	}

	if port := u.Port(); port != "" {
		for _, blocked := range blockedPorts {
			if port == blocked {
				return nil, fmt.Errorf("%w: port %s is not allowed", ErrInvalidURL, port)
			}
		}
	}

	return u, nil
}
