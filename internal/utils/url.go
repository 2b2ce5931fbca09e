package utils

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/localnerve/homespace/internal/types"
)

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// NormalizeURL canonicalizes user supplied URL text so equivalent spellings compare equal.
//
//   - surrounding whitespace is trimmed
//   - a missing scheme defaults to https
//   - scheme and host are lowercased and default ports removed
//   - the fragment is dropped, the query kept as sent
//   - trailing slashes are stripped, so a bare root path becomes empty
//
// Normalization is idempotent. Anything that is not an absolute http(s) URL with a host,
// or that carries userinfo, fails with types.ErrInvalidURL.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", types.InvalidURL("URL is required")
	}
	if !schemePrefix.MatchString(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", types.InvalidURL("Invalid URL: %s", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	defaultPort, ok := defaultPorts[scheme]
	if !ok {
		return "", types.InvalidURL("Unsupported URL scheme: %s", u.Scheme)
	}

	if u.User != nil {
		return "", types.InvalidURL("URL must not contain credentials")
	}

	host := strings.ToLower(u.Hostname())
	if host == "" || strings.ContainsAny(host, " \t") {
		return "", types.InvalidURL("URL host is required")
	}
	port := u.Port()
	if port != "" && port != defaultPort {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		// bare IPv6 literal
		host = "[" + host + "]"
	}

	// Trim on the escaped form so an encoded %2F stays part of the path
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return "", types.InvalidURL("Invalid URL path: %s", raw)
	}

	out := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     path,
		RawPath:  escaped,
		RawQuery: u.RawQuery,
	}
	return out.String(), nil
}

// IsValidURL reports whether raw normalizes without error.
func IsValidURL(raw string) bool {
	_, err := NormalizeURL(raw)
	return err == nil
}
