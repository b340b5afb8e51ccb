package config

import "strings"

// CORSConfig gates the HTTP API to an allow-list of origins. An origin is
// accepted on exact match or when it shares a root domain (the last two
// dot-separated labels) with an allowed origin. A dev key header can bypass
// origin checks for local development.
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
	DevKey         string   `toml:"dev_key"`
}

// Enabled reports whether any gating is configured.
func (c CORSConfig) Enabled() bool {
	return len(c.AllowedOrigins) > 0 || c.DevKey != ""
}

// IsOriginAllowed checks an origin against the allow-list.
func (c CORSConfig) IsOriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return false
	}

	originRoot := rootDomain(extractDomain(origin))

	for _, allowed := range c.AllowedOrigins {
		if origin == allowed {
			return true
		}
		allowedRoot := rootDomain(extractDomain(allowed))
		if originRoot != "" && originRoot == allowedRoot {
			return true
		}
	}
	return false
}

// IsDevKeyValid reports whether the request key matches the configured one.
func (c CORSConfig) IsDevKeyValid(key string) bool {
	return c.DevKey != "" && key == c.DevKey
}

// extractDomain strips the scheme, path, and port from a URL.
func extractDomain(url string) string {
	s := strings.TrimPrefix(url, "https://")
	s = strings.TrimPrefix(s, "http://")
	s, _, _ = strings.Cut(s, "/")
	s, _, _ = strings.Cut(s, ":")
	return s
}

// rootDomain returns the last two labels of a domain, or "" for a
// single-label host like localhost.
func rootDomain(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2] + "." + parts[len(parts)-1]
}
