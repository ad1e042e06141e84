package security

import (
	"net/http"
	"strings"
)

// SetHeaders applies response headers appropriate for a JSON API.
func SetHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
}

// Probe reports whether the request looks like scanner traffic probing
// for other software. Matches are logged by the caller, never blocked:
// the patterns are too coarse to refuse service on.
func Probe(r *http.Request) bool {
	patterns := []string{
		"../", "..\\", ".env", ".git", ".ssh",
		"wp-admin", "phpmyadmin", "config.php",
		"etc/passwd", "cmd.exe",
	}

	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, p := range patterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return true
		}
	}
	return len(r.URL.String()) > 2048
}
