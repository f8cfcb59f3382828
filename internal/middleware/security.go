// internal/middleware/security.go
//
// Response-header middleware.
//
// Injects security headers on every response:
//
//   • X-Content-Type-Options  –  MIME-sniffing defence
//   • X-Frame-Options         –  click-jacking defence
//   • Referrer-Policy         –  drops path/query from Referer
//   • Strict-Transport-Security, only on requests that arrived over TLS
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP.  The OAI handler writes its
//   status line immediately, so anything added afterwards would be lost.
// • Handlers may still overwrite a value before they write.
// • Oxford commas, two spaces after periods.

package middleware

import "net/http"

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		hsts  = "max-age=63072000; includeSubDomains"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", nosn)
		h.Set("X-Frame-Options", xfo)
		h.Set("Referrer-Policy", refer)
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}
