// internal/server/timeouts.go
//
// HTTP server helper with explicit timeouts.
//
//   • ReadTimeout   – abort slow-loris headers
//   • WriteTimeout  – cap total response time; ListRecords over a large
//                     catalogue streams for a while, so keep this generous
//   • IdleTimeout   – close keep-alives on idle clients
//
// Zero values fall back to the defaults below.

package server

import (
	"net/http"
	"time"
)

// Timeouts groups the three server timeouts.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// Defaults used for zero Timeouts fields.
var Defaults = Timeouts{
	Read:  10 * time.Second,
	Write: 60 * time.Second,
	Idle:  60 * time.Second,
}

// New constructs an *http.Server.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	if t.Read == 0 {
		t.Read = Defaults.Read
	}
	if t.Write == 0 {
		t.Write = Defaults.Write
	}
	if t.Idle == 0 {
		t.Idle = Defaults.Idle
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       t.Read,
		ReadHeaderTimeout: t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}
