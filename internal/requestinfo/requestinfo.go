//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request harvester
//  metadata (user-agent class, IP and country, timestamp).  The struct is
//  inert, so it is safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"

	"github.com/yanizio/oaipmh/internal/cache"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// RequestInfo describes the harvester behind one request.  Geo fields are
// best-effort and empty when no GeoIP database is loaded.
type RequestInfo struct {
	IP         string
	CountryISO string // "US", "DE", ...
	Agent      string // raw User-Agent header
	Browser    string // "Chrome", "GoogleBot", ...
	OS         string
	IsBot      bool
	Timestamp  time.Time
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// agents memoises User-Agent classes by raw header.
var agents = cache.New[string, agentClass](1024)

type agentClass struct {
	browser, os string
	bot         bool
}

// geoReader is a singleton MaxMind handle, safe for concurrent reads.
var geoReader *geoip2.Reader

// InitGeo opens a GeoLite2 Country or City database.  Without it the
// middleware still runs and leaves CountryISO empty.
func InitGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return fmt.Errorf("requestinfo: open geoip db: %w", err)
	}
	geoReader = r
	return nil
}

// CloseGeo releases the GeoIP handle opened by InitGeo.
func CloseGeo() {
	if geoReader != nil {
		_ = geoReader.Close()
		geoReader = nil
	}
}

type ctxKey struct{}

// FromContext returns the pointer previously stored by Enrich, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// classify fills the UA fields from the raw header.
func classify(info *RequestInfo, header string) {
	info.Agent = header
	c, ok := agents.Get(header)
	if !ok {
		u := uasurfer.Parse(header)
		c = agentClass{
			browser: u.Browser.Name.StringTrimPrefix(),
			os:      u.OS.Name.StringTrimPrefix(),
			bot:     u.IsBot(),
		}
		agents.Add(header, c)
	}
	info.Browser, info.OS, info.IsBot = c.browser, c.os, c.bot
}

// lookupCountry returns the ISO country code for ip, or "".
func lookupCountry(ip net.IP) string {
	if geoReader == nil || ip == nil {
		return ""
	}
	rec, err := geoReader.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}
