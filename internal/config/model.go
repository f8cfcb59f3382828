// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                       – dotenv values,
//   • `conf/global.yaml`                    – primary static file,
//   • `OAI_`-prefixed environment overrides – highest precedence.
//
// `Database.Password` may hold a `vault:<mount>/<path>#<key>` reference.
// cmd/web resolves it through internal/vault before opening the pool, so
// the secret never sits in a flat file.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	OAIPath      string        `koanf:"oai_path"      validate:"required,startswith=/"`
	AdminPath    string        `koanf:"admin_path"    validate:"omitempty,startswith=/"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  The *secret* (`Password`) is injected
// at runtime.
type Database struct {
	DSN             string        `koanf:"dsn"`
	Password        string        `koanf:"password"`
	MaxOpenConns    int           `koanf:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectRetries  int           `koanf:"connect_retries"   validate:"gte=0"`
	RetryBackoff    time.Duration `koanf:"retry_backoff"`
}

//
// Store section
//

// Store selects the catalogue backend.
type Store struct {
	Driver      string `koanf:"driver"       validate:"required,oneof=mysql fixture"`
	FixturePath string `koanf:"fixture_path" validate:"required_if=Driver fixture"`
}

//
// Repository section
//

// Repository is what Identify advertises.
type Repository struct {
	Name              string `koanf:"name"               validate:"required"`
	BaseURL           string `koanf:"base_url"           validate:"omitempty,url"`
	AdminEmail        string `koanf:"admin_email"        validate:"required,email"`
	EarliestDatestamp string `koanf:"earliest_datestamp"`
	// IndexIdentifiers selects the prefix-index identifier resolver
	// instead of the linear scan.
	IndexIdentifiers bool `koanf:"index_identifiers"`
}

//
// Cache, Logging, GeoIP sections
//

// Cache holds in-process cache lifetimes.
type Cache struct {
	KindsTTL time.Duration `koanf:"kinds_ttl"`
}

// Logging controls the zap cores.
type Logging struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

// GeoIP points at an optional MaxMind database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // OAI_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP       HTTP       `koanf:"http"`
	Database   Database   `koanf:"database"`
	Store      Store      `koanf:"store"`
	Repository Repository `koanf:"repository"`
	Cache      Cache      `koanf:"cache"`
	Logging    Logging    `koanf:"logging"`
	GeoIP      GeoIP      `koanf:"geoip"`
	Paths      Paths      `koanf:"-"` // not loaded from config files
}
