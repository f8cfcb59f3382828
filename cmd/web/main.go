// cmd/web/main.go
//
// OAI-PMH repository – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load layered configuration (.env → conf/global.yaml → OAI_ env).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Open the catalogue: MySQL (password resolved through Vault when it
//     is a vault: reference) or the YAML fixture store.
//
//  4. Wrap the kind list in the TTL cache, build the selector and the
//     identifier resolver.
//
//  5. Mount /oai, the admin API, /metrics, and /healthz behind the
//     middleware chain.
//
//  6. Serve until SIGINT / SIGTERM, then drain for up to ten seconds.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/config"
	"github.com/yanizio/oaipmh/internal/database"
	"github.com/yanizio/oaipmh/internal/logger"
	"github.com/yanizio/oaipmh/internal/requestinfo"
	"github.com/yanizio/oaipmh/internal/server"
	"github.com/yanizio/oaipmh/internal/store"
	"github.com/yanizio/oaipmh/internal/store/fixture"
	"github.com/yanizio/oaipmh/internal/vault"
)

const shutdownGrace = 10 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Logging.Dir, cfg.Logging.Level, cfg.Logging.Tee || runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync() //nolint:errcheck
	zl := logOut.Desugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Catalogue ───────────────────────────────────────────────────
	//
	cat, closeStore, err := openStore(ctx, cfg, zl)
	if err != nil {
		logOut.Fatalw("open catalogue", "driver", cfg.Store.Driver, "err", err)
	}
	defer closeStore()
	logOut.Infow("catalogue online", "driver", cfg.Store.Driver)

	//
	// ── 2.  Optional GeoIP database ─────────────────────────────────────
	//
	if cfg.GeoIP.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.GeoIP.DBPath); err != nil {
			logOut.Warnw("geoip disabled", "err", err)
		} else {
			defer requestinfo.CloseGeo()
		}
	}

	//
	// ── 3.  HTTP surface ────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, newRouter(cfg, cat, zl), server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr, "oai_path", cfg.HTTP.OAIPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logOut.Fatalw("http server", "err", err)
		}
	case <-ctx.Done():
		logOut.Infow("shutting down", "grace", shutdownGrace)
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logOut.Errorw("graceful shutdown failed", "err", err)
		}
	}
}

// catalogue is what the router needs from a backend.
type catalogue interface {
	catalog.Store
	Ping(ctx context.Context) error
}

// openStore builds the configured backend and its close function.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalogue, func(), error) {
	if cfg.Store.Driver == "fixture" {
		path := cfg.Store.FixturePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Paths.Root, path)
		}
		st, err := fixture.Load(path)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	}

	password := cfg.Database.Password
	if vault.IsRef(password) {
		cli, err := vault.New()
		if err != nil {
			return nil, nil, err
		}
		if password, err = cli.Resolve(ctx, password); err != nil {
			return nil, nil, err
		}
		log.Info("database password resolved from vault")
	}
	dsn, err := database.WithPassword(cfg.Database.DSN, password)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.OpenWithOptions(ctx, dsn, database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Retries:         cfg.Database.ConnectRetries,
		RetryBackoff:    cfg.Database.RetryBackoff,
	})
	if err != nil {
		return nil, nil, err
	}
	return store.New(db, log), func() { db.Close() }, nil
}
