// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/hamed0406/sitewatch/internal/config"
)

func main() {
	_ = godotenv.Load()
	if err := preflight(config.FromEnv(), os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// preflight prints one line per check and returns the failures.
func preflight(cfg config.Config, stdout, stderr io.Writer) error {
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	err := cfg.Validate()
	for _, e := range multierr.Errors(err) {
		fmt.Fprintln(stderr, "✖", e)
	}

	ok("ADDR=" + cfg.Addr)
	if cfg.ProbeTimeout > 0 {
		ok(fmt.Sprintf("PROBE_TIMEOUT_MS=%d", cfg.ProbeTimeout.Milliseconds()))
	}
	if cfg.CheckInterval == 0 {
		warn("CHECK_INTERVAL_MS=0; background rechecker disabled, /api/status/latest reports every endpoint as unknown.")
	} else if cfg.CheckInterval > 0 {
		ok(fmt.Sprintf("CHECK_INTERVAL_MS=%d", cfg.CheckInterval.Milliseconds()))
		if cfg.ProbeTimeout > cfg.CheckInterval {
			warn("PROBE_TIMEOUT_MS exceeds CHECK_INTERVAL_MS; passes will overlap ticks.")
		}
	}
	if cfg.MaxConcurrency > 0 {
		warn(fmt.Sprintf("MAX_CONCURRENT_CHECKS=%d; a status pass can take longer than one probe timeout.", cfg.MaxConcurrency))
	}

	switch cfg.Storage() {
	case "postgres":
		ok("DATABASE_URL present (postgres)")
		if cfg.SQLitePath != "" {
			warn("SQLITE_PATH ignored because DATABASE_URL is set.")
		}
	case "sqlite":
		ok("SQLITE_PATH=" + cfg.SQLitePath)
	default:
		warn("DATABASE_URL and SQLITE_PATH empty; endpoints live in memory and are lost on restart.")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; CORS allows every origin.")
	} else {
		ok(fmt.Sprintf("ALLOWED_ORIGINS=%v", cfg.AllowedOrigins))
	}

	if len(cfg.TrustedProxies) == 0 {
		ok("TRUSTED_PROXIES empty; rate limits key on the TCP peer address")
	} else {
		ok(fmt.Sprintf("TRUSTED_PROXIES=%v", cfg.TrustedProxies))
	}

	if cfg.SeedFile != "" {
		if eps, serr := config.LoadSeed(cfg.SeedFile); serr != nil {
			fmt.Fprintln(stderr, "✖", serr)
			err = multierr.Append(err, serr)
		} else {
			ok(fmt.Sprintf("SEED_FILE=%s (%d endpoints)", cfg.SeedFile, len(eps)))
		}
	}

	if err != nil {
		return err
	}
	ok("preflight passed")
	return nil
}
