package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Modes accepted by Validate.
const (
	ModeRun   = "run"
	ModeServe = "serve"
	ModeRuns  = "runs"
)

// Validate checks the settings a command needs. All problems are reported
// together.
func (c *Config) Validate(mode string) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch strings.ToLower(c.Store.Driver) {
	case "", "sqlite", "none":
	case "postgres":
		if c.Store.DSN == "" {
			add("store.dsn is required for the postgres driver")
		}
	default:
		add("store.driver %q is not one of sqlite, postgres, none", c.Store.Driver)
	}

	switch mode {
	case ModeRun:
		if c.Enrich.Workers < 1 || c.Enrich.Workers > 20 {
			add("enrich.workers must be between 1 and 20")
		}
		if c.Enrich.TimeoutSecs <= 0 {
			add("enrich.timeout_secs must be > 0")
		}
		if c.Reconcile.FuzzyThreshold < 0 || c.Reconcile.FuzzyThreshold > 100 {
			add("reconcile.fuzzy_threshold must be between 0 and 100")
		}
		if c.Sources.PageDelayMS < 0 {
			add("sources.page_delay_ms must be >= 0")
		}
		if c.Output.Filename == "" {
			add("output.filename is required")
		}
	case ModeServe:
		if c.Server.Port <= 0 {
			add("server.port must be > 0")
		}
		if strings.EqualFold(c.Store.Driver, "none") {
			add("serve needs a store; store.driver is none")
		}
	case ModeRuns:
		if strings.EqualFold(c.Store.Driver, "none") {
			add("runs needs a store; store.driver is none")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
