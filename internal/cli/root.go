// Package cli provides the idxadvisor command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/idxadvisor/idxadvisor/internal/config"
	"github.com/idxadvisor/idxadvisor/internal/dialect"
	"github.com/idxadvisor/idxadvisor/internal/engine"
	"github.com/idxadvisor/idxadvisor/internal/errors"
	"github.com/idxadvisor/idxadvisor/internal/logging"
	"github.com/idxadvisor/idxadvisor/internal/store"
)

// version is the current application version, set at build time.
var version = "0.1.0"

// Exit codes for different error conditions.
const (
	exitSuccess    = 0
	exitUsageError = 1
	exitRunError   = 2
	exitLocked     = 3
)

// Persistent flags shared by every command.
var (
	flagConfig  string
	flagURL     string
	flagDialect string
	flagTimeout time.Duration
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "idxadvisor",
	Short: "Empirical SQL index advisor",
	Long: `idxadvisor infers index candidates from the database server's own
statement capture, creates the qualified ones, and keeps only those the
server's runtime plan statistics show an improvement for. It also audits
existing indexes for duplicates and redundancy and watches auto-increment
primary keys for exhaustion.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to YAML config file")
	pf.StringVar(&flagURL, "url", "", "Database connection string (overrides config and environment)")
	pf.StringVar(&flagDialect, "dialect", "", "Database dialect: mariadb or postgres")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Overall timeout for the operation")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the CLI and returns the process exit code.
//
// EXIT CODES:
//   - 0: Success
//   - 1: Configuration/usage error
//   - 2: Run error (connection, catalog, or pipeline failure)
//   - 3: Another invocation holds the pipeline lock
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case errors.Is(err, errors.ErrLockHeld):
			return exitLocked
		case errors.Is(err, errors.ErrInvalidConfig), errors.Is(err, errors.ErrUnknownDialect):
			return exitUsageError
		default:
			return exitRunError
		}
	}
	return exitSuccess
}

// env bundles everything a command run needs.
type env struct {
	cfg config.Config
	log *slog.Logger
	st  *store.Store
	eng *engine.Engine
}

// setup loads configuration, applies flag overrides, and connects.
// The returned cleanup closes the store and flushes logs.
func setup() (*env, func(), error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	if flagURL != "" {
		cfg.URL = flagURL
	}
	if flagDialect != "" {
		cfg.Dialect = flagDialect
	}
	if flagTimeout != 0 {
		cfg.Timeout = flagTimeout
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, flushLogs := logging.Setup(cfg.Logging)

	d, err := dialect.For(cfg.Dialect)
	if err != nil {
		flushLogs()
		return nil, nil, err
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	st, err := store.Connect(connectCtx, d, cfg.URL)
	if err != nil {
		flushLogs()
		return nil, nil, err
	}

	e := &env{
		cfg: cfg,
		log: log,
		st:  st,
		eng: engine.New(st, log, cfg.LockPath),
	}
	cleanup := func() {
		st.Close()
		flushLogs()
	}
	return e, cleanup, nil
}

// opTimeout returns a context bounded by the configured timeout.
func opTimeout(cfg config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Timeout)
}
