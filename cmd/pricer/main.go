// Command pricer calculates and applies product prices from a base cost in
// the reference currency.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/pricesetter/backend/internal/infrastructure/config"
	"github.com/pricesetter/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage")

// globalOptions are the flags accepted before the command name
type globalOptions struct {
	configDir string
	logLevel  string
	jsonOut   bool
	journal   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pricer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	var opts globalOptions
	fs.StringVar(&opts.configDir, "config", "", "Directory holding config.toml (default: . and /etc/price-setter)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level override: debug, info, warn, error")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")
	fs.StringVar(&opts.journal, "journal", "", "Append published domain events to this file as JSON lines")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return exitUsage
	}
	name, cmdArgs := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "pricer: unknown command %q\n\n", name)
		printUsage(stderr)
		return exitUsage
	}

	cfg, err := loadConfig(opts.configDir)
	if err != nil {
		fmt.Fprintf(stderr, "pricer: failed to load configuration: %v\n", err)
		return exitFailure
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		fmt.Fprintf(stderr, "pricer: failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = log.Sync() }()

	ctx, log = logger.WithRunID(ctx, log, uuid.NewString())
	log.Debug("pricer started",
		zap.String("command", name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
	)

	a, err := newApp(ctx, cfg, log, opts, stdout, stderr)
	if err != nil {
		log.Error("failed to start", zap.Error(err))
		return exitFailure
	}
	defer a.close(context.WithoutCancel(ctx))

	if err := cmd.run(ctx, a, cmdArgs); err != nil {
		return reportError(stderr, log, name, err)
	}
	return exitOK
}

func loadConfig(dir string) (*config.Config, error) {
	if dir == "" {
		return config.Load()
	}
	return config.LoadFrom(dir)
}

// reportError prints a one-line message and maps the error to an exit code
func reportError(stderr io.Writer, log *zap.Logger, name string, err error) int {
	// a bare errUsage was already reported by the flag set
	if errors.Is(err, flag.ErrHelp) || err == errUsage {
		return exitUsage
	}
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "pricer %s: %v\n", name, err)
		return exitUsage
	}

	// domain errors go to the user only
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		log.Error("command failed", zap.String("command", name), zap.Error(err))
	}
	fmt.Fprintf(stderr, "pricer %s: %v\n", name, err)
	return exitFailure
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Price setter

Usage:
  pricer [flags] <command> [command flags]

Commands:
  dry-run          Calculate prices and print the stage log; nothing is written
  apply            Calculate prices, write them to the product and record the run
  recalculate      Re-apply the stored base price of every priced product
  list             List priced products with their latest base price
  history          Show the recorded runs of one product
  clear            Forget the base price of a product
  settings         Show the effective pricing settings
  settings-set     Change settings: settings-set key=value [key=value ...]
  settings-reset   Drop stored settings and fall back to the defaults

Flags:
  -config string     Directory holding config.toml
  -log-level string  Log level override: debug, info, warn, error
  -json              Print results as JSON
  -journal string    Append published domain events to this file

Environment Variables:
  WAPS_DATABASE_DRIVER, WAPS_DATABASE_HOST, WAPS_DATABASE_PATH, WAPS_REDIS_HOST,
  WAPS_PRICING_DEFAULTS_DOLLAR_RATE, ...

Examples:
  pricer dry-run -price 12.5 -weight 800 -weight-unit g
  pricer apply -product 5f0c... -price 12.5 -regular 990 -sale 890
  pricer settings-set dollar_rate=41,5 whole_mark_1_mark=1.3
`)
}
