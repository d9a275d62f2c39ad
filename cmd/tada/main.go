package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada-client/internal/api"
	"github.com/Makepad-fr/tada-client/internal/auth"
	"github.com/Makepad-fr/tada-client/internal/cli"
	"github.com/Makepad-fr/tada-client/internal/config"
	"github.com/Makepad-fr/tada-client/internal/logging"
	"github.com/Makepad-fr/tada-client/internal/tui"
	"github.com/Makepad-fr/tada-client/internal/ui"
)

func main() {
	flag.CommandLine.Usage = func() { cli.PrintHelp(os.Stderr) }

	// Root flags (apply to every subcommand)
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "tada:", err)
		os.Exit(2)
	}
	os.Exit(run(cfg, flag.Args()))
}

func run(cfg *config.Config, args []string) int {
	ui.SetTheme(cfg.Theme)
	if cfg.NoColor {
		ui.SetColorForcing(false, true)
	}

	interactive := len(args) > 0 && args[0] == "tui"
	logger, closer, err := openLogger(cfg, interactive)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tada:", err)
		return 1
	}
	defer closer.Close()
	logger.Debug("config loaded", "api", cfg.APIURL, "file", cfg.File)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, token := loadToken(logger)

	opt := cli.Options{
		Group:      cfg.Group,
		DateLayout: cfg.DateFormat,
		Out:        os.Stdout,
		Err:        os.Stderr,
		In:         os.Stdin,
		Logger:     logger,
		Auth:       store,
	}

	client, err := api.New(api.Options{
		BaseURL:           cfg.APIURL,
		Token:             token,
		Timeout:           cfg.Timeout,
		Logger:            logger,
		ValidateResponses: cfg.ValidateResponses,
	})
	if err != nil {
		logger.Error("invalid backend settings", "err", err)
	} else {
		opt.Backend = client
		opt.TUI = func(ctx context.Context) error {
			return tui.Run(ctx, client, logger, tui.Options{
				DateLayout: cfg.DateFormat,
				AltScreen:  true,
			})
		}
	}

	return cli.Run(ctx, args, opt)
}

// loadToken finds the bearer token. Without a home directory the store is
// left zero, so only TADA_TOKEN is consulted.
func loadToken(logger *log.Logger) (auth.Store, string) {
	store, err := auth.DefaultStore()
	if err != nil {
		logger.Warn("credentials file unavailable", "err", err)
		store = auth.Store{}
	}
	ti, err := store.Get()
	if err != nil {
		logger.Warn("failed to read token", "err", err)
	}
	if ti == nil {
		return store, ""
	}
	if ti.Expired(time.Now()) {
		logger.Warn("token expired; run `tada auth login`", "source", ti.Source)
	}
	return store, ti.Token
}

// openLogger logs to stderr for one-shot commands. The TUI owns the
// terminal, so it only logs when a file is configured.
func openLogger(cfg *config.Config, interactive bool) (*log.Logger, io.Closer, error) {
	lopt := logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}
	if cfg.LogFile != "" || interactive {
		return logging.Open(cfg.LogFile, lopt)
	}
	return logging.New(os.Stderr, lopt), io.NopCloser(nil), nil
}
