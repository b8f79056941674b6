package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/five82/patio/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional, defaults to ~/.config/patio/config.toml)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	envFiles := flag.String("env", "", "comma-separated .env files to load (optional, defaults to .env)")
	pollSeconds := flag.Int("poll", 0, "refresh interval in seconds (optional, defaults to the configured 15s)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, PrefsPath: *prefsPath}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}
	for _, f := range strings.Split(*envFiles, ",") {
		if f = strings.TrimSpace(f); f != "" {
			opts.EnvFiles = append(opts.EnvFiles, f)
		}
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "patio: %v\n", err)
		return 1
	}
	return 0
}
