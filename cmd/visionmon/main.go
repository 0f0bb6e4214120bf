package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/five82/visionmon/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.StringP("config", "c", "", "config file path (default ~/.config/visionmon/config.toml)")
	prefsPath := flag.String("prefs", "", "preferences file path (default ~/.config/visionmon/prefs.toml)")
	headless := flag.Bool("headless", false, "log live updates to stderr instead of starting the TUI")
	checkpoint := flag.Duration("checkpoint", 0, "state cache checkpoint interval (default 1m)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:      *configPath,
		PrefsPath:       *prefsPath,
		Headless:        *headless,
		CheckpointEvery: *checkpoint,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "visionmon: %v\n", err)
		return 1
	}
	return 0
}
