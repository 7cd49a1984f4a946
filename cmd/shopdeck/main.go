package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/shopdeck/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: shopdeck [flags] [address]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "address opens a page directly, e.g. /orders?status=PENDING\n\n")
		flag.PrintDefaults()
	}
	configPath := flag.String("config", "", "override config path (optional, defaults to ~/.config/shopdeck/config.toml)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("shopdeck", app.Version)
		return 0
	}
	if flag.NArg() > 1 {
		flag.Usage()
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, PrefsPath: *prefsPath, Location: flag.Arg(0)}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "shopdeck: %v\n", err)
		return 1
	}
	return 0
}
