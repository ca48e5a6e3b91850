// Command geolocate-data downloads the country list used by geolocate.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/TomasB/geolocate/internal/config"
	"github.com/TomasB/geolocate/internal/wiki"
)

func main() {
	endpoint := flag.String("endpoint", wiki.DefaultEndpoint, "the SPARQL endpoint to query")
	timeout := flag.Duration("timeout", time.Minute, "how long to wait for the query")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <path>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.LogLevel(os.Getenv("LOG_LEVEL")),
	})))

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, &wiki.Client{Endpoint: *endpoint}, path); err != nil {
		slog.Error("failed to write country data", "path", path, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *wiki.Client, path string) error {
	countries, err := client.Fetch(ctx)
	if err != nil {
		return err
	}

	contents, err := json.MarshalIndent(countries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return err
	}

	fmt.Printf("Wrote %d entries to '%s'\n", len(countries), path)
	return nil
}
