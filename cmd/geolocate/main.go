package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/TomasB/geolocate/internal/command"
	"github.com/TomasB/geolocate/internal/config"
	"github.com/google/subcommands"
)

var (
	configPath    = flag.String("config", "", "path to a TOML configuration file")
	ipv4Source    = flag.String("ipv4-source", "", "the file to source country-to-IPv4 address data from")
	ipv6Source    = flag.String("ipv6-source", "", "the file to source country-to-IPv6 address data from")
	countrySource = flag.String("country-source", "", "the file to source country data from")
	logLevel      = flag.String("log-level", "", "log level: debug, info, warn or error")
)

func main() {
	command.Register(subcommands.DefaultCommander)
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "geolocate: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}
	for _, o := range []struct {
		value string
		field *string
	}{
		{*ipv4Source, &conf.IPv4Source},
		{*ipv6Source, &conf.IPv6Source},
		{*countrySource, &conf.CountrySource},
		{*logLevel, &conf.LogLevel},
	} {
		if o.value != "" {
			*o.field = o.value
		}
	}

	// Command output goes to stdout, so only the server logs there.
	var logOut io.Writer = os.Stderr
	if flag.Arg(0) == "serve" {
		logOut = os.Stdout
	}
	level := config.LogLevel(conf.LogLevel)
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("configuration loaded", "log_level", level.String(), "config", *configPath)

	os.Exit(int(subcommands.Execute(context.Background(), command.NewEnv(conf))))
}
