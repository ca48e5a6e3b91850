// Package command implements the geolocate subcommands.
//
// Every command receives an *Env as the first argument of Execute.
package command

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/TomasB/geolocate/internal/config"
	"github.com/TomasB/geolocate/internal/data"
	"github.com/google/subcommands"
)

// Env carries what commands share: the configuration and the output streams.
type Env struct {
	Config *config.Config
	Stdout io.Writer
	Stderr io.Writer
}

// NewEnv returns an Env writing to the process's standard streams.
func NewEnv(c *config.Config) *Env {
	return &Env{Config: c, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Register adds every command to cdr.
func Register(cdr *subcommands.Commander) {
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")
	cdr.Register(new(Resolve), "")
	cdr.Register(new(List), "")
	cdr.Register(new(Count), "")
	cdr.Register(new(Serve), "server")
}

// usageError marks errors caused by bad command-line arguments.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// exit reports err on the env's stderr and converts it to an exit status.
func exit(env *Env, f *flag.FlagSet, err error) subcommands.ExitStatus {
	if err == nil {
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(env.Stderr, "geolocate: %v\n", err)

	var usage *usageError
	if errors.As(err, &usage) {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

func envFrom(args []any) *Env {
	return args[0].(*Env)
}

// loadTables checks that every source file exists and then loads them.
func loadTables(c *config.Config) (*data.Tables, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return data.LoadTables(c.Sources())
}

// families holds the -4 and -6 flags shared by list and count.
type families struct {
	ipv4 bool
	ipv6 bool
}

func (fs *families) setFlags(f *flag.FlagSet) {
	f.BoolVar(&fs.ipv4, "4", false, "display IPv4 address blocks")
	f.BoolVar(&fs.ipv6, "6", false, "display IPv6 address blocks")
}

func (fs *families) validate() error {
	if !fs.ipv4 && !fs.ipv6 {
		return usagef("at least one of -4 and -6 is required")
	}
	return nil
}
