package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/netip"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/google/subcommands"
)

// Resolve implements subcommands.Command for the "resolve" command.
type Resolve struct {
	name    bool
	code    bool
	numeric bool
	ipv4    bool
	ipv6    bool
}

// Name implements subcommands.Command.Name.
func (*Resolve) Name() string {
	return "resolve"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Resolve) Synopsis() string {
	return "resolve an IP address to its country of origin"
}

// Usage implements subcommands.Command.Usage.
func (*Resolve) Usage() string {
	return `resolve [flags] <ip address>

Prints the country's name unless one of -n, -a or -N is given.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Resolve) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.name, "n", false, "output the country's name")
	f.BoolVar(&r.code, "a", false, "output the country's alpha-2 code")
	f.BoolVar(&r.numeric, "N", false, "output the country's numeric code")
	f.BoolVar(&r.ipv4, "4", false, "require an IPv4 address")
	f.BoolVar(&r.ipv6, "6", false, "require an IPv6 address")
}

// Execute implements subcommands.Command.Execute.
func (r *Resolve) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	env := envFrom(args)
	return exit(env, f, r.run(env, f))
}

func (r *Resolve) run(env *Env, f *flag.FlagSet) error {
	if f.NArg() != 1 {
		return usagef("expected exactly one ip address")
	}
	addr, err := netip.ParseAddr(f.Arg(0))
	if err != nil {
		return usagef("invalid ip address '%s'", f.Arg(0))
	}
	if err := r.checkFamily(addr); err != nil {
		return err
	}

	tables, err := loadTables(env.Config)
	if err != nil {
		return err
	}
	resolved, err := tables.Lookup(addr)
	if err != nil {
		return err
	}
	r.print(env.Stdout, resolved)
	return nil
}

// checkFamily rejects -4 and -6 when they contradict each other or addr.
// IPv4-mapped IPv6 addresses count as IPv4.
func (r *Resolve) checkFamily(addr netip.Addr) error {
	is4 := addr.Unmap().Is4()
	switch {
	case r.ipv4 && r.ipv6:
		return usagef("-4 and -6 are mutually exclusive")
	case r.ipv4 && !is4:
		return usagef("-4 given for IPv6 address %s", addr)
	case r.ipv6 && is4:
		return usagef("-6 given for IPv4 address %s", addr)
	}
	return nil
}

func (r *Resolve) print(w io.Writer, resolved country.Resolved) {
	name, code, numeric := r.name, r.code, r.numeric
	if !name && !code && !numeric {
		name = true
	}

	if c := resolved.Country; c != nil {
		if name {
			fmt.Fprintf(w, "Country: %s\n", c.Name)
		}
		if code {
			fmt.Fprintf(w, "Alpha-2: %s\n", c.Code)
		}
		if numeric {
			fmt.Fprintf(w, "Numeric: %d\n", c.Numeric)
		}
		return
	}

	if name {
		fmt.Fprintln(w, "Country: N/A")
	}
	if code {
		fmt.Fprintf(w, "Alpha-2: %s\n", resolved.Code)
	}
	if numeric {
		fmt.Fprintln(w, "Numeric: N/A")
	}
}
