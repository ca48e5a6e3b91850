package command

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/TomasB/geolocate/internal/ipblock"
	"github.com/google/subcommands"
)

// List implements subcommands.Command for the "list" command.
type List struct {
	families
	countryLimit int
	addressLimit int
}

// Name implements subcommands.Command.Name.
func (*List) Name() string {
	return "list"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*List) Synopsis() string {
	return "list the address blocks of each country"
}

// Usage implements subcommands.Command.Usage.
func (*List) Usage() string {
	return `list [flags] [country]

The optional country is a name, an alpha code or a numeric code.
At least one of -4 and -6 is required.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (l *List) SetFlags(f *flag.FlagSet) {
	l.families.setFlags(f)
	f.IntVar(&l.countryLimit, "c", 0, "only display this many countries (0 for all)")
	f.IntVar(&l.addressLimit, "a", 0, "only display this many blocks per address family (0 for all)")
}

// Execute implements subcommands.Command.Execute.
func (l *List) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	env := envFrom(args)
	return exit(env, f, l.run(env, f))
}

func (l *List) run(env *Env, f *flag.FlagSet) error {
	if f.NArg() > 1 {
		return usagef("expected at most one country")
	}
	if l.countryLimit < 0 || l.addressLimit < 0 {
		return usagef("limits must not be negative")
	}
	if err := l.validate(); err != nil {
		return err
	}

	tables, err := loadTables(env.Config)
	if err != nil {
		return err
	}

	var groups []*group
	if f.NArg() == 1 {
		g, err := groupOne(tables, l.families, country.ParseFilter(f.Arg(0)))
		if err != nil {
			return err
		}
		groups = []*group{g}
	} else {
		groups = groupAll(tables, l.families)
	}

	for _, g := range limit(groups, l.countryLimit) {
		if g.empty() {
			continue
		}
		fmt.Fprintln(env.Stdout, g.country)
		if l.ipv4 {
			writeBlocks(env.Stdout, "IPv4", limit(g.v4, l.addressLimit))
		}
		if l.ipv6 {
			writeBlocks(env.Stdout, "IPv6", limit(g.v6, l.addressLimit))
		}
		fmt.Fprintln(env.Stdout)
	}
	return nil
}

func writeBlocks[A ipblock.Address[A]](w io.Writer, family string, blocks []ipblock.Block[A]) {
	fmt.Fprintf(w, "\n%s:\n", family)
	for _, b := range blocks {
		fmt.Fprintf(w, "    %s\n", b)
	}
}
