package command

import (
	"context"
	"flag"
	"fmt"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/google/subcommands"
)

// Count implements subcommands.Command for the "count" command.
type Count struct {
	families
	countryLimit int
}

// Name implements subcommands.Command.Name.
func (*Count) Name() string {
	return "count"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Count) Synopsis() string {
	return "count the address blocks of each country"
}

// Usage implements subcommands.Command.Usage.
func (*Count) Usage() string {
	return `count [flags] [country]

The optional country is a name, an alpha code or a numeric code.
At least one of -4 and -6 is required.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *Count) SetFlags(f *flag.FlagSet) {
	c.families.setFlags(f)
	f.IntVar(&c.countryLimit, "c", 0, "only display this many countries (0 for all)")
}

// Execute implements subcommands.Command.Execute.
func (c *Count) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	env := envFrom(args)
	return exit(env, f, c.run(env, f))
}

func (c *Count) run(env *Env, f *flag.FlagSet) error {
	if f.NArg() > 1 {
		return usagef("expected at most one country")
	}
	if c.countryLimit < 0 {
		return usagef("limits must not be negative")
	}
	if err := c.validate(); err != nil {
		return err
	}

	tables, err := loadTables(env.Config)
	if err != nil {
		return err
	}

	var groups []*group
	if f.NArg() == 1 {
		g, err := groupOne(tables, c.families, country.ParseFilter(f.Arg(0)))
		if err != nil {
			return err
		}
		groups = []*group{g}
	} else {
		groups = groupAll(tables, c.families)
	}

	for _, g := range limit(groups, c.countryLimit) {
		fmt.Fprintln(env.Stdout, g.country)
		if c.ipv4 {
			fmt.Fprintf(env.Stdout, "IPv4: %d\n", len(g.v4))
		}
		if c.ipv6 {
			fmt.Fprintf(env.Stdout, "IPv6: %d\n", len(g.v6))
		}
		fmt.Fprintln(env.Stdout)
	}
	return nil
}
