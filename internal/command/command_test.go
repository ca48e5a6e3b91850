package command

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/TomasB/geolocate/internal/config"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCountries = `[
	{"name": "Australia", "code": "AU", "numeric": 36},
	{"name": "United Kingdom", "code": "GB", "numeric": 826},
	{"name": "United States of America", "code": "US", "numeric": 840}
]`

const testIPv4 = `# geoip
16777216,16777471,US
1.0.8.0,1.0.15.255,GB
1.0.1.0,1.0.3.255,GB
1.0.16.0,1.0.31.255,JP
`

const testIPv6 = `# geoip6
2a00:1a28:1251::,2a00:1a28:1251:ffff:ffff:ffff:ffff:ffff,GB
2001:218::,2001:218:ffff:ffff:ffff:ffff:ffff:ffff,JP
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := config.Default()
	c.IPv4Source = filepath.Join(dir, "geoip")
	c.IPv6Source = filepath.Join(dir, "geoip6")
	c.CountrySource = filepath.Join(dir, "countries.json")
	require.NoError(t, os.WriteFile(c.IPv4Source, []byte(testIPv4), 0o644))
	require.NoError(t, os.WriteFile(c.IPv6Source, []byte(testIPv6), 0o644))
	require.NoError(t, os.WriteFile(c.CountrySource, []byte(testCountries), 0o644))
	return c
}

type result struct {
	stdout string
	stderr string
	status subcommands.ExitStatus
}

func execute(t *testing.T, c *config.Config, args ...string) result {
	t.Helper()
	fs := flag.NewFlagSet("geolocate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cdr := subcommands.NewCommander(fs, "geolocate")
	cdr.Output = io.Discard
	cdr.Error = io.Discard
	Register(cdr)
	require.NoError(t, fs.Parse(args))

	var stdout, stderr bytes.Buffer
	status := cdr.Execute(context.Background(), &Env{Config: c, Stdout: &stdout, Stderr: &stderr})
	return result{stdout: stdout.String(), stderr: stderr.String(), status: status}
}

func TestResolve(t *testing.T) {
	c := testConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "name by default",
			args: []string{"resolve", "1.0.0.1"},
			want: "Country: United States of America\n",
		},
		{
			name: "all fields",
			args: []string{"resolve", "-N", "-a", "-n", "1.0.2.3"},
			want: "Country: United Kingdom\nAlpha-2: GB\nNumeric: 826\n",
		},
		{
			name: "missing country",
			args: []string{"resolve", "-n", "-a", "-N", "1.0.20.1"},
			want: "Country: N/A\nAlpha-2: JP\nNumeric: N/A\n",
		},
		{
			name: "ipv6",
			args: []string{"resolve", "-a", "2a00:1a28:1251::42"},
			want: "Alpha-2: GB\n",
		},
		{
			name: "ipv4 flag",
			args: []string{"resolve", "-4", "-N", "1.0.0.255"},
			want: "Numeric: 840\n",
		},
		{
			name: "ipv6 flag",
			args: []string{"resolve", "-6", "-a", "2001:218::1"},
			want: "Alpha-2: JP\n",
		},
		{
			name: "mapped ipv4",
			args: []string{"resolve", "-4", "::ffff:1.0.0.1"},
			want: "Country: United States of America\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, c, tt.args...)
			require.Equal(t, subcommands.ExitSuccess, r.status, r.stderr)
			assert.Equal(t, tt.want, r.stdout)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	c := testConfig(t)

	tests := []struct {
		name   string
		args   []string
		status subcommands.ExitStatus
		stderr string
	}{
		{"unmapped", []string{"resolve", "9.9.9.9"}, subcommands.ExitFailure, "the given ip address is unmapped"},
		{"no address", []string{"resolve"}, subcommands.ExitUsageError, "expected exactly one ip address"},
		{"bad address", []string{"resolve", "bogus"}, subcommands.ExitUsageError, "invalid ip address 'bogus'"},
		{"both families", []string{"resolve", "-4", "-6", "1.0.0.1"}, subcommands.ExitUsageError, "mutually exclusive"},
		{"ipv4 flag with ipv6", []string{"resolve", "-4", "2001:218::1"}, subcommands.ExitUsageError, "-4 given"},
		{"ipv6 flag with ipv4", []string{"resolve", "-6", "1.0.0.1"}, subcommands.ExitUsageError, "-6 given"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, c, tt.args...)
			assert.Equal(t, tt.status, r.status)
			assert.Contains(t, r.stderr, tt.stderr)
			assert.Empty(t, r.stdout)
		})
	}
}

func TestResolve_MissingSources(t *testing.T) {
	c := testConfig(t)
	c.IPv4Source = filepath.Join(t.TempDir(), "geoip")
	c.CountrySource = filepath.Join(t.TempDir(), "countries.json")

	r := execute(t, c, "resolve", "1.0.0.1")
	assert.Equal(t, subcommands.ExitFailure, r.status)
	assert.Contains(t, r.stderr, "unable to locate file '"+c.IPv4Source+"'")
	assert.Contains(t, r.stderr, "unable to locate file '"+c.CountrySource+"'")
}

func TestList(t *testing.T) {
	c := testConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "ipv4",
			args: []string{"list", "-4"},
			want: "United Kingdom\n\nIPv4:\n    1.0.1.0 .. 1.0.3.255\n    1.0.8.0 .. 1.0.15.255\n\n" +
				"JP\n\nIPv4:\n    1.0.16.0 .. 1.0.31.255\n\n" +
				"United States of America\n\nIPv4:\n    1.0.0.0 .. 1.0.0.255\n\n",
		},
		{
			name: "limits",
			args: []string{"list", "-4", "-6", "-c", "1", "-a", "1"},
			want: "United Kingdom\n\nIPv4:\n    1.0.1.0 .. 1.0.3.255\n\n" +
				"IPv6:\n    2a00:1a28:1251:: .. 2a00:1a28:1251:ffff:ffff:ffff:ffff:ffff\n\n",
		},
		{
			name: "numeric filter",
			args: []string{"list", "-6", "826"},
			want: "United Kingdom\n\nIPv6:\n    2a00:1a28:1251:: .. 2a00:1a28:1251:ffff:ffff:ffff:ffff:ffff\n\n",
		},
		{
			name: "code filter",
			args: []string{"list", "-4", "US"},
			want: "United States of America\n\nIPv4:\n    1.0.0.0 .. 1.0.0.255\n\n",
		},
		{
			name: "country without blocks is skipped",
			args: []string{"list", "-6", "United States of America"},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, c, tt.args...)
			require.Equal(t, subcommands.ExitSuccess, r.status, r.stderr)
			assert.Equal(t, tt.want, r.stdout)
		})
	}
}

func TestList_Errors(t *testing.T) {
	c := testConfig(t)

	r := execute(t, c, "list", "-4", "Atlantis")
	assert.Equal(t, subcommands.ExitFailure, r.status)
	assert.Contains(t, r.stderr, "unable to find country 'Atlantis'")

	r = execute(t, c, "list")
	assert.Equal(t, subcommands.ExitUsageError, r.status)
	assert.Contains(t, r.stderr, "at least one of -4 and -6 is required")

	r = execute(t, c, "list", "-4", "-a", "-1")
	assert.Equal(t, subcommands.ExitUsageError, r.status)

	r = execute(t, c, "list", "-4", "US", "GB")
	assert.Equal(t, subcommands.ExitUsageError, r.status)
}

func TestCount(t *testing.T) {
	c := testConfig(t)

	r := execute(t, c, "count", "-4", "-6")
	require.Equal(t, subcommands.ExitSuccess, r.status, r.stderr)
	assert.Equal(t,
		"United Kingdom\nIPv4: 2\nIPv6: 1\n\n"+
			"JP\nIPv4: 1\nIPv6: 1\n\n"+
			"United States of America\nIPv4: 1\nIPv6: 0\n\n",
		r.stdout)

	r = execute(t, c, "count", "-4", "-c", "2")
	require.Equal(t, subcommands.ExitSuccess, r.status, r.stderr)
	assert.Equal(t, "United Kingdom\nIPv4: 2\n\nJP\nIPv4: 1\n\n", r.stdout)

	r = execute(t, c, "count", "-4", "GB")
	require.Equal(t, subcommands.ExitSuccess, r.status, r.stderr)
	assert.Equal(t, "United Kingdom\nIPv4: 2\n\n", r.stdout)

	r = execute(t, c, "count", "-6", "36")
	require.Equal(t, subcommands.ExitSuccess, r.status, r.stderr)
	assert.Equal(t, "Australia\nIPv6: 0\n\n", r.stdout)
}

func TestCount_Errors(t *testing.T) {
	c := testConfig(t)

	r := execute(t, c, "count", "GB")
	assert.Equal(t, subcommands.ExitUsageError, r.status)

	r = execute(t, c, "count", "-4", "ZZ")
	assert.Equal(t, subcommands.ExitFailure, r.status)
	assert.Contains(t, r.stderr, "unable to find country 'ZZ'")
}
