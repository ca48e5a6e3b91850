package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/TomasB/geolocate/internal/ipblock"
)

// ErrMalformedRecord is returned for record rows that cannot be parsed.
var ErrMalformedRecord = errors.New("malformed record")

// DefaultCapacity is the initial capacity of a map built from a record file.
const DefaultCapacity = 256

// V4Map maps IPv4 blocks to countries.
type V4Map = ipblock.Map[ipblock.V4, country.Resolved]

// V6Map maps IPv6 blocks to countries.
type V6Map = ipblock.Map[ipblock.V6, country.Resolved]

// Load reads "start,end,code" rows from r into a new map. Lines starting
// with '#' are comments and there is no header row. parse decodes one
// address in either its textual or integer form, and every code is resolved
// against countries; unknown codes are kept as missing countries.
func Load[A ipblock.Address[A]](r io.Reader, parse func(string) (A, error), countries *country.Table, capacity int) (*ipblock.Map[A, country.Resolved], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	m := ipblock.WithCapacity[A, country.Resolved](capacity)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}

		block, code, err := parseRecord(record, parse)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		m.InsertUnstable(block, countries.Resolve(code))
	}
	m.Normalize()

	return m, nil
}

func parseRecord[A ipblock.Address[A]](record []string, parse func(string) (A, error)) (ipblock.Block[A], country.Code, error) {
	start, err := parse(record[0])
	if err != nil {
		return ipblock.Block[A]{}, country.Code{}, fmt.Errorf("%w: start: %w", ErrMalformedRecord, err)
	}
	end, err := parse(record[1])
	if err != nil {
		return ipblock.Block[A]{}, country.Code{}, fmt.Errorf("%w: end: %w", ErrMalformedRecord, err)
	}
	block, err := ipblock.TryNew(start, end)
	if err != nil {
		return ipblock.Block[A]{}, country.Code{}, err
	}
	code, err := country.ParseCode(record[2])
	if err != nil {
		return ipblock.Block[A]{}, country.Code{}, err
	}
	return block, code, nil
}

// LoadFile is Load reading from the file at path.
func LoadFile[A ipblock.Address[A]](path string, parse func(string) (A, error), countries *country.Table, capacity int) (*ipblock.Map[A, country.Resolved], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	defer f.Close()

	m, err := Load(f, parse, countries, capacity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	missing := 0
	for v := range m.Values() {
		if !v.Found() {
			missing++
		}
	}
	slog.Debug("record file loaded", "path", path, "entries", m.Len(), "missing_countries", missing)

	return m, nil
}

// LoadV4File loads an IPv4 record file.
func LoadV4File(path string, countries *country.Table) (*V4Map, error) {
	return LoadFile(path, ipblock.ParseV4, countries, 0)
}

// LoadV6File loads an IPv6 record file.
func LoadV6File(path string, countries *country.Table) (*V6Map, error) {
	return LoadFile(path, ipblock.ParseV6, countries, 0)
}
