// Package wiki downloads the list of ISO 3166 countries from Wikidata.
package wiki

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/TomasB/geolocate/internal/country"
)

// DefaultEndpoint is the public Wikidata SPARQL endpoint.
const DefaultEndpoint = "https://query.wikidata.org/sparql"

// userAgent identifies the client, as required by the Wikidata usage policy.
const userAgent = "geolocate-data/1.0 (https://github.com/TomasB/geolocate)"

const query = `
SELECT
    ?nameLabel
    ?code
    ?numeric
WHERE
{
    ?name wdt:P31 wd:Q6256;
        wdt:P297 ?code;
        wdt:P299 ?numeric.
    SERVICE wikibase:label
    {
        bd:serviceParam wikibase:language "en".
    }
}`

// Query returns the SPARQL query selecting every country with its English
// name, alpha-2 code and numeric code. A positive limit caps the result size.
func Query(limit int) string {
	q := strings.ReplaceAll(strings.TrimSpace(query), "    ", "")
	q = strings.ReplaceAll(q, "\n", " ")
	if limit > 0 {
		q += "\nLIMIT " + strconv.Itoa(limit)
	}
	return q
}

type response struct {
	Results struct {
		Bindings []binding `json:"bindings"`
	} `json:"results"`
}

type binding struct {
	Name    value  `json:"nameLabel"`
	Code    value  `json:"code"`
	Numeric *value `json:"numeric"`
}

type value struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Client queries a SPARQL endpoint.
type Client struct {
	HTTPClient *http.Client
	Endpoint   string
}

// NewClient returns a Client for DefaultEndpoint.
func NewClient() *Client {
	return &Client{HTTPClient: http.DefaultClient, Endpoint: DefaultEndpoint}
}

// Fetch runs the country query and returns the countries ordered by numeric
// code. Countries without a numeric code get country.NoNumeric.
func (c *Client) Fetch(ctx context.Context) ([]country.Country, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	params := u.Query()
	params.Set("query", Query(0))
	params.Set("format", "json")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", userAgent)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query failed: %s", resp.Status)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return parseBindings(body.Results.Bindings)
}

func parseBindings(bindings []binding) ([]country.Country, error) {
	countries := make([]country.Country, 0, len(bindings))
	for _, b := range bindings {
		code, err := country.ParseCode(b.Code.Value)
		if err != nil {
			return nil, fmt.Errorf("country %q: %w", b.Name.Value, err)
		}

		numeric := country.NoNumeric
		if b.Numeric != nil {
			n, err := strconv.ParseUint(b.Numeric.Value, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("country %q: invalid numeric code: %w", b.Name.Value, err)
			}
			numeric = uint16(n)
		}

		countries = append(countries, country.Country{
			Name:    b.Name.Value,
			Code:    code,
			Numeric: numeric,
		})
	}

	slices.SortStableFunc(countries, func(a, b country.Country) int {
		return cmp.Compare(a.Numeric, b.Numeric)
	})
	return countries, nil
}
