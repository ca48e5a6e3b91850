package lookup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/TomasB/geolocate/internal/data"
	"github.com/gin-gonic/gin"
)

const testMMDBPath = "../../../testdata/GeoLite2-Country-Test.mmdb"

func skipIfNoMMDB(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(testMMDBPath); os.IsNotExist(err) {
		t.Skip("test MMDB file not found; download it first")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func loadTestTables(t *testing.T) *data.Tables {
	t.Helper()
	dir := t.TempDir()
	tables, err := data.LoadTables(data.Sources{
		IPv4: writeFile(t, dir, "geoip", "16777216,16777471,AU\n1.0.1.0,1.0.3.255,CN\n"),
		IPv6: writeFile(t, dir, "geoip6", "2a00:1a28:1251::,2a00:1a28:1251:ffff:ffff:ffff:ffff:ffff,GB\n"),
		Countries: writeFile(t, dir, "countries.json", `[
			{"name": "Australia", "code": "AU", "numeric": 36},
			{"name": "United Kingdom", "code": "GB", "numeric": 826}
		]`),
	})
	if err != nil {
		t.Fatalf("failed to load tables: %v", err)
	}
	return tables
}

func setupIntegrationRouter(t *testing.T, lookup data.CountryLookup) *gin.Engine {
	t.Helper()
	t.Cleanup(func() { lookup.Close() })
	return setupRouter(lookup)
}

func TestIntegration_ResolveFromTables(t *testing.T) {
	router := setupIntegrationRouter(t, data.NewLive(loadTestTables(t)))

	tests := []struct {
		ip        string
		status    int
		wantCode  string
		wantFound bool
	}{
		{"1.0.0.1", http.StatusOK, "AU", true},
		{"1.0.2.7", http.StatusOK, "CN", false},
		{"2a00:1a28:1251::99", http.StatusOK, "GB", true},
		{"::ffff:1.0.0.200", http.StatusOK, "AU", true},
		{"9.9.9.9", http.StatusNotFound, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			w, resp := getResolve(t, router, tt.ip)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, resp.Code)
			}
			if resp.Found != tt.wantFound {
				t.Errorf("expected found %v, got %v", tt.wantFound, resp.Found)
			}
		})
	}
}

func TestIntegration_CheckFallsBackToMMDB(t *testing.T) {
	skipIfNoMMDB(t)

	tables := loadTestTables(t)
	reader, err := data.NewMmdbReader(testMMDBPath, tables.Countries)
	if err != nil {
		t.Fatalf("failed to open MMDB: %v", err)
	}
	router := setupIntegrationRouter(t, data.Chain{tables, reader})

	w, resp := postCheck(t, router, CheckRequest{
		IP:               "2.125.160.216",
		AllowedCountries: []string{"GB", "DE"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !resp.Allowed || resp.Country != "GB" {
		t.Errorf("expected allowed GB, got %+v", resp)
	}

	w, resp = postCheck(t, router, CheckRequest{
		IP:               "1.0.0.1",
		AllowedCountries: []string{"US"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp.Allowed || resp.Country != "AU" {
		t.Errorf("expected denied AU from the record tables, got %+v", resp)
	}
}
