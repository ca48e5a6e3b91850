package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/TomasB/geolocate/internal/data"
	"github.com/gin-gonic/gin"
)

// mockLookup implements data.CountryLookup for testing.
type mockLookup struct {
	result country.Resolved
	err    error
}

func (m *mockLookup) Lookup(_ netip.Addr) (country.Resolved, error) {
	return m.result, m.err
}

func (m *mockLookup) Close() error {
	return nil
}

func found(name, code string, numeric uint16) *mockLookup {
	return &mockLookup{result: country.Present(&country.Country{
		Name:    name,
		Code:    country.MustParseCode(code),
		Numeric: numeric,
	})}
}

func setupRouter(lookup data.CountryLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(lookup).Register(r.Group("/api/v1"))
	return r
}

func postCheck(t *testing.T, router *gin.Engine, body any) (*httptest.ResponseRecorder, CheckResponse) {
	t.Helper()
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/api/v1/check", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp CheckResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestCheck_AllowedCountry(t *testing.T) {
	router := setupRouter(found("United States of America", "US", 840))

	w, resp := postCheck(t, router, CheckRequest{
		IP:               "1.2.3.4",
		AllowedCountries: []string{"US", "CA"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !resp.Allowed {
		t.Error("expected allowed to be true")
	}
	if resp.Country != "US" {
		t.Errorf("expected country US, got %s", resp.Country)
	}
	if resp.Error != "" {
		t.Errorf("expected empty error, got %s", resp.Error)
	}
}

func TestCheck_DeniedCountry(t *testing.T) {
	router := setupRouter(found("Russian Federation", "RU", 643))

	w, resp := postCheck(t, router, CheckRequest{
		IP:               "1.2.3.4",
		AllowedCountries: []string{"US", "CA"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if resp.Allowed {
		t.Error("expected allowed to be false")
	}
	if resp.Country != "RU" {
		t.Errorf("expected country RU, got %s", resp.Country)
	}
}

func TestCheck_MissingCountryRecord(t *testing.T) {
	router := setupRouter(&mockLookup{result: country.Missing(country.MustParseCode("EU"))})

	w, resp := postCheck(t, router, CheckRequest{
		IP:               "1.2.3.4",
		AllowedCountries: []string{"EU"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !resp.Allowed {
		t.Error("a code without a country record can still be allowed")
	}
}

func TestCheck_UnassignedNeverAllowed(t *testing.T) {
	router := setupRouter(&mockLookup{result: country.Missing(country.UnassignedCode)})

	_, resp := postCheck(t, router, CheckRequest{
		IP:               "1.2.3.4",
		AllowedCountries: []string{"??"},
	})

	if resp.Allowed {
		t.Error("expected unassigned code to be denied")
	}
	if resp.Country != "??" {
		t.Errorf("expected country ??, got %s", resp.Country)
	}
}

func TestCheck_InvalidIP(t *testing.T) {
	router := setupRouter(found("United States of America", "US", 840))

	w, resp := postCheck(t, router, map[string]any{
		"ip":                "not-an-ip",
		"allowed_countries": []string{"US"},
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if resp.Error != "invalid IP address" {
		t.Errorf("expected 'invalid IP address' error, got %q", resp.Error)
	}
}

func TestCheck_BadRequests(t *testing.T) {
	router := setupRouter(found("United States of America", "US", 840))

	tests := map[string]any{
		"missing ip":                map[string]any{"allowed_countries": []string{"US"}},
		"missing allowed_countries": map[string]any{"ip": "1.2.3.4"},
		"empty allowed_countries":   map[string]any{"ip": "1.2.3.4", "allowed_countries": []string{}},
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w, _ := postCheck(t, router, body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestCheck_InvalidJSON(t *testing.T) {
	router := setupRouter(found("United States of America", "US", 840))

	req, _ := http.NewRequest("POST", "/api/v1/check", bytes.NewReader([]byte("{bad json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestCheck_Unmapped(t *testing.T) {
	router := setupRouter(&mockLookup{err: data.ErrUnmapped})

	w, resp := postCheck(t, router, CheckRequest{
		IP:               "10.0.0.1",
		AllowedCountries: []string{"US"},
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if resp.Error != data.ErrUnmapped.Error() {
		t.Errorf("expected unmapped error, got %q", resp.Error)
	}
}

func TestCheck_LookupError(t *testing.T) {
	router := setupRouter(&mockLookup{err: fmt.Errorf("db failure")})

	w, resp := postCheck(t, router, CheckRequest{
		IP:               "1.2.3.4",
		AllowedCountries: []string{"US"},
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if resp.Error != "lookup failed" {
		t.Errorf("expected 'lookup failed' error, got %q", resp.Error)
	}
}

func TestCheck_IPv6(t *testing.T) {
	router := setupRouter(found("Germany", "DE", 276))

	w, resp := postCheck(t, router, CheckRequest{
		IP:               "2001:db8::1",
		AllowedCountries: []string{"DE"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !resp.Allowed {
		t.Error("expected allowed to be true for IPv6")
	}
}

func getResolve(t *testing.T, router *gin.Engine, ip string) (*httptest.ResponseRecorder, ResolveResponse) {
	t.Helper()
	req, _ := http.NewRequest("GET", "/api/v1/resolve/"+ip, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp ResolveResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestResolve_Found(t *testing.T) {
	router := setupRouter(found("Germany", "DE", 276))

	w, resp := getResolve(t, router, "2001:db8::1")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !resp.Found || resp.Code != "DE" || resp.Name != "Germany" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Numeric == nil || *resp.Numeric != 276 {
		t.Errorf("expected numeric 276, got %v", resp.Numeric)
	}
}

func TestResolve_MissingCountryRecord(t *testing.T) {
	router := setupRouter(&mockLookup{result: country.Missing(country.MustParseCode("EU"))})

	w, resp := getResolve(t, router, "1.2.3.4")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if resp.Found {
		t.Error("expected found to be false")
	}
	if resp.Code != "EU" {
		t.Errorf("expected code EU, got %s", resp.Code)
	}
	if resp.Numeric != nil || resp.Name != "" {
		t.Errorf("expected no name or numeric, got %+v", resp)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		lookup *mockLookup
		ip     string
		status int
	}{
		{"invalid ip", &mockLookup{}, "bogus", http.StatusBadRequest},
		{"unmapped", &mockLookup{err: data.ErrUnmapped}, "10.0.0.1", http.StatusNotFound},
		{"lookup failure", &mockLookup{err: fmt.Errorf("db failure")}, "10.0.0.1", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := getResolve(t, setupRouter(tt.lookup), tt.ip)
			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			if resp.Error == "" {
				t.Error("expected an error message")
			}
			if resp.IP != tt.ip {
				t.Errorf("expected ip %q echoed, got %q", tt.ip, resp.IP)
			}
		})
	}
}
