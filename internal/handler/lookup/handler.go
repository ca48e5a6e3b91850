package lookup

import (
	"errors"
	"log/slog"
	"net/http"
	"net/netip"
	"slices"

	"github.com/TomasB/geolocate/internal/data"
	"github.com/gin-gonic/gin"
)

// CheckRequest represents the JSON body for a country check.
type CheckRequest struct {
	IP               string   `json:"ip" binding:"required"`
	AllowedCountries []string `json:"allowed_countries" binding:"required,min=1"`
}

// CheckResponse represents the JSON response for a country check.
type CheckResponse struct {
	Allowed bool   `json:"allowed"`
	Country string `json:"country"`
	Error   string `json:"error"`
}

// ResolveResponse represents the JSON response for an address resolution.
// Name and Numeric are only set when the country record is known.
type ResolveResponse struct {
	IP      string  `json:"ip"`
	Code    string  `json:"code,omitempty"`
	Name    string  `json:"name,omitempty"`
	Numeric *uint16 `json:"numeric,omitempty"`
	Found   bool    `json:"found"`
	Error   string  `json:"error,omitempty"`
}

// Handler manages IP geolocation endpoints.
type Handler struct {
	lookup data.CountryLookup
}

// NewHandler creates a new handler with the given CountryLookup.
func NewHandler(lookup data.CountryLookup) *Handler {
	return &Handler{lookup: lookup}
}

// Register adds the handler's routes to r.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/check", h.Check)
	r.GET("/resolve/:ip", h.Resolve)
}

// Check handles POST /api/v1/check
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, CheckResponse{
			Error: "invalid request: " + err.Error(),
		})
		return
	}

	slog.Debug("check request received", "ip", req.IP, "allowed_countries", req.AllowedCountries)

	addr, err := netip.ParseAddr(req.IP)
	if err != nil {
		c.JSON(http.StatusBadRequest, CheckResponse{
			Error: "invalid IP address",
		})
		return
	}

	r, err := h.lookup.Lookup(addr)
	if errors.Is(err, data.ErrUnmapped) {
		c.JSON(http.StatusNotFound, CheckResponse{
			Error: err.Error(),
		})
		return
	}
	if err != nil {
		slog.Error("country lookup failed", "ip", req.IP, "error", err)
		c.JSON(http.StatusInternalServerError, CheckResponse{
			Error: "lookup failed",
		})
		return
	}

	code := r.Code.String()
	c.JSON(http.StatusOK, CheckResponse{
		Allowed: r.Code.IsAssigned() && slices.Contains(req.AllowedCountries, code),
		Country: code,
	})
}

// Resolve handles GET /api/v1/resolve/:ip
func (h *Handler) Resolve(c *gin.Context) {
	ip := c.Param("ip")
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		c.JSON(http.StatusBadRequest, ResolveResponse{
			IP:    ip,
			Error: "invalid IP address",
		})
		return
	}

	r, err := h.lookup.Lookup(addr)
	if errors.Is(err, data.ErrUnmapped) {
		c.JSON(http.StatusNotFound, ResolveResponse{
			IP:    ip,
			Error: err.Error(),
		})
		return
	}
	if err != nil {
		slog.Error("country lookup failed", "ip", ip, "error", err)
		c.JSON(http.StatusInternalServerError, ResolveResponse{
			IP:    ip,
			Error: "lookup failed",
		})
		return
	}

	resp := ResolveResponse{
		IP:    ip,
		Code:  r.Code.String(),
		Found: r.Found(),
	}
	if r.Country != nil {
		numeric := r.Country.Numeric
		resp.Name = r.Country.Name
		resp.Numeric = &numeric
	}
	c.JSON(http.StatusOK, resp)
}
