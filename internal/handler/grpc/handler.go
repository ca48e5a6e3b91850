package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"slices"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/TomasB/geolocate/internal/data"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Handler implements GeolocateServer.
type Handler struct {
	lookup data.CountryLookup
}

// NewHandler creates a new gRPC handler with the given CountryLookup.
func NewHandler(lookup data.CountryLookup) *Handler {
	return &Handler{lookup: lookup}
}

// Register adds h to s.
func Register(s gogrpc.ServiceRegistrar, h *Handler) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *Handler) resolve(ip string) (country.Resolved, error) {
	if ip == "" {
		return country.Resolved{}, status.Error(codes.InvalidArgument, "ip is required")
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return country.Resolved{}, status.Error(codes.InvalidArgument, "invalid IP address")
	}

	r, err := h.lookup.Lookup(addr)
	if errors.Is(err, data.ErrUnmapped) {
		return country.Resolved{}, status.Error(codes.NotFound, err.Error())
	}
	if err != nil {
		slog.Error("country lookup failed", "ip", ip, "error", err)
		return country.Resolved{}, status.Error(codes.Internal, "lookup failed")
	}
	return r, nil
}

// Resolve returns the country of an address as a struct with the fields
// ip, code and found, plus name and numeric when the country is known.
func (h *Handler) Resolve(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	r, err := h.resolve(req.GetValue())
	if err != nil {
		return nil, err
	}

	fields := map[string]*structpb.Value{
		"ip":    structpb.NewStringValue(req.GetValue()),
		"code":  structpb.NewStringValue(r.Code.String()),
		"found": structpb.NewBoolValue(r.Found()),
	}
	if r.Country != nil {
		fields["name"] = structpb.NewStringValue(r.Country.Name)
		fields["numeric"] = structpb.NewNumberValue(float64(r.Country.Numeric))
	}
	return &structpb.Struct{Fields: fields}, nil
}

// Check reports whether the address in the "ip" field belongs to one of the
// codes listed in "allowed_countries".
func (h *Handler) Check(_ context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var allowed []string
	for _, v := range req.GetFields()["allowed_countries"].GetListValue().GetValues() {
		if s := v.GetStringValue(); s != "" {
			allowed = append(allowed, s)
		}
	}
	if len(allowed) == 0 {
		return nil, status.Error(codes.InvalidArgument, "allowed_countries is required")
	}

	r, err := h.resolve(req.GetFields()["ip"].GetStringValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bool(r.Code.IsAssigned() && slices.Contains(allowed, r.Code.String())), nil
}
