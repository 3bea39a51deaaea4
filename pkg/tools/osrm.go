package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mapmcp/mapmcp/pkg/geo"
	"github.com/mapmcp/mapmcp/pkg/osm"
)

// osrmProfilePath maps tool-facing profile names onto the demo
// server's URL path segments. The public instance serves its cycling
// profile under "bike".
var osrmProfilePath = map[string]string{
	"driving": "driving",
	"cycling": "bike",
}

// OSRMServer implements the routing tools backed by OSRM.
type OSRMServer struct {
	client *osm.Client
	logger *slog.Logger
}

// NewOSRMServer builds the server around a shared service client.
func NewOSRMServer(client *osm.Client, logger *slog.Logger) *OSRMServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OSRMServer{
		client: client,
		logger: logger.With("component", "tools.osrm"),
	}
}

// Definitions returns the tool definitions this server contributes.
func (s *OSRMServer) Definitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "osrm_route_driving",
			Description: "Compute the fastest driving route between two points",
			Params:      routeParams(),
			Handler:     s.routeHandler("driving"),
		},
		{
			Name:        "osrm_route_cycling",
			Description: "Compute the fastest cycling route between two points",
			Params:      routeParams(),
			Handler:     s.routeHandler("cycling"),
		},
		{
			Name:        "osrm_nearest_road",
			Description: "Snap a point to the nearest routable road segment",
			Params: []ParamSpec{
				latParam("latitude", "Latitude of the point to snap"),
				lonParam("longitude", "Longitude of the point to snap"),
				{Name: "profile", Type: TypeEnum, Description: "Routing profile to snap against", Enum: []string{"driving", "cycling"}, Default: "driving"},
			},
			Handler: s.handleNearestRoad,
		},
	}
}

func routeParams() []ParamSpec {
	return []ParamSpec{
		latParam("start_lat", "Latitude of the route start"),
		lonParam("start_lon", "Longitude of the route start"),
		latParam("end_lat", "Latitude of the route destination"),
		lonParam("end_lon", "Longitude of the route destination"),
	}
}

// RouteOutput is the payload of the routing tools.
type RouteOutput struct {
	Profile         string         `json:"profile"`
	DistanceMeters  float64        `json:"distance_meters"`
	DurationSeconds float64        `json:"duration_seconds"`
	Summary         string         `json:"summary"`
	Geometry        []geo.Location `json:"geometry"`
}

func (s *OSRMServer) routeHandler(profile string) HandlerFunc {
	return func(ctx context.Context, args Args) (any, error) {
		return s.route(ctx, profile, args)
	}
}

func (s *OSRMServer) route(ctx context.Context, profile string, args Args) (any, error) {
	start := geo.Location{Latitude: args.Float("start_lat"), Longitude: args.Float("start_lon")}
	end := geo.Location{Latitude: args.Float("end_lat"), Longitude: args.Float("end_lon")}

	reqURL := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=full&alternatives=false&steps=false",
		s.client.BaseURL(osm.ServiceOSRM), osrmProfilePath[profile], lonLatPair(start), lonLatPair(end))

	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Routes  []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Geometry string  `json:"geometry"`
			Legs     []struct {
				Summary string `json:"summary"`
			} `json:"legs"`
		} `json:"routes"`
	}
	if err := s.client.GetJSON(ctx, osm.ServiceOSRM, reqURL, &resp); err != nil {
		return nil, err
	}

	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		s.logger.Debug("no route", "profile", profile, "code", resp.Code)
		return nil, osrmError(resp.Code, resp.Message)
	}

	route := resp.Routes[0]
	summary := ""
	if len(route.Legs) > 0 {
		summary = route.Legs[0].Summary
	}
	if summary == "" {
		summary = fmt.Sprintf("%.1f km, %.0f min", route.Distance/1000, route.Duration/60)
	}

	return RouteOutput{
		Profile:         profile,
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
		Summary:         summary,
		Geometry:        osm.DecodePolyline(route.Geometry),
	}, nil
}

// NearestRoadOutput is the payload of osrm_nearest_road.
type NearestRoadOutput struct {
	Snapped        geo.Location `json:"snapped"`
	DistanceMeters float64      `json:"distance_meters"`
	Name           string       `json:"name"`
}

func (s *OSRMServer) handleNearestRoad(ctx context.Context, args Args) (any, error) {
	point := geo.Location{Latitude: args.Float("latitude"), Longitude: args.Float("longitude")}
	profile := args.String("profile")

	reqURL := fmt.Sprintf("%s/nearest/v1/%s/%s?number=1",
		s.client.BaseURL(osm.ServiceOSRM), osrmProfilePath[profile], lonLatPair(point))

	var resp struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Waypoints []struct {
			Location [2]float64 `json:"location"` // lon, lat
			Distance float64    `json:"distance"`
			Name     string     `json:"name"`
		} `json:"waypoints"`
	}
	if err := s.client.GetJSON(ctx, osm.ServiceOSRM, reqURL, &resp); err != nil {
		return nil, err
	}

	if resp.Code != "Ok" || len(resp.Waypoints) == 0 {
		s.logger.Debug("no snap candidate", "profile", profile, "code", resp.Code)
		return nil, osrmError(resp.Code, resp.Message)
	}

	wp := resp.Waypoints[0]
	return NearestRoadOutput{
		Snapped:        geo.Location{Latitude: wp.Location[1], Longitude: wp.Location[0]},
		DistanceMeters: wp.Distance,
		Name:           wp.Name,
	}, nil
}

// osrmError wraps OSRM's in-band failure codes. They arrive with HTTP
// 200, so the client cannot classify them.
func osrmError(code, message string) *ToolError {
	if message == "" {
		message = fmt.Sprintf("routing failed with code %s", code)
	}
	return &ToolError{
		Kind:    ErrUpstreamStatus,
		Detail:  osm.ServiceOSRM,
		Message: message,
	}
}

// lonLatPair renders a coordinate in OSRM's longitude-first URL order.
func lonLatPair(loc geo.Location) string {
	return strconv.FormatFloat(loc.Longitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(loc.Latitude, 'f', -1, 64)
}
