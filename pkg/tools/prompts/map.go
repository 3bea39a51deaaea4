// Package prompts provides usage guidance served to MCP clients
// alongside the map tools.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMapPrompts registers all map tool guidance prompts with the
// MCP server.
func RegisterMapPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("map_tools",
		mcp.WithPromptDescription("How to choose between the map tools and read their results"),
	), MapToolsPromptHandler)

	s.AddPrompt(mcp.NewPrompt("geocoding_examples",
		mcp.WithPromptDescription("Examples of effective geocoding and POI search calls"),
	), GeocodingExamplesHandler)

	s.AddPrompt(mcp.NewPrompt("routing_examples",
		mcp.WithPromptDescription("Examples of effective routing and road snapping calls"),
	), RoutingExamplesHandler)
}

// MapToolsPromptHandler returns the main prompt describing the tool
// family and its result envelope.
func MapToolsPromptHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	systemPrompt := `You have access to map tools backed by OpenStreetMap services:

- osm_geocode: free-form place or address text to coordinates
- osm_reverse_geocode: coordinates to the nearest address
- osm_search_poi: named places around a point, nearest first
- osrm_route_driving / osrm_route_cycling: route between two points
- osrm_nearest_road: snap a point onto the road network

Every result is a JSON envelope. Success looks like
{"status":"ok","data":{...}} and failure looks like
{"status":"error","kind":"...","detail":"...","message":"..."}.

READING RESULTS:
1. "status":"ok" with an empty result list is a real answer, not a
   failure. It means nothing matched; say so instead of retrying.
2. An empty display_name from osm_reverse_geocode means no mapped
   feature exists near the point, for example open ocean.
3. Distances are meters, durations are seconds, coordinates are
   decimal degrees.

HANDLING ERRORS BY KIND:
- "validation": an argument is wrong. Fix the named parameter before
  calling again, never retry the same arguments.
- "timeout" or "network": the service was unreachable. One retry is
  reasonable, then tell the user the service is unavailable.
- "upstream_status": read the message. A rate limit message means
  wait before retrying; a routing code like NoRoute means the points
  cannot be connected and retrying will not help.
- "bad_payload" or "internal": do not retry, report the failure.`

	return mcp.NewGetPromptResult(
		"Map Tool Usage Guidelines",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(systemPrompt),
			),
		},
	), nil
}

// GeocodingExamplesHandler returns examples for the geocoding and POI
// search tools.
func GeocodingExamplesHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	examplesPrompt := `EXAMPLES OF EFFECTIVE GEOCODING USAGE:

User: "Where is the Eiffel Tower?"
AI: *uses osm_geocode with address: "Eiffel Tower, Paris, France"*

User: "What's at 52.5163, 13.3777?"
AI: *uses osm_reverse_geocode with latitude: 52.5163, longitude: 13.3777*

User: "Find cafes near Alexanderplatz"
AI: *uses osm_geocode with address: "Alexanderplatz, Berlin, Germany",
then osm_search_poi with the returned coordinates and
category: "cafe"*

QUERY FORMATTING:
1. Include city and country for landmarks, "Sydney Opera House,
   Sydney, Australia" rather than "The Opera House".
2. Drop parenthetical alternate names, "Blue Temple Chiang Rai
   Thailand" rather than "Blue Temple (Wat Rong Suea Ten)".
3. When a lookup returns no results, simplify the query step by step
   instead of repeating it.
4. Pick the result with the highest importance when several match.

POI SEARCH:
1. category accepts common names like restaurant, cafe, pharmacy,
   hotel, park, supermarket, fuel, or any raw OSM amenity value.
2. Results come back nearest first with distance_meters filled in.
3. Widen radius_meters (up to 5000) before concluding nothing is
   nearby.`

	return mcp.NewGetPromptResult(
		"Geocoding and POI Search Examples",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(examplesPrompt),
			),
		},
	), nil
}

// RoutingExamplesHandler returns examples for the routing tools.
func RoutingExamplesHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	examplesPrompt := `EXAMPLES OF EFFECTIVE ROUTING USAGE:

User: "How do I drive from the Brandenburg Gate to Alexanderplatz?"
AI: *geocodes both names, then uses osrm_route_driving with
start_lat, start_lon, end_lat, end_lon from the geocoding results*

User: "How long is that by bike?"
AI: *uses osrm_route_cycling with the same coordinates*

User: "Which road is closest to 52.5170, 13.3888?"
AI: *uses osrm_nearest_road with latitude: 52.5170, longitude: 13.3888*

ROUTING GUIDELINES:
1. Route endpoints are coordinates, not names. Geocode names first.
2. distance_meters and duration_seconds describe the whole route;
   geometry is the route shape as a list of coordinates.
3. If a route fails with NoRoute or NoSegment, the endpoints may be
   off the road network. Snap them with osrm_nearest_road and route
   between the snapped points.
4. A nearest_road result includes how far the snap moved the point;
   mention the road name when it helps the user orient.`

	return mcp.NewGetPromptResult(
		"Routing Examples",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(examplesPrompt),
			),
		},
	), nil
}
