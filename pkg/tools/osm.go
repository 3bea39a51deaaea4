package tools

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mapmcp/mapmcp/pkg/geo"
	"github.com/mapmcp/mapmcp/pkg/osm"
	"github.com/mapmcp/mapmcp/pkg/osm/queries"
)

// overpassTimeoutSeconds is the server-side evaluation limit embedded
// in Overpass queries. The public instance kills slower queries anyway.
const overpassTimeoutSeconds = 25

// latParam declares a required latitude parameter.
func latParam(name, desc string) ParamSpec {
	return ParamSpec{Name: name, Type: TypeFloat, Description: desc, Required: true, Coord: CoordLat}
}

// lonParam declares a required longitude parameter.
func lonParam(name, desc string) ParamSpec {
	return ParamSpec{Name: name, Type: TypeFloat, Description: desc, Required: true, Coord: CoordLon}
}

// OSMServer implements the tools backed by Nominatim and Overpass:
// geocoding, reverse geocoding, and POI search.
type OSMServer struct {
	client *osm.Client
	logger *slog.Logger
}

// NewOSMServer builds the server around a shared service client.
func NewOSMServer(client *osm.Client, logger *slog.Logger) *OSMServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OSMServer{
		client: client,
		logger: logger.With("component", "tools.osm"),
	}
}

// Definitions returns the tool definitions this server contributes.
func (s *OSMServer) Definitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "osm_geocode",
			Description: "Convert a free-form address or place name to geographic coordinates",
			Params: []ParamSpec{
				{Name: "address", Type: TypeString, Description: "Address or place name to search for", Required: true},
				{Name: "limit", Type: TypeInt, Description: "Maximum number of results", Default: 5, Min: floatPtr(1), Max: floatPtr(10)},
			},
			Handler: s.handleGeocode,
		},
		{
			Name:        "osm_reverse_geocode",
			Description: "Convert geographic coordinates to the nearest human-readable address",
			Params: []ParamSpec{
				latParam("latitude", "Latitude of the point to describe"),
				lonParam("longitude", "Longitude of the point to describe"),
				{Name: "zoom", Type: TypeInt, Description: "Detail level of the address, 3 is region and 18 is building", Default: 18, Min: floatPtr(3), Max: floatPtr(18)},
			},
			Handler: s.handleReverseGeocode,
		},
		{
			Name:        "osm_search_poi",
			Description: "Find named points of interest around a location, sorted nearest first",
			Params: []ParamSpec{
				latParam("latitude", "Latitude of the search center"),
				lonParam("longitude", "Longitude of the search center"),
				{Name: "radius_meters", Type: TypeFloat, Description: "Search radius in meters", Default: 500.0, Min: floatPtr(50), Max: floatPtr(5000)},
				{Name: "category", Type: TypeString, Description: "Kind of place to search for: " + strings.Join(osm.KnownCategories(), ", ") + ", or any OSM amenity value", Default: "restaurant"},
				{Name: "limit", Type: TypeInt, Description: "Maximum number of results", Default: 20, Min: floatPtr(1), Max: floatPtr(50)},
			},
			Handler: s.handleSearchPOI,
		},
	}
}

// GeocodeResult is one match for a geocoding query.
type GeocodeResult struct {
	PlaceID     int64        `json:"place_id"`
	DisplayName string       `json:"display_name"`
	Location    geo.Location `json:"location"`
	Type        string       `json:"type"`
	Importance  float64      `json:"importance"`
}

// GeocodeOutput is the payload of osm_geocode. Results is empty, never
// null, when nothing matched.
type GeocodeOutput struct {
	Results []GeocodeResult `json:"results"`
}

func (s *OSMServer) handleGeocode(ctx context.Context, args Args) (any, error) {
	address := args.String("address")
	limit := args.Int("limit")

	reqURL := s.client.BaseURL(osm.ServiceNominatim) + "/search"
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))

	var results []struct {
		PlaceID     int64   `json:"place_id"`
		DisplayName string  `json:"display_name"`
		Lat         string  `json:"lat"`
		Lon         string  `json:"lon"`
		Type        string  `json:"type"`
		Importance  float64 `json:"importance"`
	}
	if err := s.client.GetJSON(ctx, osm.ServiceNominatim, reqURL+"?"+q.Encode(), &results); err != nil {
		return nil, err
	}

	out := GeocodeOutput{Results: make([]GeocodeResult, 0, len(results))}
	for _, r := range results {
		lat, lon, err := parseNominatimCoords(r.Lat, r.Lon)
		if err != nil {
			s.logger.Debug("skipping result with malformed coordinates", "place_id", r.PlaceID, "error", err)
			continue
		}
		out.Results = append(out.Results, GeocodeResult{
			PlaceID:     r.PlaceID,
			DisplayName: r.DisplayName,
			Location:    geo.Location{Latitude: lat, Longitude: lon},
			Type:        r.Type,
			Importance:  r.Importance,
		})
	}
	return out, nil
}

// ReverseGeocodeOutput is the payload of osm_reverse_geocode. An empty
// display name means no mapped feature exists near the point, open
// ocean for instance.
type ReverseGeocodeOutput struct {
	DisplayName string       `json:"display_name"`
	Location    geo.Location `json:"location"`
	Address     geo.Address  `json:"address"`
}

func (s *OSMServer) handleReverseGeocode(ctx context.Context, args Args) (any, error) {
	lat := args.Float("latitude")
	lon := args.Float("longitude")
	zoom := args.Int("zoom")

	reqURL := s.client.BaseURL(osm.ServiceNominatim) + "/reverse"
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", strconv.Itoa(zoom))
	q.Set("format", "json")
	q.Set("addressdetails", "1")

	var result struct {
		Error       string `json:"error"`
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		Address     struct {
			Road        string `json:"road"`
			HouseNumber string `json:"house_number"`
			City        string `json:"city"`
			Town        string `json:"town"`
			Village     string `json:"village"`
			State       string `json:"state"`
			Country     string `json:"country"`
			PostCode    string `json:"postcode"`
		} `json:"address"`
	}
	if err := s.client.GetJSON(ctx, osm.ServiceNominatim, reqURL+"?"+q.Encode(), &result); err != nil {
		return nil, err
	}

	out := ReverseGeocodeOutput{Location: geo.Location{Latitude: lat, Longitude: lon}}
	if result.Error != "" {
		// Nominatim reports unmappable points in-band with status 200.
		// No address is data, not a failure.
		s.logger.Debug("no address at point", "lat", lat, "lon", lon)
		return out, nil
	}

	if rlat, rlon, err := parseNominatimCoords(result.Lat, result.Lon); err == nil {
		out.Location = geo.Location{Latitude: rlat, Longitude: rlon}
	}

	// Smaller settlements report town or village instead of city.
	city := result.Address.City
	if city == "" {
		city = result.Address.Town
	}
	if city == "" {
		city = result.Address.Village
	}

	out.DisplayName = result.DisplayName
	out.Address = geo.Address{
		Road:        result.Address.Road,
		HouseNumber: result.Address.HouseNumber,
		City:        city,
		State:       result.Address.State,
		Country:     result.Address.Country,
		PostCode:    result.Address.PostCode,
	}
	return out, nil
}

// POI is one point of interest found near the search center.
type POI struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Location       geo.Location      `json:"location"`
	Tags           map[string]string `json:"tags"`
	DistanceMeters float64           `json:"distance_meters"`
}

// POIOutput is the payload of osm_search_poi.
type POIOutput struct {
	POIs []POI `json:"pois"`
}

func (s *OSMServer) handleSearchPOI(ctx context.Context, args Args) (any, error) {
	lat := args.Float("latitude")
	lon := args.Float("longitude")
	radius := args.Float("radius_meters")
	category := args.String("category")
	limit := args.Int("limit")

	builder := queries.NewOverpassBuilder().WithTimeout(overpassTimeoutSeconds)
	for _, filter := range osm.ResolveCategory(category) {
		builder.WithAllAround(lat, lon, radius, map[string]string{filter.Key: filter.Value})
	}

	form := url.Values{}
	form.Set("data", builder.Build())

	var resp struct {
		Elements []struct {
			ID     int64   `json:"id"`
			Type   string  `json:"type"`
			Lat    float64 `json:"lat"`
			Lon    float64 `json:"lon"`
			Center *struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"center"`
			Tags map[string]string `json:"tags"`
		} `json:"elements"`
	}
	if err := s.client.PostFormJSON(ctx, osm.ServiceOverpass, s.client.BaseURL(osm.ServiceOverpass), form, &resp); err != nil {
		return nil, err
	}

	center := geo.Location{Latitude: lat, Longitude: lon}
	pois := make([]POI, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		name := el.Tags["name"]
		if name == "" {
			// Unnamed features are rarely useful to an agent.
			continue
		}

		elat, elon := el.Lat, el.Lon
		if el.Center != nil {
			// Ways and relations carry their position in center.
			elat, elon = el.Center.Lat, el.Center.Lon
		}
		if elat == 0 && elon == 0 {
			continue
		}

		loc := geo.Location{Latitude: elat, Longitude: elon}
		pois = append(pois, POI{
			ID:             el.Type + "/" + strconv.FormatInt(el.ID, 10),
			Name:           name,
			Location:       loc,
			Tags:           el.Tags,
			DistanceMeters: geo.Distance(center, loc),
		})
	}

	sort.Slice(pois, func(i, j int) bool {
		return pois[i].DistanceMeters < pois[j].DistanceMeters
	})
	if len(pois) > limit {
		pois = pois[:limit]
	}

	return POIOutput{POIs: pois}, nil
}

// parseNominatimCoords converts the string coordinates Nominatim
// returns into floats.
func parseNominatimCoords(lat, lon string) (float64, float64, error) {
	flat, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, err
	}
	flon, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0, err
	}
	return flat, flon, nil
}
