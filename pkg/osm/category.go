package osm

import (
	"sort"
	"strings"
)

// TagFilter selects OSM elements carrying a specific tag.
type TagFilter struct {
	Key   string
	Value string
}

// categories maps friendly category names to the OSM tags they cover.
// A single name often spans several tag values since mappers tag the
// same kind of place differently. Order matters for deterministic
// query generation.
var categories = map[string][]TagFilter{
	"restaurant": {
		{Key: "amenity", Value: "restaurant"},
		{Key: "amenity", Value: "fast_food"},
		{Key: "amenity", Value: "food_court"},
	},
	"cafe": {
		{Key: "amenity", Value: "cafe"},
	},
	"bar": {
		{Key: "amenity", Value: "bar"},
		{Key: "amenity", Value: "pub"},
	},
	"hotel": {
		{Key: "tourism", Value: "hotel"},
		{Key: "tourism", Value: "motel"},
		{Key: "tourism", Value: "hostel"},
		{Key: "tourism", Value: "guest_house"},
	},
	"park": {
		{Key: "leisure", Value: "park"},
		{Key: "leisure", Value: "garden"},
	},
	"supermarket": {
		{Key: "shop", Value: "supermarket"},
		{Key: "shop", Value: "convenience"},
	},
	"hospital": {
		{Key: "amenity", Value: "hospital"},
		{Key: "amenity", Value: "clinic"},
	},
	"pharmacy": {
		{Key: "amenity", Value: "pharmacy"},
	},
	"bank": {
		{Key: "amenity", Value: "bank"},
		{Key: "amenity", Value: "atm"},
	},
	"school": {
		{Key: "amenity", Value: "school"},
		{Key: "amenity", Value: "university"},
		{Key: "amenity", Value: "college"},
	},
	"fuel": {
		{Key: "amenity", Value: "fuel"},
	},
	"parking": {
		{Key: "amenity", Value: "parking"},
	},
	"museum": {
		{Key: "tourism", Value: "museum"},
		{Key: "tourism", Value: "gallery"},
	},
	"cinema": {
		{Key: "amenity", Value: "cinema"},
	},
	"library": {
		{Key: "amenity", Value: "library"},
	},
	"bus_station": {
		{Key: "amenity", Value: "bus_station"},
		{Key: "highway", Value: "bus_stop"},
	},
	"train_station": {
		{Key: "railway", Value: "station"},
		{Key: "railway", Value: "halt"},
	},
	"charging_station": {
		{Key: "amenity", Value: "charging_station"},
	},
}

// ResolveCategory returns the tag filters for a category name, matched
// case-insensitively. Unknown names fall back to amenity=<name>, so raw
// OSM amenity values keep working as categories.
func ResolveCategory(name string) []TagFilter {
	key := strings.ToLower(strings.TrimSpace(name))
	if filters, ok := categories[key]; ok {
		return filters
	}
	return []TagFilter{{Key: "amenity", Value: key}}
}

// KnownCategories lists the recognized category names in sorted order,
// for tool descriptions and diagnostics.
func KnownCategories() []string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
