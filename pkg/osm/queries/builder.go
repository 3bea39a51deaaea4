// Package queries builds Overpass QL statements.
package queries

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// OverpassBuilder composes an Overpass query from element filters.
// Elements are collected first and assembled by Build, which wraps them
// in a union group and appends the output statement.
type OverpassBuilder struct {
	timeout  int
	output   string
	elements []string
}

// NewOverpassBuilder returns a builder for a JSON query with the
// default "center" output, which resolves ways and relations to a
// single representative coordinate.
func NewOverpassBuilder() *OverpassBuilder {
	return &OverpassBuilder{output: "center"}
}

// WithTimeout sets the server-side evaluation limit in seconds.
func (b *OverpassBuilder) WithTimeout(seconds int) *OverpassBuilder {
	b.timeout = seconds
	return b
}

// WithOutput overrides the output statement, e.g. "body" or "geom".
func (b *OverpassBuilder) WithOutput(output string) *OverpassBuilder {
	b.output = output
	return b
}

// WithNode adds a node filter around a point with the given tags.
func (b *OverpassBuilder) WithNode(lat, lon, radius float64, tags map[string]string) *OverpassBuilder {
	return b.around("node", lat, lon, radius, tags)
}

// WithWay adds a way filter around a point with the given tags.
func (b *OverpassBuilder) WithWay(lat, lon, radius float64, tags map[string]string) *OverpassBuilder {
	return b.around("way", lat, lon, radius, tags)
}

// WithRelation adds a relation filter around a point with the given tags.
func (b *OverpassBuilder) WithRelation(lat, lon, radius float64, tags map[string]string) *OverpassBuilder {
	return b.around("relation", lat, lon, radius, tags)
}

// WithAllAround adds node, way, and relation filters for the same spot
// and tags. POI searches want all three since features may be mapped as
// any of them.
func (b *OverpassBuilder) WithAllAround(lat, lon, radius float64, tags map[string]string) *OverpassBuilder {
	return b.WithNode(lat, lon, radius, tags).
		WithWay(lat, lon, radius, tags).
		WithRelation(lat, lon, radius, tags)
}

func (b *OverpassBuilder) around(element string, lat, lon, radius float64, tags map[string]string) *OverpassBuilder {
	var sb strings.Builder
	sb.WriteString(element)
	sb.WriteString("(around:")
	sb.WriteString(formatFloat(radius))
	sb.WriteByte(',')
	sb.WriteString(formatFloat(lat))
	sb.WriteByte(',')
	sb.WriteString(formatFloat(lon))
	sb.WriteByte(')')
	for _, f := range tagFilters(tags) {
		sb.WriteString(f)
	}
	b.elements = append(b.elements, sb.String())
	return b
}

// Build assembles the final query string.
func (b *OverpassBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString("[out:json]")
	if b.timeout > 0 {
		fmt.Fprintf(&sb, "[timeout:%d]", b.timeout)
	}
	sb.WriteString(";(")
	for _, e := range b.elements {
		sb.WriteString(e)
		sb.WriteByte(';')
	}
	sb.WriteString(");out ")
	sb.WriteString(b.output)
	sb.WriteByte(';')
	return sb.String()
}

// tagFilters renders tags as quoted Overpass filters in sorted order so
// queries are deterministic. An empty value matches key presence.
func tagFilters(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filters := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := tags[k]; v == "" {
			filters = append(filters, fmt.Sprintf("[%q]", k))
		} else {
			filters = append(filters, fmt.Sprintf("[%q=%q]", k, v))
		}
	}
	return filters
}

// formatFloat renders a coordinate or radius without exponent notation
// and without trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
