package osm

import (
	"math"

	"github.com/mapmcp/mapmcp/pkg/geo"
)

// DecodePolyline decodes a polyline5 string into coordinates. OSRM
// returns route geometry in this format: zigzag-encoded deltas at 1e-5
// precision, per Google's polyline algorithm.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
func DecodePolyline(encoded string) []geo.Location {
	points := make([]geo.Location, 0, len(encoded)/4+1)

	var lat, lon int
	for i := 0; i < len(encoded); {
		dLat, n := decodeSigned(encoded[i:])
		if n == 0 {
			break
		}
		i += n
		lat += dLat

		dLon, n := decodeSigned(encoded[i:])
		if n == 0 {
			// Truncated input, drop the half-decoded point.
			break
		}
		i += n
		lon += dLon

		points = append(points, geo.Location{
			Latitude:  float64(lat) * 1e-5,
			Longitude: float64(lon) * 1e-5,
		})
	}
	return points
}

// EncodePolyline encodes coordinates as a polyline5 string, the inverse
// of DecodePolyline.
func EncodePolyline(points []geo.Location) string {
	buf := make([]byte, 0, len(points)*6)

	var prevLat, prevLon int
	for _, p := range points {
		lat := int(math.Round(p.Latitude * 1e5))
		lon := int(math.Round(p.Longitude * 1e5))
		buf = encodeSigned(buf, lat-prevLat)
		buf = encodeSigned(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(buf)
}

// decodeSigned reads one zigzag-encoded value from the front of s,
// returning the value and the number of bytes consumed. A truncated
// chunk yields n == 0.
func decodeSigned(s string) (value, n int) {
	var result, shift int
	for n < len(s) {
		b := int(s[n]) - 63
		n++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			return (result >> 1) ^ (-(result & 1)), n
		}
	}
	return 0, 0
}

// encodeSigned appends one zigzag-encoded value to buf.
func encodeSigned(buf []byte, v int) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte((0x20|(u&0x1f))+63))
		u >>= 5
	}
	return append(buf, byte(u+63))
}
