package tools

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"testing"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestRouteDrivingTool(t *testing.T) {
	var gotPath, gotOverview string
	d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotOverview = r.URL.Query().Get("overview")
		w.Write([]byte(`{
			"code": "Ok",
			"routes": [{
				"distance": 1886.8,
				"duration": 251.5,
				"geometry": "_p~iF~ps|U_ulLnnqC",
				"legs": [{"summary": "Unter den Linden, Karl-Liebknecht-Straße"}]
			}]
		}`))
	}))

	inv := d.Invoke(context.Background(), "osrm_route_driving", map[string]any{
		"start_lat": 52.517037,
		"start_lon": 13.38886,
		"end_lat":   52.529407,
		"end_lon":   13.397634,
	})
	if inv.Err != nil {
		t.Fatalf("Invoke() error = %v", inv.Err)
	}

	// OSRM takes lon,lat pairs separated by semicolons.
	want := "/route/v1/driving/13.38886,52.517037;13.397634,52.529407"
	if gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if gotOverview != "full" {
		t.Errorf("overview = %q, want full", gotOverview)
	}

	env := decodeEnvelope(t, inv.Payload)
	var out RouteOutput
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("data unmarshal: %v", err)
	}

	if out.Profile != "driving" {
		t.Errorf("profile = %q", out.Profile)
	}
	if out.DistanceMeters != 1886.8 || out.DurationSeconds != 251.5 {
		t.Errorf("distance/duration = %g/%g", out.DistanceMeters, out.DurationSeconds)
	}
	if out.Summary != "Unter den Linden, Karl-Liebknecht-Straße" {
		t.Errorf("summary = %q", out.Summary)
	}
	if len(out.Geometry) != 2 {
		t.Fatalf("geometry has %d points, want 2", len(out.Geometry))
	}
	if !almostEqual(out.Geometry[0].Latitude, 38.5, 1e-5) || !almostEqual(out.Geometry[0].Longitude, -120.2, 1e-5) {
		t.Errorf("geometry[0] = %+v", out.Geometry[0])
	}
}

func TestRouteCyclingTool(t *testing.T) {
	var gotPath string
	d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{
			"code": "Ok",
			"routes": [{"distance": 1000, "duration": 120, "geometry": "_p~iF~ps|U", "legs": []}]
		}`))
	}))

	inv := d.Invoke(context.Background(), "osrm_route_cycling", map[string]any{
		"start_lat": 52.517037,
		"start_lon": 13.38886,
		"end_lat":   52.529407,
		"end_lon":   13.397634,
	})
	if inv.Err != nil {
		t.Fatalf("Invoke() error = %v", inv.Err)
	}

	// The demo server hosts the bicycle profile under "bike".
	if !strings.HasPrefix(gotPath, "/route/v1/bike/") {
		t.Errorf("path = %q, want /route/v1/bike/ prefix", gotPath)
	}

	env := decodeEnvelope(t, inv.Payload)
	var out RouteOutput
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("data unmarshal: %v", err)
	}
	// The tool reports its own profile name, not the upstream path.
	if out.Profile != "cycling" {
		t.Errorf("profile = %q, want cycling", out.Profile)
	}
	if out.DistanceMeters != 1000.0 || out.DurationSeconds != 120.0 {
		t.Errorf("distance/duration = %g/%g, want 1000/120", out.DistanceMeters, out.DurationSeconds)
	}
	// Without a leg summary one is synthesized from distance and duration.
	if out.Summary != "1.0 km, 2 min" {
		t.Errorf("summary = %q", out.Summary)
	}
}

func TestRouteToolNoRoute(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{
			name:        "code with message",
			body:        `{"code":"NoRoute","message":"Impossible route between points"}`,
			wantMessage: "Impossible route between points",
		},
		{
			name:        "code without message",
			body:        `{"code":"NoSegment","routes":[]}`,
			wantMessage: "routing failed with code NoSegment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))

			inv := d.Invoke(context.Background(), "osrm_route_driving", map[string]any{
				"start_lat": 52.52,
				"start_lon": 13.405,
				"end_lat":   48.8566,
				"end_lon":   2.3522,
			})
			if inv.Err == nil {
				t.Fatal("Invoke() succeeded, want routing failure")
			}
			if inv.Err.Kind != ErrUpstreamStatus {
				t.Errorf("Kind = %q, want %q", inv.Err.Kind, ErrUpstreamStatus)
			}
			if inv.Err.Detail != "osrm" {
				t.Errorf("Detail = %q, want osrm", inv.Err.Detail)
			}
			if inv.Err.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", inv.Err.Message, tt.wantMessage)
			}
		})
	}
}

func TestNearestRoadTool(t *testing.T) {
	var gotPath, gotNumber string
	d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotNumber = r.URL.Query().Get("number")
		w.Write([]byte(`{
			"code": "Ok",
			"waypoints": [{
				"location": [13.388798, 52.517033],
				"distance": 4.15,
				"name": "Friedrichstraße"
			}]
		}`))
	}))

	inv := d.Invoke(context.Background(), "osrm_nearest_road", map[string]any{
		"latitude":  52.51703,
		"longitude": 13.3888,
	})
	if inv.Err != nil {
		t.Fatalf("Invoke() error = %v", inv.Err)
	}

	if gotPath != "/nearest/v1/driving/13.3888,52.51703" {
		t.Errorf("path = %q", gotPath)
	}
	if gotNumber != "1" {
		t.Errorf("number = %q, want 1", gotNumber)
	}

	env := decodeEnvelope(t, inv.Payload)
	var out NearestRoadOutput
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("data unmarshal: %v", err)
	}

	// OSRM locations arrive lon first.
	if out.Snapped.Latitude != 52.517033 || out.Snapped.Longitude != 13.388798 {
		t.Errorf("snapped = %+v", out.Snapped)
	}
	if out.DistanceMeters != 4.15 {
		t.Errorf("distance_meters = %g", out.DistanceMeters)
	}
	if out.Name != "Friedrichstraße" {
		t.Errorf("name = %q", out.Name)
	}
}

func TestNearestRoadToolProfile(t *testing.T) {
	var gotPath string
	d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"code":"Ok","waypoints":[{"location":[13.4,52.5],"distance":1,"name":""}]}`))
	}))

	// Enum matching is case-insensitive and canonicalizes the value.
	inv := d.Invoke(context.Background(), "osrm_nearest_road", map[string]any{
		"latitude":  52.5,
		"longitude": 13.4,
		"profile":   "CYCLING",
	})
	if inv.Err != nil {
		t.Fatalf("Invoke() error = %v", inv.Err)
	}
	if !strings.HasPrefix(gotPath, "/nearest/v1/bike/") {
		t.Errorf("path = %q, want /nearest/v1/bike/ prefix", gotPath)
	}

	inv = d.Invoke(context.Background(), "osrm_nearest_road", map[string]any{
		"latitude":  52.5,
		"longitude": 13.4,
		"profile":   "walking",
	})
	if inv.Err == nil {
		t.Fatal("Invoke() accepted an unsupported profile")
	}
	if inv.Err.Kind != ErrValidation || inv.Err.Detail != CodeInvalidEnum {
		t.Errorf("Kind/Detail = %q/%q, want %q/%q", inv.Err.Kind, inv.Err.Detail, ErrValidation, CodeInvalidEnum)
	}
}

func TestNearestRoadToolNoSnap(t *testing.T) {
	d := newDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","waypoints":[]}`))
	}))

	inv := d.Invoke(context.Background(), "osrm_nearest_road", map[string]any{
		"latitude":  52.5,
		"longitude": 13.4,
	})
	if inv.Err == nil {
		t.Fatal("Invoke() succeeded with no waypoints")
	}
	if inv.Err.Kind != ErrUpstreamStatus {
		t.Errorf("Kind = %q, want %q", inv.Err.Kind, ErrUpstreamStatus)
	}
}
