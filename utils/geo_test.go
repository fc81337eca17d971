package utils

import (
	"math"
	"testing"
)

func TestParsePathCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{"valid two-point path", `[{"lat":13.75,"lng":100.50},{"lat":13.76,"lng":100.51}]`, false, 2},
		{"single point rejected", `[{"lat":13.75,"lng":100.50}]`, true, 0},
		{"empty array rejected", `[]`, true, 0},
		{"malformed JSON rejected", `{"lat":1}`, true, 0},
		{"latitude out of range", `[{"lat":91,"lng":0},{"lat":0,"lng":0}]`, true, 0},
		{"longitude out of range", `[{"lat":0,"lng":-181},{"lat":0,"lng":0}]`, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coords, err := ParsePathCoordinates([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(coords) != tt.wantLen {
				t.Errorf("got %d coordinates, expected %d", len(coords), tt.wantLen)
			}
		})
	}
}

func TestPathLengthMeters(t *testing.T) {
	// One degree of latitude is ~111 km.
	coords := []PathCoordinate{
		{Lat: 13.0, Lng: 100.0},
		{Lat: 14.0, Lng: 100.0},
	}
	length := PathLengthMeters(coords)
	if math.Abs(length-111000) > 1000 {
		t.Errorf("PathLengthMeters = %v, expected ~111000", length)
	}
}

func TestPathBound(t *testing.T) {
	coords := []PathCoordinate{
		{Lat: 13.7, Lng: 100.6},
		{Lat: 13.9, Lng: 100.4},
		{Lat: 13.8, Lng: 100.5},
	}
	min, max := PathBound(coords)
	if min.Lat != 13.7 || min.Lng != 100.4 {
		t.Errorf("min = %+v, expected {13.7 100.4}", min)
	}
	if max.Lat != 13.9 || max.Lng != 100.6 {
		t.Errorf("max = %+v, expected {13.9 100.6}", max)
	}
}
