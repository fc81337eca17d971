package utils

import (
	"testing"

	"agrisense.in/backend/models"
)

func fptr(v float64) *float64 { return &v }

func TestFieldMeans(t *testing.T) {
	tests := []struct {
		name     string
		points   []models.SensorPoint
		fields   []string
		expected map[string]*float64
	}{
		{
			name: "partial fields contribute independently",
			points: []models.SensorPoint{
				{Moisture: fptr(10)},
				{Moisture: fptr(30)},
				{Temperature: fptr(20)},
			},
			fields:   []string{models.FieldMoisture, models.FieldTemperature},
			expected: map[string]*float64{models.FieldMoisture: fptr(20), models.FieldTemperature: fptr(20)},
		},
		{
			name:     "empty set yields nil for every field",
			points:   nil,
			fields:   []string{models.FieldPH, models.FieldConductivity},
			expected: map[string]*float64{models.FieldPH: nil, models.FieldConductivity: nil},
		},
		{
			name: "measured zero is not no-data",
			points: []models.SensorPoint{
				{Temperature: fptr(0)},
			},
			fields:   []string{models.FieldTemperature, models.FieldMoisture},
			expected: map[string]*float64{models.FieldTemperature: fptr(0), models.FieldMoisture: nil},
		},
		{
			name: "unknown field name yields nil",
			points: []models.SensorPoint{
				{Moisture: fptr(42)},
			},
			fields:   []string{"salinity"},
			expected: map[string]*float64{"salinity": nil},
		},
		{
			name: "all points contribute",
			points: []models.SensorPoint{
				{PH: fptr(6.0), Conductivity: fptr(1.0)},
				{PH: fptr(7.0), Conductivity: fptr(2.0)},
				{PH: fptr(8.0), Conductivity: fptr(3.0)},
			},
			fields:   []string{models.FieldPH, models.FieldConductivity},
			expected: map[string]*float64{models.FieldPH: fptr(7.0), models.FieldConductivity: fptr(2.0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldMeans(tt.points, tt.fields)
			if len(got) != len(tt.expected) {
				t.Fatalf("FieldMeans returned %d entries, expected %d", len(got), len(tt.expected))
			}
			for field, want := range tt.expected {
				have, ok := got[field]
				if !ok {
					t.Errorf("missing entry for %q", field)
					continue
				}
				switch {
				case want == nil && have != nil:
					t.Errorf("%q = %v, expected nil", field, *have)
				case want != nil && have == nil:
					t.Errorf("%q = nil, expected %v", field, *want)
				case want != nil && have != nil && *have != *want:
					t.Errorf("%q = %v, expected %v", field, *have, *want)
				}
			}
		})
	}
}

func TestMeanOrZero(t *testing.T) {
	means := map[string]*float64{
		models.FieldMoisture:    fptr(55.5),
		models.FieldTemperature: nil,
	}
	if v := MeanOrZero(means, models.FieldMoisture); v != 55.5 {
		t.Errorf("MeanOrZero(moisture) = %v, expected 55.5", v)
	}
	if v := MeanOrZero(means, models.FieldTemperature); v != 0 {
		t.Errorf("MeanOrZero(temperature) = %v, expected 0", v)
	}
	if v := MeanOrZero(means, "missing"); v != 0 {
		t.Errorf("MeanOrZero(missing) = %v, expected 0", v)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in       float64
		expected int
	}{
		{45.6, 46},
		{12.3, 12},
		{12.5, 13},
		{-2.5, -3},
		{0, 0},
	}
	for _, tt := range tests {
		if got := RoundHalfUp(tt.in); got != tt.expected {
			t.Errorf("RoundHalfUp(%v) = %d, expected %d", tt.in, got, tt.expected)
		}
	}
}
