package utils

import (
	"math"

	"agrisense.in/backend/models"
)

// FieldMeans reduces a set of sensor points to the unweighted arithmetic
// mean of each requested field, counting only the points that actually
// report that field. A field with zero contributing points maps to nil,
// which keeps "no sensor data" distinguishable from a measured zero.
// Pure function; the empty set yields all-nil output.
func FieldMeans(points []models.SensorPoint, fields []string) map[string]*float64 {
	means := make(map[string]*float64, len(fields))
	for _, field := range fields {
		var sum float64
		var count int
		for i := range points {
			if v := points[i].Reading(field); v != nil {
				sum += *v
				count++
			}
		}
		if count == 0 {
			means[field] = nil
			continue
		}
		mean := sum / float64(count)
		means[field] = &mean
	}
	return means
}

// MeanOrZero flattens a FieldMeans entry for wire shapes that require a
// number. Callers that care about the no-data case must check the map
// entry itself.
func MeanOrZero(means map[string]*float64, field string) float64 {
	if v := means[field]; v != nil {
		return *v
	}
	return 0
}

// RoundHalfUp rounds to the nearest integer with ties away from zero,
// matching how the dashboard displays predicted ppm values.
func RoundHalfUp(v float64) int {
	return int(math.Round(v))
}
