package models

import (
	"time"

	"github.com/google/uuid"
)

// Sensor field names used by the aggregation pipeline. These match the
// JSON keys so a field list can be passed straight to utils.FieldMeans.
const (
	FieldMoisture     = "moisture"
	FieldTemperature  = "temperature"
	FieldPH           = "ph"
	FieldConductivity = "conductivity"
)

// SensorPoint is one geolocated probe reading pushed by the rover,
// either over HTTP or through the telemetry relay. Position is always
// present; each sensor reading is independently optional because the
// probe reports whatever subset of its sensors responded.
type SensorPoint struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID uuid.UUID `gorm:"type:uuid;index;not null" json:"farmId"`
	Farm   Farm      `gorm:"foreignKey:FarmID" json:"-"`

	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`

	Moisture     *float64 `json:"moisture,omitempty"`     // percent, 0-100
	Temperature  *float64 `json:"temperature,omitempty"`  // celsius
	PH           *float64 `gorm:"column:ph" json:"ph,omitempty"`
	Conductivity *float64 `json:"conductivity,omitempty"` // dS/m

	RecordedAt JSONTime  `gorm:"column:recorded_at;index;not null" json:"recordedAt"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// Reading returns the named sensor field, nil when the probe did not
// report it or the name is unknown.
func (p *SensorPoint) Reading(field string) *float64 {
	switch field {
	case FieldMoisture:
		return p.Moisture
	case FieldTemperature:
		return p.Temperature
	case FieldPH:
		return p.PH
	case FieldConductivity:
		return p.Conductivity
	default:
		return nil
	}
}
