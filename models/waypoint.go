package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Waypoint is a single named navigation target on the farm map.
type Waypoint struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID uuid.UUID `gorm:"type:uuid;index;not null" json:"farmId"`
	Farm   Farm      `gorm:"foreignKey:FarmID" json:"-"`

	Name      string  `gorm:"not null" json:"name"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	Active    bool    `gorm:"not null;default:false" json:"active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// WaypointPath is an ordered route the rover can be told to follow.
// Coordinates holds a JSON array of {lat, lng} objects; at most one path
// per farm is active at a time.
type WaypointPath struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID uuid.UUID `gorm:"type:uuid;index;not null" json:"farmId"`
	Farm   Farm      `gorm:"foreignKey:FarmID" json:"-"`

	Name        string         `gorm:"not null" json:"name"`
	Coordinates datatypes.JSON `gorm:"type:jsonb;not null" json:"coordinates"`
	Active      bool           `gorm:"not null;default:false" json:"active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
