package models

import (
	"time"

	"github.com/google/uuid"
)

// Farm is one tenant. Every operational row in the system hangs off a
// farm id, and the human-chosen slug is what the dashboard logs in with.
type Farm struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug          string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name          string    `gorm:"not null" json:"name"`
	OwnerName     string    `gorm:"column:owner_name;not null" json:"ownerName"`
	Latitude      float64   `gorm:"not null" json:"latitude"`
	Longitude     float64   `gorm:"not null" json:"longitude"`
	AccessKeyHash string    `gorm:"column:access_key_hash;not null" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
