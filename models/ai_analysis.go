package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// AIAnalysis is one entry in the append-only log of language-model soil
// summaries. InputSnapshot preserves exactly what was sent to the model
// (sensor means plus predicted nutrient ppms) so a row stays
// interpretable after newer sensor data arrives.
type AIAnalysis struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID uuid.UUID `gorm:"type:uuid;index;not null" json:"farmId"`
	Farm   Farm      `gorm:"foreignKey:FarmID" json:"-"`

	InputSnapshot datatypes.JSON `gorm:"column:input_snapshot;type:jsonb;not null" json:"inputSnapshot"`

	Summary string         `gorm:"not null" json:"summary"`
	Todos   pq.StringArray `gorm:"type:text[];not null" json:"todos"`
	Status  string         `gorm:"not null" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
