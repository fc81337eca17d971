package models

import (
	"time"

	"github.com/google/uuid"
)

// ChemicalEstimate is one output of the nutrient-regression pipeline:
// aggregated sensor means sent to the prediction endpoint, response
// rounded to whole ppm and inserted as a new row. Rows are never
// updated; "current" is the newest row for the farm.
type ChemicalEstimate struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID uuid.UUID `gorm:"type:uuid;index;not null" json:"farmId"`
	Farm   Farm      `gorm:"foreignKey:FarmID" json:"-"`

	Nitrogen   int `gorm:"not null" json:"nitrogen"`
	Phosphorus int `gorm:"not null" json:"phosphorus"`
	Potassium  int `gorm:"not null" json:"potassium"`
	Sulphur    int `gorm:"not null" json:"sulphur"`
	Zinc       int `gorm:"not null" json:"zinc"`
	Iron       int `gorm:"not null" json:"iron"`
	Boron      int `gorm:"not null" json:"boron"`
	Copper     int `gorm:"not null" json:"copper"`

	Conductivity float64 `gorm:"not null" json:"conductivity"`
	PH           float64 `gorm:"column:ph;not null" json:"ph"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}
