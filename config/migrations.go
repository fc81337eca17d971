package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"agrisense.in/backend/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250610_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Farm{}, &models.SensorPoint{},
					&models.ChemicalEstimate{}, &models.AIAnalysis{})
			},
		},
		{
			ID: "20250702_add_navigation_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Waypoint{}, &models.WaypointPath{})
			},
		},
		{
			ID: "20250811_index_latest_reads",
			Migrate: func(tx *gorm.DB) error {
				// The dashboard always reads "newest row per farm"; give
				// those scans a composite index.
				if err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_chemical_estimates_farm_created ON chemical_estimates (farm_id, created_at DESC)").Error; err != nil {
					return err
				}
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_ai_analyses_farm_created ON ai_analyses (farm_id, created_at DESC)").Error
			},
		},
	})

	return m.Migrate()
}
