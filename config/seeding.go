package config

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agrisense.in/backend/models"
)

// SeedDemoFarm creates the demo tenant used by local front-end
// development. Skips silently when the slug already exists or when
// DEMO_FARM_KEY is unset.
func SeedDemoFarm() error {
	key := os.Getenv("DEMO_FARM_KEY")
	if key == "" {
		return nil
	}

	var existing models.Farm
	err := DB.Where("slug = ?", "demo-farm").First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	farm := models.Farm{
		Slug:          "demo-farm",
		Name:          "Demo Farm",
		OwnerName:     "AgriSense",
		Latitude:      13.7563,
		Longitude:     100.5018,
		AccessKeyHash: string(hash),
	}
	if err := DB.Create(&farm).Error; err != nil {
		return err
	}
	log.Println("Seeded demo farm:", farm.ID)
	return nil
}
