package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agrisense.in/backend/config"
	"agrisense.in/backend/middleware"
	"agrisense.in/backend/models"
)

// setupDB points config.DB at a fresh in-memory sqlite database with
// the full schema.
func setupDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(&models.Farm{}, &models.SensorPoint{}, &models.ChemicalEstimate{},
		&models.AIAnalysis{}, &models.Waypoint{}, &models.WaypointPath{})
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	config.DB = db
}

// newFarm inserts a tenant and returns it with its session.
func newFarm(t *testing.T, slug string) (*models.Farm, *middleware.FarmSession) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("field-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash key: %v", err)
	}
	farm := &models.Farm{
		Slug:          slug,
		Name:          "Test Farm",
		OwnerName:     "Tester",
		Latitude:      13.75,
		Longitude:     100.50,
		AccessKeyHash: string(hash),
	}
	if err := config.DB.Create(farm).Error; err != nil {
		t.Fatalf("create farm: %v", err)
	}
	return farm, &middleware.FarmSession{FarmID: farm.ID, FarmSlug: farm.Slug, Owner: farm.OwnerName}
}

// scopedRequest builds a pre-authenticated request the way the session
// middleware would hand it to a handler.
func scopedRequest(t *testing.T, session *middleware.FarmSession, method, target string, body interface{}) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		req = httptest.NewRequest(method, target, bytes.NewReader(b))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return middleware.WithFarmSession(req, session)
}

func seedPoint(t *testing.T, farm *models.Farm, age time.Duration, mutate func(*models.SensorPoint)) *models.SensorPoint {
	t.Helper()
	point := &models.SensorPoint{
		FarmID:     farm.ID,
		Latitude:   13.751,
		Longitude:  100.501,
		RecordedAt: models.JSONTime(time.Now().Add(-age)),
	}
	if mutate != nil {
		mutate(point)
	}
	if err := config.DB.Create(point).Error; err != nil {
		t.Fatalf("create point: %v", err)
	}
	return point
}

func fptr(v float64) *float64 { return &v }
