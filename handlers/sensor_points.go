package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"agrisense.in/backend/config"
	"agrisense.in/backend/middleware"
	"agrisense.in/backend/models"
)

const (
	defaultPointLimit = 200
	maxPointLimit     = 1000
)

// IngestSensorPoint accepts one rover probe reading over HTTP. The
// relay feeds the same table for readings that arrive over the broker.
func IngestSensorPoint(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	var point models.SensorPoint
	if err := json.NewDecoder(r.Body).Decode(&point); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if point.Latitude == 0 && point.Longitude == 0 {
		http.Error(w, "latitude and longitude are required", http.StatusBadRequest)
		return
	}
	// identity is server-assigned
	point.ID = uuid.Nil
	point.FarmID = session.FarmID
	if point.RecordedAt.Time().IsZero() {
		point.RecordedAt = models.JSONTime(time.Now())
	}

	if err := config.DB.Create(&point).Error; err != nil {
		http.Error(w, "failed to save reading", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(point)
}

// ListSensorPoints returns the farm's readings newest first, optionally
// bounded by ?since=<duration> (e.g. 24h) and ?limit=.
func ListSensorPoints(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	limit := defaultPointLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPointLimit {
			http.Error(w, "limit must be 1-1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	query := config.DB.Where("farm_id = ?", session.FarmID)
	if raw := r.URL.Query().Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			http.Error(w, "since must be a positive duration like 24h", http.StatusBadRequest)
			return
		}
		query = query.Where("recorded_at >= ?", time.Now().Add(-d))
	}

	var points []models.SensorPoint
	if err := query.Order("recorded_at desc").Limit(limit).Find(&points).Error; err != nil {
		http.Error(w, "failed to load readings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(points)
}

// GetLatestSensorPoint returns the newest reading or 404.
func GetLatestSensorPoint(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	var point models.SensorPoint
	err := config.DB.Where("farm_id = ?", session.FarmID).
		Order("recorded_at desc").First(&point).Error
	if err != nil {
		http.Error(w, "no readings yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(point)
}
