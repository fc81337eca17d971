package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agrisense.in/backend/config"
	"agrisense.in/backend/middleware"
	"agrisense.in/backend/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{2,62}$`)

type onboardReq struct {
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	OwnerName string  `json:"ownerName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AccessKey string  `json:"accessKey"`
}

type loginReq struct {
	Slug      string `json:"slug"`
	AccessKey string `json:"accessKey"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	Farm  models.Farm `json:"farm"`
}

// OnboardFarm creates a new tenant and returns its session token.
func OnboardFarm(w http.ResponseWriter, r *http.Request) {
	var req onboardReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		http.Error(w, "slug must be 3-63 lowercase letters, digits or hyphens", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.AccessKey == "" {
		http.Error(w, "name and accessKey are required", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AccessKey), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "error hashing access key", http.StatusInternalServerError)
		return
	}

	farm := models.Farm{
		Slug:          req.Slug,
		Name:          req.Name,
		OwnerName:     req.OwnerName,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		AccessKeyHash: string(hash),
	}
	if err := config.DB.Create(&farm).Error; err != nil {
		http.Error(w, "farm slug already taken", http.StatusConflict)
		return
	}

	token, err := middleware.GenerateToken(farm.ID, farm.Slug, farm.OwnerName)
	if err != nil {
		http.Error(w, "error creating session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sessionResponse{Token: token, Farm: farm})
}

// Login exchanges slug + access key for a session token.
func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	var farm models.Farm
	if err := config.DB.Where("slug = ?", req.Slug).First(&farm).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			http.Error(w, "unknown farm", http.StatusUnauthorized)
			return
		}
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(farm.AccessKeyHash), []byte(req.AccessKey)); err != nil {
		http.Error(w, "invalid access key", http.StatusUnauthorized)
		return
	}

	token, err := middleware.GenerateToken(farm.ID, farm.Slug, farm.OwnerName)
	if err != nil {
		http.Error(w, "error creating session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionResponse{Token: token, Farm: farm})
}

// GetFarm returns the session's farm metadata.
func GetFarm(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}
	slug := mux.Vars(r)["slug"]

	var farm models.Farm
	if err := config.DB.Where("id = ? AND slug = ?", session.FarmID, slug).First(&farm).Error; err != nil {
		http.Error(w, "farm not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(farm)
}
