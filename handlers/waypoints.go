package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"agrisense.in/backend/config"
	"agrisense.in/backend/middleware"
	"agrisense.in/backend/models"
	"agrisense.in/backend/utils"
)

// pathResponse decorates a stored path with geometry computed from its
// coordinates.
type pathResponse struct {
	models.WaypointPath
	LengthMeters float64 `json:"lengthMeters"`
}

func decoratePath(path models.WaypointPath) pathResponse {
	out := pathResponse{WaypointPath: path}
	if coords, err := utils.ParsePathCoordinates(path.Coordinates); err == nil {
		out.LengthMeters = utils.PathLengthMeters(coords)
	}
	return out
}

func CreateWaypoint(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	var wp models.Waypoint
	if err := json.NewDecoder(r.Body).Decode(&wp); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if wp.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if wp.Latitude < -90 || wp.Latitude > 90 || wp.Longitude < -180 || wp.Longitude > 180 {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}
	// identity is server-assigned
	wp.ID = uuid.Nil
	wp.FarmID = session.FarmID

	if err := config.DB.Create(&wp).Error; err != nil {
		http.Error(w, "failed to save waypoint", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(wp)
}

func ListWaypoints(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	var waypoints []models.Waypoint
	if err := config.DB.Where("farm_id = ?", session.FarmID).Order("created_at asc").Find(&waypoints).Error; err != nil {
		http.Error(w, "failed to load waypoints", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(waypoints)
}

func UpdateWaypoint(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	var wp models.Waypoint
	if err := config.DB.Where("id = ? AND farm_id = ?", id, session.FarmID).First(&wp).Error; err != nil {
		http.Error(w, "waypoint not found", http.StatusNotFound)
		return
	}

	// identity and scope come from the URL and session, never from the
	// body; only the mutable fields are copied over
	var req models.Waypoint
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}
	wp.Name = req.Name
	wp.Latitude = req.Latitude
	wp.Longitude = req.Longitude
	wp.Active = req.Active

	if err := config.DB.Save(&wp).Error; err != nil {
		http.Error(w, "failed to update waypoint", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wp)
}

func DeleteWaypoint(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	result := config.DB.Where("id = ? AND farm_id = ?", id, session.FarmID).Delete(&models.Waypoint{})
	if result.Error != nil {
		http.Error(w, "failed to delete waypoint", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "waypoint not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func CreateWaypointPath(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	var path models.WaypointPath
	if err := json.NewDecoder(r.Body).Decode(&path); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if path.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if _, err := utils.ParsePathCoordinates(path.Coordinates); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	path.ID = uuid.Nil
	path.FarmID = session.FarmID
	path.Active = false

	if err := config.DB.Create(&path).Error; err != nil {
		http.Error(w, "failed to save path", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(decoratePath(path))
}

func ListWaypointPaths(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	var paths []models.WaypointPath
	if err := config.DB.Where("farm_id = ?", session.FarmID).Order("created_at asc").Find(&paths).Error; err != nil {
		http.Error(w, "failed to load paths", http.StatusInternalServerError)
		return
	}

	out := make([]pathResponse, 0, len(paths))
	for _, p := range paths {
		out = append(out, decoratePath(p))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// ActivateWaypointPath makes the given path the farm's active route,
// deactivating any other, in one transaction.
func ActivateWaypointPath(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	var path models.WaypointPath
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND farm_id = ?", id, session.FarmID).First(&path).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.WaypointPath{}).
			Where("farm_id = ? AND active", session.FarmID).
			Update("active", false).Error; err != nil {
			return err
		}
		path.Active = true
		return tx.Save(&path).Error
	})
	if err == gorm.ErrRecordNotFound {
		http.Error(w, "path not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to activate path", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decoratePath(path))
}

func DeleteWaypointPath(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	result := config.DB.Where("id = ? AND farm_id = ?", id, session.FarmID).Delete(&models.WaypointPath{})
	if result.Error != nil {
		http.Error(w, "failed to delete path", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "path not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
