package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/datatypes"

	"agrisense.in/backend/config"
	"agrisense.in/backend/models"
)

var validPathCoords = `[{"lat":13.75,"lng":100.50},{"lat":13.76,"lng":100.51},{"lat":13.77,"lng":100.52}]`

func TestCreateWaypoint(t *testing.T) {
	setupDB(t)
	_, session := newFarm(t, "wp-farm")

	supplied := uuid.New()
	w := httptest.NewRecorder()
	CreateWaypoint(w, scopedRequest(t, session, "POST", "/waypoints", map[string]interface{}{
		"id": supplied, "name": "north gate", "latitude": 13.76, "longitude": 100.51,
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var wp models.Waypoint
	json.Unmarshal(w.Body.Bytes(), &wp)
	if wp.FarmID != session.FarmID || wp.Name != "north gate" {
		t.Errorf("waypoint = %+v", wp)
	}
	if wp.ID == supplied {
		t.Error("client-supplied id was honored, expected server-assigned identity")
	}

	// invalid coordinates
	w = httptest.NewRecorder()
	CreateWaypoint(w, scopedRequest(t, session, "POST", "/waypoints", map[string]interface{}{
		"name": "bad", "latitude": 95.0, "longitude": 0.0,
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range status = %d, expected 400", w.Code)
	}
}

func TestCreateWaypointPathValidatesGeometry(t *testing.T) {
	setupDB(t)
	_, session := newFarm(t, "path-farm")

	w := httptest.NewRecorder()
	CreateWaypointPath(w, scopedRequest(t, session, "POST", "/paths", map[string]interface{}{
		"name":        "survey loop",
		"coordinates": json.RawMessage(validPathCoords),
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp pathResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.LengthMeters <= 0 {
		t.Errorf("lengthMeters = %v, expected positive", resp.LengthMeters)
	}
	if resp.Active {
		t.Error("new path created active")
	}

	// a one-point path is not drivable
	w = httptest.NewRecorder()
	CreateWaypointPath(w, scopedRequest(t, session, "POST", "/paths", map[string]interface{}{
		"name":        "dot",
		"coordinates": json.RawMessage(`[{"lat":1,"lng":2}]`),
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("single-point path status = %d, expected 400", w.Code)
	}
}

func TestActivateWaypointPathIsExclusive(t *testing.T) {
	setupDB(t)
	farm, session := newFarm(t, "active-farm")

	first := models.WaypointPath{FarmID: farm.ID, Name: "a", Coordinates: datatypes.JSON(validPathCoords), Active: true}
	second := models.WaypointPath{FarmID: farm.ID, Name: "b", Coordinates: datatypes.JSON(validPathCoords)}
	config.DB.Create(&first)
	config.DB.Create(&second)

	req := scopedRequest(t, session, "POST", "/paths/"+second.ID.String()+"/activate", nil)
	req = mux.SetURLVars(req, map[string]string{"id": second.ID.String()})
	w := httptest.NewRecorder()
	ActivateWaypointPath(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var active []models.WaypointPath
	config.DB.Where("farm_id = ? AND active", farm.ID).Find(&active)
	if len(active) != 1 || active[0].ID != second.ID {
		t.Errorf("active paths = %+v, expected only the activated one", active)
	}
}

func TestUpdateWaypointKeepsIdentityFromURL(t *testing.T) {
	setupDB(t)
	victimFarm, _ := newFarm(t, "victim-update-farm")
	ownFarm, ownSession := newFarm(t, "own-update-farm")

	victimWP := models.Waypoint{FarmID: victimFarm.ID, Name: "victim gate", Latitude: 1, Longitude: 2}
	config.DB.Create(&victimWP)
	ownWP := models.Waypoint{FarmID: ownFarm.ID, Name: "own gate", Latitude: 3, Longitude: 4}
	config.DB.Create(&ownWP)

	// a body-supplied id must not redirect the write to another row
	req := scopedRequest(t, ownSession, "PUT", "/waypoints/"+ownWP.ID.String(), map[string]interface{}{
		"id": victimWP.ID, "farmId": victimFarm.ID,
		"name": "hijacked", "latitude": 3.0, "longitude": 4.0,
	})
	req = mux.SetURLVars(req, map[string]string{"id": ownWP.ID.String()})
	w := httptest.NewRecorder()
	UpdateWaypoint(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var victim models.Waypoint
	config.DB.First(&victim, "id = ?", victimWP.ID)
	if victim.Name != "victim gate" || victim.FarmID != victimFarm.ID {
		t.Errorf("another tenant's row was rewritten: %+v", victim)
	}
	var own models.Waypoint
	config.DB.First(&own, "id = ?", ownWP.ID)
	if own.Name != "hijacked" || own.FarmID != ownFarm.ID {
		t.Errorf("own row = %+v, expected the rename applied in place", own)
	}
}

func TestUpdateWaypointRevalidatesCoordinates(t *testing.T) {
	setupDB(t)
	farm, session := newFarm(t, "revalidate-farm")
	wp := models.Waypoint{FarmID: farm.ID, Name: "gate", Latitude: 1, Longitude: 2}
	config.DB.Create(&wp)

	req := scopedRequest(t, session, "PUT", "/waypoints/"+wp.ID.String(), map[string]interface{}{
		"name": "gate", "latitude": 95.0, "longitude": 0.0,
	})
	req = mux.SetURLVars(req, map[string]string{"id": wp.ID.String()})
	w := httptest.NewRecorder()
	UpdateWaypoint(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range update status = %d, expected 400", w.Code)
	}
}

func TestDeleteWaypointScoping(t *testing.T) {
	setupDB(t)
	farm, _ := newFarm(t, "victim-farm")
	_, otherSession := newFarm(t, "intruder-farm")

	wp := models.Waypoint{FarmID: farm.ID, Name: "gate", Latitude: 1, Longitude: 2}
	config.DB.Create(&wp)

	// another tenant cannot delete it
	req := scopedRequest(t, otherSession, "DELETE", "/waypoints/"+wp.ID.String(), nil)
	req = mux.SetURLVars(req, map[string]string{"id": wp.ID.String()})
	w := httptest.NewRecorder()
	DeleteWaypoint(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-tenant delete status = %d, expected 404", w.Code)
	}

	var count int64
	config.DB.Model(&models.Waypoint{}).Count(&count)
	if count != 1 {
		t.Errorf("waypoint rows = %d, expected survivor", count)
	}
}
