package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agrisense.in/backend/config"
	"agrisense.in/backend/middleware"
	"agrisense.in/backend/models"
	"agrisense.in/backend/pkg/ai"
	"agrisense.in/backend/pkg/predict"
	"agrisense.in/backend/utils"
)

// Clients are wired in main; tests swap them for fakes.
var (
	PredictClient *predict.Client
	AIClient      ai.Client
)

// analysisWindowLimit caps how many recent points feed one aggregation.
const analysisWindowLimit = 500

var sensorFields = []string{
	models.FieldMoisture,
	models.FieldTemperature,
	models.FieldPH,
	models.FieldConductivity,
}

// analysisInFlight guards against overlapping runs for the same farm.
// The source dashboard let two clicks race and double-insert; here the
// second run gets 409.
var analysisInFlight sync.Map

func tryAcquireAnalysis(farmID uuid.UUID) bool {
	_, loaded := analysisInFlight.LoadOrStore(farmID, struct{}{})
	return !loaded
}

func releaseAnalysis(farmID uuid.UUID) {
	analysisInFlight.Delete(farmID)
}

func loadRecentPoints(r *http.Request, farmID uuid.UUID) ([]models.SensorPoint, error) {
	query := config.DB.WithContext(r.Context()).Where("farm_id = ?", farmID)
	if raw := r.URL.Query().Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err == nil && d > 0 {
			query = query.Where("recorded_at >= ?", time.Now().Add(-d))
		}
	}
	var points []models.SensorPoint
	err := query.Order("recorded_at desc").Limit(analysisWindowLimit).Find(&points).Error
	return points, err
}

// meansToSample converts aggregated probe means into the regression
// request shape. Probe moisture is a 0-100 percentage; the model wants
// a 0-1 fraction.
func meansToSample(means map[string]*float64) predict.Sample {
	return predict.Sample{
		Temp:     utils.MeanOrZero(means, models.FieldTemperature),
		Moisture: utils.MeanOrZero(means, models.FieldMoisture) / 100,
		EC:       utils.MeanOrZero(means, models.FieldConductivity),
		PH:       utils.MeanOrZero(means, models.FieldPH),
	}
}

func allNil(means map[string]*float64) bool {
	for _, v := range means {
		if v != nil {
			return false
		}
	}
	return true
}

// RunChemicalAnalysis executes the full pipeline: recent points ->
// field means -> regression endpoint -> new ChemicalEstimate row. Any
// stage error aborts with nothing persisted.
func RunChemicalAnalysis(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}
	if !tryAcquireAnalysis(session.FarmID) {
		http.Error(w, "analysis already running for this farm", http.StatusConflict)
		return
	}
	defer releaseAnalysis(session.FarmID)

	points, err := loadRecentPoints(r, session.FarmID)
	if err != nil {
		http.Error(w, "failed to load readings", http.StatusInternalServerError)
		return
	}

	means := utils.FieldMeans(points, sensorFields)
	if allNil(means) {
		http.Error(w, "no sensor data to analyze", http.StatusUnprocessableEntity)
		return
	}

	nutrients, err := PredictClient.Predict(r.Context(), meansToSample(means))
	if err != nil {
		log.Printf("chemical analysis for %s: %v", session.FarmSlug, err)
		http.Error(w, "nutrient prediction failed", http.StatusBadGateway)
		return
	}

	estimate := models.ChemicalEstimate{
		FarmID:       session.FarmID,
		Nitrogen:     nutrients.Nitrogen,
		Phosphorus:   nutrients.Phosphorus,
		Potassium:    nutrients.Potassium,
		Sulphur:      nutrients.Sulphur,
		Zinc:         nutrients.Zinc,
		Iron:         nutrients.Iron,
		Boron:        nutrients.Boron,
		Copper:       nutrients.Copper,
		Conductivity: utils.MeanOrZero(means, models.FieldConductivity),
		PH:           utils.MeanOrZero(means, models.FieldPH),
	}
	if err := config.DB.WithContext(r.Context()).Create(&estimate).Error; err != nil {
		http.Error(w, "failed to save estimate", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(estimate)
}

// RunAIAnalysis builds the model input from field means plus the latest
// chemical estimate (running a fresh prediction when none exists), asks
// the language model and appends an AIAnalysis row. With ?fallback=1 a
// model failure substitutes the generic fallback instead of aborting;
// the row's status then records the degraded mode.
func RunAIAnalysis(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}
	if !tryAcquireAnalysis(session.FarmID) {
		http.Error(w, "analysis already running for this farm", http.StatusConflict)
		return
	}
	defer releaseAnalysis(session.FarmID)

	points, err := loadRecentPoints(r, session.FarmID)
	if err != nil {
		http.Error(w, "failed to load readings", http.StatusInternalServerError)
		return
	}
	means := utils.FieldMeans(points, sensorFields)
	if allNil(means) {
		http.Error(w, "no sensor data to analyze", http.StatusUnprocessableEntity)
		return
	}

	var estimate models.ChemicalEstimate
	err = config.DB.WithContext(r.Context()).
		Where("farm_id = ?", session.FarmID).
		Order("created_at desc").First(&estimate).Error
	if err == gorm.ErrRecordNotFound {
		nutrients, perr := PredictClient.Predict(r.Context(), meansToSample(means))
		if perr != nil {
			log.Printf("ai analysis for %s: prediction: %v", session.FarmSlug, perr)
			http.Error(w, "nutrient prediction failed", http.StatusBadGateway)
			return
		}
		estimate = models.ChemicalEstimate{
			Nitrogen: nutrients.Nitrogen, Phosphorus: nutrients.Phosphorus,
			Potassium: nutrients.Potassium, Sulphur: nutrients.Sulphur,
			Zinc: nutrients.Zinc, Iron: nutrients.Iron,
			Boron: nutrients.Boron, Copper: nutrients.Copper,
		}
	} else if err != nil {
		http.Error(w, "failed to load estimate", http.StatusInternalServerError)
		return
	}

	input := ai.Input{
		FarmSlug:     session.FarmSlug,
		Moisture:     utils.MeanOrZero(means, models.FieldMoisture),
		Temperature:  utils.MeanOrZero(means, models.FieldTemperature),
		PH:           utils.MeanOrZero(means, models.FieldPH),
		Conductivity: utils.MeanOrZero(means, models.FieldConductivity),
		Nitrogen:     estimate.Nitrogen,
		Phosphorus:   estimate.Phosphorus,
		Potassium:    estimate.Potassium,
		Sulphur:      estimate.Sulphur,
		Zinc:         estimate.Zinc,
		Iron:         estimate.Iron,
		Boron:        estimate.Boron,
	}

	analysis, err := AIClient.Analyze(r.Context(), input)
	if err != nil {
		log.Printf("ai analysis for %s: %v", session.FarmSlug, err)
		if r.URL.Query().Get("fallback") != "1" {
			http.Error(w, "soil analysis failed", http.StatusBadGateway)
			return
		}
		analysis = ai.Fallback(input)
	}

	snapshot, err := json.Marshal(input)
	if err != nil {
		http.Error(w, "failed to encode snapshot", http.StatusInternalServerError)
		return
	}

	record := models.AIAnalysis{
		FarmID:        session.FarmID,
		InputSnapshot: datatypes.JSON(snapshot),
		Summary:       analysis.Summary,
		Todos:         analysis.Todos,
		Status:        analysis.Status,
	}
	if err := config.DB.WithContext(r.Context()).Create(&record).Error; err != nil {
		http.Error(w, "failed to save analysis", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// GetLatestChemicalEstimate returns the newest estimate row or 404.
func GetLatestChemicalEstimate(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	var estimate models.ChemicalEstimate
	err := config.DB.Where("farm_id = ?", session.FarmID).
		Order("created_at desc").First(&estimate).Error
	if err != nil {
		http.Error(w, "no estimate yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(estimate)
}

// GetLatestAIAnalysis returns the newest analysis row or 404.
func GetLatestAIAnalysis(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	var record models.AIAnalysis
	err := config.DB.Where("farm_id = ?", session.FarmID).
		Order("created_at desc").First(&record).Error
	if err != nil {
		http.Error(w, "no analysis yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}
