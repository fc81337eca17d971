package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"agrisense.in/backend/handlers"
	"agrisense.in/backend/middleware"
)

// RegisterRoutes builds the full API router.
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Public routes: onboarding and login
	public := r.PathPrefix("/api/v1").Subrouter()
	public.HandleFunc("/farms", handlers.OnboardFarm).Methods("POST")
	public.HandleFunc("/login", handlers.Login).Methods("POST")
	public.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	// Farm-scoped routes: session token required, slug must match
	farm := r.PathPrefix("/api/v1/farms/{slug}").Subrouter()
	farm.Use(middleware.SessionMiddleware)
	farm.Use(middleware.RequireFarmScope)

	farm.HandleFunc("", handlers.GetFarm).Methods("GET")

	// Sensor ingestion and reads
	farm.HandleFunc("/sensor-points", handlers.IngestSensorPoint).Methods("POST")
	farm.HandleFunc("/sensor-points", handlers.ListSensorPoints).Methods("GET")
	farm.HandleFunc("/sensor-points/latest", handlers.GetLatestSensorPoint).Methods("GET")
	farm.HandleFunc("/export/sensor-points.xlsx", handlers.ExportSensorPointsToExcel).Methods("GET")

	// Derived-estimate pipeline
	farm.HandleFunc("/analysis/chemical", handlers.RunChemicalAnalysis).Methods("POST")
	farm.HandleFunc("/analysis/chemical/latest", handlers.GetLatestChemicalEstimate).Methods("GET")
	farm.HandleFunc("/analysis/ai", handlers.RunAIAnalysis).Methods("POST")
	farm.HandleFunc("/analysis/ai/latest", handlers.GetLatestAIAnalysis).Methods("GET")

	// Navigation
	farm.HandleFunc("/waypoints", handlers.CreateWaypoint).Methods("POST")
	farm.HandleFunc("/waypoints", handlers.ListWaypoints).Methods("GET")
	farm.HandleFunc("/waypoints/{id}", handlers.UpdateWaypoint).Methods("PUT")
	farm.HandleFunc("/waypoints/{id}", handlers.DeleteWaypoint).Methods("DELETE")
	farm.HandleFunc("/paths", handlers.CreateWaypointPath).Methods("POST")
	farm.HandleFunc("/paths", handlers.ListWaypointPaths).Methods("GET")
	farm.HandleFunc("/paths/{id}/activate", handlers.ActivateWaypointPath).Methods("POST")
	farm.HandleFunc("/paths/{id}", handlers.DeleteWaypointPath).Methods("DELETE")

	// Telemetry
	farm.HandleFunc("/telemetry", handlers.StreamTelemetry).Methods("GET")
	farm.HandleFunc("/rover/command", handlers.SendRoverCommand).Methods("POST")

	return r
}
