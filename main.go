package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"agrisense.in/backend/config"
	"agrisense.in/backend/handlers"
	"agrisense.in/backend/pkg/ai"
	"agrisense.in/backend/pkg/predict"
	"agrisense.in/backend/pkg/relay"
	"agrisense.in/backend/routes"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {

	versionFlag := flag.Bool("version", false, "Print version info and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}
	config.Connect()
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := config.SeedDemoFarm(); err != nil {
		log.Printf("Warning: demo farm seeding failed: %v", err)
	}

	handlers.PredictClient = predict.New(config.PredictBaseURL())

	if config.LLMEndpoint() != "" && config.LLMAPIKey() != "" {
		handlers.AIClient = ai.NewOpenAI(config.LLMEndpoint(), config.LLMAPIKey(), config.LLMModel())
	} else {
		log.Println("LLM endpoint not configured, using mock analysis client")
		handlers.AIClient = ai.NewMock()
	}

	// One broker connection for the process; no auto-reconnect, a lost
	// connection stays down until restart.
	telemetry := relay.New(config.BrokerURL(), config.TopicPrefix(), handlers.BrokerSampleStore{})
	if err := telemetry.Connect(context.Background()); err != nil {
		log.Printf("Warning: telemetry relay unavailable: %v", err)
	}
	defer telemetry.Close()
	handlers.TelemetryRelay = telemetry

	handler := routes.RegisterRoutes()
	handlerWithCORS := enableCORS(handler)
	log.Println("Server starting at port", port)
	log.Fatal(http.ListenAndServe(":"+port, handlerWithCORS))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		// Handle preflight (OPTIONS)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
