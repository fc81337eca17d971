package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	dsn := os.Getenv("DB_DSN")
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrations(DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// PredictBaseURL is the host of the nutrient regression service.
// Predict posts to <base>/predict.
func PredictBaseURL() string {
	return getenv("PREDICT_URL", "http://localhost:9000")
}

func LLMEndpoint() string { return os.Getenv("LLM_ENDPOINT") }
func LLMAPIKey() string   { return os.Getenv("LLM_API_KEY") }
func LLMModel() string    { return getenv("LLM_MODEL", "gpt-4o-mini") }

// BrokerURL is the MQTT broker address, wss:// for the hosted broker or
// tcp:// for a local one.
func BrokerURL() string { return getenv("MQTT_BROKER_URL", "wss://broker.emqx.io:8084/mqtt") }

// TopicPrefix namespaces every relay topic, e.g. "agrisense".
func TopicPrefix() string { return getenv("MQTT_TOPIC_PREFIX", "agrisense") }
