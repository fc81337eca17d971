// Package ai asks a chat-completions model for a natural-language soil
// summary and recommendations from aggregated sensor and nutrient data.
package ai

import "context"

// Input is the snapshot the model reasons over. Means are raw probe
// units (moisture as a percentage); ppm values come from the regression
// service.
type Input struct {
	FarmSlug string `json:"farmSlug"`

	Moisture     float64 `json:"moisture"`
	Temperature  float64 `json:"temperature"`
	PH           float64 `json:"ph"`
	Conductivity float64 `json:"conductivity"`

	Nitrogen   int `json:"nitrogen"`
	Phosphorus int `json:"phosphorus"`
	Potassium  int `json:"potassium"`
	Sulphur    int `json:"sulphur"`
	Zinc       int `json:"zinc"`
	Iron       int `json:"iron"`
	Boron      int `json:"boron"`
}

// Analysis is the model's structured answer.
type Analysis struct {
	Summary string   `json:"summary"`
	Todos   []string `json:"todos"`
	Status  string   `json:"status"`
}

type Client interface {
	// Analyze returns the model's analysis or an error; it never
	// substitutes defaults on its own. Callers that want the
	// best-effort behavior use Fallback explicitly.
	Analyze(ctx context.Context, in Input) (*Analysis, error)
}

// Fallback is the generic analysis shown when the model cannot be
// reached and the caller asked for best-effort mode.
func Fallback(in Input) *Analysis {
	return &Analysis{
		Summary: "Soil analysis is temporarily unavailable. Readings were recorded and will be analyzed on the next run.",
		Todos: []string{
			"Keep soil moisture in the 40-60% band",
			"Re-run the analysis once connectivity is restored",
		},
		Status: "Analysis pending",
	}
}
