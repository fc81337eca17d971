package ai

import (
	"context"
	"fmt"
)

type mockClient struct{}

// NewMock returns a deterministic client for tests and key-less dev
// runs. It applies the same thresholds the system prompt describes.
func NewMock() Client { return &mockClient{} }

func (m *mockClient) Analyze(_ context.Context, in Input) (*Analysis, error) {
	status := "Soil in good shape"
	todos := make([]string, 0, 3)

	if in.Moisture < 40 {
		status = "Soil too dry"
		todos = append(todos, fmt.Sprintf("Irrigate to raise moisture from %.0f%% toward 40-60%%", in.Moisture))
	} else if in.Moisture > 60 {
		status = "Soil waterlogged"
		todos = append(todos, "Pause irrigation until moisture drops below 60%")
	}
	if in.PH < 6.0 {
		todos = append(todos, "Apply lime to raise soil pH")
	} else if in.PH > 7.5 {
		todos = append(todos, "Apply sulphur amendment to lower soil pH")
	}
	if in.Nitrogen < 40 {
		todos = append(todos, "Top-dress nitrogen fertilizer")
	}
	if len(todos) == 0 {
		todos = append(todos, "Maintain the current irrigation schedule")
	}
	for len(todos) < 3 {
		todos = append(todos, "Continue monitoring sensor readings")
	}

	return &Analysis{
		Summary: fmt.Sprintf("Farm %s: moisture %.1f%%, pH %.2f, EC %.2f dS/m at %.1fC. Nutrient levels N/P/K %d/%d/%d ppm.",
			in.FarmSlug, in.Moisture, in.PH, in.Conductivity, in.Temperature,
			in.Nitrogen, in.Phosphorus, in.Potassium),
		Todos:  todos[:3],
		Status: status,
	}, nil
}
