package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// systemPrompt pins the agronomy thresholds the model judges readings
// against and constrains the reply to strict JSON.
const systemPrompt = `You are an agronomist assistant for a small-farm soil dashboard.
Judge readings against these bands: pH healthy 6.0-7.5; EC healthy 0.8-2.0 dS/m;
moisture healthy 40-60%; temperature healthy 15-30C. Nutrient ppm is low below:
N 40, P 10, K 80, S 10, Zn 1, Fe 4, B 0.5.
Reply with ONLY a JSON object, no markdown fences, with exactly these keys:
"summary" (2-3 sentence soil condition summary),
"todos" (array of exactly 3 short actionable recommendations),
"status" (a 2-4 word soil status phrase).`

type openAI struct {
	endpoint string
	key      string
	model    string
	httpc    *http.Client
}

// NewOpenAI builds a client against any chat-completions compatible
// endpoint.
func NewOpenAI(endpoint, key, model string) Client {
	return &openAI{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		model:    model,
		httpc:    &http.Client{Timeout: 25 * time.Second},
	}
}

func (c *openAI) Analyze(ctx context.Context, in Input) (*Analysis, error) {
	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": renderUserPrompt(in)},
		},
		"temperature": 0.2,
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ai: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ai: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("ai: empty choices")
	}

	return parseAnalysis(out.Choices[0].Message.Content)
}

func renderUserPrompt(in Input) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Farm %q current readings:\n", in.FarmSlug)
	fmt.Fprintf(&sb, "moisture %.1f%%, temperature %.1fC, pH %.2f, EC %.2f dS/m\n",
		in.Moisture, in.Temperature, in.PH, in.Conductivity)
	fmt.Fprintf(&sb, "Predicted nutrients (ppm): N %d, P %d, K %d, S %d, Zn %d, Fe %d, B %d\n",
		in.Nitrogen, in.Phosphorus, in.Potassium, in.Sulphur, in.Zinc, in.Iron, in.Boron)
	sb.WriteString("Summarize soil condition and give recommendations.")
	return sb.String()
}

// parseAnalysis decodes the model text as the expected JSON object.
// Models sometimes wrap JSON in code fences despite instructions, so
// fences are stripped first. Missing keys fall back per key; a reply
// that is not JSON at all is an error.
func parseAnalysis(content string) (*Analysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var a Analysis
	if err := json.Unmarshal([]byte(content), &a); err != nil {
		return nil, fmt.Errorf("ai: model reply is not valid JSON: %w", err)
	}
	if a.Summary == "" {
		a.Summary = "No summary was produced for the current readings."
	}
	if len(a.Todos) == 0 {
		a.Todos = []string{"Re-run the analysis with fresh sensor data"}
	}
	if len(a.Todos) > 3 {
		a.Todos = a.Todos[:3]
	}
	if a.Status == "" {
		a.Status = "Unknown"
	}
	return &a, nil
}
