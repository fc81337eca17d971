// Package predict calls the hosted nutrient-regression service: four
// aggregated sensor means in, eight whole-ppm nutrient levels out.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agrisense.in/backend/utils"
)

// Sample is the request body for /predict. Moisture is a 0-1 fraction,
// not the 0-100 percentage the probes report.
type Sample struct {
	Temp     float64 `json:"temp"`
	Moisture float64 `json:"moisture"`
	EC       float64 `json:"ec"`
	PH       float64 `json:"pH"`
}

// Nutrients is the rounded prediction result, in ppm.
type Nutrients struct {
	Nitrogen   int `json:"nitrogen"`
	Phosphorus int `json:"phosphorus"`
	Potassium  int `json:"potassium"`
	Sulphur    int `json:"sulphur"`
	Zinc       int `json:"zinc"`
	Iron       int `json:"iron"`
	Boron      int `json:"boron"`
	Copper     int `json:"copper"`
}

// wire shape of the regression service response
type predictResponse struct {
	NPpm  float64 `json:"N_ppm"`
	PPpm  float64 `json:"P_ppm"`
	KPpm  float64 `json:"K_ppm"`
	SPpm  float64 `json:"S_ppm"`
	ZnPpm float64 `json:"Zn_ppm"`
	FePpm float64 `json:"Fe_ppm"`
	BPpm  float64 `json:"B_ppm"`
	CuPpm float64 `json:"Cu_ppm"`
}

type Client struct {
	baseURL string
	httpc   *http.Client
}

// New builds a client for the regression service at baseURL. The 10 s
// timeout mirrors the analysis dialog's deadline in the dashboard.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Predict posts the sample and returns whole-ppm nutrient levels. Any
// transport failure, non-2xx status or undecodable body is an error;
// the caller aborts without persisting anything.
func (c *Client) Predict(ctx context.Context, s Sample) (*Nutrients, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("predict: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("predict: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("predict: unexpected status %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("predict: decode response: %w", err)
	}

	return &Nutrients{
		Nitrogen:   utils.RoundHalfUp(out.NPpm),
		Phosphorus: utils.RoundHalfUp(out.PPpm),
		Potassium:  utils.RoundHalfUp(out.KPpm),
		Sulphur:    utils.RoundHalfUp(out.SPpm),
		Zinc:       utils.RoundHalfUp(out.ZnPpm),
		Iron:       utils.RoundHalfUp(out.FePpm),
		Boron:      utils.RoundHalfUp(out.BPpm),
		Copper:     utils.RoundHalfUp(out.CuPpm),
	}, nil
}
