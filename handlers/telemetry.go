package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"agrisense.in/backend/middleware"
	"agrisense.in/backend/pkg/relay"
)

// TelemetryRelay is wired in main once the broker connection is up.
var TelemetryRelay *relay.Relay

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the dashboard is served from a different origin than the API
	CheckOrigin: func(r *http.Request) bool { return true },
}

// telemetryFrame is the JSON shape pushed to the browser.
type telemetryFrame struct {
	Kind     string               `json:"kind"`
	Topic    string               `json:"topic"`
	Position *relay.RoverPosition `json:"position,omitempty"`
	Sample   *relay.SensorSample  `json:"sample,omitempty"`
	Estimate *relay.EstimatePush  `json:"estimate,omitempty"`
}

// StreamTelemetry upgrades to a WebSocket and forwards relay frames for
// the session's farm until the client disconnects or the relay closes.
func StreamTelemetry(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}
	if TelemetryRelay == nil || TelemetryRelay.State() != relay.StateConnected {
		http.Error(w, "telemetry relay unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("telemetry upgrade: %v", err)
		return
	}
	defer conn.Close()

	frames, cancel := TelemetryRelay.Subscribe()
	defer cancel()

	// drain client reads so close frames are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for frame := range frames {
		if !frameForFarm(frame, session.FarmSlug) {
			continue
		}
		out := telemetryFrame{Kind: frame.Kind.String(), Topic: frame.Topic,
			Position: frame.Position, Sample: frame.Sample, Estimate: frame.Estimate}
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}

// frameForFarm filters the shared broker feed down to one tenant.
// Frames without a farm tag are broadcast to everyone.
func frameForFarm(frame relay.Frame, slug string) bool {
	switch frame.Kind {
	case relay.FrameRoverPosition:
		return frame.Position.Farm == "" || frame.Position.Farm == slug
	case relay.FrameSensorSample:
		return frame.Sample.Farm == "" || frame.Sample.Farm == slug
	case relay.FrameEstimatePush:
		return frame.Estimate.Farm == "" || frame.Estimate.Farm == slug
	default:
		return false
	}
}

type commandReq struct {
	Verb string   `json:"verb"`
	Args []string `json:"args"`
}

var allowedCommands = map[string]bool{
	"drive": true,
	"turn":  true,
	"probe": true,
	"stop":  true,
}

// SendRoverCommand publishes a drive/turn/probe instruction to the
// rover command topic in the firmware's comma-delimited form.
func SendRoverCommand(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}
	if TelemetryRelay == nil {
		http.Error(w, "telemetry relay unavailable", http.StatusServiceUnavailable)
		return
	}

	var req commandReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if !allowedCommands[req.Verb] {
		http.Error(w, "unknown command verb", http.StatusBadRequest)
		return
	}

	if err := TelemetryRelay.PublishCommand(req.Verb, req.Args...); err != nil {
		log.Printf("rover command for %s: %v", session.FarmSlug, err)
		http.Error(w, "failed to publish command", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
}
