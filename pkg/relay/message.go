package relay

import (
	"encoding/json"
	"strings"
)

// FrameKind discriminates the relay's inbound message types.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameRoverPosition
	FrameSensorSample
	FrameEstimatePush
)

func (k FrameKind) String() string {
	switch k {
	case FrameRoverPosition:
		return "rover_position"
	case FrameSensorSample:
		return "sensor_sample"
	case FrameEstimatePush:
		return "estimate_push"
	default:
		return "unknown"
	}
}

// RoverPosition is a live GPS fix from the rover.
type RoverPosition struct {
	Farm      string  `json:"farm"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Heading   float64 `json:"heading,omitempty"`
}

// SensorSample is one probe reading relayed over the broker. Readings
// are optional exactly as on the HTTP ingestion path.
type SensorSample struct {
	Farm         string   `json:"farm"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Moisture     *float64 `json:"moisture,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	PH           *float64 `json:"ph,omitempty"`
	Conductivity *float64 `json:"conductivity,omitempty"`
	RecordedAt   string   `json:"recordedAt,omitempty"`
}

// EstimatePush is a chemical estimate pushed by an external producer
// for immediate display.
type EstimatePush struct {
	Farm     string `json:"farm"`
	Nitrogen int    `json:"nitrogen"`
	Phosphor int    `json:"phosphorus"`
	Potash   int    `json:"potassium"`
}

// Frame is the decoded union delivered to subscribers. Exactly one of
// the payload pointers matching Kind is non-nil; FrameUnknown carries
// only Topic and Raw.
type Frame struct {
	Kind  FrameKind
	Topic string
	Raw   json.RawMessage

	Position *RoverPosition
	Sample   *SensorSample
	Estimate *EstimatePush
}

// legacy rover firmware sends positions as {"lat":..,"lng":..}; current
// firmware sends {"latitude":..,"longitude":..}. Both decode to the
// same frame.
type legacyPosition struct {
	Farm    string   `json:"farm"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Heading float64  `json:"heading,omitempty"`
}

// DecodeFrame routes a broker message by topic suffix and probes the
// payload for the discriminating keys of each accepted shape. Anything
// that does not match cleanly comes back as FrameUnknown; the caller
// drops it without error.
func DecodeFrame(topic string, payload []byte) Frame {
	frame := Frame{Kind: FrameUnknown, Topic: topic, Raw: payload}

	switch {
	case strings.HasSuffix(topic, "/rover/position"):
		var probe map[string]json.RawMessage
		if json.Unmarshal(payload, &probe) != nil {
			return frame
		}
		if _, ok := probe["latitude"]; ok {
			var pos RoverPosition
			if json.Unmarshal(payload, &pos) == nil {
				frame.Kind = FrameRoverPosition
				frame.Position = &pos
			}
			return frame
		}
		if _, ok := probe["lat"]; ok {
			var old legacyPosition
			if json.Unmarshal(payload, &old) == nil && old.Lat != nil && old.Lng != nil {
				frame.Kind = FrameRoverPosition
				frame.Position = &RoverPosition{Farm: old.Farm, Latitude: *old.Lat, Longitude: *old.Lng, Heading: old.Heading}
			}
			return frame
		}
		return frame

	case strings.HasSuffix(topic, "/sensor/data"):
		var sample SensorSample
		if json.Unmarshal(payload, &sample) != nil {
			return frame
		}
		// a sample with no readings at all is noise, not data
		if sample.Moisture == nil && sample.Temperature == nil && sample.PH == nil && sample.Conductivity == nil {
			return frame
		}
		frame.Kind = FrameSensorSample
		frame.Sample = &sample
		return frame

	case strings.HasSuffix(topic, "/estimate/push"):
		var probe map[string]json.RawMessage
		if json.Unmarshal(payload, &probe) != nil {
			return frame
		}
		if _, ok := probe["nitrogen"]; !ok {
			return frame
		}
		var est EstimatePush
		if json.Unmarshal(payload, &est) == nil {
			frame.Kind = FrameEstimatePush
			frame.Estimate = &est
		}
		return frame

	default:
		return frame
	}
}
