package relay

import (
	"context"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		kind    FrameKind
	}{
		{"current position shape", "agrisense/rover/position", `{"farm":"demo","latitude":13.7,"longitude":100.5}`, FrameRoverPosition},
		{"legacy position shape", "agrisense/rover/position", `{"farm":"demo","lat":13.7,"lng":100.5}`, FrameRoverPosition},
		{"position with neither shape", "agrisense/rover/position", `{"x":1,"y":2}`, FrameUnknown},
		{"position bad json", "agrisense/rover/position", `drive,1`, FrameUnknown},
		{"sensor sample", "agrisense/sensor/data", `{"farm":"demo","latitude":13.7,"longitude":100.5,"moisture":48.2}`, FrameSensorSample},
		{"sensor sample with no readings", "agrisense/sensor/data", `{"farm":"demo","latitude":13.7,"longitude":100.5}`, FrameUnknown},
		{"estimate push", "agrisense/estimate/push", `{"farm":"demo","nitrogen":46,"phosphorus":12,"potassium":89}`, FrameEstimatePush},
		{"estimate without discriminator", "agrisense/estimate/push", `{"farm":"demo"}`, FrameUnknown},
		{"unrecognized topic", "agrisense/other/topic", `{"latitude":1,"longitude":2}`, FrameUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := DecodeFrame(tt.topic, []byte(tt.payload))
			if frame.Kind != tt.kind {
				t.Fatalf("DecodeFrame kind = %s, expected %s", frame.Kind, tt.kind)
			}
			switch tt.kind {
			case FrameRoverPosition:
				if frame.Position == nil || frame.Position.Latitude != 13.7 {
					t.Errorf("position = %+v", frame.Position)
				}
			case FrameSensorSample:
				if frame.Sample == nil || frame.Sample.Moisture == nil {
					t.Errorf("sample = %+v", frame.Sample)
				}
			case FrameEstimatePush:
				if frame.Estimate == nil || frame.Estimate.Nitrogen != 46 {
					t.Errorf("estimate = %+v", frame.Estimate)
				}
			}
		})
	}
}

type captureStore struct {
	samples []*SensorSample
}

func (c *captureStore) SaveSample(_ context.Context, s *SensorSample) error {
	c.samples = append(c.samples, s)
	return nil
}

func TestDispatchRoutesAndPersists(t *testing.T) {
	store := &captureStore{}
	r := New("tcp://unused:1883", "agrisense", store)

	ch, cancel := r.Subscribe()
	defer cancel()

	r.Dispatch("agrisense/sensor/data", []byte(`{"farm":"demo","latitude":1,"longitude":2,"temperature":21.5}`))

	if len(store.samples) != 1 {
		t.Fatalf("persisted %d samples, expected 1", len(store.samples))
	}
	if store.samples[0].Temperature == nil || *store.samples[0].Temperature != 21.5 {
		t.Errorf("sample = %+v", store.samples[0])
	}

	select {
	case frame := <-ch:
		if frame.Kind != FrameSensorSample {
			t.Errorf("frame kind = %s", frame.Kind)
		}
	default:
		t.Fatal("no frame fanned out to subscriber")
	}
}

func TestDispatchDropsUnknownSilently(t *testing.T) {
	store := &captureStore{}
	r := New("tcp://unused:1883", "agrisense", store)

	ch, cancel := r.Subscribe()
	defer cancel()

	r.Dispatch("agrisense/mystery", []byte(`not even json`))

	if len(store.samples) != 0 {
		t.Errorf("unknown frame persisted %d samples", len(store.samples))
	}
	select {
	case frame := <-ch:
		t.Errorf("unknown frame fanned out: %+v", frame)
	default:
	}
	if r.DroppedFrames() != 1 {
		t.Errorf("DroppedFrames = %d, expected 1", r.DroppedFrames())
	}
}

func TestSlowSubscriberLosesFramesWithoutBlocking(t *testing.T) {
	r := New("tcp://unused:1883", "agrisense", nil)
	ch, cancel := r.Subscribe()
	defer cancel()

	// fill the buffer and then some; Dispatch must not block
	for i := 0; i < 64; i++ {
		r.Dispatch("agrisense/rover/position", []byte(`{"latitude":13.7,"longitude":100.5}`))
	}

	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered frames = %d, expected full buffer %d", got, cap(ch))
	}
}

func TestStateTransitions(t *testing.T) {
	r := New("tcp://unused:1883", "agrisense", nil)
	if r.State() != StateDisconnected {
		t.Fatalf("initial state = %s", r.State())
	}

	r.setState(StateError)
	if r.State() != StateError {
		t.Fatalf("state = %s, expected error", r.State())
	}
	if err := r.PublishCommand("probe"); err == nil {
		t.Error("publish succeeded in error state")
	}

	r.Close()
	if r.State() != StateDisconnected {
		t.Errorf("state after Close = %s", r.State())
	}
	if err := r.PublishCommand("drive", "1"); err == nil {
		t.Error("publish succeeded while disconnected")
	}
}

func TestCloseDuringConnectStaysDisconnected(t *testing.T) {
	r := New("tcp://unused:1883", "agrisense", nil)

	// simulate a dial in flight, then a Close racing its completion
	client := mqtt.NewClient(mqtt.NewClientOptions())
	r.mu.Lock()
	r.client = client
	r.state = StateConnecting
	r.mu.Unlock()

	r.Close()

	if r.commitConnected(client) {
		t.Error("connect committed after Close")
	}
	if r.State() != StateDisconnected {
		t.Errorf("state = %s, expected disconnected", r.State())
	}
}

func TestCloseClosesSubscriberChannels(t *testing.T) {
	r := New("tcp://unused:1883", "agrisense", nil)
	ch, _ := r.Subscribe()
	r.Close()
	if _, open := <-ch; open {
		t.Error("subscriber channel still open after Close")
	}
}
