// Package relay bridges the hosted MQTT broker to the rest of the
// backend: inbound rover telemetry becomes decoded frames fanned out to
// subscribers (and persisted sensor points), outbound rover commands
// are serialized onto the command topic.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// State is the relay's connection state. Error and Disconnected are
// both terminal until the next explicit Connect; there is no automatic
// reconnect.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "invalid"
	}
}

// SampleStore persists sensor samples arriving over the broker. The
// HTTP layer provides a gorm-backed implementation.
type SampleStore interface {
	SaveSample(ctx context.Context, sample *SensorSample) error
}

const connectTimeout = 10 * time.Second

// Relay owns exactly one broker connection. The original dashboard kept
// the client in a module-level variable; here the connection lives and
// dies with this value.
type Relay struct {
	brokerURL string
	prefix    string
	store     SampleStore

	mu           sync.Mutex
	state        State
	client       mqtt.Client
	subscribers  map[int]chan Frame
	nextSubID    int
	droppedCount int
}

// New builds a relay for the broker at brokerURL. Topics are namespaced
// under prefix. store may be nil when persistence is not wanted (tests,
// read-only mirrors).
func New(brokerURL, prefix string, store SampleStore) *Relay {
	return &Relay{
		brokerURL:   brokerURL,
		prefix:      strings.TrimRight(prefix, "/"),
		store:       store,
		state:       StateDisconnected,
		subscribers: make(map[int]chan Frame),
	}
}

// Connect dials the broker and subscribes the telemetry topics. Valid
// from Disconnected or Error; a second concurrent call fails fast.
func (r *Relay) Connect(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateConnecting || r.state == StateConnected {
		r.mu.Unlock()
		return fmt.Errorf("relay: connect called in state %s", r.state)
	}
	r.state = StateConnecting

	opts := mqtt.NewClientOptions().
		AddBroker(r.brokerURL).
		SetClientID(fmt.Sprintf("agrisense-relay-%d", time.Now().UnixNano())).
		SetAutoReconnect(false).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			r.setState(StateError)
			log.Printf("relay: connection lost: %v", err)
		})
	client := mqtt.NewClient(opts)
	r.client = client
	r.mu.Unlock()

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		r.setState(StateError)
		return errors.New("relay: connect timed out")
	}
	if err := token.Error(); err != nil {
		r.setState(StateError)
		return fmt.Errorf("relay: connect: %w", err)
	}
	if err := ctx.Err(); err != nil {
		client.Disconnect(0)
		r.setState(StateDisconnected)
		return err
	}

	for _, suffix := range []string{"/rover/position", "/sensor/data", "/estimate/push"} {
		topic := r.prefix + suffix
		sub := client.Subscribe(topic, 0, r.handleMessage)
		if !sub.WaitTimeout(connectTimeout) || sub.Error() != nil {
			client.Disconnect(0)
			r.setState(StateError)
			return fmt.Errorf("relay: subscribe %s: %v", topic, sub.Error())
		}
	}

	if !r.commitConnected(client) {
		client.Disconnect(0)
		return errors.New("relay: closed during connect")
	}
	log.Printf("relay: connected to %s", r.brokerURL)
	return nil
}

// commitConnected flips to Connected only while client is still the
// relay's current client; a Close that raced the dial wins.
func (r *Relay) commitConnected(client mqtt.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != client {
		return false
	}
	r.state = StateConnected
	return true
}

// Close disconnects and transitions to Disconnected. Safe to call in
// any state.
func (r *Relay) Close() {
	r.mu.Lock()
	client := r.client
	r.client = nil
	r.state = StateDisconnected
	for id, ch := range r.subscribers {
		close(ch)
		delete(r.subscribers, id)
	}
	r.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
}

func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Relay) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Subscribe registers a frame consumer and returns its channel plus a
// cancel func. Slow consumers lose frames rather than stalling the
// broker callback.
func (r *Relay) Subscribe() (<-chan Frame, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSubID
	r.nextSubID++
	ch := make(chan Frame, 16)
	r.subscribers[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(c)
		}
	}
	return ch, cancel
}

// DroppedFrames reports how many inbound messages decoded to
// FrameUnknown and were discarded.
func (r *Relay) DroppedFrames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.droppedCount
}

// PublishCommand sends a rover instruction as the firmware's
// comma-delimited string, e.g. PublishCommand("drive", "1").
func (r *Relay) PublishCommand(verb string, args ...string) error {
	r.mu.Lock()
	client := r.client
	state := r.state
	r.mu.Unlock()

	if state != StateConnected || client == nil {
		return fmt.Errorf("relay: publish in state %s", state)
	}

	payload := verb
	if len(args) > 0 {
		payload = verb + "," + strings.Join(args, ",")
	}
	token := client.Publish(r.prefix+"/rover/command", 0, false, payload)
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("relay: publish timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("relay: publish: %w", err)
	}
	return nil
}

func (r *Relay) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	r.Dispatch(msg.Topic(), msg.Payload())
}

// Dispatch decodes one inbound payload, persists sensor samples and
// fans the frame out. Split from the paho callback so routing is
// testable without a live broker.
func (r *Relay) Dispatch(topic string, payload []byte) {
	frame := DecodeFrame(topic, payload)
	if frame.Kind == FrameUnknown {
		r.mu.Lock()
		r.droppedCount++
		r.mu.Unlock()
		log.Printf("relay: dropped unparseable message on %s", topic)
		return
	}

	if frame.Kind == FrameSensorSample && r.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.store.SaveSample(ctx, frame.Sample); err != nil {
			log.Printf("relay: persist sample: %v", err)
		}
		cancel()
	}

	r.mu.Lock()
	for _, ch := range r.subscribers {
		select {
		case ch <- frame:
		default:
		}
	}
	r.mu.Unlock()
}
