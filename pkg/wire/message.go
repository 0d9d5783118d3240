// Package wire defines the WebSocket message types exchanged between
// the browser client and the gazeflow server.
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/affectlab/gazeflow/pkg/layout"
	"github.com/affectlab/gazeflow/pkg/signal"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → Server messages
	TypeGaze        MessageType = "gaze"        // Raw gaze sample
	TypeInteraction MessageType = "interaction" // Click / scroll event
	TypeHeartRate   MessageType = "heartrate"   // Heart-rate notification
	TypeLayout      MessageType = "layout"      // Measured AOI geometry
	TypeStart       MessageType = "start"       // Begin recording
	TypeStop        MessageType = "stop"        // End recording

	// Server → Client messages
	TypeWindow    MessageType = "window"    // Completed analysis window
	TypeHighlight MessageType = "highlight" // Currently gazed AOI
	TypeStatus    MessageType = "status"    // Collector status snapshot
	TypeError     MessageType = "error"     // Ingest-level problem
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// GazeData contains one raw gaze sample. T is milliseconds relative to
// the recording epoch; when zero the server stamps it on arrival.
type GazeData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T int64   `json:"t,omitempty"`
}

// InteractionData contains one discrete interaction event.
type InteractionData struct {
	EventType string `json:"event_type"` // "click" or "scroll"
	T         int64  `json:"t,omitempty"`
}

// HeartRateData contains one heart-rate notification.
type HeartRateData struct {
	BPM int   `json:"bpm"`
	T   int64 `json:"t,omitempty"`
}

// LayoutData carries the AOI geometry the client measured after render.
type LayoutData struct {
	Blocks []layout.Block `json:"blocks"`
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// HighlightData names the AOI the subject is currently looking at.
// Empty means all highlights cleared.
type HighlightData struct {
	AOI string `json:"aoi"`
}

// StatusData is a snapshot of the collector for dashboards.
type StatusData struct {
	Recording      bool   `json:"recording"`
	ElapsedMs      int64  `json:"elapsed_ms"`
	WindowsEmitted int    `json:"windows_emitted"`
	GazeBuffered   int    `json:"gaze_buffered"`
	Interactions   int    `json:"interactions_buffered"`
	HeartRate      int    `json:"heart_rate_buffered"`
	Highlighted    string `json:"highlighted,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
}

// ErrorData reports an ingest-level problem back to the client.
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Constructors
// =============================================================================

// NewGazeMessage creates a gaze sample message.
func NewGazeMessage(x, y float64, t int64) (*Message, error) {
	return NewMessage(TypeGaze, GazeData{X: x, Y: y, T: t})
}

// NewInteractionMessage creates an interaction event message.
func NewInteractionMessage(eventType string, t int64) (*Message, error) {
	return NewMessage(TypeInteraction, InteractionData{EventType: eventType, T: t})
}

// NewHeartRateMessage creates a heart-rate sample message.
func NewHeartRateMessage(bpm int, t int64) (*Message, error) {
	return NewMessage(TypeHeartRate, HeartRateData{BPM: bpm, T: t})
}

// NewWindowMessage wraps a completed window for broadcast.
func NewWindowMessage(w signal.Window) (*Message, error) {
	return NewMessage(TypeWindow, w)
}

// NewHighlightMessage creates a highlight update message.
func NewHighlightMessage(aoi string) (*Message, error) {
	return NewMessage(TypeHighlight, HighlightData{AOI: aoi})
}

// NewStatusMessage wraps a status snapshot.
func NewStatusMessage(s StatusData) (*Message, error) {
	return NewMessage(TypeStatus, s)
}

// NewErrorMessage creates an error report message.
func NewErrorMessage(text string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: text})
}

// GetGazeData extracts gaze data from a gaze message.
func (m *Message) GetGazeData() (*GazeData, error) {
	if m.Type != TypeGaze {
		return nil, fmt.Errorf("message type is %s, not %s", m.Type, TypeGaze)
	}
	var d GazeData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetInteractionData extracts interaction data.
func (m *Message) GetInteractionData() (*InteractionData, error) {
	if m.Type != TypeInteraction {
		return nil, fmt.Errorf("message type is %s, not %s", m.Type, TypeInteraction)
	}
	var d InteractionData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetHeartRateData extracts heart-rate data.
func (m *Message) GetHeartRateData() (*HeartRateData, error) {
	if m.Type != TypeHeartRate {
		return nil, fmt.Errorf("message type is %s, not %s", m.Type, TypeHeartRate)
	}
	var d HeartRateData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetLayoutData extracts client-measured layout geometry.
func (m *Message) GetLayoutData() (*LayoutData, error) {
	if m.Type != TypeLayout {
		return nil, fmt.Errorf("message type is %s, not %s", m.Type, TypeLayout)
	}
	var d LayoutData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
