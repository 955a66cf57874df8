// Package domain defines the core types shared by the launcher and the
// device client: message classes, signing algorithms, and the wire shapes
// of telemetry and device state documents.
package domain

import (
	"fmt"
	"time"
)

// MessageType selects the topic class a device publishes to.
type MessageType string

// Message type constants.
const (
	MessageEvent MessageType = "event"
	MessageState MessageType = "state"
)

// ParseMessageType validates a message type string.
func ParseMessageType(s string) (MessageType, error) {
	switch MessageType(s) {
	case MessageEvent, MessageState:
		return MessageType(s), nil
	default:
		return "", fmt.Errorf("message type must be one of: event, state (got %q)", s)
	}
}

// Algorithm identifies the JWT signing algorithm.
type Algorithm string

// Signing algorithm constants.
const (
	AlgorithmRS256 Algorithm = "RS256"
	AlgorithmES256 Algorithm = "ES256"
)

// ParseAlgorithm validates a signing algorithm string.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmRS256, AlgorithmES256:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("algorithm must be one of: RS256, ES256 (got %q)", s)
	}
}

// TelemetryTimeLayout is the timestamp format used in telemetry documents.
// The ingestion pipeline's schema expects second precision without a zone.
const TelemetryTimeLayout = "2006-01-02T15:04:05"

// TelemetryPoint is one telemetry document as published to the events topic.
// Channel readings are flattened into the top level so the document maps
// directly onto the warehouse column schema (see Schema in the telemetry
// package).
type TelemetryPoint struct {
	Datetime string  `json:"datetime"`
	Module   string  `json:"module"`
	Channel0 float64 `json:"channel0"`
	Channel1 float64 `json:"channel1"`
	Channel2 float64 `json:"channel2"`
	Channel3 float64 `json:"channel3"`
	Channel4 float64 `json:"channel4"`
	Channel5 float64 `json:"channel5"`
	Channel6 float64 `json:"channel6"`
	Channel7 float64 `json:"channel7"`
	Channel8 float64 `json:"channel8"`
	Channel9 int     `json:"channel9"`
}

// StateVersion is the firmware/state document version stamp.
const StateVersion = 20201019

// DeviceState is the device state document published to the state topic.
type DeviceState struct {
	Power   bool `json:"power"`
	Version int  `json:"version"`
}

// NewDeviceState returns the current state document.
func NewDeviceState() DeviceState {
	return DeviceState{Power: true, Version: StateVersion}
}

// ConfigUpdate captures a configuration document received from the bridge,
// kept raw: the payload format is owned by whoever writes device configs.
type ConfigUpdate struct {
	Payload    []byte    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

// Command captures a command received on the device's command subtree.
type Command struct {
	Subfolder  string    `json:"subfolder,omitempty"`
	Payload    []byte    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}
