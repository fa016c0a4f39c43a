package domain

import "time"

// ValueLog is the normalized record of one sensor/actuator measurement event.
// It is constructed exactly once per inbound broker message and never mutated
// after it has been handed to observers.
type ValueLog struct {
	Topic         string    `json:"topic"`
	Message       string    `json:"message"`
	QoS           byte      `json:"qos"`
	Time          time.Time `json:"time"`
	ComponentKind string    `json:"component"`
	ComponentID   string    `json:"idref"`
	Value         float64   `json:"value"`

	// OriginalValue holds the pre-anonymization reading when the producer
	// flagged the payload as noisy; nil otherwise.
	OriginalValue *float64 `json:"original_value,omitempty"`
}
