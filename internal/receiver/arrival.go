package receiver

import (
	"encoding/json"
	"fmt"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

// envelope is the JSON body producers publish on the value topics. All four
// keys are required; pointers distinguish absent from zero.
type envelope struct {
	Component *string  `json:"component"`
	ID        *string  `json:"id"`
	Value     *float64 `json:"value"`
	NoisyData *bool    `json:"noisyData"`
}

// HandleMessage parses one broker delivery into a value log and dispatches it
// to the observers. A malformed payload is reported and dropped; the error is
// returned for the caller's accounting but must never take the subscription
// down.
func (r *Receiver) HandleMessage(topic string, payload []byte, qos byte) error {
	arrived := r.now()

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return r.malformed(topic, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err))
	}
	if env.Component == nil || env.ID == nil || env.Value == nil || env.NoisyData == nil {
		return r.malformed(topic, fmt.Errorf("%w: missing required field", domain.ErrMalformedPayload))
	}
	if *env.ID == "" {
		return r.malformed(topic, fmt.Errorf("%w: empty component id", domain.ErrMalformedPayload))
	}

	v := &domain.ValueLog{
		Topic:         topic,
		Message:       string(payload),
		QoS:           qos,
		Time:          arrived,
		ComponentKind: *env.Component,
		ComponentID:   *env.ID,
		Value:         *env.Value,
	}
	if *env.NoisyData {
		original := *env.Value
		v.OriginalValue = &original
		v.Value = r.noise.AnonymizeDistance(original)
	}

	r.obs.IncCounter("mbp_values_ingested_total", 1)
	r.Dispatch(v)
	return nil
}

// HandleConnectionLost surfaces a broker connection loss as a distinct event.
// Resubscription is the transport's job; the pipeline itself keeps running.
func (r *Receiver) HandleConnectionLost(err error) {
	r.obs.IncCounter("mbp_connection_lost_total", 1)
	r.obs.LogError("broker_connection_lost", err)
}

func (r *Receiver) malformed(topic string, err error) error {
	r.obs.IncCounter("mbp_payload_malformed_total", 1)
	r.obs.LogError("payload_malformed", err, ports.Field{Key: "topic", Value: topic})
	return err
}

var _ ports.MessageHandler = (*Receiver)(nil)
