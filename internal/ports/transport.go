package ports

// InboundMessage is one raw broker delivery before parsing.
type InboundMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
}

// MessageHandler consumes inbound broker messages one at a time, in arrival
// order.
type MessageHandler interface {
	HandleMessage(topic string, payload []byte, qos byte) error
	HandleConnectionLost(err error)
}

// Transport owns the broker subscription lifecycle. Implementations deliver
// every message for the subscribed topic filters to the handler on a single
// dispatch goroutine; reconnect mechanics stay inside the transport.
type Transport interface {
	Start(h MessageHandler) error
	Stop() error
}
