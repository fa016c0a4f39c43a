package ports

// MessageQueue is a bounded FIFO buffer between the broker callback and the
// single dispatch goroutine.
type MessageQueue interface {
	Enqueue(m InboundMessage) bool
	Dequeue() (InboundMessage, bool)
	Len() int
}
