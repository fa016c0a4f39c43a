package queue

import (
	"sync"

	"github.com/marvin21/MBP/internal/ports"
)

// Inbound is a bounded in-memory FIFO for raw broker deliveries. It decouples
// the broker client's callback goroutine from the single dispatch goroutine
// that feeds the ingestion pipeline.
type Inbound struct {
	mu   sync.Mutex
	data []ports.InboundMessage
	cap  int
}

func NewInbound(capacity int) *Inbound {
	return &Inbound{
		data: make([]ports.InboundMessage, 0, capacity),
		cap:  capacity,
	}
}

func (q *Inbound) Enqueue(m ports.InboundMessage) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, m)
	return true
}

func (q *Inbound) Dequeue() (ports.InboundMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return ports.InboundMessage{}, false
	}
	m := q.data[0]
	q.data = append(q.data[:0], q.data[1:]...)
	return m, true
}

func (q *Inbound) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

var _ ports.MessageQueue = (*Inbound)(nil)
