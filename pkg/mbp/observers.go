package mbp

import (
	"errors"
	"sync"

	"github.com/marvin21/MBP/internal/domain"
)

// ErrChannelObserverClosed is returned by Err after a channel observer drops
// value logs because it was closed.
var ErrChannelObserverClosed = errors.New("mbp: channel observer closed")

// ValueLogFunc receives every dispatched value log.
type ValueLogFunc func(*ValueLog)

// NewCallbackObserver adapts a plain function into a pipeline observer so
// callers can tap the stream without defining structs.
func NewCallbackObserver(fn ValueLogFunc) ValueObserver {
	return &callbackObserver{fn: fn}
}

type callbackObserver struct {
	fn ValueLogFunc
}

func (o *callbackObserver) OnValueReceived(v *domain.ValueLog) {
	if o.fn != nil {
		o.fn(v)
	}
}

// NewChannelObserver exposes dispatched value logs via a channel; it returns
// the observer, the read-only channel, and a close function the caller should
// invoke during shutdown. Dispatch never blocks: logs arriving while the
// channel is full or closed are dropped.
func NewChannelObserver(buffer int) (ValueObserver, <-chan *ValueLog, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan *domain.ValueLog, buffer)
	o := &channelObserver{
		ch:     ch,
		closed: make(chan struct{}),
	}
	return o, ch, func() { o.close() }
}

type channelObserver struct {
	ch     chan *domain.ValueLog
	closed chan struct{}
	once   sync.Once
}

func (o *channelObserver) OnValueReceived(v *domain.ValueLog) {
	select {
	case <-o.closed:
		return
	default:
	}

	select {
	case <-o.closed:
	case o.ch <- v:
	default:
	}
}

func (o *channelObserver) close() {
	o.once.Do(func() {
		close(o.closed)
		close(o.ch)
	})
}
