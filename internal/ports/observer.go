package ports

import "github.com/marvin21/MBP/internal/domain"

// ValueObserver is notified for every value log the ingestion pipeline
// produces. Callbacks run synchronously on the delivery goroutine, so they
// must either return quickly or hand off to their own execution context.
type ValueObserver interface {
	OnValueReceived(v *domain.ValueLog)
}
