package ports

import "github.com/marvin21/MBP/internal/domain"

// Source is a secondary ingest path for field devices that do not publish
// JSON envelopes over the broker (e.g. OPC UA servers). Implementations
// construct complete value logs and hand them to the emit callback.
type Source interface {
	Start(emit func(*domain.ValueLog)) error
	Stop() error
}
