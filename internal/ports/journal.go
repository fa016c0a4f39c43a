package ports

import "github.com/marvin21/MBP/internal/domain"

type JournalEntryID uint64

// Journal is an append-only on-disk record of every value log the pipeline
// dispatched, kept as an audit trail for test evidence.
type Journal interface {
	Append(v *domain.ValueLog) (JournalEntryID, error)
	Iterate(from JournalEntryID, fn func(id JournalEntryID, v *domain.ValueLog) error) error
	Commit(upto JournalEntryID) error
	Stats() JournalStats
}

type JournalStats struct {
	OldestUncommitted JournalEntryID
	LatestAppended    JournalEntryID
	SizeBytes         int64
}
