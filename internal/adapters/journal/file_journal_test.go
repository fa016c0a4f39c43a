package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

func sampleLog(id string, value float64) *domain.ValueLog {
	return &domain.ValueLog{
		Topic:         "sensor/" + id,
		Message:       `{"value":1}`,
		Time:          time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC),
		ComponentKind: "sensor",
		ComponentID:   id,
		Value:         value,
	}
}

func TestAppendAndIterate(t *testing.T) {
	dir := t.TempDir()
	j, err := NewFileJournal(dir)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	defer j.Close()

	id1, err := j.Append(sampleLog("S1", 1))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	id2, err := j.Append(sampleLog("S2", 2))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id1 != 1 || id2 != 2 {
		t.Fatalf("expected sequential ids, got %d %d", id1, id2)
	}

	var seen []string
	err = j.Iterate(0, func(id ports.JournalEntryID, v *domain.ValueLog) error {
		seen = append(seen, v.ComponentID)
		return nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(seen) != 2 || seen[0] != "S1" || seen[1] != "S2" {
		t.Fatalf("unexpected iteration order: %v", seen)
	}
}

func TestIterateFromSkipsEarlierEntries(t *testing.T) {
	j, err := NewFileJournal(t.TempDir())
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	defer j.Close()

	for i := 0; i < 3; i++ {
		if _, err := j.Append(sampleLog("S1", float64(i))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var values []float64
	err = j.Iterate(3, func(id ports.JournalEntryID, v *domain.ValueLog) error {
		values = append(values, v.Value)
		return nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(values) != 1 || values[0] != 2 {
		t.Fatalf("expected only the third entry, got %v", values)
	}
}

func TestCommitSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	j, err := NewFileJournal(dir)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}

	if _, err := j.Append(sampleLog("S1", 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := j.Append(sampleLog("S1", 2)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Commit(2); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewFileJournal(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	stats := reopened.Stats()
	if stats.LatestAppended != 2 || stats.OldestUncommitted != 3 {
		t.Fatalf("unexpected stats after reopen: %+v", stats)
	}

	id, err := reopened.Append(sampleLog("S1", 3))
	if err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if id != 3 {
		t.Fatalf("expected id 3 after reopen, got %d", id)
	}
}

func TestTornTailIsTruncated(t *testing.T) {
	dir := t.TempDir()
	j, err := NewFileJournal(dir)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	if _, err := j.Append(sampleLog("S1", 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Simulate a crash mid-write: a header with no body.
	path := filepath.Join(dir, "valuelog.journal")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.Write([]byte{0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 99}); err != nil {
		t.Fatalf("write torn header: %v", err)
	}
	f.Close()

	reopened, err := NewFileJournal(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if got := reopened.Stats().LatestAppended; got != 1 {
		t.Fatalf("torn tail must be dropped, latest = %d", got)
	}
	var count int
	err = reopened.Iterate(0, func(ports.JournalEntryID, *domain.ValueLog) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("iterate after truncation: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one surviving record, got %d", count)
	}
}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)            {}
func (nopObs) LogError(string, error, ...ports.Field)    {}
func (nopObs) LogCritical(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)                {}
func (nopObs) SetGauge(string, float64)                  {}
func (nopObs) ObserveLatency(string, float64)            {}

func TestObserverAppendsDispatchedValues(t *testing.T) {
	j, err := NewFileJournal(t.TempDir())
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	defer j.Close()

	o := NewObserver(j, nopObs{})
	o.OnValueReceived(sampleLog("S1", 7))
	o.OnValueReceived(sampleLog("S2", 8))

	if got := j.Stats().LatestAppended; got != 2 {
		t.Fatalf("expected two journaled records, got %d", got)
	}
}
