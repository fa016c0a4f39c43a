package engine

import (
	"fmt"
	"sync"

	"github.com/marvin21/MBP/internal/domain"
)

// testStore owns the two maps shared between the ingestion goroutine and the
// request-driven engine calls: the active-test index (device id → owning
// test) and the per-device value buffers. All access goes through the mutex;
// the raw maps are never exposed.
type testStore struct {
	mu     sync.Mutex
	active map[string]*domain.TestDetails
	values map[string][]float64
}

func newTestStore() *testStore {
	return &testStore{
		active: make(map[string]*domain.TestDetails),
		values: make(map[string][]float64),
	}
}

// claim registers every device for the given test, all or nothing. A device
// already owned by a different active test fails the whole claim with
// ErrConflict and leaves prior ownership untouched. Claiming resets the
// device's value buffer so a new test on the same device starts a fresh
// sequence.
func (s *testStore) claim(t *domain.TestDetails, deviceIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range deviceIDs {
		if owner, ok := s.active[id]; ok && owner.ID != t.ID {
			return fmt.Errorf("device %s owned by test %s: %w", id, owner.ID, domain.ErrConflict)
		}
	}
	for _, id := range deviceIDs {
		s.active[id] = t
		delete(s.values, id)
	}
	return nil
}

// release removes the claims and buffers of the given devices.
func (s *testStore) release(deviceIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range deviceIDs {
		delete(s.active, id)
		delete(s.values, id)
	}
}

// append records a value for a claimed device; values for unclaimed devices
// are ignored.
func (s *testStore) append(deviceID string, value float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[deviceID]; !ok {
		return false
	}
	s.values[deviceID] = append(s.values[deviceID], value)
	return true
}

// snapshot copies the buffered values of the given devices. Devices without
// any buffered value are absent from the result.
func (s *testStore) snapshot(deviceIDs []string) map[string][]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]float64, len(deviceIDs))
	for _, id := range deviceIDs {
		if buf, ok := s.values[id]; ok {
			out[id] = append([]float64(nil), buf...)
		}
	}
	return out
}

// activeCount reports how many devices are currently claimed.
func (s *testStore) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
