package ports

import "github.com/marvin21/MBP/internal/domain"

// Correlator judges which rules fired during a test's time window from the
// rule engine's independently recorded execution traces.
type Correlator interface {
	CollectTriggerValues(t *domain.TestDetails) (map[string][]float64, error)
	RulesAffectedByTest(t *domain.TestDetails) ([]domain.Rule, error)
}
