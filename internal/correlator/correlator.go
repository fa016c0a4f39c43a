// Package correlator cross-references rule-trigger definitions against a
// test's time window and the rule engine's execution traces to decide which
// rules fired during the run.
package correlator

import (
	"fmt"
	"strings"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

// Correlator reads triggers, rules and execution traces; it never writes.
type Correlator struct {
	triggers ports.RuleTriggerRepository
	rules    ports.RuleRepository
	traces   ports.TraceRepository
}

func New(triggers ports.RuleTriggerRepository, rules ports.RuleRepository, traces ports.TraceRepository) *Correlator {
	return &Correlator{triggers: triggers, rules: rules, traces: traces}
}

// Match pairs a fired rule name with the trigger that owns it.
type Match struct {
	RuleName  string
	TriggerID string
}

// FindTriggersForTest selects every trigger whose query embeds one of the
// test's sensor identifiers as a substring and resolves the owning rules.
// The match is textual, not a structured query parse: an identifier that is
// a prefix of another can produce false positives.
func (c *Correlator) FindTriggersForTest(t *domain.TestDetails) ([]Match, error) {
	triggers, err := c.triggers.FindAll()
	if err != nil {
		return nil, fmt.Errorf("load triggers: %w", err)
	}
	rules, err := c.rules.FindAll()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	var matches []Match
	for _, sensor := range t.Sensors {
		for _, trigger := range triggers {
			if !containsDeviceID(trigger.Query, sensor.ID) {
				continue
			}
			for _, rule := range rules {
				if rule.TriggerID == trigger.ID {
					matches = append(matches, Match{RuleName: rule.Name, TriggerID: trigger.ID})
				}
			}
		}
	}
	return matches, nil
}

// CollectTriggerValues scans the execution traces of every matched trigger
// and collects the values of traces whose rule name matches and whose first
// event falls within [start, end] inclusive. Rules with no qualifying value
// are absent from the result, and each value list preserves first-seen trace
// order.
func (c *Correlator) CollectTriggerValues(t *domain.TestDetails) (map[string][]float64, error) {
	matches, err := c.FindTriggersForTest(t)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]float64)
	for _, m := range matches {
		traces, err := c.traces.FindAllByTriggerID(m.TriggerID)
		if err != nil {
			return nil, fmt.Errorf("load traces for trigger %s: %w", m.TriggerID, err)
		}
		var values []float64
		for _, trace := range traces {
			if trace.RuleName != m.RuleName {
				continue
			}
			first, ok := trace.FirstEvent()
			if !ok {
				continue
			}
			if first.Time >= t.StartTimeUnix && first.Time <= t.EndTimeUnix {
				values = append(values, first.Value)
			}
		}
		if len(values) > 0 {
			result[m.RuleName] = append(result[m.RuleName], values...)
		}
	}
	return result, nil
}

// RulesAffectedByTest lists the test's own rules plus every rule whose
// trigger references one of the participating sensors, without duplicates.
// Used to snapshot rule state before a run starts.
func (c *Correlator) RulesAffectedByTest(t *domain.TestDetails) ([]domain.Rule, error) {
	rules, err := c.rules.FindAll()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	byID := make(map[string]domain.Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	var affected []domain.Rule
	seen := make(map[string]struct{})
	for _, ref := range t.Rules {
		if r, ok := byID[ref.ID]; ok {
			if _, dup := seen[r.ID]; !dup {
				seen[r.ID] = struct{}{}
				affected = append(affected, r)
			}
		}
	}

	matches, err := c.FindTriggersForTest(t)
	if err != nil {
		return nil, err
	}
	matchedTriggers := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		matchedTriggers[m.TriggerID] = struct{}{}
	}
	for _, r := range rules {
		if _, ok := matchedTriggers[r.TriggerID]; !ok {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		affected = append(affected, r)
	}
	return affected, nil
}

func containsDeviceID(query, id string) bool {
	return id != "" && strings.Contains(query, id)
}

var _ ports.Correlator = (*Correlator)(nil)
