package domain

// RuleTrigger is a stored query owned by exactly one rule. The query text
// embeds the identifiers of the devices it reacts to.
type RuleTrigger struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

// Rule couples a human-readable name with the trigger that fires it.
type Rule struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TriggerID string `json:"trigger_id"`
}

// TraceEvent is one timestamped output event recorded by the rule engine when
// a rule fired. Time is a Unix timestamp in seconds.
type TraceEvent struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// RuleExecutionTrace is the rule engine's record of one rule execution,
// consumed read-only by the correlator. Events preserve the order in which
// the rule engine emitted them; the first event carries the firing time used
// for test-window filtering.
type RuleExecutionTrace struct {
	ID        string       `json:"id"`
	RuleName  string       `json:"rule"`
	TriggerID string       `json:"trigger_id"`
	Events    []TraceEvent `json:"events"`
}

// FirstEvent returns the earliest recorded event and whether one exists.
func (t *RuleExecutionTrace) FirstEvent() (TraceEvent, bool) {
	if len(t.Events) == 0 {
		return TraceEvent{}, false
	}
	return t.Events[0], true
}

// Actuator is the fixed testing actuator used to exercise rules during runs.
type Actuator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
