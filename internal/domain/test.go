package domain

// ParameterInstance is one configuration parameter handed to a sensor when a
// test run starts it.
type ParameterInstance struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SensorRef identifies a sensor participating in a test.
type SensorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RuleRef identifies a rule a test expects to exercise.
type RuleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TestDetails describes one scheduled simulation run over a set of sensors
// together with everything recorded about its outcome. It is created when the
// test is scheduled and mutated by the orchestration engine during and after
// execution; deletion is owned by the external test catalog.
type TestDetails struct {
	ID            string              `json:"id"`
	Sensors       []SensorRef         `json:"sensors"`
	Rules         []RuleRef           `json:"rules"`
	Config        []ParameterInstance `json:"config"`
	StartTimeUnix int64               `json:"start_time_unix"`
	EndTimeUnix   int64               `json:"end_time_unix"`

	// TriggerRules states whether the run is expected to make its rules fire.
	TriggerRules bool `json:"trigger_rules"`

	// Post-run fields, written by the engine.
	Successful       bool                 `json:"successful"`
	RulesExecuted    []string             `json:"rules_executed"`
	TriggerValues    map[string][]float64 `json:"trigger_values"`
	ReportPath       string               `json:"report_path"`
	SimulationValues map[string][]float64 `json:"simulation_values"`
}

// SensorIDs returns the identifiers of the participating sensors, in
// participation order.
func (t *TestDetails) SensorIDs() []string {
	ids := make([]string, 0, len(t.Sensors))
	for _, s := range t.Sensors {
		ids = append(ids, s.ID)
	}
	return ids
}

// RuleNames returns the names of the rules configured on the test, in
// configuration order.
func (t *TestDetails) RuleNames() []string {
	names := make([]string, 0, len(t.Rules))
	for _, r := range t.Rules {
		names = append(names, r.Name)
	}
	return names
}
