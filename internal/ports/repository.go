package ports

import "github.com/marvin21/MBP/internal/domain"

// TestDetailsRepository persists test definitions and their outcomes.
type TestDetailsRepository interface {
	FindByID(id string) (*domain.TestDetails, error)
	Exists(id string) (bool, error)
	Save(t *domain.TestDetails) error
}

// RuleRepository reads rule definitions, read-only for this core.
type RuleRepository interface {
	FindAll() ([]domain.Rule, error)
}

// RuleTriggerRepository reads trigger definitions, read-only for this core.
type RuleTriggerRepository interface {
	FindAll() ([]domain.RuleTrigger, error)
}

// TraceRepository reads the rule engine's execution traces.
type TraceRepository interface {
	FindAllByTriggerID(triggerID string) ([]domain.RuleExecutionTrace, error)
}

// ActuatorRepository resolves actuators by name.
type ActuatorRepository interface {
	FindByName(name string) (*domain.Actuator, error)
}
