package ports

import "github.com/marvin21/MBP/internal/domain"

// DeploymentClient is the boundary to the platform's deployment collaborator.
type DeploymentClient interface {
	IsRunning(deviceID string) (bool, error)
	Deploy(deviceID string) error
	Start(deviceID string, config []domain.ParameterInstance) error
	Stop(deviceID string) error
}

// RuleClient is the boundary to the rule engine collaborator.
type RuleClient interface {
	EnableRule(ruleID string) error
}
