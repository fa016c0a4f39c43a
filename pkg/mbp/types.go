package mbp

import (
	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

// Domain aliases so embedders can work with the facade package alone.
type (
	ValueLog           = domain.ValueLog
	TestDetails        = domain.TestDetails
	ParameterInstance  = domain.ParameterInstance
	SensorRef          = domain.SensorRef
	RuleRef            = domain.RuleRef
	Rule               = domain.Rule
	RuleTrigger        = domain.RuleTrigger
	RuleExecutionTrace = domain.RuleExecutionTrace
	TraceEvent         = domain.TraceEvent
	Actuator           = domain.Actuator
)

// Port aliases for the override options.
type (
	ValueObserver    = ports.ValueObserver
	Transport        = ports.Transport
	MessageHandler   = ports.MessageHandler
	DeploymentClient = ports.DeploymentClient
	RuleClient       = ports.RuleClient
	Journal          = ports.Journal
	JournalEntryID   = ports.JournalEntryID
	JournalStats     = ports.JournalStats
	Source           = ports.Source
	Observability    = ports.Observability
	Field            = ports.Field
)

// Sentinel errors re-exported from the domain.
var (
	ErrInvalidArgument  = domain.ErrInvalidArgument
	ErrMalformedPayload = domain.ErrMalformedPayload
	ErrNotFound         = domain.ErrNotFound
	ErrConflict         = domain.ErrConflict
	ErrTimeout          = domain.ErrTimeout
)
