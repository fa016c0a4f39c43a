package mbp

import (
	base "github.com/marvin21/MBP/pkg/mbp"
)

// Re-exported errors for convenience.
var (
	ErrInvalidArgument       = base.ErrInvalidArgument
	ErrMalformedPayload      = base.ErrMalformedPayload
	ErrNotFound              = base.ErrNotFound
	ErrConflict              = base.ErrConflict
	ErrTimeout               = base.ErrTimeout
	ErrChannelObserverClosed = base.ErrChannelObserverClosed
)

// Type aliases so consumers can import github.com/marvin21/MBP directly.
type (
	Runtime            = base.Runtime
	RuntimeOption      = base.RuntimeOption
	Config             = base.Config
	PostgresConfig     = base.PostgresConfig
	DeploymentConfig   = base.DeploymentConfig
	MetricsConfig      = base.MetricsConfig
	JournalConfig      = base.JournalConfig
	NoiseConfig        = base.NoiseConfig
	EngineConfig       = base.EngineConfig
	Repositories       = base.Repositories
	ValueLog           = base.ValueLog
	ValueLogFunc       = base.ValueLogFunc
	TestDetails        = base.TestDetails
	ParameterInstance  = base.ParameterInstance
	SensorRef          = base.SensorRef
	RuleRef            = base.RuleRef
	Rule               = base.Rule
	RuleTrigger        = base.RuleTrigger
	RuleExecutionTrace = base.RuleExecutionTrace
	TraceEvent         = base.TraceEvent
	Actuator           = base.Actuator
	ValueObserver      = base.ValueObserver
	Transport          = base.Transport
	MessageHandler     = base.MessageHandler
	DeploymentClient   = base.DeploymentClient
	RuleClient         = base.RuleClient
	Journal            = base.Journal
	JournalEntryID     = base.JournalEntryID
	JournalStats       = base.JournalStats
	Source             = base.Source
	Observability      = base.Observability
	Field              = base.Field
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime construction and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithTransport(t Transport) RuntimeOption {
	return base.WithTransport(t)
}

func WithDeployment(d DeploymentClient) RuntimeOption {
	return base.WithDeployment(d)
}

func WithRuleClient(r RuleClient) RuntimeOption {
	return base.WithRuleClient(r)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithJournal(j Journal) RuntimeOption {
	return base.WithJournal(j)
}

func WithRepositories(r Repositories) RuntimeOption {
	return base.WithRepositories(r)
}

func WithSource(s Source) RuntimeOption {
	return base.WithSource(s)
}

// Observer adapters.
func NewCallbackObserver(fn ValueLogFunc) ValueObserver {
	return base.NewCallbackObserver(fn)
}

func NewChannelObserver(buffer int) (ValueObserver, <-chan *ValueLog, func()) {
	return base.NewChannelObserver(buffer)
}
