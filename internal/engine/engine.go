// Package engine implements the test orchestration core: it tracks active
// test runs, buffers the values their sensors publish, detects completion,
// and judges success against the rule engine's execution traces.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

// TestingActuatorName is the fixed actuator every test run exercises rules
// through.
const TestingActuatorName = "TestingActuator"

// Config bounds the completion wait; the poll loop gives up with ErrTimeout
// once MaxWait has elapsed.
type Config struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 5 * time.Minute
	}
}

// Engine is the sole pipeline observer of this core. It is called from the
// ingestion goroutine (OnValueReceived) and from request-driven goroutines
// (StartTest, WaitForCompletion, RunAndRecord) concurrently; the shared index
// and buffers live behind testStore's mutex.
type Engine struct {
	tests      ports.TestDetailsRepository
	actuators  ports.ActuatorRepository
	deploy     ports.DeploymentClient
	rules      ports.RuleClient
	correlator ports.Correlator
	journal    ports.Journal
	obs        ports.Observability

	cfg   Config
	store *testStore
	now   func() time.Time
}

// New wires the engine against its collaborators. journal may be nil when no
// audit trail is configured.
func New(
	tests ports.TestDetailsRepository,
	actuators ports.ActuatorRepository,
	deploy ports.DeploymentClient,
	rules ports.RuleClient,
	correlator ports.Correlator,
	journal ports.Journal,
	obs ports.Observability,
	cfg Config,
) *Engine {
	cfg.applyDefaults()
	return &Engine{
		tests:      tests,
		actuators:  actuators,
		deploy:     deploy,
		rules:      rules,
		correlator: correlator,
		journal:    journal,
		obs:        obs,
		cfg:        cfg,
		store:      newTestStore(),
		now:        time.Now,
	}
}

// OnValueReceived is the sole write path into the value buffers. Values for
// devices no active test owns are dropped.
func (e *Engine) OnValueReceived(v *domain.ValueLog) {
	if !e.store.append(v.ComponentID, v.Value) {
		return
	}
	e.obs.IncCounter("mbp_test_values_buffered_total", 1)
}

// StartTest transitions a scheduled test to running: it enables the
// configured rules, verifies the test still exists, makes sure the testing
// actuator and every participating sensor are deployed and started, and
// claims each sensor in the active-test index. A sensor owned by another
// active test fails the start with ErrConflict before any sensor is touched.
func (e *Engine) StartTest(t *domain.TestDetails) error {
	if t == nil {
		return fmt.Errorf("start test: %w", domain.ErrInvalidArgument)
	}

	for _, rule := range t.Rules {
		if err := e.rules.EnableRule(rule.ID); err != nil {
			return fmt.Errorf("enable rule %s: %w", rule.ID, err)
		}
	}

	exists, err := e.tests.Exists(t.ID)
	if err != nil {
		return fmt.Errorf("check test %s: %w", t.ID, err)
	}
	if !exists {
		return fmt.Errorf("test %s: %w", t.ID, domain.ErrNotFound)
	}

	actuator, err := e.actuators.FindByName(TestingActuatorName)
	if err != nil {
		return fmt.Errorf("resolve testing actuator: %w", err)
	}
	if err := e.ensureDeployed(actuator.ID); err != nil {
		return err
	}
	if err := e.deploy.Start(actuator.ID, nil); err != nil {
		return fmt.Errorf("start actuator %s: %w", actuator.ID, err)
	}

	sensorIDs := t.SensorIDs()
	if err := e.store.claim(t, sensorIDs); err != nil {
		return fmt.Errorf("start test %s: %w", t.ID, err)
	}

	for _, sensor := range t.Sensors {
		if err := e.startSensor(sensor.ID, t.Config); err != nil {
			e.store.release(sensorIDs)
			return err
		}
	}

	t.StartTimeUnix = e.now().Unix()
	if err := e.tests.Save(t); err != nil {
		e.store.release(sensorIDs)
		return fmt.Errorf("save test %s: %w", t.ID, err)
	}

	e.obs.IncCounter("mbp_tests_started_total", 1)
	e.obs.SetGauge("mbp_active_devices", float64(e.store.activeCount()))
	e.obs.LogInfo("test_started",
		ports.Field{Key: "test_id", Value: t.ID},
		ports.Field{Key: "sensors", Value: len(t.Sensors)})
	return nil
}

func (e *Engine) ensureDeployed(deviceID string) error {
	running, err := e.deploy.IsRunning(deviceID)
	if err != nil {
		return fmt.Errorf("query device %s: %w", deviceID, err)
	}
	if !running {
		if err := e.deploy.Deploy(deviceID); err != nil {
			return fmt.Errorf("deploy device %s: %w", deviceID, err)
		}
	}
	return nil
}

func (e *Engine) startSensor(sensorID string, config []domain.ParameterInstance) error {
	if err := e.ensureDeployed(sensorID); err != nil {
		return err
	}
	if err := e.deploy.Stop(sensorID); err != nil {
		return fmt.Errorf("stop sensor %s: %w", sensorID, err)
	}
	if err := e.deploy.Start(sensorID, config); err != nil {
		return fmt.Errorf("start sensor %s: %w", sensorID, err)
	}
	return nil
}

// WaitForCompletion polls the deployment collaborator until every
// participating sensor reports not running, then stamps the test's end time,
// persists it, and returns the values buffered for its sensors. The wait is
// bounded by the configured MaxWait (ErrTimeout on expiry) and aborts early
// when ctx is cancelled.
func (e *Engine) WaitForCompletion(ctx context.Context, t *domain.TestDetails) (map[string][]float64, error) {
	if t == nil {
		return nil, fmt.Errorf("wait for completion: %w", domain.ErrInvalidArgument)
	}

	deadline := e.now().Add(e.cfg.MaxWait)
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		running, err := e.anySensorRunning(t)
		if err != nil {
			return nil, err
		}
		if !running {
			break
		}
		if e.now().After(deadline) {
			return nil, fmt.Errorf("test %s after %s: %w", t.ID, e.cfg.MaxWait, domain.ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("test %s: %w", t.ID, ctx.Err())
		case <-ticker.C:
		}
	}

	t.EndTimeUnix = e.now().Unix()
	if err := e.tests.Save(t); err != nil {
		return nil, fmt.Errorf("save test %s: %w", t.ID, err)
	}
	return e.store.snapshot(t.SensorIDs()), nil
}

func (e *Engine) anySensorRunning(t *domain.TestDetails) (bool, error) {
	for _, sensor := range t.Sensors {
		running, err := e.deploy.IsRunning(sensor.ID)
		if err != nil {
			return false, fmt.Errorf("query sensor %s: %w", sensor.ID, err)
		}
		if running {
			return true, nil
		}
	}
	return false, nil
}

// EvaluateSuccess applies the deterministic verdict: a test expecting
// triggered rules succeeds exactly when the rules that produced trigger
// values equal the configured rule set; a test expecting silence succeeds
// exactly when no rule produced a value.
func (e *Engine) EvaluateSuccess(t *domain.TestDetails, triggerValues map[string][]float64, ruleNames []string) bool {
	if !t.TriggerRules {
		return len(triggerValues) == 0
	}
	if len(triggerValues) != len(ruleNames) {
		return false
	}
	for _, name := range ruleNames {
		if _, ok := triggerValues[name]; !ok {
			return false
		}
	}
	return true
}

// RunAndRecord executes start → wait → collect → correlate → evaluate →
// persist as one unit. The buffered per-sensor values are renamed from device
// ids to sensor names for the stored report, and the claims and buffers are
// released afterwards so the devices are free for the next run.
func (e *Engine) RunAndRecord(ctx context.Context, testID string) (*domain.TestDetails, error) {
	t, err := e.tests.FindByID(testID)
	if err != nil {
		return nil, fmt.Errorf("load test %s: %w", testID, err)
	}

	if err := e.StartTest(t); err != nil {
		return nil, err
	}
	started := e.now()
	sensorIDs := t.SensorIDs()
	defer func() {
		e.store.release(sensorIDs)
		e.obs.SetGauge("mbp_active_devices", float64(e.store.activeCount()))
	}()

	buffered, err := e.WaitForCompletion(ctx, t)
	if err != nil {
		return nil, err
	}

	simulation := make(map[string][]float64, len(t.Sensors))
	for _, sensor := range t.Sensors {
		if values, ok := buffered[sensor.ID]; ok {
			simulation[sensor.Name] = values
		}
	}
	t.SimulationValues = simulation

	triggerValues, err := e.correlator.CollectTriggerValues(t)
	if err != nil {
		return nil, fmt.Errorf("correlate test %s: %w", t.ID, err)
	}
	ruleNames := t.RuleNames()

	t.TriggerValues = triggerValues
	t.RulesExecuted = executedRules(triggerValues, ruleNames)
	t.Successful = e.EvaluateSuccess(t, triggerValues, ruleNames)

	if err := e.tests.Save(t); err != nil {
		return nil, fmt.Errorf("save test %s: %w", t.ID, err)
	}
	e.commitJournal()

	e.obs.IncCounter("mbp_tests_completed_total", 1)
	e.obs.ObserveLatency("mbp_test_duration_seconds", e.now().Sub(started).Seconds())
	e.obs.LogInfo("test_recorded",
		ports.Field{Key: "test_id", Value: t.ID},
		ports.Field{Key: "successful", Value: t.Successful},
		ports.Field{Key: "rules_executed", Value: len(t.RulesExecuted)})
	return t, nil
}

// RulesBeforeTest snapshots the rules a run will touch before it starts.
func (e *Engine) RulesBeforeTest(testID string) ([]domain.Rule, error) {
	t, err := e.tests.FindByID(testID)
	if err != nil {
		return nil, fmt.Errorf("load test %s: %w", testID, err)
	}
	return e.correlator.RulesAffectedByTest(t)
}

// executedRules lists the rules that produced trigger values, configured
// rules first in their configuration order, unexpected ones after, sorted.
func executedRules(triggerValues map[string][]float64, ruleNames []string) []string {
	executed := make([]string, 0, len(triggerValues))
	seen := make(map[string]struct{}, len(triggerValues))
	for _, name := range ruleNames {
		if _, ok := triggerValues[name]; ok {
			executed = append(executed, name)
			seen[name] = struct{}{}
		}
	}
	var extra []string
	for name := range triggerValues {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(executed, extra...)
}

func (e *Engine) commitJournal() {
	if e.journal == nil {
		return
	}
	stats := e.journal.Stats()
	if err := e.journal.Commit(stats.LatestAppended); err != nil {
		e.obs.LogError("journal_commit_failed", err)
	}
}

var _ ports.ValueObserver = (*Engine)(nil)
