// Package postgres implements the persistence ports on PostgreSQL. Composite
// fields are stored as JSONB columns; row shapes follow the platform schema.
package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

type TestDetailsRepo struct {
	db *sql.DB
}

func NewTestDetailsRepo(db *sql.DB) *TestDetailsRepo {
	return &TestDetailsRepo{db: db}
}

const testColumns = `id, sensors, rules, config, start_time_unix, end_time_unix, trigger_rules,
	successful, rules_executed, trigger_values, report_path, simulation_values`

func (r *TestDetailsRepo) FindByID(id string) (*domain.TestDetails, error) {
	row := r.db.QueryRow(`SELECT `+testColumns+` FROM tests WHERE id = $1`, id)

	var (
		t                domain.TestDetails
		sensors          []byte
		rules            []byte
		config           []byte
		rulesExecuted    []byte
		triggerValues    []byte
		simulationValues []byte
	)
	err := row.Scan(&t.ID, &sensors, &rules, &config, &t.StartTimeUnix, &t.EndTimeUnix,
		&t.TriggerRules, &t.Successful, &rulesExecuted, &triggerValues, &t.ReportPath, &simulationValues)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("test %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query test %s: %w", id, err)
	}

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{sensors, &t.Sensors},
		{rules, &t.Rules},
		{config, &t.Config},
		{rulesExecuted, &t.RulesExecuted},
		{triggerValues, &t.TriggerValues},
		{simulationValues, &t.SimulationValues},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode test %s: %w", id, err)
		}
	}
	return &t, nil
}

func (r *TestDetailsRepo) Exists(id string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM tests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check test %s: %w", id, err)
	}
	return exists, nil
}

func (r *TestDetailsRepo) Save(t *domain.TestDetails) error {
	sensors, err := json.Marshal(t.Sensors)
	if err != nil {
		return fmt.Errorf("encode sensors: %w", err)
	}
	rules, err := json.Marshal(t.Rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	config, err := json.Marshal(t.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	rulesExecuted, err := json.Marshal(t.RulesExecuted)
	if err != nil {
		return fmt.Errorf("encode rules executed: %w", err)
	}
	triggerValues, err := json.Marshal(t.TriggerValues)
	if err != nil {
		return fmt.Errorf("encode trigger values: %w", err)
	}
	simulationValues, err := json.Marshal(t.SimulationValues)
	if err != nil {
		return fmt.Errorf("encode simulation values: %w", err)
	}

	_, err = r.db.Exec(`INSERT INTO tests (`+testColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			sensors = EXCLUDED.sensors,
			rules = EXCLUDED.rules,
			config = EXCLUDED.config,
			start_time_unix = EXCLUDED.start_time_unix,
			end_time_unix = EXCLUDED.end_time_unix,
			trigger_rules = EXCLUDED.trigger_rules,
			successful = EXCLUDED.successful,
			rules_executed = EXCLUDED.rules_executed,
			trigger_values = EXCLUDED.trigger_values,
			report_path = EXCLUDED.report_path,
			simulation_values = EXCLUDED.simulation_values`,
		t.ID, sensors, rules, config, t.StartTimeUnix, t.EndTimeUnix, t.TriggerRules,
		t.Successful, rulesExecuted, triggerValues, t.ReportPath, simulationValues)
	if err != nil {
		return fmt.Errorf("save test %s: %w", t.ID, err)
	}
	return nil
}

var _ ports.TestDetailsRepository = (*TestDetailsRepo)(nil)
