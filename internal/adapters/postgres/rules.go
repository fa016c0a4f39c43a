package postgres

import (
	"database/sql"
	"fmt"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

type RuleRepo struct {
	db *sql.DB
}

func NewRuleRepo(db *sql.DB) *RuleRepo {
	return &RuleRepo{db: db}
}

func (r *RuleRepo) FindAll() ([]domain.Rule, error) {
	rows, err := r.db.Query(`SELECT id, name, trigger_id FROM rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.Rule
	for rows.Next() {
		var rule domain.Rule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.TriggerID); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

var _ ports.RuleRepository = (*RuleRepo)(nil)

type RuleTriggerRepo struct {
	db *sql.DB
}

func NewRuleTriggerRepo(db *sql.DB) *RuleTriggerRepo {
	return &RuleTriggerRepo{db: db}
}

func (r *RuleTriggerRepo) FindAll() ([]domain.RuleTrigger, error) {
	rows, err := r.db.Query(`SELECT id, query FROM rule_triggers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rule triggers: %w", err)
	}
	defer rows.Close()

	var triggers []domain.RuleTrigger
	for rows.Next() {
		var trigger domain.RuleTrigger
		if err := rows.Scan(&trigger.ID, &trigger.Query); err != nil {
			return nil, fmt.Errorf("scan rule trigger: %w", err)
		}
		triggers = append(triggers, trigger)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule triggers: %w", err)
	}
	return triggers, nil
}

var _ ports.RuleTriggerRepository = (*RuleTriggerRepo)(nil)
