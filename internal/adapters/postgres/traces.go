package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

type TraceRepo struct {
	db *sql.DB
}

func NewTraceRepo(db *sql.DB) *TraceRepo {
	return &TraceRepo{db: db}
}

// FindAllByTriggerID returns the rule engine's execution traces for one
// trigger, oldest first so the correlator sees first-seen order.
func (r *TraceRepo) FindAllByTriggerID(triggerID string) ([]domain.RuleExecutionTrace, error) {
	rows, err := r.db.Query(
		`SELECT id, rule_name, trigger_id, events FROM rule_traces WHERE trigger_id = $1 ORDER BY id`,
		triggerID)
	if err != nil {
		return nil, fmt.Errorf("query traces for trigger %s: %w", triggerID, err)
	}
	defer rows.Close()

	var traces []domain.RuleExecutionTrace
	for rows.Next() {
		var (
			trace  domain.RuleExecutionTrace
			events []byte
		)
		if err := rows.Scan(&trace.ID, &trace.RuleName, &trace.TriggerID, &events); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		if len(events) > 0 {
			if err := json.Unmarshal(events, &trace.Events); err != nil {
				return nil, fmt.Errorf("decode trace %s events: %w", trace.ID, err)
			}
		}
		traces = append(traces, trace)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	return traces, nil
}

var _ ports.TraceRepository = (*TraceRepo)(nil)
