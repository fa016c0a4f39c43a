package postgres

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/marvin21/MBP/internal/domain"
)

func TestTestDetailsRepoFindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "sensors", "rules", "config", "start_time_unix", "end_time_unix",
		"trigger_rules", "successful", "rules_executed", "trigger_values",
		"report_path", "simulation_values",
	}).AddRow(
		"t1",
		[]byte(`[{"id":"S1","name":"TemperatureSim"}]`),
		[]byte(`[{"id":"r1","name":"R1"}]`),
		[]byte(`[{"name":"interval","value":"5"}]`),
		int64(100), int64(200), true, true,
		[]byte(`["R1"]`),
		[]byte(`{"R1":[31,35]}`),
		"/var/reports/t1.pdf",
		[]byte(`{"TemperatureSim":[1,2,3]}`),
	)
	mock.ExpectQuery(`SELECT (.+) FROM tests WHERE id = \$1`).
		WithArgs("t1").
		WillReturnRows(rows)

	repo := NewTestDetailsRepo(db)
	test, err := repo.FindByID("t1")
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}

	if test.ID != "t1" || !test.TriggerRules || !test.Successful {
		t.Fatalf("unexpected scalar fields: %+v", test)
	}
	if len(test.Sensors) != 1 || test.Sensors[0].Name != "TemperatureSim" {
		t.Fatalf("sensors not decoded: %+v", test.Sensors)
	}
	if got := test.TriggerValues["R1"]; len(got) != 2 || got[0] != 31 {
		t.Fatalf("trigger values not decoded: %+v", test.TriggerValues)
	}
	if got := test.SimulationValues["TemperatureSim"]; len(got) != 3 {
		t.Fatalf("simulation values not decoded: %+v", test.SimulationValues)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTestDetailsRepoFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM tests WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewTestDetailsRepo(db)
	if _, err := repo.FindByID("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTestDetailsRepoExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewTestDetailsRepo(db)
	ok, err := repo.Exists("t1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatalf("expected test to exist")
	}
}

func TestTestDetailsRepoSaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO tests (.+) ON CONFLICT \(id\) DO UPDATE SET`).
		WithArgs("t1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			int64(100), int64(200), true, true,
			sqlmock.AnyArg(), sqlmock.AnyArg(), "/var/reports/t1.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewTestDetailsRepo(db)
	err = repo.Save(&domain.TestDetails{
		ID:            "t1",
		Sensors:       []domain.SensorRef{{ID: "S1", Name: "TemperatureSim"}},
		Rules:         []domain.RuleRef{{ID: "r1", Name: "R1"}},
		StartTimeUnix: 100,
		EndTimeUnix:   200,
		TriggerRules:  true,
		Successful:    true,
		ReportPath:    "/var/reports/t1.pdf",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRuleRepoFindAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, trigger_id FROM rules`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "trigger_id"}).
			AddRow("r1", "R1", "trg-1").
			AddRow("r2", "R2", "trg-2"))

	rules, err := NewRuleRepo(db).FindAll()
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(rules) != 2 || rules[0].Name != "R1" || rules[1].TriggerID != "trg-2" {
		t.Fatalf("unexpected rules: %+v", rules)
	}
}

func TestRuleTriggerRepoFindAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, query FROM rule_triggers`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "query"}).
			AddRow("trg-1", "SELECT * FROM sensor_S1"))

	triggers, err := NewRuleTriggerRepo(db).FindAll()
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(triggers) != 1 || triggers[0].Query != "SELECT * FROM sensor_S1" {
		t.Fatalf("unexpected triggers: %+v", triggers)
	}
}

func TestTraceRepoFindAllByTriggerID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, rule_name, trigger_id, events FROM rule_traces WHERE trigger_id = \$1`).
		WithArgs("trg-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "rule_name", "trigger_id", "events"}).
			AddRow("t1", "R1", "trg-1", []byte(`[{"time":110,"value":31}]`)))

	traces, err := NewTraceRepo(db).FindAllByTriggerID("trg-1")
	if err != nil {
		t.Fatalf("find traces: %v", err)
	}
	if len(traces) != 1 {
		t.Fatalf("expected one trace, got %d", len(traces))
	}
	first, ok := traces[0].FirstEvent()
	if !ok || first.Time != 110 || first.Value != 31 {
		t.Fatalf("events not decoded: %+v", traces[0])
	}
}

func TestActuatorRepoFindByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name FROM actuators WHERE name = \$1`).
		WithArgs("TestingActuator").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("act-1", "TestingActuator"))

	a, err := NewActuatorRepo(db).FindByName("TestingActuator")
	if err != nil {
		t.Fatalf("find actuator: %v", err)
	}
	if a.ID != "act-1" {
		t.Fatalf("unexpected actuator: %+v", a)
	}
}

func TestActuatorRepoFindByNameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name FROM actuators WHERE name = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	if _, err := NewActuatorRepo(db).FindByName("ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
