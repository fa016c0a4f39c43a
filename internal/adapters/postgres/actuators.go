package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/ports"
)

type ActuatorRepo struct {
	db *sql.DB
}

func NewActuatorRepo(db *sql.DB) *ActuatorRepo {
	return &ActuatorRepo{db: db}
}

func (r *ActuatorRepo) FindByName(name string) (*domain.Actuator, error) {
	var a domain.Actuator
	err := r.db.QueryRow(`SELECT id, name FROM actuators WHERE name = $1`, name).Scan(&a.ID, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("actuator %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query actuator %s: %w", name, err)
	}
	return &a, nil
}

var _ ports.ActuatorRepository = (*ActuatorRepo)(nil)
