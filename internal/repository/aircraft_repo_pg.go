package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/jackc/pgx/v5"
)

type AircraftRepository interface {
	List(ctx context.Context) ([]domain.Aircraft, error)
	GetByID(ctx context.Context, id string) (*domain.Aircraft, error)
}

type PGAircraftRepository struct {
	db DBPool
}

func NewAircraftRepository(db DBPool) *PGAircraftRepository {
	return &PGAircraftRepository{db: db}
}

func (r *PGAircraftRepository) List(ctx context.Context) ([]domain.Aircraft, error) {
	rows, err := r.db.Query(ctx, `SELECT id, registration, model, bookable, unavailable_reason, updated_at FROM aircraft ORDER BY registration`)
	if err != nil {
		return nil, fmt.Errorf("list aircraft: %w", err)
	}
	defer rows.Close()

	fleet := make([]domain.Aircraft, 0)
	for rows.Next() {
		var a domain.Aircraft
		if err := rows.Scan(&a.ID, &a.Registration, &a.Model, &a.Bookable, &a.UnavailableReason, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan aircraft: %w", err)
		}
		fleet = append(fleet, a)
	}
	return fleet, rows.Err()
}

// GetByID returns domain.ErrNotFound for unknown aircraft.
func (r *PGAircraftRepository) GetByID(ctx context.Context, id string) (*domain.Aircraft, error) {
	row := r.db.QueryRow(ctx, `SELECT id, registration, model, bookable, unavailable_reason, updated_at FROM aircraft WHERE id=$1`, id)
	var a domain.Aircraft
	if err := row.Scan(&a.ID, &a.Registration, &a.Model, &a.Bookable, &a.UnavailableReason, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get aircraft: %w", err)
	}
	return &a, nil
}

var _ AircraftRepository = (*PGAircraftRepository)(nil)
