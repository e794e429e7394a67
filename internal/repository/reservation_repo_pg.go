package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ListFilter struct {
	ResourceID       string
	RequesterID      string
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
	Limit            int
}

type ReservationRepository interface {
	// WithResourceLock runs fn in one transaction holding an exclusive lock per resource.
	WithResourceLock(ctx context.Context, resourceIDs []string, fn func(ctx context.Context) error) error
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	Overlapping(ctx context.Context, resourceID string, iv domain.Interval, excludeID string) ([]domain.Reservation, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Reservation, error)
	Create(ctx context.Context, r *domain.Reservation) error
	Update(ctx context.Context, r *domain.Reservation) error
	UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus, at time.Time) error
}

const reservationColumns = `id, resource_id, requester_id, starts_at, ends_at, is_priority, status, remarks, created_at, updated_at`

type PGReservationRepository struct {
	db DBPool
}

func NewReservationRepository(db DBPool) *PGReservationRepository {
	return &PGReservationRepository{db: db}
}

func (r *PGReservationRepository) WithResourceLock(ctx context.Context, resourceIDs []string, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, func(txCtx context.Context) error {
		if err := lockResources(txCtx, conn(txCtx, r.db), resourceIDs); err != nil {
			return err
		}
		return fn(txCtx)
	})
}

func (r *PGReservationRepository) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *PGReservationRepository) Overlapping(ctx context.Context, resourceID string, iv domain.Interval, excludeID string) ([]domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + `
FROM reservations
WHERE resource_id = $1 AND status <> 'CANCELLED' AND starts_at < $3 AND ends_at > $2 AND id <> $4
ORDER BY starts_at, id`

	rows, err := conn(ctx, r.db).Query(ctx, query, resourceID, iv.Start, iv.End, excludeID)
	if err != nil {
		return nil, fmt.Errorf("query overlapping reservations: %w", err)
	}
	return collectReservations(rows)
}

func (r *PGReservationRepository) List(ctx context.Context, filter ListFilter) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	var args []any
	var conditions []string

	if filter.ResourceID != "" {
		args = append(args, filter.ResourceID)
		conditions = append(conditions, fmt.Sprintf("resource_id = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("ends_at > $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("starts_at < $%d", len(args)))
	}
	if !filter.IncludeCancelled {
		conditions = append(conditions, "status <> 'CANCELLED'")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY starts_at, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return collectReservations(rows)
}

func (r *PGReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	_, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO reservations (`+reservationColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, res.ResourceID, res.RequesterID, res.Interval.Start, res.Interval.End,
		res.Priority.Elevated(), res.Status, res.Remarks, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *PGReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE reservations
SET resource_id=$2, requester_id=$3, starts_at=$4, ends_at=$5, is_priority=$6, status=$7, remarks=$8, updated_at=$9
WHERE id=$1`,
		res.ID, res.ResourceID, res.RequesterID, res.Interval.Start, res.Interval.End,
		res.Priority.Elevated(), res.Status, res.Remarks, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGReservationRepository) UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus, at time.Time) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE reservations SET status=$2, updated_at=$3 WHERE id=$1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var isPriority bool
	if err := row.Scan(&res.ID, &res.ResourceID, &res.RequesterID, &res.Interval.Start, &res.Interval.End,
		&isPriority, &res.Status, &res.Remarks, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.Priority = domain.PriorityFromFlag(isPriority)
	return &res, nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()

	out := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
