package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/jackc/pgx/v5"
)

type MemberRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Member, error)
}

type PGMemberRepository struct {
	db DBPool
}

func NewMemberRepository(db DBPool) *PGMemberRepository {
	return &PGMemberRepository{db: db}
}

func (r *PGMemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	row := r.db.QueryRow(ctx, `SELECT id, display_name, role FROM members WHERE id=$1`, id)
	var m domain.Member
	if err := row.Scan(&m.ID, &m.DisplayName, &m.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

var _ MemberRepository = (*PGMemberRepository)(nil)
