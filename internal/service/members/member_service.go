package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/Domenick1991/aeroclub/internal/repository"
)

type MemberService struct {
	repo repository.MemberRepository
}

func NewMemberService(repo repository.MemberRepository) *MemberService {
	return &MemberService{repo: repo}
}

// IsPrivileged reports whether actorID holds an elevated club role. Unknown
// actors are simply not privileged.
func (s *MemberService) IsPrivileged(ctx context.Context, actorID string) (bool, error) {
	member, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup member %s: %w", actorID, err)
	}
	return member.Role.Privileged(), nil
}
