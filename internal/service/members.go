package service

import (
	"context"
	"strings"

	"clubhub/internal/model"
	"clubhub/internal/notify"
)

type MemberInput struct {
	FullName string
	Email    string
	Role     string
}

// RegisterMember adds a user to the actor's club and announces it to the
// club's dashboards. Only bypass roles may create non-member accounts.
func (s *Service) RegisterMember(ctx context.Context, actor model.Actor, in MemberInput) (*model.User, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, newError(ErrValidation, "Full name is required")
	}
	role := model.RoleMember
	if strings.TrimSpace(in.Role) != "" {
		role = model.ParseRole(in.Role)
	}
	if !role.Known() {
		return nil, newError(ErrValidation, "Unknown role")
	}
	if !role.Is(model.RoleMember) && !s.isBypass(actor.Role) {
		return nil, newError(ErrForbidden, "Only advisers can assign officer roles")
	}

	u := &model.User{
		ClubID:   actor.ClubID,
		FullName: name,
		Email:    strings.TrimSpace(in.Email),
		Role:     role,
	}
	if _, err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fromRepo(err, "Club not found")
	}

	s.log.Info().Int64("user_id", u.ID).Str("role", string(u.Role)).Msg("member registered")
	s.publish(ctx, actor.ClubID, notify.EventRegistration, notify.Registration{
		Role:     string(u.Role),
		FullName: u.FullName,
	})
	return u, nil
}
