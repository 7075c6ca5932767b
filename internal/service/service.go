package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clubhub/internal/model"
	"clubhub/internal/notify"
	"clubhub/internal/repo"
)

// Mailer tells a requester how their deletion request was resolved.
type Mailer interface {
	SendDeletionResolved(ctx context.Context, recipient string, req model.DeletionRequest) error
}

type Service struct {
	repo     repo.Repository
	pub      notify.Publisher
	mail     Mailer
	log      *zerolog.Logger
	bypass   []model.Role
	newToken func() string
}

type Option func(*Service)

// WithBypassRoles replaces the roles that delete without approval.
func WithBypassRoles(roles ...model.Role) Option {
	return func(s *Service) {
		if len(roles) > 0 {
			s.bypass = roles
		}
	}
}

func WithMailer(m Mailer) Option {
	return func(s *Service) { s.mail = m }
}

func WithTokenGenerator(gen func() string) Option {
	return func(s *Service) { s.newToken = gen }
}

func NewService(repo repo.Repository, pub notify.Publisher, logger *zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		pub:      pub,
		log:      logger,
		bypass:   []model.Role{model.RoleAdviser},
		newToken: NewQRToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewQRToken returns an opaque random token for a QR credential.
func NewQRToken() string {
	return "QR-" + uuid.NewString()
}

func (s *Service) isBypass(role model.Role) bool {
	return role.In(s.bypass)
}

func authenticated(actor model.Actor) error {
	if actor.UserID <= 0 {
		return newError(ErrUnauthenticated, "Authentication required")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, clubID int64, event string, payload any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, clubID, event, payload); err != nil {
		s.log.Warn().Err(err).Str("event", event).Int64("club_id", clubID).Msg("failed to publish club event")
	}
}
