package service

import (
	"context"

	"clubhub/internal/model"
)

func (s *Service) authorizeQR(actor model.Actor, userID int64) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	if userID <= 0 {
		return newError(ErrValidation, "Invalid user id")
	}
	if userID != actor.UserID && !s.isBypass(actor.Role) {
		return newError(ErrForbidden, "You can only manage your own QR code")
	}
	return nil
}

// GetOrCreateQR returns the user's active credential, issuing one if the
// user has none.
func (s *Service) GetOrCreateQR(ctx context.Context, actor model.Actor, userID int64) (*model.QRCredential, error) {
	if err := s.authorizeQR(actor, userID); err != nil {
		return nil, err
	}
	cred, err := s.repo.GetOrCreateQRTx(ctx, actor.ClubID, userID, s.newToken)
	if err != nil {
		return nil, fromRepo(err, "User not found")
	}
	return cred, nil
}

// RegenerateQR always issues a fresh credential; the previous token stops
// verifying as soon as this returns.
func (s *Service) RegenerateQR(ctx context.Context, actor model.Actor, userID int64) (*model.QRCredential, error) {
	if err := s.authorizeQR(actor, userID); err != nil {
		return nil, err
	}
	cred, err := s.repo.RegenerateQRTx(ctx, actor.ClubID, userID, s.newToken)
	if err != nil {
		return nil, fromRepo(err, "User not found")
	}
	s.log.Info().Int64("user_id", userID).Int64("actor_id", actor.UserID).Msg("qr credential rotated")
	return cred, nil
}
