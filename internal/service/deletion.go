package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"clubhub/internal/model"
	"clubhub/internal/notify"
	"clubhub/internal/repo"
)

const DefaultDeletionReason = "No reason provided"

type DeletionInput struct {
	Type     model.DeletionType
	TargetID int64
	Reason   string
}

// DeletionResult reports whether the target was deleted outright or a
// pending request was filed instead.
type DeletionResult struct {
	Bypassed bool                   `json:"bypassed"`
	Request  *model.DeletionRequest `json:"request,omitempty"`
}

func (s *Service) RequestDeletion(ctx context.Context, actor model.Actor, in DeletionInput) (*DeletionResult, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	target, err := model.NewDeletionTarget(in.Type, in.TargetID)
	if err != nil {
		return nil, &Error{Kind: ErrValidation, Msg: "Invalid deletion target", Cause: err}
	}

	if s.isBypass(actor.Role) {
		closed, err := s.repo.DeleteTargetTx(ctx, actor.ClubID, target, actor.UserID)
		if err != nil {
			return nil, fromRepo(err, "Record not found")
		}
		s.log.Info().
			Int64("actor_id", actor.UserID).
			Str("type", string(target.Kind())).
			Int64("target_id", target.ID()).
			Msg("record deleted without approval")

		if len(closed) == 0 {
			s.publish(ctx, actor.ClubID, notify.EventDeletionRequestStatus, notify.DeletionRequestStatus{
				Status:      string(model.DeletionApproved),
				Type:        string(target.Kind()),
				TargetID:    target.ID(),
				RequestedBy: actor.UserID,
				ApprovedBy:  actor.UserID,
				ApprovedAt:  time.Now().UTC(),
			})
		}
		for _, req := range closed {
			s.publishStatus(ctx, req)
		}
		return &DeletionResult{Bypassed: true}, nil
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = DefaultDeletionReason
	}
	req := &model.DeletionRequest{
		ClubID:      actor.ClubID,
		Type:        target.Kind(),
		TargetID:    target.ID(),
		Reason:      reason,
		RequestedBy: actor.UserID,
		Status:      model.DeletionPending,
	}
	if _, err := s.repo.CreateDeletionRequestTx(ctx, req); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, &Error{Kind: ErrConflict, Msg: MsgAlreadyPending, Cause: err}
		}
		return nil, fromRepo(err, "Record not found")
	}

	s.log.Info().
		Int64("request_id", req.ID).
		Int64("actor_id", actor.UserID).
		Str("type", string(req.Type)).
		Int64("target_id", req.TargetID).
		Msg("deletion request created")
	return &DeletionResult{Request: req}, nil
}

func (s *Service) CancelDeletion(ctx context.Context, actor model.Actor, requestID int64) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	if requestID <= 0 {
		return newError(ErrValidation, "Invalid deletion request id")
	}

	notFound := newError(ErrNotFound, "Deletion request not found")
	req, err := s.repo.CancelDeletionRequestTx(ctx, requestID, func(req *model.DeletionRequest) error {
		if req.ClubID != actor.ClubID {
			return notFound
		}
		if req.RequestedBy != actor.UserID && !s.isBypass(actor.Role) {
			return notFound
		}
		return nil
	})
	if err != nil {
		return fromRepo(err, "Deletion request not found")
	}

	s.log.Info().
		Int64("request_id", req.ID).
		Int64("actor_id", actor.UserID).
		Msg("deletion request cancelled")
	return nil
}

// GetDeletion returns one request to its requester or to a bypass role of
// the same club. Anyone else gets NotFound.
func (s *Service) GetDeletion(ctx context.Context, actor model.Actor, requestID int64) (*model.DeletionRequest, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if requestID <= 0 {
		return nil, newError(ErrValidation, "Invalid deletion request id")
	}
	req, err := s.repo.GetDeletionRequest(ctx, requestID)
	if err != nil {
		return nil, fromRepo(err, "Deletion request not found")
	}
	if req.ClubID != actor.ClubID || (req.RequestedBy != actor.UserID && !s.isBypass(actor.Role)) {
		return nil, newError(ErrNotFound, "Deletion request not found")
	}
	return req, nil
}

// CancelDeletionForTarget cancels the pending request on a target, the way
// the roster screens address requests.
func (s *Service) CancelDeletionForTarget(ctx context.Context, actor model.Actor, kind model.DeletionType, targetID int64) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	target, err := model.NewDeletionTarget(kind, targetID)
	if err != nil {
		return &Error{Kind: ErrValidation, Msg: "Invalid deletion target", Cause: err}
	}
	req, err := s.repo.GetPendingDeletionRequest(ctx, actor.ClubID, target)
	if err != nil {
		return fromRepo(err, "No pending deletion request for this record")
	}
	return s.CancelDeletion(ctx, actor, req.ID)
}

func (s *Service) ListMine(ctx context.Context, actor model.Actor) ([]model.DeletionRequest, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	reqs, err := s.repo.ListDeletionRequestsByRequester(ctx, actor.UserID)
	if err != nil {
		return nil, fromRepo(err, "Deletion requests not found")
	}
	return reqs, nil
}

func (s *Service) ListPending(ctx context.Context, actor model.Actor) ([]model.DeletionRequest, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if !s.isBypass(actor.Role) {
		return nil, newError(ErrForbidden, "Only advisers can review deletion requests")
	}
	reqs, err := s.repo.ListPendingDeletionRequests(ctx, actor.ClubID)
	if err != nil {
		return nil, fromRepo(err, "Deletion requests not found")
	}
	return reqs, nil
}

// ResolveDeletion approves or denies a pending request. Approval deletes the
// target and its dependents in the same transaction.
func (s *Service) ResolveDeletion(ctx context.Context, actor model.Actor, requestID int64, approve bool) (*model.DeletionRequest, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if !s.isBypass(actor.Role) {
		return nil, newError(ErrForbidden, "Only advisers can resolve deletion requests")
	}
	if requestID <= 0 {
		return nil, newError(ErrValidation, "Invalid deletion request id")
	}

	closed, err := s.repo.ResolveDeletionRequestTx(ctx, actor.ClubID, requestID, actor.UserID, approve)
	if err != nil {
		return nil, fromRepo(err, "Deletion request not found")
	}

	var resolved *model.DeletionRequest
	for i := range closed {
		s.publishStatus(ctx, closed[i])
		if closed[i].ID == requestID {
			resolved = &closed[i]
		}
	}
	if resolved == nil {
		return nil, &Error{Kind: ErrStorage, Msg: MsgServerError, Cause: errors.New("resolved request missing from result")}
	}

	s.log.Info().
		Int64("request_id", resolved.ID).
		Int64("actor_id", actor.UserID).
		Str("status", string(resolved.Status)).
		Int("closed_requests", len(closed)).
		Msg("deletion request resolved")

	s.notifyRequester(ctx, *resolved)
	return resolved, nil
}

func (s *Service) publishStatus(ctx context.Context, req model.DeletionRequest) {
	ev := notify.DeletionRequestStatus{
		RequestID:   req.ID,
		Status:      string(req.Status),
		Type:        string(req.Type),
		TargetID:    req.TargetID,
		RequestedBy: req.RequestedBy,
	}
	if req.ResolvedBy != nil {
		ev.ApprovedBy = *req.ResolvedBy
	}
	if req.ResolvedAt != nil {
		ev.ApprovedAt = req.ResolvedAt.UTC()
	}
	s.publish(ctx, req.ClubID, notify.EventDeletionRequestStatus, ev)
}

func (s *Service) notifyRequester(ctx context.Context, req model.DeletionRequest) {
	if s.mail == nil {
		return
	}
	requester, err := s.repo.GetUserByID(ctx, req.RequestedBy)
	if err != nil || requester.Email == "" {
		s.log.Debug().Int64("request_id", req.ID).Msg("requester has no reachable email")
		return
	}
	if err := s.mail.SendDeletionResolved(ctx, requester.Email, req); err != nil {
		s.log.Warn().Err(err).Int64("request_id", req.ID).Msg("failed to email deletion resolution")
	}
}
