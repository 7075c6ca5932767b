package service

import (
	"context"
	"strings"

	"clubhub/internal/model"
)

type AttendanceInput struct {
	UserID        int64
	RequirementID int64
	TimeSlotID    *int64
	Status        model.AttendanceStatus
	Notes         string
}

func requireOperator(actor model.Actor) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	if !actor.Role.IsOperator() {
		return newError(ErrForbidden, "Only advisers, presidents and officers can take attendance")
	}
	return nil
}

// VerifyQR resolves a scanned token to the club member holding it.
func (s *Service) VerifyQR(ctx context.Context, actor model.Actor, token string) (*model.User, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, newError(ErrValidation, "QR code is required")
	}
	user, err := s.repo.FindUserByActiveQR(ctx, actor.ClubID, token)
	if err != nil {
		return nil, fromRepo(err, "QR code not recognized")
	}
	return user, nil
}

// RecordAttendance writes one attendance row. Repeated calls for the same
// member and event create separate rows.
func (s *Service) RecordAttendance(ctx context.Context, actor model.Actor, in AttendanceInput) (*model.AttendanceRecord, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if in.UserID <= 0 || in.RequirementID <= 0 {
		return nil, newError(ErrValidation, "User and event are required")
	}
	if in.TimeSlotID != nil && *in.TimeSlotID <= 0 {
		return nil, newError(ErrValidation, "Invalid time slot id")
	}
	status := model.AttendanceStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	if status == "" {
		status = model.AttendancePresent
	}
	if !status.Valid() {
		return nil, newError(ErrValidation, "Attendance status must be present, late or excused")
	}

	rec := &model.AttendanceRecord{
		UserID:        in.UserID,
		RequirementID: in.RequirementID,
		TimeSlotID:    in.TimeSlotID,
		VerifiedBy:    actor.UserID,
		ClubID:        actor.ClubID,
		Status:        status,
		Notes:         strings.TrimSpace(in.Notes),
	}
	err := s.repo.RecordAttendanceTx(ctx, rec, func(verifier *model.User) error {
		if !verifier.Role.IsOperator() {
			return newError(ErrForbidden, "Only advisers, presidents and officers can take attendance")
		}
		return nil
	})
	if err != nil {
		return nil, fromRepo(err, "Member or event not found")
	}
	return rec, nil
}

func (s *Service) ListTimeSlots(ctx context.Context, actor model.Actor, requirementID int64) ([]model.TimeSlot, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if requirementID <= 0 {
		return nil, newError(ErrValidation, "Invalid event id")
	}
	if _, err := s.repo.GetRequirement(ctx, actor.ClubID, requirementID); err != nil {
		return nil, fromRepo(err, "Event not found")
	}
	slots, err := s.repo.ListTimeSlots(ctx, actor.ClubID, requirementID)
	if err != nil {
		return nil, fromRepo(err, "Event not found")
	}
	return slots, nil
}

func (s *Service) ListAttendance(ctx context.Context, actor model.Actor, requirementID int64) ([]model.AttendanceRecord, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if requirementID <= 0 {
		return nil, newError(ErrValidation, "Invalid event id")
	}
	if _, err := s.repo.GetRequirement(ctx, actor.ClubID, requirementID); err != nil {
		return nil, fromRepo(err, "Event not found")
	}
	records, err := s.repo.ListAttendance(ctx, actor.ClubID, requirementID)
	if err != nil {
		return nil, fromRepo(err, "Event not found")
	}
	return records, nil
}
