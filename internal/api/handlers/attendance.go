package handlers

import (
	"fmt"

	"github.com/wb-go/wbf/ginext"

	"clubhub/internal/dto"
	"clubhub/internal/model"
	"clubhub/internal/service"
	"clubhub/pkg/validator"
)

func (h *Handlers) VerifyQR(c *ginext.Context) {
	var req dto.VerifyQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c.Request.Context(), req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := h.svc.VerifyQR(c.Request.Context(), h.actorOf(c), req.Code)
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, user)
}

func (h *Handlers) RecordAttendance(c *ginext.Context) {
	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c.Request.Context(), req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	rec, err := h.svc.RecordAttendance(c.Request.Context(), h.actorOf(c), service.AttendanceInput{
		UserID:        req.UserID,
		RequirementID: req.RequirementID,
		TimeSlotID:    req.TimeSlotID,
		Status:        model.AttendanceStatus(req.Status),
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.log.Info().
		Int64("attendance_id", rec.ID).
		Int64("user_id", rec.UserID).
		Int64("requirement_id", rec.RequirementID).
		Msg("attendance recorded")
	dto.SuccessCreatedResponse(c, rec)
}

func (h *Handlers) ListTimeSlots(c *ginext.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	slots, err := h.svc.ListTimeSlots(c.Request.Context(), h.actorOf(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, slots)
}

func (h *Handlers) ListAttendance(c *ginext.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	records, err := h.svc.ListAttendance(c.Request.Context(), h.actorOf(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, records)
}
