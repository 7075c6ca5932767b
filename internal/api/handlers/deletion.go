package handlers

import (
	"fmt"

	"github.com/wb-go/wbf/ginext"

	"clubhub/internal/dto"
	"clubhub/internal/model"
	"clubhub/internal/service"
	"clubhub/pkg/validator"
)

func (h *Handlers) RequestDeletion(c *ginext.Context) {
	var req dto.CreateDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c.Request.Context(), req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}
	kind, _ := model.ParseDeletionType(req.Type)

	res, err := h.svc.RequestDeletion(c.Request.Context(), h.actorOf(c), service.DeletionInput{
		Type:     kind,
		TargetID: req.TargetID,
		Reason:   req.Reason,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if res.Bypassed {
		dto.SuccessResponse(c, res)
		return
	}
	dto.SuccessCreatedResponse(c, res)
}

func (h *Handlers) GetDeletion(c *ginext.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	req, err := h.svc.GetDeletion(c.Request.Context(), h.actorOf(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, req)
}

func (h *Handlers) CancelDeletion(c *ginext.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.CancelDeletion(c.Request.Context(), h.actorOf(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, map[string]int64{"cancelled": id})
}

func (h *Handlers) CancelDeletionForTarget(c *ginext.Context) {
	kind, err := model.ParseDeletionType(c.Param("type"))
	if err != nil {
		dto.FieldIncorrectError(c, "type")
		return
	}
	targetID, ok := parseID(c, "target_id")
	if !ok {
		return
	}
	if err := h.svc.CancelDeletionForTarget(c.Request.Context(), h.actorOf(c), kind, targetID); err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, map[string]any{"type": kind, "target_id": targetID})
}

func (h *Handlers) ListMine(c *ginext.Context) {
	reqs, err := h.svc.ListMine(c.Request.Context(), h.actorOf(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, reqs)
}

func (h *Handlers) ListPending(c *ginext.Context) {
	reqs, err := h.svc.ListPending(c.Request.Context(), h.actorOf(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, reqs)
}

func (h *Handlers) ResolveDeletion(c *ginext.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c.Request.Context(), req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	resolved, err := h.svc.ResolveDeletion(c.Request.Context(), h.actorOf(c), id, *req.Approve)
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, resolved)
}
