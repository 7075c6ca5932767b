package handlers

import (
	"net/http"

	"github.com/skip2/go-qrcode"
	"github.com/wb-go/wbf/ginext"

	"clubhub/internal/dto"
)

const qrImageSize = 256

func (h *Handlers) MyQR(c *ginext.Context) {
	actor := h.actorOf(c)
	cred, err := h.svc.GetOrCreateQR(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, cred)
}

// MyQRImage renders the caller's active credential as a scannable PNG.
func (h *Handlers) MyQRImage(c *ginext.Context) {
	actor := h.actorOf(c)
	cred, err := h.svc.GetOrCreateQR(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	png, err := qrcode.Encode(cred.Code, qrcode.Medium, qrImageSize)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", actor.UserID).Msg("failed to render qr image")
		dto.InternalServerError(c)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handlers) RegenerateMyQR(c *ginext.Context) {
	actor := h.actorOf(c)
	cred, err := h.svc.RegenerateQR(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessCreatedResponse(c, cred)
}

func (h *Handlers) UserQR(c *ginext.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	cred, err := h.svc.GetOrCreateQR(c.Request.Context(), h.actorOf(c), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessResponse(c, cred)
}

func (h *Handlers) RegenerateUserQR(c *ginext.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	cred, err := h.svc.RegenerateQR(c.Request.Context(), h.actorOf(c), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	dto.SuccessCreatedResponse(c, cred)
}
