package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"clubhub/internal/dto"
	"clubhub/internal/model"
	"clubhub/internal/service"
)

// Workflow is the part of *service.Service the HTTP layer drives.
type Workflow interface {
	RequestDeletion(ctx context.Context, actor model.Actor, in service.DeletionInput) (*service.DeletionResult, error)
	GetDeletion(ctx context.Context, actor model.Actor, requestID int64) (*model.DeletionRequest, error)
	CancelDeletion(ctx context.Context, actor model.Actor, requestID int64) error
	CancelDeletionForTarget(ctx context.Context, actor model.Actor, kind model.DeletionType, targetID int64) error
	ListMine(ctx context.Context, actor model.Actor) ([]model.DeletionRequest, error)
	ListPending(ctx context.Context, actor model.Actor) ([]model.DeletionRequest, error)
	ResolveDeletion(ctx context.Context, actor model.Actor, requestID int64, approve bool) (*model.DeletionRequest, error)

	GetOrCreateQR(ctx context.Context, actor model.Actor, userID int64) (*model.QRCredential, error)
	RegenerateQR(ctx context.Context, actor model.Actor, userID int64) (*model.QRCredential, error)

	VerifyQR(ctx context.Context, actor model.Actor, token string) (*model.User, error)
	RecordAttendance(ctx context.Context, actor model.Actor, in service.AttendanceInput) (*model.AttendanceRecord, error)
	ListTimeSlots(ctx context.Context, actor model.Actor, requirementID int64) ([]model.TimeSlot, error)
	ListAttendance(ctx context.Context, actor model.Actor, requirementID int64) ([]model.AttendanceRecord, error)

	RegisterMember(ctx context.Context, actor model.Actor, in service.MemberInput) (*model.User, error)
}

var _ Workflow = (*service.Service)(nil)

type Handlers struct {
	svc     Workflow
	log     *zerolog.Logger
	actorOf func(c *ginext.Context) model.Actor
}

func New(svc Workflow, log *zerolog.Logger, actorOf func(c *ginext.Context) model.Actor) *Handlers {
	return &Handlers{svc: svc, log: log, actorOf: actorOf}
}

// Register mounts every workflow route on an authenticated group.
func (h *Handlers) Register(g *gin.RouterGroup) {
	g.POST("/deletion-requests", h.RequestDeletion)
	g.GET("/deletion-requests/mine", h.ListMine)
	g.GET("/deletion-requests/pending", h.ListPending)
	g.GET("/deletion-requests/:id", h.GetDeletion)
	g.DELETE("/deletion-requests/:id", h.CancelDeletion)
	g.DELETE("/deletion-requests/target/:type/:target_id", h.CancelDeletionForTarget)
	g.POST("/deletion-requests/:id/resolve", h.ResolveDeletion)

	g.GET("/qr/me", h.MyQR)
	g.GET("/qr/me.png", h.MyQRImage)
	g.POST("/qr/me/regenerate", h.RegenerateMyQR)
	g.GET("/users/:id/qr", h.UserQR)
	g.POST("/users/:id/qr/regenerate", h.RegenerateUserQR)

	g.POST("/attendance/verify", h.VerifyQR)
	g.POST("/attendance", h.RecordAttendance)
	g.GET("/requirements/:id/time-slots", h.ListTimeSlots)
	g.GET("/requirements/:id/attendance", h.ListAttendance)

	g.POST("/members", h.RegisterMember)
}

// writeError is the only place service errors become HTTP statuses.
func (h *Handlers) writeError(c *ginext.Context, err error) {
	var se *service.Error
	msg := dto.InternalError
	if errors.As(err, &se) {
		msg = se.Msg
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		dto.ErrorResponse(c, http.StatusBadRequest, dto.FieldIncorrect, msg)
	case errors.Is(err, service.ErrUnauthenticated):
		dto.ErrorResponse(c, http.StatusUnauthorized, dto.Unauthenticated, msg)
	case errors.Is(err, service.ErrForbidden):
		dto.ErrorResponse(c, http.StatusForbidden, dto.Forbidden, msg)
	case errors.Is(err, service.ErrNotFound):
		dto.ErrorResponse(c, http.StatusNotFound, dto.NotFound, msg)
	case errors.Is(err, service.ErrConflict):
		dto.ErrorResponse(c, http.StatusConflict, dto.Conflict, msg)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		dto.InternalServerError(c)
	}
}

func parseID(c *ginext.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		dto.FieldIncorrectError(c, param)
		return 0, false
	}
	return id, true
}
