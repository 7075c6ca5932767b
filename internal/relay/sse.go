package relay

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"clubhub/internal/auth"
	"clubhub/internal/dto"
)

const DefaultHeartbeat = 25 * time.Second

// Stream serves GET /v1/clubs/:clubId/events as Server-Sent Events. The
// token may come from the Authorization header or, for browser
// EventSource clients, the access_token query parameter.
func Stream(hub *Hub, tokens *auth.Tokens, heartbeat time.Duration, log *zerolog.Logger) gin.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return func(c *ginext.Context) {
		clubID, err := strconv.ParseInt(c.Param("clubId"), 10, 64)
		if err != nil || clubID <= 0 {
			dto.FieldIncorrectError(c, "clubId")
			return
		}

		raw, ok := auth.BearerToken(c)
		if !ok {
			raw = c.Query("access_token")
		}
		if raw == "" {
			dto.UnauthorizedError(c, "Authorization required")
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			dto.UnauthorizedError(c, "Invalid token")
			return
		}
		if claims.ClubID != clubID {
			dto.ErrorResponse(c, http.StatusForbidden, dto.Forbidden, "Not a member of this club")
			return
		}

		sub := hub.Subscribe(clubID)
		defer hub.Unsubscribe(sub)
		log.Info().Int64("club_id", clubID).Int64("user_id", claims.UserID).Msg("relay subscriber connected")

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		ctx := c.Request.Context()

		c.SSEvent("ready", gin.H{"club_id": clubID})
		c.Writer.Flush()
		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case env, ok := <-sub.C:
				if !ok {
					return false
				}
				c.SSEvent(env.Event, env.Payload)
				return true
			case t := <-ticker.C:
				c.SSEvent("heartbeat", t.Unix())
				return true
			}
		})

		log.Info().
			Int64("club_id", clubID).
			Int64("user_id", claims.UserID).
			Int64("dropped", sub.Dropped()).
			Msg("relay subscriber disconnected")
	}
}
