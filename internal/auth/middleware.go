package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"clubhub/internal/dto"
	"clubhub/internal/model"
	"clubhub/internal/repo"
)

const actorKey = "actor"

type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
// The scheme is matched case-insensitively.
func BearerToken(c *ginext.Context) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware authenticates the bearer token and resolves the actor from
// the users table, so a demoted or removed user loses access immediately.
func Middleware(tokens *Tokens, users UserLookup, log *zerolog.Logger) gin.HandlerFunc {
	return func(c *ginext.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			dto.UnauthorizedError(c, "Authorization header required")
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				dto.UnauthorizedError(c, "Token has expired")
			} else {
				dto.UnauthorizedError(c, "Invalid token")
			}
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				dto.UnauthorizedError(c, "Unknown user")
				return
			}
			log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to resolve actor")
			dto.InternalServerError(c)
			return
		}

		c.Set(actorKey, model.Actor{
			UserID: user.ID,
			Role:   model.ParseRole(string(user.Role)),
			ClubID: user.ClubID,
		})
		c.Set("user_id", user.ID)
		c.Next()
	}
}

func ActorFrom(c *ginext.Context) model.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{}
}
