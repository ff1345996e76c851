package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// actorKey is the key used to store the authenticated actor on the request
// context. Using a custom type prevents collisions.
const actorKey = contextKey("actor")

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActorFromContext retrieves the authenticated actor from the Gin
// context. It returns the actor and a boolean indicating if it was found.
func GetActorFromContext(c *gin.Context) (domain.Actor, bool) {
	actorVal := c.Request.Context().Value(actorKey)
	if actorVal == nil {
		return domain.Actor{}, false
	}
	actor, ok := actorVal.(domain.Actor)
	if !ok {
		return domain.Actor{}, false
	}
	return actor, true
}
