package auth

import (
	"context"

	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/static/errs"
)

var _ secondary.ActorResolver = ActorResolver{}

type actorContextKey struct{}

// WithActor attaches the authenticated actor to ctx
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the actor set by WithActor, if any
func ActorFromContext(ctx context.Context) (*domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(*domain.Actor)
	return actor, ok && actor != nil
}

// ActorResolver reads the actor the HTTP middleware stored in the request context
type ActorResolver struct{}

func (ActorResolver) CurrentActor(ctx context.Context, required bool) (*domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		if required {
			return nil, errs.ErrUnauthenticated
		}
		return nil, nil
	}
	return actor, nil
}
