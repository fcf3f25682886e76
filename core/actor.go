package core

import "context"

type actorCtxKey struct{}

// Actor is the staff member acting on a request, as read from its auth token.
type Actor struct {
	ID       string
	Name     string
	Email    string
	SchoolID string
	Roles    []string
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// ActorFrom returns the Actor stored in ctx, if any.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(Actor)
	return actor, ok
}
