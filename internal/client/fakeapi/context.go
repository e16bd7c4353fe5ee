package fakeapi

import (
	"context"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
)

func withUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func userFrom(ctx context.Context) models.User {
	u, _ := ctx.Value(userKey{}).(models.User)
	return u
}
