package repository

import (
	"context"

	"github.com/mydailyops/dailyops-api/internal/model"
)

type UserRepository interface {
	GetOrCreate(ctx context.Context, subject, email string) (model.User, error)
	GetBySubject(ctx context.Context, subject string) (model.User, error)
	Update(ctx context.Context, user model.User) (model.User, error)
}
