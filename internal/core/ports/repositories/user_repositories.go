package repositories

import (
	"context"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// UserRepositoryFacade persists system accounts.
type UserRepositoryFacade interface {
	SaveUser(ctx context.Context, user domain.User) error
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
