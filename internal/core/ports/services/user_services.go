package services

import (
	"context"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
)

// UserSvcFacade is the identity collaborator: accounts, authentication, and
// capability resolution.
type UserSvcFacade interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	CreateUser(ctx context.Context, actor domain.Actor, req dto.CreateUserRequest) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}
