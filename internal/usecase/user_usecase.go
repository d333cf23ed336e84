package usecase

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// Caller is the authenticated identity making a request.
type Caller struct {
	AccountID uuid.UUID
	Roles     entity.Roles
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Roles.Contains(entity.RoleAdmin)
}

// UpdateUserInput holds the fields a caller may change. Nil fields are left unchanged.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
}

// UserUsecase manages accounts on behalf of the account itself or an admin.
type UserUsecase interface {
	ListUsers(ctx context.Context, caller Caller) ([]*entity.PublicAccount, error)
	GetUser(ctx context.Context, caller Caller, id uuid.UUID) (*entity.PublicAccount, error)
	UpdateUser(ctx context.Context, caller Caller, id uuid.UUID, input *UpdateUserInput) (*entity.PublicAccount, error)
	DeleteUser(ctx context.Context, caller Caller, id uuid.UUID) error
}
