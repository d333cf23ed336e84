package impl

import (
	"context"
	"testing"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (fx lifecycleFixtures) seed(t *testing.T, email string) *entity.Account {
	t.Helper()

	fx.registerVerified(t, email, "secret123")
	account, err := fx.repo.FindByEmail(context.Background(), email)
	require.NoError(t, err)

	return account
}

func callerOf(account *entity.Account) usecase.Caller {
	return usecase.Caller{AccountID: account.ID, Roles: account.Roles()}
}

func TestUserService_ListUsers(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	user := fx.seed(t, "a@x.com")
	admin := fx.seed(t, "admin@shop.test")

	_, err := fx.users.ListUsers(ctx, callerOf(user))
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	users, err := fx.users.ListUsers(ctx, callerOf(admin))
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.Equal(t, entity.RoleAdmin, users[1].Role)
}

func TestUserService_GetUser(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	user := fx.seed(t, "a@x.com")
	other := fx.seed(t, "b@x.com")
	admin := fx.seed(t, "admin@shop.test")

	got, err := fx.users.GetUser(ctx, callerOf(user), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = fx.users.GetUser(ctx, callerOf(other), user.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	got, err = fx.users.GetUser(ctx, callerOf(admin), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = fx.users.GetUser(ctx, callerOf(admin), uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestUserService_UpdateUser_Name(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	user := fx.seed(t, "a@x.com")
	name := "Ann"

	got, err := fx.users.UpdateUser(ctx, callerOf(user), user.ID, &usecase.UpdateUserInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.True(t, got.EmailVerified)
}

func TestUserService_UpdateUser_EmailRequiresVerification(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	user := fx.seed(t, "a@x.com")
	fx.seed(t, "taken@x.com")

	taken := "Taken@x.com"
	_, err := fx.users.UpdateUser(ctx, callerOf(user), user.ID, &usecase.UpdateUserInput{Email: &taken})
	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyExists)

	invalid := "nope"
	_, err = fx.users.UpdateUser(ctx, callerOf(user), user.ID, &usecase.UpdateUserInput{Email: &invalid})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	token := fx.expectVerification("new@x.com")
	email := "New@x.com"
	got, err := fx.users.UpdateUser(ctx, callerOf(user), user.ID, &usecase.UpdateUserInput{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", got.Email)
	assert.False(t, got.EmailVerified)

	_, err = fx.accounts.Login(ctx, &usecase.LoginInput{Email: "new@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrEmailNotVerified)

	require.NoError(t, fx.accounts.VerifyEmail(ctx, *token))
	_, err = fx.accounts.Login(ctx, &usecase.LoginInput{Email: "new@x.com", Password: "secret123"})
	assert.NoError(t, err)
}

func TestUserService_UpdateUser_SameEmailIsNoop(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	user := fx.seed(t, "a@x.com")
	email := "A@x.com"

	got, err := fx.users.UpdateUser(ctx, callerOf(user), user.ID, &usecase.UpdateUserInput{Email: &email})
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
}

func TestUserService_UpdateUser_Password(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	user := fx.seed(t, "a@x.com")

	weak := "abc"
	_, err := fx.users.UpdateUser(ctx, callerOf(user), user.ID, &usecase.UpdateUserInput{Password: &weak})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)

	password := "changed1"
	_, err = fx.users.UpdateUser(ctx, callerOf(user), user.ID, &usecase.UpdateUserInput{Password: &password})
	require.NoError(t, err)

	_, err = fx.accounts.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "changed1"})
	assert.NoError(t, err)
}

func TestUserService_UpdateUser_Authorization(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	user := fx.seed(t, "a@x.com")
	other := fx.seed(t, "b@x.com")
	admin := fx.seed(t, "admin@shop.test")
	name := "renamed"

	_, err := fx.users.UpdateUser(ctx, callerOf(other), user.ID, &usecase.UpdateUserInput{Name: &name})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	got, err := fx.users.UpdateUser(ctx, callerOf(admin), user.ID, &usecase.UpdateUserInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	_, err = fx.users.UpdateUser(ctx, callerOf(admin), uuid.New(), &usecase.UpdateUserInput{Name: &name})
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestUserService_DeleteUser(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	user := fx.seed(t, "a@x.com")
	other := fx.seed(t, "b@x.com")

	assert.ErrorIs(t, fx.users.DeleteUser(ctx, callerOf(other), user.ID), domainerrors.ErrForbidden)

	require.NoError(t, fx.users.DeleteUser(ctx, callerOf(user), user.ID))
	assert.ErrorIs(t, fx.users.DeleteUser(ctx, callerOf(user), user.ID), domainerrors.ErrUserNotFound)

	_, err := fx.accounts.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}
