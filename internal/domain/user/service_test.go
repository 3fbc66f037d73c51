package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/user"
	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/dbtest"
	"github.com/farumdev/bookstore-backend/internal/pkg/apperror"
	"github.com/farumdev/bookstore-backend/internal/pkg/auth"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newService(t *testing.T) *user.Service {
	return user.NewService(dbtest.New(t), dbtest.Config(), nil, logger.Discard())
}

func TestRegister(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	info, err := svc.Register(ctx, &user.RegisterRequest{
		Username:  " reader ",
		Password:  "bookworm",
		Email:     "Reader@Example.com",
		FirstName: "Sam",
	})
	require.NoError(t, err)
	assert.Equal(t, "reader", info.Username)
	assert.Equal(t, auth.RoleUser, info.Role)
	assert.Equal(t, "reader@example.com", info.Email)
	assert.NotZero(t, info.ID)

	_, err = svc.Register(ctx, &user.RegisterRequest{Username: "ab", Password: "bookworm"})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "Username must be at least 3 characters long.", apperror.Message(err))

	_, err = svc.Register(ctx, &user.RegisterRequest{Username: "User", Password: "bookworm"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, "Username already exists.", apperror.Message(err))

	_, err = svc.Register(ctx, &user.RegisterRequest{Username: "shorty", Password: "abc"})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
}

func TestLogin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &user.LoginRequest{Username: "User", Password: "qazwsxedcrfv12345"})
	require.NoError(t, err)
	assert.Equal(t, uint(2), resp.User.ID)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := auth.NewJWTManager(dbtest.Config()).ValidateAccessToken(resp.Token)
	require.NoError(t, err)
	identity := claims.Identity()
	assert.Equal(t, uint(2), identity.UserID)
	assert.Equal(t, "User", identity.Username)
	assert.False(t, identity.IsAdmin())

	_, err = svc.Login(ctx, &user.LoginRequest{Username: "User", Password: "wrong-password"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
	assert.Equal(t, "Invalid username or password.", apperror.Message(err))

	// usernames are case-sensitive
	_, err = svc.Login(ctx, &user.LoginRequest{Username: "user", Password: "qazwsxedcrfv12345"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))

	_, err = svc.Login(ctx, &user.LoginRequest{Username: "User", Password: " "})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
}

func TestLogoutWithoutRedisIsNoop(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &user.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	claims, err := auth.NewJWTManager(dbtest.Config()).ValidateAccessToken(resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	assert.False(t, svc.IsRevoked(ctx, claims.ID))
	require.NoError(t, svc.Logout(ctx, nil))
}

func TestGetProfileAndSession(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	profile, err := svc.GetProfile(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "John", profile.FirstName)
	assert.Len(t, profile.Addresses, 2)

	expiry := time.Now().Add(30 * time.Minute)
	session, err := svc.GetSession(ctx, &auth.Identity{UserID: 2, Username: "User", Role: auth.RoleUser}, &expiry)
	require.NoError(t, err)
	assert.True(t, session.IsAuthenticated)
	assert.Equal(t, "John Doe", session.User.FullName)
	assert.Equal(t, int64(2), session.Stats.AddressCount)
	assert.Equal(t, int64(0), session.Stats.OrderCount)
	require.NotNil(t, session.TokenExpiresIn)
	assert.InDelta(t, 30, *session.TokenExpiresIn, 1)

	_, err = svc.GetProfile(ctx, 99)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "User not found", apperror.Message(err))
}

func TestUpdateProfile(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, 2, &user.UpdateProfileRequest{
		Email:       strPtr(" John.Doe@Example.com "),
		FirstName:   strPtr("  "),
		LastName:    strPtr("Dough"),
		PhoneNumber: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "john.doe@example.com", updated.Email)
	assert.Equal(t, "John", updated.FirstName)
	assert.Equal(t, "Dough", updated.LastName)
	assert.Empty(t, updated.PhoneNumber)

	info, err := svc.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Dough", info.LastName)
}

func TestChangePassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, 3, &user.ChangePasswordRequest{OldPassword: "nope", NewPassword: "brand-new-pass"})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "Old password is incorrect", apperror.Message(err))

	err = svc.ChangePassword(ctx, 3, &user.ChangePasswordRequest{OldPassword: "password2", NewPassword: "abc"})
	assert.Equal(t, "New password must be at least 6 characters long", apperror.Message(err))

	require.NoError(t, svc.ChangePassword(ctx, 3, &user.ChangePasswordRequest{OldPassword: "password2", NewPassword: "brand-new-pass"}))

	_, err = svc.Login(ctx, &user.LoginRequest{Username: "User2", Password: "password2"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
	_, err = svc.Login(ctx, &user.LoginRequest{Username: "User2", Password: "brand-new-pass"})
	assert.NoError(t, err)
}
