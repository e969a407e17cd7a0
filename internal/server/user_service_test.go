package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/types"
)

func newTestUserService() (*UserService, *memStore) {
	store := newMemStore()
	return NewUserService(store, &config.PasswordConfig{BcryptCost: 10, Pepper: "pepper"}), store
}

func TestConvertDBUserToTypesUser(t *testing.T) {
	now := time.Now()
	dbUser := &db.User{
		ID:           uuid.New(),
		Name:         "John Doe",
		Email:        "john@example.com",
		PasswordHash: "hashed-password",
		PasswordSet:  true,
		CreatedAt:    now,
	}

	user := convertDBUserToTypesUser(dbUser)
	require.NotNil(t, user)
	assert.Equal(t, dbUser.ID, user.ID)
	assert.Equal(t, dbUser.Name, user.Name)
	assert.Equal(t, dbUser.Email, user.Email)
	assert.Equal(t, now, user.CreatedAt)

	assert.Nil(t, convertDBUserToTypesUser(nil))
}

func TestUserService_RegisterLogin(t *testing.T) {
	svc, store := newTestUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &types.RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	stored, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.PasswordSet)
	assert.NotEqual(t, "password123", stored.PasswordHash)

	loggedIn, err := svc.Login(ctx, &types.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, err = svc.Register(ctx, &types.RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	var exists *ErrEmailAlreadyExists
	assert.True(t, errors.As(err, &exists))
}

func TestUserService_Login_Rejections(t *testing.T) {
	svc, store := newTestUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &types.RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	// Account created without a password
	_, err = store.CreateUser(ctx, "NoPass", "nopass@example.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		email string
		pw    string
	}{
		{"wrong password", "jane@example.com", "nope-nope"},
		{"unknown email", "ghost@example.com", "password123"},
		{"password not set", "nopass@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, &types.LoginRequest{Email: tt.email, Password: tt.pw})
			var invalid *ErrInvalidCredentials
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestUserService_Me(t *testing.T) {
	svc, _ := newTestUserService()
	_, err := svc.Me(context.Background(), uuid.New())
	var notFound *ErrUserNotFound
	assert.True(t, errors.As(err, &notFound))
}
