package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/dto"
	"storefront/internal/models"
)

func TestRegisterHashesPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), newFakeMediaStore())

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "a@b.com",
		Password: "secret1",
	}, nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleUser, resp.User.Role)

	var user models.User
	assert.NoError(t, db.First(&user, "email = ?", "a@b.com").Error)
	assert.NotEqual(t, "secret1", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret1")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), newFakeMediaStore())

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret1"}, nil)
	assert.NoError(t, err)

	_, err = svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "another1"}, nil)
	assert.ErrorIs(t, err, ErrEmailTaken)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRegisterValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), newFakeMediaStore())

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "short"}, nil)
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret1", Role: "superuser"}, nil)
	assert.ErrorIs(t, err, ErrInvalidRole)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestRegisterWithAvatar(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeMediaStore()
	svc := NewAuthService(db, testConfig(), store)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "a@b.com",
		Password: "secret1",
	}, imageFile("me.png", 1024))
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.User.AvatarURL)
	assert.Len(t, store.uploads, 1)

	var user models.User
	assert.NoError(t, db.First(&user, "email = ?", "a@b.com").Error)
	assert.Equal(t, store.uploads[0], user.AvatarHandle)
}

func TestRegisterAvatarUploadFailureWritesNoRow(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeMediaStore()
	store.failAfter = 0
	svc := NewAuthService(db, testConfig(), store)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "a@b.com",
		Password: "secret1",
	}, imageFile("me.png", 1024))
	assert.Error(t, err)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), newFakeMediaStore())

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret1"}, nil)
	assert.NoError(t, err)

	resp, err := svc.Login(&dto.LoginRequest{Email: "a@b.com", Password: "secret1"})
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.Login(&dto.LoginRequest{Email: "a@b.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&dto.LoginRequest{Email: "nobody@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), newFakeMediaStore())

	reg, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret1"}, nil)
	assert.NoError(t, err)

	refreshed, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)

	// The old token is revoked on rotation.
	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig(), newFakeMediaStore())

	reg, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret1"}, nil)
	assert.NoError(t, err)

	assert.NoError(t, svc.Logout(&dto.LogoutRequest{RefreshToken: reg.RefreshToken}))

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
