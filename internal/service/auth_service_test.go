package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
)

type memUserRepo struct {
	nextID uint
	users  map[uint]models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uint]models.User)}
}

func (m *memUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = *user
	return nil
}

func (m *memUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo, testValidator(), "test-secret", time.Hour, testLogger())

	registered, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "Alice",
		Password: "s3cret-pass",
		FullName: "Alice Doe",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)
	require.NotEmpty(t, registered.AccessToken)
	require.Equal(t, "Bearer", registered.TokenType)
	require.Equal(t, "alice", registered.User.Username)

	// The stored hash is never the raw password.
	stored, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", stored.PasswordHash)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ALICE", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, login.AccessToken)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "nobody", Password: "whatever"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceRegisterDuplicateUsername(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo, testValidator(), "test-secret", time.Hour, testLogger())

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "bob",
		Password: "password123",
		FullName: "Bob",
		Role:     models.RoleInstructor,
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), dto.RegisterRequest{
		Username: "BOB",
		Password: "password456",
		FullName: "Other Bob",
		Role:     models.RoleStudent,
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthServiceRegisterValidatesRole(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo, testValidator(), "test-secret", time.Hour, testLogger())

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "carol",
		Password: "password123",
		FullName: "Carol",
		Role:     "superuser",
	})
	require.Error(t, err)
}

func TestAuthServiceTokenClaims(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo, testValidator(), "test-secret", time.Hour, testLogger())

	registered, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "dave",
		Password: "password123",
		FullName: "Dave",
		Role:     models.RoleInstructor,
	})
	require.NoError(t, err)

	parsed, err := jwt.Parse(registered.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "1", claims["sub"])
	require.Equal(t, models.RoleInstructor, claims["role"])
}

func TestAuthServiceProfileUpdate(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo, testValidator(), "test-secret", time.Hour, testLogger())

	registered, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "erin",
		Password: "password123",
		FullName: "Erin",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)

	fullName := "Erin Updated"
	bio := "Learning Go"
	updated, err := svc.UpdateProfile(context.Background(), registered.User.ID, dto.ProfileUpdateRequest{
		FullName: &fullName,
		Bio:      &bio,
	})
	require.NoError(t, err)
	require.Equal(t, "Erin Updated", updated.FullName)
	require.Equal(t, "Learning Go", updated.Bio)

	profile, err := svc.Profile(context.Background(), registered.User.ID)
	require.NoError(t, err)
	require.Equal(t, "Erin Updated", profile.FullName)

	_, err = svc.Profile(context.Background(), 999)
	require.ErrorIs(t, err, ErrUserNotFound)
}
