package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/pkg/apperror"
	"github.com/elitemarket/auction-backend/internal/repository/common"
)

type mockAuthRepo struct {
	mock.Mock
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User, profile *models.Profile) error {
	args := m.Called(ctx, user, profile)
	if args.Error(0) == nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *mockAuthRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockAuthRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockAuthRepo) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *mockAuthRepo) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *mockAuthRepo) DeleteSessionByToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockAuthRepo) DeleteAllSessionsExcept(ctx context.Context, userID, keepSessionID uuid.UUID) error {
	args := m.Called(ctx, userID, keepSessionID)
	return args.Error(0)
}

func newTestAuthService() (*AuthService, *mockAuthRepo) {
	repo := new(mockAuthRepo)
	tokens := NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 720*time.Hour)
	return NewAuthService(repo, tokens), repo
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ivan@example.com").Return(nil, common.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User"), mock.AnythingOfType("*models.Profile")).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Register(ctx, RegisterInput{
		Email:            "ivan@example.com",
		Password:         "Password123",
		Role:             models.RoleProvider,
		SecurityQuestion: "Кличка первого питомца?",
		SecurityAnswer:   "  Барсик  ",
	}, nil)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "ivan", result.User.Username)
	assert.Equal(t, models.RoleProvider, result.User.Role)
	// Ответ на контрольный вопрос хранится нормализованным.
	assert.Equal(t, "барсик", result.User.SecurityAnswer)
	assert.Equal(t, 5.0, result.Profile.Rating)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	existing := &models.User{ID: uuid.New(), Email: "ivan@example.com"}
	repo.On("GetByEmail", ctx, "ivan@example.com").Return(existing, nil)

	_, err := svc.Register(ctx, RegisterInput{
		Email:          "ivan@example.com",
		Password:       "Password123",
		SecurityAnswer: "барсик",
	}, nil)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Register_InvalidRole(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ivan@example.com").Return(nil, common.ErrUserNotFound)

	_, err := svc.Register(ctx, RegisterInput{
		Email:          "ivan@example.com",
		Password:       "Password123",
		Role:           "admin",
		SecurityAnswer: "барсик",
	}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "client или provider")
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:          "ivan@example.com",
		Password:       "short",
		SecurityAnswer: "барсик",
	}, nil)

	assert.Error(t, err)
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	userID := uuid.New()
	user := &models.User{
		ID:           userID,
		Email:        "ivan@example.com",
		PasswordHash: hashPassword(t, "Password123"),
		Role:         models.RoleClient,
		IsActive:     true,
	}

	repo.On("GetByEmail", ctx, "ivan@example.com").Return(user, nil)
	repo.On("UpdateLastLoginAt", ctx, userID).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)
	repo.On("GetProfile", ctx, userID).Return(&models.Profile{UserID: userID}, nil)

	result, err := svc.Login(ctx, LoginInput{Email: "ivan@example.com", Password: "Password123"}, nil)

	assert.NoError(t, err)
	assert.NotNil(t, result.Profile)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.New(),
		Email:        "ivan@example.com",
		PasswordHash: hashPassword(t, "Password123"),
		IsActive:     true,
	}
	repo.On("GetByEmail", ctx, "ivan@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "ivan@example.com", Password: "WrongPass1"}, nil)

	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, common.ErrUserNotFound)

	_, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "Password123"}, nil)

	// Несуществующий email и неверный пароль неразличимы для клиента.
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_BlockedAccount(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.New(),
		Email:        "ivan@example.com",
		PasswordHash: hashPassword(t, "Password123"),
		IsActive:     false,
	}
	repo.On("GetByEmail", ctx, "ivan@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "ivan@example.com", Password: "Password123"}, nil)

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuthService_RecoverPassword_Success(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	user := &models.User{
		ID:               uuid.New(),
		Email:            "ivan@example.com",
		SecurityQuestion: "Кличка первого питомца?",
		SecurityAnswer:   "барсик",
	}
	repo.On("GetByEmail", ctx, "ivan@example.com").Return(user, nil)

	// Регистр и пробелы по краям не влияют на сравнение.
	code, err := svc.RecoverPassword(ctx, "ivan@example.com", "  БАРСИК ")

	assert.NoError(t, err)
	assert.Equal(t, "reset123", code)
}

func TestAuthService_RecoverPassword_WrongAnswer(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	user := &models.User{
		ID:             uuid.New(),
		Email:          "ivan@example.com",
		SecurityAnswer: "барсик",
	}
	repo.On("GetByEmail", ctx, "ivan@example.com").Return(user, nil)

	_, err := svc.RecoverPassword(ctx, "ivan@example.com", "мурзик")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неверный ответ")
}

func TestAuthService_RecoverPassword_UnknownEmail(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, common.ErrUserNotFound)

	_, err := svc.RecoverPassword(ctx, "ghost@example.com", "барсик")

	assert.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAuthService_RecoverPassword_NoQuestion(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "ivan@example.com"}
	repo.On("GetByEmail", ctx, "ivan@example.com").Return(user, nil)

	_, err := svc.RecoverPassword(ctx, "ivan@example.com", "барсик")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "не задан контрольный вопрос")
}

func TestAuthService_ResetPassword_WrongCode(t *testing.T) {
	svc, repo := newTestAuthService()

	err := svc.ResetPassword(context.Background(), "ivan@example.com", "wrong", "NewPassword1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неверный код")
	repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ResetPassword_WeakPassword(t *testing.T) {
	svc, repo := newTestAuthService()

	err := svc.ResetPassword(context.Background(), "ivan@example.com", "reset123", "weak")

	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	userID := uuid.New()
	user := &models.User{ID: userID, Email: "ivan@example.com"}
	repo.On("GetByEmail", ctx, "ivan@example.com").Return(user, nil)
	repo.On("UpdatePassword", ctx, userID, mock.AnythingOfType("string")).Return(nil)

	err := svc.ResetPassword(ctx, "ivan@example.com", "reset123", "NewPassword1")

	assert.NoError(t, err)
	repo.AssertCalled(t, "UpdatePassword", ctx, userID, mock.AnythingOfType("string"))
}

func TestAuthService_Refresh_UnknownSession(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleClient}
	pair, _, _, err := svc.tokenManager.GeneratePair(user)
	assert.NoError(t, err)

	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(nil, common.ErrSessionNotFound)

	_, err = svc.Refresh(ctx, pair.RefreshToken, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "сессия не найдена")
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	userID := uuid.New()
	user := &models.User{ID: userID, Role: models.RoleClient, IsActive: true}
	pair, _, _, err := svc.tokenManager.GeneratePair(user)
	assert.NoError(t, err)

	session := &models.Session{ID: uuid.New(), UserID: userID, RefreshToken: pair.RefreshToken}
	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(session, nil)
	repo.On("GetByID", ctx, userID).Return(user, nil)
	repo.On("DeleteSessionByToken", ctx, pair.RefreshToken).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	newPair, err := svc.Refresh(ctx, pair.RefreshToken, nil)

	assert.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)
	repo.AssertCalled(t, "DeleteSessionByToken", ctx, pair.RefreshToken)
}

func TestAuthService_DeleteAllSessionsExcept(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	userID := uuid.New()
	sessionID := uuid.New()
	session := &models.Session{ID: sessionID, UserID: userID, RefreshToken: "current-token"}

	repo.On("GetSessionByToken", ctx, "current-token").Return(session, nil)
	repo.On("DeleteAllSessionsExcept", ctx, userID, sessionID).Return(nil)

	err := svc.DeleteAllSessionsExcept(ctx, userID, "current-token")

	assert.NoError(t, err)
	repo.AssertCalled(t, "DeleteAllSessionsExcept", ctx, userID, sessionID)
}
