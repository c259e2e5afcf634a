package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
)

type authRepoStub struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revokedUsers  []string
	revokedTokens []string
	lastLoginSet  bool
	auditLogs     []*models.AuditLog
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLoginSet = true
	return nil
}

func (s *authRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := s.users[id]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return sql.ErrNoRows
}

func (s *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	s.revokedUsers = append(s.revokedUsers, userID)
	return nil
}

func (s *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.refreshTokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := s.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	s.revokedTokens = append(s.revokedTokens, id)
	return nil
}

func (s *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.auditLogs = append(s.auditLogs, log)
	return nil
}

type membershipStub struct {
	units []models.BusinessUnit
}

func (m *membershipStub) ListForUser(ctx context.Context, userID string) ([]models.BusinessUnit, error) {
	return m.units, nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "procure-mr-api-test",
	}
}

func seedUser(t *testing.T, repo *authRepoStub, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "user-1",
		Email:        "alex@example.com",
		PasswordHash: string(hash),
		FullName:     "Alex Reyes",
		Role:         models.RoleRequester,
		Active:       active,
	}
	repo.users[user.ID] = user
	return user
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "open-sesame-1", true)
	memberships := &membershipStub{units: []models.BusinessUnit{{ID: "bu-1", Code: "HO"}}}
	svc := NewAuthService(repo, memberships, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alex@example.com",
		Password: "open-sesame-1",
		IP:       "10.0.0.9",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "user-1", resp.User.ID)
	require.Len(t, resp.BusinessUnits, 1)
	require.True(t, repo.lastLoginSet)
	require.Len(t, repo.auditLogs, 1)
	require.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleRequester, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "open-sesame-1", true)
	svc := NewAuthService(repo, &membershipStub{}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alex@example.com",
		Password: "wrong",
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "open-sesame-1", false)
	svc := NewAuthService(repo, &membershipStub{}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alex@example.com",
		Password: "open-sesame-1",
	})
	require.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "open-sesame-1", true)
	svc := NewAuthService(repo, &membershipStub{}, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alex@example.com",
		Password: "open-sesame-1",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked so a second exchange must fail.
	used := repo.refreshTokens[login.RefreshToken]
	require.Contains(t, repo.revokedTokens, used.ID)
	used.Revoked = true
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "open-sesame-1", true)
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "tok-1",
		UserID:    "user-1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	svc := NewAuthService(repo, &membershipStub{}, nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "open-sesame-1", true)
	svc := NewAuthService(repo, &membershipStub{}, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "open-sesame-1",
		NewPassword: "new-password-9",
	})
	require.NoError(t, err)
	require.Contains(t, repo.revokedUsers, "user-1")

	// Old password no longer matches.
	err = svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "open-sesame-1",
		NewPassword: "another-pass-3",
	})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}
