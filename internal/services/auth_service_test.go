package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mess_portal_backend/internal/models"
)

func newAuthTestEnv() (AuthService, *fakeAuthRepo) {
	users := newFakeAuthRepo()
	service := NewAuthService(users, fakeExecutor{})
	return service, users
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	service, _ := newAuthTestEnv()

	user, err := service.Register(RegisterRequest{
		Email:    "asha@university.edu",
		Password: "correct-horse",
		FullName: "Asha Verma",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
}

func TestRegisterAdminRequiresAdminActor(t *testing.T) {
	service, _ := newAuthTestEnv()

	req := RegisterRequest{
		Email:    "warden@university.edu",
		Password: "correct-horse",
		FullName: "Mess Warden",
		Role:     models.RoleAdmin,
	}

	_, err := service.Register(req, models.RoleStudent)
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	user, err := service.Register(req, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _ := newAuthTestEnv()

	req := RegisterRequest{Email: "asha@university.edu", Password: "correct-horse", FullName: "Asha Verma"}
	_, err := service.Register(req, "")
	require.NoError(t, err)

	_, err = service.Register(req, "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	service, users := newAuthTestEnv()

	_, err := service.Register(RegisterRequest{
		Email:    "  Asha@University.EDU ",
		Password: "correct-horse",
		FullName: "Asha Verma",
	}, "")
	require.NoError(t, err)

	_, err = users.GetUserByEmail("asha@university.edu")
	assert.NoError(t, err)
}

func TestRegisterShortPassword(t *testing.T) {
	service, _ := newAuthTestEnv()

	_, err := service.Register(RegisterRequest{
		Email:    "asha@university.edu",
		Password: "short",
		FullName: "Asha Verma",
	}, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin(t *testing.T) {
	service, _ := newAuthTestEnv()

	_, err := service.Register(RegisterRequest{
		Email:    "asha@university.edu",
		Password: "correct-horse",
		FullName: "Asha Verma",
	}, "")
	require.NoError(t, err)

	resp, err := service.Login(models.Credentials{Email: "asha@university.edu", Password: "correct-horse"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "asha@university.edu", resp.User.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	service, _ := newAuthTestEnv()

	_, err := service.Register(RegisterRequest{
		Email:    "asha@university.edu",
		Password: "correct-horse",
		FullName: "Asha Verma",
	}, "")
	require.NoError(t, err)

	_, err = service.Login(models.Credentials{Email: "asha@university.edu", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	service, _ := newAuthTestEnv()

	_, err := service.Login(models.Credentials{Email: "ghost@university.edu", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	service, users := newAuthTestEnv()

	user, err := service.Register(RegisterRequest{
		Email:    "asha@university.edu",
		Password: "correct-horse",
		FullName: "Asha Verma",
	}, "")
	require.NoError(t, err)
	users.users[user.ID].IsActive = false

	_, err = service.Login(models.Credentials{Email: "asha@university.edu", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	service, _ := newAuthTestEnv()

	_, err := service.Register(RegisterRequest{
		Email:    "asha@university.edu",
		Password: "correct-horse",
		FullName: "Asha Verma",
	}, "")
	require.NoError(t, err)

	login, err := service.Login(models.Credentials{Email: "asha@university.edu", Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
}

func TestRefreshTokenGarbage(t *testing.T) {
	service, _ := newAuthTestEnv()

	_, err := service.RefreshToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
