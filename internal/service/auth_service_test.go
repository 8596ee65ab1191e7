package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
)

func TestAuthService_Register_PasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"all five criteria", "Aa1!aaaa", nil},
		{"four criteria", "Password1", nil},
		{"lower and length only", "password", domain.ErrWeakPassword},
		{"short lower", "abc", domain.ErrWeakPassword},
		{"digits only", "12345678", domain.ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			u, err := env.auth.Register(context.Background(), RegisterInput{
				Email:     "strength@example.com",
				Password:  tt.password,
				FirstName: "S",
				LastName:  "T",
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var werr *domain.WeakPasswordError
				require.True(t, errors.As(err, &werr))
				require.Equal(t, 4, werr.Required)
				require.NotEmpty(t, werr.Missing)
				return
			}
			require.NoError(t, err)
			require.Empty(t, u.Auth.PasswordHash)

			stored, err := env.repos.User.GetByID(context.Background(), u.ID)
			require.NoError(t, err)
			require.NotEqual(t, tt.password, stored.Auth.PasswordHash)
			require.NoError(t, crypto.NewBcryptHasher(0).Compare(stored.Auth.PasswordHash, tt.password))
		})
	}
}

func TestAuthService_PasswordTooLong(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	long := "Aa1!" + strings.Repeat("a", 80)
	require.Equal(t, 5, domain.EvaluatePassword(long).Score)

	_, err := env.auth.Register(ctx, RegisterInput{
		Email:     "long@example.com",
		Password:  long,
		FirstName: "L",
		LastName:  "P",
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	require.NotErrorIs(t, err, ErrInternalError)

	env.register(t, "long@example.com")
	require.NoError(t, env.auth.RequestPasswordReset(ctx, "long@example.com"))
	_, token := env.mailer.last()
	require.ErrorIs(t, env.auth.ResetPassword(ctx, token, long), domain.ErrValidation)
	require.NoError(t, env.auth.ResetPassword(ctx, token, "Bb2@bbbb"))
}

func TestAuthService_Register_DuplicateCheckedFirst(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "taken@example.com")

	_, err := env.auth.Register(context.Background(), RegisterInput{
		Email:     "Taken@Example.com",
		Password:  "weak",
		FirstName: "A",
		LastName:  "B",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestAuthService_SignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "login@example.com")

	res, err := env.auth.SignIn(ctx, SignInInput{
		Email:     "LOGIN@example.com",
		Password:  testPassword,
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
	require.Equal(t, id, res.User.ID)
	require.Empty(t, res.User.Auth.PasswordHash)
	require.Equal(t, id, res.Session.Subject)
	require.Equal(t, domain.SessionUser, res.Session.Kind)
	require.Equal(t, testStart.Add(12*time.Hour), res.Session.ExpiresAt)

	stored, err := env.repos.User.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.Auth.LastLogin)
	require.Equal(t, []string{"10.0.0.1"}, stored.Auth.IPHistory)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "login@example.com", "Wrong1!pass"},
		{"unknown email", "nobody@example.com", testPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.SignIn(ctx, SignInInput{Email: tt.email, Password: tt.password})
			require.ErrorIs(t, err, domain.ErrInvalidCredentials)
			require.Equal(t, domain.ErrInvalidCredentials.Error(), err.Error())
		})
	}

	_, err = env.auth.SignIn(ctx, SignInInput{Email: "login@example.com"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_SignIn_Lockout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "locked@example.com")

	for i := 0; i < 5; i++ {
		_, err := env.auth.SignIn(ctx, SignInInput{Email: "locked@example.com", Password: "Wrong1!pass"})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
		env.clock.Advance(time.Second)
	}

	stored, err := env.repos.User.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 5, stored.Auth.LoginAttempts)
	require.NotNil(t, stored.Auth.LockUntil)

	// The correct password is refused while locked.
	_, err = env.auth.SignIn(ctx, SignInInput{Email: "locked@example.com", Password: testPassword})
	require.ErrorIs(t, err, domain.ErrLockedOut)
	var lerr *domain.LockedOutError
	require.True(t, errors.As(err, &lerr))
	require.Equal(t, 15*time.Minute-time.Second, lerr.RetryAfter)

	env.clock.Advance(15 * time.Minute)

	res, err := env.auth.SignIn(ctx, SignInInput{Email: "locked@example.com", Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, id, res.User.ID)

	stored, err = env.repos.User.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 0, stored.Auth.LoginAttempts)
	require.Nil(t, stored.Auth.LockUntil)

	// The counter starts over after a success.
	_, err = env.auth.SignIn(ctx, SignInInput{Email: "locked@example.com", Password: "Wrong1!pass"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = env.auth.SignIn(ctx, SignInInput{Email: "locked@example.com", Password: testPassword})
	require.NoError(t, err)
}

func TestAuthService_SignIn_LockoutUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := env.auth.SignIn(ctx, SignInInput{Email: "ghost@example.com", Password: "x"})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}
	_, err := env.auth.SignIn(ctx, SignInInput{Email: "ghost@example.com", Password: "x"})
	require.ErrorIs(t, err, domain.ErrLockedOut)
}

func TestAuthService_Sessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "session@example.com")

	short, err := env.auth.SignIn(ctx, SignInInput{Email: "session@example.com", Password: testPassword})
	require.NoError(t, err)
	long, err := env.auth.SignIn(ctx, SignInInput{Email: "session@example.com", Password: testPassword, Remember: true})
	require.NoError(t, err)
	require.NotEqual(t, short.Session.ID, long.Session.ID)

	require.True(t, env.auth.IsAuthenticated(ctx, short.Session.ID))
	require.False(t, env.auth.IsAuthenticated(ctx, "unknown"))
	require.False(t, env.auth.IsAuthenticated(ctx, ""))

	sess, err := env.auth.CurrentSession(ctx, long.Session.ID)
	require.NoError(t, err)
	require.True(t, sess.Remember)

	env.clock.Advance(13 * time.Hour)
	require.False(t, env.auth.IsAuthenticated(ctx, short.Session.ID))
	require.True(t, env.auth.IsAuthenticated(ctx, long.Session.ID))

	require.NoError(t, env.auth.SignOut(ctx, long.Session.ID))
	require.False(t, env.auth.IsAuthenticated(ctx, long.Session.ID))
	require.NoError(t, env.auth.SignOut(ctx, long.Session.ID))

	_, err = env.auth.CurrentSession(ctx, long.Session.ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestAuthService_PasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "reset@example.com")

	require.ErrorIs(t, env.auth.RequestPasswordReset(ctx, "nobody@example.com"), domain.ErrNotFound)

	require.NoError(t, env.auth.RequestPasswordReset(ctx, "Reset@example.com"))
	to, token := env.mailer.last()
	require.Equal(t, "reset@example.com", to)
	require.NotEmpty(t, token)

	stored, err := env.repos.User.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, crypto.ComputeSHA256(token), stored.Auth.PasswordResetToken)

	require.ErrorIs(t, env.auth.ResetPassword(ctx, token, "weak"), domain.ErrWeakPassword)
	require.ErrorIs(t, env.auth.ResetPassword(ctx, "not-the-token", "Bb2@bbbb"), domain.ErrInvalidCredentials)

	require.NoError(t, env.auth.ResetPassword(ctx, token, "Bb2@bbbb"))
	require.ErrorIs(t, env.auth.ResetPassword(ctx, token, "Bb2@bbbb"), domain.ErrInvalidCredentials)

	_, err = env.auth.SignIn(ctx, SignInInput{Email: "reset@example.com", Password: testPassword})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = env.auth.SignIn(ctx, SignInInput{Email: "reset@example.com", Password: "Bb2@bbbb"})
	require.NoError(t, err)
}

func TestAuthService_PasswordReset_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "expired@example.com")

	require.NoError(t, env.auth.RequestPasswordReset(ctx, "expired@example.com"))
	_, token := env.mailer.last()

	env.clock.Advance(time.Hour)
	require.ErrorIs(t, env.auth.ResetPassword(ctx, token, "Bb2@bbbb"), domain.ErrInvalidCredentials)
}

func TestAuthService_SignInAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, _, err := env.admin.EnsureDefaultAdmin(ctx, "", "Admin123!")
	require.NoError(t, err)
	require.True(t, created)

	admin, sess, err := env.auth.SignInAdmin(ctx, domain.DefaultAdminEmail, "Admin123!", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleSuperAdmin, admin.Auth.Role)
	require.Empty(t, admin.Auth.PasswordHash)
	require.Equal(t, domain.SessionAdmin, sess.Kind)
	require.True(t, env.auth.IsAuthenticated(ctx, sess.ID))

	_, _, err = env.auth.SignInAdmin(ctx, domain.DefaultAdminEmail, "wrong", "")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// Users cannot sign in as admins.
	env.register(t, "user@example.com")
	_, _, err = env.auth.SignInAdmin(ctx, "user@example.com", testPassword, "")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	stored, err := env.repos.Admin.GetByEmail(ctx, domain.DefaultAdminEmail)
	require.NoError(t, err)
	stored.Auth.IsActive = false
	require.NoError(t, env.repos.Admin.Update(ctx, stored))

	_, _, err = env.auth.SignInAdmin(ctx, domain.DefaultAdminEmail, "Admin123!", "")
	require.ErrorIs(t, err, domain.ErrAccessDenied)
}
