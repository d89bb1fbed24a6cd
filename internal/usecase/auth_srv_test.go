package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"disable-help/internal/data/entity"
	"disable-help/internal/data/repository"
	"disable-help/internal/dto/request"
	"disable-help/pkg/apperror"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegister_DuplicateEmailAnyCase(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()

	id := env.register(t, "a@x.com", "P@ssw0rd1", "client")
	require.NotEmpty(t, id)

	_, err := env.svc.Register(ctx, &request.RegisterRequest{
		Email: "A@X.com", Password: "P@ssw0rd1", Role: "client",
	})
	require.ErrorIs(t, err, apperror.ErrDuplicateEmail)

	stored, err := env.repo.User.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotEqual(t, "P@ssw0rd1", stored.PasswordHash)
	require.False(t, stored.Approved)
}

// lateDuplicateRepo misses on the email lookup, as a concurrent insert would,
// so the unique index is what rejects the second account.
type lateDuplicateRepo struct {
	repository.UserRepository
}

func (lateDuplicateRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, nil
}

func TestRegister_DuplicateOnInsert(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()
	env.register(t, "a@x.com", "P@ssw0rd1", "client")

	env.repo.User = lateDuplicateRepo{UserRepository: env.repo.User}

	_, err := env.svc.Register(ctx, &request.RegisterRequest{
		Email: "a@x.com", Password: "P@ssw0rd1", Role: "worker",
	})
	require.ErrorIs(t, err, apperror.ErrDuplicateEmail)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.ErrDuplicateEmail.Status, appErr.Status)
}

func TestPasswordByteLimit(t *testing.T) {
	t.Parallel()

	// 40 runes, 80 bytes.
	long := strings.Repeat("é", 40)
	ctx := context.Background()

	requireTooLong := func(t *testing.T, err error, field string) {
		t.Helper()
		require.ErrorIs(t, err, apperror.ErrValidation)
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		require.Equal(t, "Maximum length is 72 bytes", appErr.Details.(map[string]string)[field])
	}

	t.Run("register", func(t *testing.T) {
		t.Parallel()

		env := newAuthEnv(t, nil)
		_, err := env.svc.Register(ctx, &request.RegisterRequest{Email: "a@x.com", Password: long, Role: "client"})
		requireTooLong(t, err, "password")

		_, err = env.svc.Register(ctx, &request.RegisterRequest{
			Email: "a@x.com", Password: strings.Repeat("é", 36), Role: "client",
		})
		require.NoError(t, err, "72 bytes is still accepted")
	})

	t.Run("reset password", func(t *testing.T) {
		t.Parallel()

		env := newAuthEnv(t, nil)
		env.register(t, "a@x.com", "P@ssw0rd1", "client")
		require.NoError(t, env.svc.ForgotPassword(ctx, &request.ForgotPasswordRequest{Email: "a@x.com"}))
		verified, err := env.svc.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@x.com", OTP: "123456"})
		require.NoError(t, err)

		err = env.svc.ResetPassword(ctx, &request.ResetPasswordRequest{
			Email: "a@x.com", NewPassword: long, ResetToken: verified.ResetToken,
		})
		requireTooLong(t, err, "newPassword")
	})

	t.Run("change password", func(t *testing.T) {
		t.Parallel()

		env := newAuthEnv(t, nil)
		id := env.register(t, "a@x.com", "P@ssw0rd1", "client")

		err := env.svc.ChangePassword(ctx, id, &request.ChangePasswordRequest{
			Email: "a@x.com", CurrentPassword: "P@ssw0rd1", NewPassword: long,
		})
		requireTooLong(t, err, "newPassword")
	})
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		req   request.RegisterRequest
		field string
	}{
		{"missing email", request.RegisterRequest{Password: "secret1", Role: "client"}, "email"},
		{"bad email", request.RegisterRequest{Email: "nope", Password: "secret1", Role: "client"}, "email"},
		{"short password", request.RegisterRequest{Email: "a@x.com", Password: "123", Role: "client"}, "password"},
		{"unknown role", request.RegisterRequest{Email: "a@x.com", Password: "secret1", Role: "superuser"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newAuthEnv(t, nil)
			_, err := env.svc.Register(context.Background(), &tt.req)
			require.ErrorIs(t, err, apperror.ErrValidation)

			appErr, ok := apperror.As(err)
			require.True(t, ok)
			require.Contains(t, appErr.Details, tt.field)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "a@x.com", "P@ssw0rd1", "client")

	before, err := env.repo.User.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.svc.Login(ctx, &request.LoginRequest{Email: "ghost@x.com", Password: "P@ssw0rd1"})
		require.ErrorIs(t, err, apperror.ErrInvalidCredentials)

		ghost, err := env.repo.User.FindByEmail(ctx, "ghost@x.com")
		require.NoError(t, err)
		require.Nil(t, ghost)
	})

	t.Run("wrong password leaves user untouched", func(t *testing.T) {
		_, err := env.svc.Login(ctx, &request.LoginRequest{Email: "a@x.com", Password: "wrongpass"})
		require.ErrorIs(t, err, apperror.ErrInvalidCredentials)

		after, err := env.repo.User.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("correct credentials", func(t *testing.T) {
		resp, err := env.svc.Login(ctx, &request.LoginRequest{Email: " A@x.com", Password: "P@ssw0rd1"})
		require.NoError(t, err)
		require.Equal(t, id, resp.User.ID)
		require.Equal(t, "Jo Doe", resp.User.Name)

		claims, err := env.tokens.Verify(resp.Token)
		require.NoError(t, err)
		require.Equal(t, id, claims.UserID)
		require.Equal(t, "client", claims.Role)
	})
}

func TestLogin_UnknownStoredRole(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()
	env.register(t, "odd@x.com", "P@ssw0rd1", "worker")

	user, err := env.repo.User.FindByEmail(ctx, "odd@x.com")
	require.NoError(t, err)
	user.Role = "superuser"
	require.NoError(t, env.repo.User.Update(ctx, user))

	_, err = env.svc.Login(ctx, &request.LoginRequest{Email: "odd@x.com", Password: "P@ssw0rd1"})
	require.ErrorIs(t, err, apperror.ErrInvalidRole)
}

func TestForgotPassword(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()
	env.register(t, "a@x.com", "P@ssw0rd1", "client")

	err := env.svc.ForgotPassword(ctx, &request.ForgotPasswordRequest{Email: "nobody@x.com"})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, env.svc.ForgotPassword(ctx, &request.ForgotPasswordRequest{Email: "a@x.com"}))

	user, err := env.repo.User.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user.OTP)
	require.NotNil(t, user.OTPExpiry)
	require.Equal(t, "123456", *user.OTP)
	require.WithinDuration(t, env.clock.Add(OTPValidity), *user.OTPExpiry, time.Second)

	require.Eventually(t, func() bool { return len(env.mail.messages()) == 1 }, time.Second, 10*time.Millisecond)
	msg := env.mail.messages()[0]
	require.Equal(t, "a@x.com", msg.To)
	require.Contains(t, msg.Body, "123456")
}

func TestForgotPassword_MailFailureIsNotSurfaced(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	env := newAuthEnv(t, zap.New(core))
	env.mail.err = errors.New("smtp down")
	env.register(t, "a@x.com", "P@ssw0rd1", "client")

	require.NoError(t, env.svc.ForgotPassword(context.Background(), &request.ForgotPasswordRequest{Email: "a@x.com"}))

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Failed to send OTP email").Len() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestVerifyOTP_Lifecycle(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()
	env.register(t, "a@x.com", "P@ssw0rd1", "client")
	require.NoError(t, env.svc.ForgotPassword(ctx, &request.ForgotPasswordRequest{Email: "a@x.com"}))

	_, err := env.svc.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@x.com", OTP: "654321"})
	require.ErrorIs(t, err, apperror.ErrInvalidOTP)

	user, err := env.repo.User.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user.OTP, "wrong code must not clear the stored OTP")

	resp, err := env.svc.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@x.com", OTP: "123456"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ResetToken)

	user, err = env.repo.User.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Nil(t, user.OTP)
	require.Nil(t, user.OTPExpiry)
	require.NotNil(t, user.ResetTokenID)

	_, err = env.svc.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@x.com", OTP: "123456"})
	require.ErrorIs(t, err, apperror.ErrInvalidOTP)
}

func TestVerifyOTP_Expiry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "at the boundary", elapsed: OTPValidity},
		{name: "just past", elapsed: OTPValidity + time.Second, wantErr: apperror.ErrOTPExpired},
		{name: "long past", elapsed: 24 * time.Hour, wantErr: apperror.ErrOTPExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newAuthEnv(t, nil)
			ctx := context.Background()
			env.register(t, "a@x.com", "P@ssw0rd1", "client")
			require.NoError(t, env.svc.ForgotPassword(ctx, &request.ForgotPasswordRequest{Email: "a@x.com"}))

			env.advance(tt.elapsed)

			_, err := env.svc.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@x.com", OTP: "123456"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestVerifyOTP_MissingExpiryCountsAsExpired(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()
	env.register(t, "a@x.com", "P@ssw0rd1", "client")

	user, err := env.repo.User.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	code := "123456"
	user.OTP = &code
	require.NoError(t, env.repo.User.Update(ctx, user))

	_, err = env.svc.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@x.com", OTP: "123456"})
	require.ErrorIs(t, err, apperror.ErrOTPExpired)
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()
	env.register(t, "a@x.com", "P@ssw0rd1", "client")
	env.register(t, "b@x.com", "P@ssw0rd1", "worker")

	require.NoError(t, env.svc.ForgotPassword(ctx, &request.ForgotPasswordRequest{Email: "a@x.com"}))
	verified, err := env.svc.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@x.com", OTP: "123456"})
	require.NoError(t, err)

	err = env.svc.ResetPassword(ctx, &request.ResetPasswordRequest{Email: "nobody@x.com", NewPassword: "N3wPassw0rd", ResetToken: verified.ResetToken})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	err = env.svc.ResetPassword(ctx, &request.ResetPasswordRequest{Email: "b@x.com", NewPassword: "N3wPassw0rd", ResetToken: verified.ResetToken})
	require.ErrorIs(t, err, apperror.ErrInvalidResetToken, "grant belongs to another user")

	err = env.svc.ResetPassword(ctx, &request.ResetPasswordRequest{Email: "a@x.com", NewPassword: "N3wPassw0rd", ResetToken: "garbage"})
	require.ErrorIs(t, err, apperror.ErrInvalidResetToken)

	require.NoError(t, env.svc.ResetPassword(ctx, &request.ResetPasswordRequest{
		Email: "a@x.com", NewPassword: "N3wPassw0rd", ResetToken: verified.ResetToken,
	}))

	err = env.svc.ResetPassword(ctx, &request.ResetPasswordRequest{Email: "a@x.com", NewPassword: "Again123", ResetToken: verified.ResetToken})
	require.ErrorIs(t, err, apperror.ErrInvalidResetToken, "grant is single use")

	_, err = env.svc.Login(ctx, &request.LoginRequest{Email: "a@x.com", Password: "N3wPassw0rd"})
	require.NoError(t, err)
	_, err = env.svc.Login(ctx, &request.LoginRequest{Email: "a@x.com", Password: "P@ssw0rd1"})
	require.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestResetPassword_NewOTPRevokesGrant(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()
	env.register(t, "a@x.com", "P@ssw0rd1", "client")

	require.NoError(t, env.svc.ForgotPassword(ctx, &request.ForgotPasswordRequest{Email: "a@x.com"}))
	verified, err := env.svc.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@x.com", OTP: "123456"})
	require.NoError(t, err)

	require.NoError(t, env.svc.ForgotPassword(ctx, &request.ForgotPasswordRequest{Email: "a@x.com"}))

	err = env.svc.ResetPassword(ctx, &request.ResetPasswordRequest{Email: "a@x.com", NewPassword: "N3wPassw0rd", ResetToken: verified.ResetToken})
	require.ErrorIs(t, err, apperror.ErrInvalidResetToken)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "a@x.com", "P@ssw0rd1", "client")
	otherID := env.register(t, "b@x.com", "P@ssw0rd1", "client")

	err := env.svc.ChangePassword(ctx, otherID, &request.ChangePasswordRequest{
		Email: "a@x.com", CurrentPassword: "P@ssw0rd1", NewPassword: "N3wPassw0rd",
	})
	require.ErrorIs(t, err, apperror.ErrNotFound, "id and email must belong to the same user")

	err = env.svc.ChangePassword(ctx, id, &request.ChangePasswordRequest{
		Email: "a@x.com", CurrentPassword: "nope-nope", NewPassword: "N3wPassw0rd",
	})
	require.ErrorIs(t, err, apperror.ErrInvalidCurrentPassword)

	err = env.svc.ChangePassword(ctx, id, &request.ChangePasswordRequest{
		Email: "a@x.com", CurrentPassword: "P@ssw0rd1", NewPassword: "P@ssw0rd1",
	})
	require.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, env.svc.ChangePassword(ctx, id, &request.ChangePasswordRequest{
		Email: "A@x.com", CurrentPassword: "P@ssw0rd1", NewPassword: "N3wPassw0rd",
	}))

	_, err = env.svc.Login(ctx, &request.LoginRequest{Email: "a@x.com", Password: "N3wPassw0rd"})
	require.NoError(t, err)
	_, err = env.svc.Login(ctx, &request.LoginRequest{Email: "a@x.com", Password: "P@ssw0rd1"})
	require.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}
