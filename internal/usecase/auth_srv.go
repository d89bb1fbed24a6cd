package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"disable-help/internal/data/entity"
	"disable-help/internal/data/repository"
	"disable-help/internal/dto/request"
	"disable-help/internal/dto/response"
	"disable-help/pkg/apperror"
	"disable-help/pkg/mailer"
	"disable-help/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OTPValidity is how long a password reset code stays usable.
const OTPValidity = 15 * time.Minute

const emailDispatchTimeout = 30 * time.Second

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.RegisterResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) error
	VerifyOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.VerifyOTPResponse, error)
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, userID string, req *request.ChangePasswordRequest) error
}

type authService struct {
	repo   *repository.Repository
	hasher entity.PasswordHasher
	tokens *utils.JWTIssuer
	mailer mailer.Sender
	log    *zap.Logger

	now         func() time.Time
	generateOTP func() (string, error)
}

func NewAuthService(
	repo *repository.Repository,
	hasher entity.PasswordHasher,
	tokens *utils.JWTIssuer,
	mail mailer.Sender,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		mailer:      mail,
		log:         log.With(zap.String("service", "auth")),
		now:         time.Now,
		generateOTP: utils.GenerateOTP,
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.RegisterResponse, error) {
	if errs := utils.ValidateStruct(req); errs != nil {
		s.log.Debug("Register validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))
		return nil, apperror.ErrValidation.WithDetails(errs)
	}

	email := entity.NormalizeEmail(req.Email)

	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		s.log.Info("Register rejected, email taken", zap.String("email", email))
		return nil, apperror.ErrDuplicateEmail
	}

	role := entity.UserRole(req.Role)
	if !role.Valid() {
		return nil, apperror.ErrValidation.WithDetails(map[string]string{"role": "Must be one of: admin, client, worker"})
	}

	user := &entity.User{
		Base:        entity.Base{ID: uuid.New()},
		Email:       email,
		Role:        role,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	}
	if err := user.SetPassword(s.hasher, req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)

	return &response.RegisterResponse{ID: user.ID.String()}, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, apperror.ErrValidation.WithDetails(errs)
	}

	email := entity.NormalizeEmail(req.Email)

	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.log.Warn("Login for unknown email", zap.String("email", email))
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.CheckPassword(s.hasher, req.Password) {
		s.log.Warn("Login with wrong password", zap.String("user_id", user.ID.String()))
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.Role.Valid() {
		s.log.Error("Stored user has unknown role",
			zap.String("user_id", user.ID.String()),
			zap.String("role", string(user.Role)),
		)
		return nil, apperror.ErrInvalidRole
	}

	token, err := s.tokens.Issue(user.ID.String(), string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))

	resp := response.AuthToResponse(user, token, s.now().Add(s.tokens.AccessTTL()))
	return &resp, nil
}

func (s *authService) ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) error {
	if errs := utils.ValidateStruct(req); errs != nil {
		return apperror.ErrValidation.WithDetails(errs)
	}

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return apperror.ErrNotFound
	}

	code, err := s.generateOTP()
	if err != nil {
		return err
	}

	user.SetOTP(code, s.now().Add(OTPValidity))
	user.ResetTokenID = nil

	if err := s.repo.User.Update(ctx, user); err != nil {
		return fmt.Errorf("store OTP: %w", err)
	}

	go s.sendOTPEmail(user.Email, code)

	s.log.Info("Password reset OTP issued", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.VerifyOTPResponse, error) {
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, apperror.ErrValidation.WithDetails(errs)
	}

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}

	if !user.OTPMatches(req.OTP) {
		s.log.Warn("OTP mismatch", zap.String("user_id", user.ID.String()))
		return nil, apperror.ErrInvalidOTP
	}

	now := s.now()
	if user.OTPExpired(now) {
		s.log.Info("Expired OTP presented", zap.String("user_id", user.ID.String()))
		return nil, apperror.ErrOTPExpired
	}

	grantID := uuid.NewString()
	resetToken, err := s.tokens.IssueReset(user.ID.String(), user.Email, grantID)
	if err != nil {
		return nil, fmt.Errorf("issue reset token: %w", err)
	}

	user.ClearOTP()
	user.ResetTokenID = &grantID

	if err := s.repo.User.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("consume OTP: %w", err)
	}

	s.log.Info("OTP verified", zap.String("user_id", user.ID.String()))

	return &response.VerifyOTPResponse{
		ResetToken: resetToken,
		ExpiresAt:  now.Add(s.tokens.ResetTTL()),
	}, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	if errs := utils.ValidateStruct(req); errs != nil {
		return apperror.ErrValidation.WithDetails(errs)
	}

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return apperror.ErrNotFound
	}

	claims, err := s.tokens.VerifyReset(req.ResetToken)
	if err != nil {
		s.log.Warn("Reset token rejected", zap.String("user_id", user.ID.String()), zap.Error(err))
		return apperror.ErrInvalidResetToken.Wrap(err)
	}

	if claims.UserID != user.ID.String() ||
		claims.Email != user.Email ||
		user.ResetTokenID == nil ||
		claims.ID != *user.ResetTokenID {
		s.log.Warn("Reset token does not match outstanding grant", zap.String("user_id", user.ID.String()))
		return apperror.ErrInvalidResetToken
	}

	if err := user.SetPassword(s.hasher, req.NewPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.ResetTokenID = nil
	user.ClearOTP()

	if err := s.repo.User.Update(ctx, user); err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *request.ChangePasswordRequest) error {
	if errs := utils.ValidateStruct(req); errs != nil {
		return apperror.ErrValidation.WithDetails(errs)
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return apperror.ErrNotFound
	}

	user, err := s.repo.User.FindByIDAndEmail(ctx, id, req.Email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.log.Warn("Change password for mismatched id and email", zap.String("user_id", userID))
		return apperror.ErrNotFound
	}

	if !user.CheckPassword(s.hasher, req.CurrentPassword) {
		return apperror.ErrInvalidCurrentPassword
	}

	if err := user.SetPassword(s.hasher, req.NewPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	s.log.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) sendOTPEmail(email, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), emailDispatchTimeout)
	defer cancel()

	if err := s.mailer.Send(ctx, mailer.PasswordResetOTP(email, code, OTPValidity)); err != nil {
		s.log.Error("Failed to send OTP email", zap.Error(err), zap.String("email", email))
	}
}
