package usecase

import (
	"context"
	"fmt"

	"disable-help/internal/data/entity"
	"disable-help/internal/data/repository"
	"disable-help/internal/dto/request"
	"disable-help/internal/dto/response"
	"disable-help/pkg/apperror"
	"disable-help/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*response.UserResponse, error)
	GetAllUsers(ctx context.Context) ([]response.UserResponse, error)
	SetApproval(ctx context.Context, userID string, req *request.SetApprovalRequest) (*response.UserResponse, error)
	ChangeRole(ctx context.Context, userID string, req *request.ChangeRoleRequest) (*response.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, userID string) (*response.UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.ErrNotFound
	}

	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) GetAllUsers(ctx context.Context) ([]response.UserResponse, error) {
	users, err := us.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	us.log.Debug("Users retrieved", zap.Int("count", len(users)))
	return response.UsersToResponse(users), nil
}

func (us *userService) SetApproval(ctx context.Context, userID string, req *request.SetApprovalRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, apperror.ErrValidation.WithDetails(errs)
	}

	user, err := us.findForAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Approved = *req.Approved
	if err := us.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update approval: %w", err)
	}

	us.log.Info("User approval changed",
		zap.String("user_id", user.ID.String()),
		zap.Bool("approved", user.Approved),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) ChangeRole(ctx context.Context, userID string, req *request.ChangeRoleRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, apperror.ErrValidation.WithDetails(errs)
	}

	user, err := us.findForAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}

	previous := user.Role
	user.Role = entity.UserRole(req.Role)
	if err := us.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	us.log.Info("User role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(user.Role)),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) findForAdmin(ctx context.Context, userID string) (*entity.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.ErrValidation.WithDetails(map[string]string{"id": "Must be a valid UUID"})
	}

	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}
	return user, nil
}
