package usecase

import (
	"disable-help/internal/data/entity"
	"disable-help/internal/data/repository"
	"disable-help/pkg/mailer"
	"disable-help/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth AuthService
	User UserService
}

func NewService(
	repo *repository.Repository,
	hasher entity.PasswordHasher,
	tokens *utils.JWTIssuer,
	mail mailer.Sender,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth: NewAuthService(repo, hasher, tokens, mail, log),
		User: NewUserService(repo.User, log),
	}
}
