package repository

import (
	"context"
	"errors"

	"disable-help/pkg/database"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotFound       = errors.New("record not found")
)

type Repository struct {
	User UserRepository
}

// NewRepository builds the PostgreSQL-backed repositories.
func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User: NewUserRepository(db, log),
	}
}

// NewMongoRepository builds the MongoDB-backed repositories and ensures their indexes.
func NewMongoRepository(ctx context.Context, db *mongo.Database, log *zap.Logger) (*Repository, error) {
	users, err := NewUserMongoRepository(ctx, db, log)
	if err != nil {
		return nil, err
	}

	return &Repository{User: users}, nil
}

func NewMemoryRepository(log *zap.Logger) *Repository {
	return &Repository{
		User: NewUserMemoryRepository(log),
	}
}
