package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"disable-help/internal/data/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const userCollection = "users"

// userDocument is the stored shape of entity.User. The id is kept as its string form.
type userDocument struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password,omitempty"`
	Role         string     `bson:"role"`
	FirstName    string     `bson:"first_name"`
	LastName     string     `bson:"last_name"`
	PhoneNumber  *string    `bson:"phone_number"`
	Approved     bool       `bson:"approved"`
	OTP          *string    `bson:"otp"`
	OTPExpiry    *time.Time `bson:"otp_expiry"`
	ResetTokenID *string    `bson:"reset_token_id"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

func toUserDocument(u *entity.User) userDocument {
	return userDocument{
		ID:           u.ID.String(),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PhoneNumber:  u.PhoneNumber,
		Approved:     u.Approved,
		OTP:          u.OTP,
		OTPExpiry:    u.OTPExpiry,
		ResetTokenID: u.ResetTokenID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toEntity() (*entity.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("decode user id %q: %w", d.ID, err)
	}

	return &entity.User{
		Base: entity.Base{
			ID:        id,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         entity.UserRole(d.Role),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		PhoneNumber:  d.PhoneNumber,
		Approved:     d.Approved,
		OTP:          d.OTP,
		OTPExpiry:    d.OTPExpiry,
		ResetTokenID: d.ResetTokenID,
	}, nil
}

type userMongoRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
	now  func() time.Time
}

// NewUserMongoRepository ensures the unique email index before returning.
func NewUserMongoRepository(ctx context.Context, db *mongo.Database, log *zap.Logger) (UserRepository, error) {
	coll := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email_unique"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("users_created_at"),
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}

	return &userMongoRepository{
		coll: coll,
		log:  log.With(zap.String("repository", "user_mongo")),
		now:  time.Now,
	}, nil
}

func (r *userMongoRepository) Create(ctx context.Context, user *entity.User) error {
	user.Email = entity.NormalizeEmail(user.Email)
	user.Touch(r.now())

	if _, err := r.coll.InsertOne(ctx, toUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}

		r.log.Error("Failed to create user", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	return nil
}

func (r *userMongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *userMongoRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": entity.NormalizeEmail(email)})
}

func (r *userMongoRepository) FindByIDAndEmail(ctx context.Context, id uuid.UUID, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String(), "email": entity.NormalizeEmail(email)})
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var doc userDocument

	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find user", zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}

	return doc.toEntity()
}

func (r *userMongoRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"password": 0, "otp": 0, "otp_expiry": 0, "reset_token_id": 0})

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.log.Error("Failed to get all users", zap.Error(err))
		return nil, fmt.Errorf("find all users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]*entity.User, 0)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}

		user, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (r *userMongoRepository) Update(ctx context.Context, user *entity.User) error {
	user.Email = entity.NormalizeEmail(user.Email)
	user.Touch(r.now())

	doc := toUserDocument(user)
	update := bson.M{"$set": bson.M{
		"email":          doc.Email,
		"password":       doc.PasswordHash,
		"role":           doc.Role,
		"first_name":     doc.FirstName,
		"last_name":      doc.LastName,
		"phone_number":   doc.PhoneNumber,
		"approved":       doc.Approved,
		"otp":            doc.OTP,
		"otp_expiry":     doc.OTPExpiry,
		"reset_token_id": doc.ResetTokenID,
		"updated_at":     doc.UpdatedAt,
	}}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}

		r.log.Error("Failed to update user", zap.Error(err), zap.String("user_id", doc.ID))
		return fmt.Errorf("update user %s: %w", doc.ID, err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("update user %s: %w", doc.ID, ErrNotFound)
	}

	return nil
}
