package response

import (
	"time"

	"disable-help/internal/data/entity"
)

type RegisterResponse struct {
	ID string `json:"id"`
}

// AuthUser is the login summary of the signed-in user.
type AuthUser struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     entity.UserRole `json:"role"`
	Approved bool            `json:"approved"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      AuthUser  `json:"user"`
}

type VerifyOTPResponse struct {
	ResetToken string    `json:"resetToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// UserResponse never carries the password hash, OTP or reset grant.
type UserResponse struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	PhoneNumber *string         `json:"phoneNumber,omitempty"`
	Role        entity.UserRole `json:"role"`
	Approved    bool            `json:"approved"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
		Approved:    user.Approved,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func UsersToResponse(users []*entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserToResponse(u))
	}
	return out
}

func AuthToResponse(user *entity.User, token string, expiresAt time.Time) AuthResponse {
	return AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: AuthUser{
			ID:       user.ID.String(),
			Name:     user.FullName(),
			Email:    user.Email,
			Role:     user.Role,
			Approved: user.Approved,
		},
	}
}
