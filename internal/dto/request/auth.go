package request

type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email,max=254"`
	Password    string  `json:"password" validate:"required,min=6,maxbytes=72"`
	FirstName   string  `json:"firstName" validate:"max=100"`
	LastName    string  `json:"lastName" validate:"max=100"`
	Role        string  `json:"role" validate:"required,oneof=admin client worker"`
	PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,min=6,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,min=6,maxbytes=72"`
	ResetToken  string `json:"resetToken" validate:"required"`
}

type ChangePasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,maxbytes=72,nefield=CurrentPassword"`
}
