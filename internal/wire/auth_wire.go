package wire

import (
	"net/http"

	"disable-help/internal/adaptor"
	"disable-help/pkg/middleware"
	"disable-help/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	protect func(http.Handler) http.Handler,
	config *utils.Config,
	log *zap.Logger,
) {
	// Public, rate limited per client IP.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(config.RateLimit, log))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/verify-otp", authHandler.VerifyOTP)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	r.With(protect).Post("/change-password", authHandler.ChangePassword)
}
