package wire

import (
	"net/http"

	"disable-help/internal/adaptor"
	"disable-help/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	protect func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(protect)

		r.Get("/me", userHandler.GetProfile)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminOnly(log))

			r.Get("/", userHandler.GetAllUsers)
			r.Patch("/{id}/approval", userHandler.SetApproval)
			r.Patch("/{id}/role", userHandler.ChangeRole)
		})
	})
}
