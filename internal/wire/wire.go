package wire

import (
	"net/http"

	"disable-help/internal/adaptor"
	"disable-help/internal/data/repository"
	"disable-help/internal/usecase"
	"disable-help/pkg/mailer"
	"disable-help/pkg/middleware"
	"disable-help/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type App struct {
	Router *chi.Mux
}

// Wiring builds the services, handlers and router on top of repo.
func Wiring(repo *repository.Repository, mail mailer.Sender, config *utils.Config, logger *zap.Logger) *App {
	hasher := utils.NewBcryptHasher(config.Security.BcryptCost)
	tokens := utils.NewJWTIssuer(config.JWT)

	service := usecase.NewService(repo, hasher, tokens, mail, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router: setupRouter(handler, tokens, config, logger),
	}
}

func setupRouter(
	handler *adaptor.Handler,
	tokens middleware.TokenVerifier,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utils.ResponseNotFound(w, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		utils.ResponseMethodNotAllowed(w, "Method not allowed")
	})

	protect := middleware.Protect(tokens, logger)

	wireAuth(r, handler.Auth, protect, config, logger)
	wireUser(r, handler.User, protect, logger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.ResponseSuccess(w, "OK", map[string]string{"status": "ok"})
	})

	return r
}
