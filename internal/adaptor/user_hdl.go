package adaptor

import (
	"net/http"

	"disable-help/internal/dto/request"
	"disable-help/internal/usecase"
	"disable-help/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// GetProfile handles GET /users/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", profile)
}

// GetAllUsers handles GET /users (admin only)
func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAllUsers(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "get all users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// SetApproval handles PATCH /users/{id}/approval (admin only)
func (h *UserHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	var req request.SetApprovalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.SetApproval(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "set approval")
		return
	}

	utils.ResponseSuccess(w, "User approval updated", user)
}

// ChangeRole handles PATCH /users/{id}/role (admin only)
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req request.ChangeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.ChangeRole(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "change role")
		return
	}

	utils.ResponseSuccess(w, "User role updated", user)
}
