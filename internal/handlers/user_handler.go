package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/victoralfred/userdir/internal/domain/user"
	"github.com/victoralfred/userdir/internal/services"
	"go.uber.org/zap"
)

// UserHandler handles user endpoints
type UserHandler struct {
	userService *services.UserService
	registry    *services.Registry
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, registry *services.Registry, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{
		userService: userService,
		registry:    registry,
		logger:      logger,
	}
}

// CreateUserRequest represents a create user request
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListUsersResponse is the data of a list response
type ListUsersResponse struct {
	Users  []*user.User `json:"users"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// GetUser returns a single user
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	u, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, id)
		return
	}

	respond(c, http.StatusOK, u)
}

// CreateUser registers a new user. Name and email are stored as sent.
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be a JSON object")
		return
	}

	u, err := h.registry.Register(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrCapacityExceeded) {
			respondError(c, http.StatusInsufficientStorage, "CAPACITY_EXCEEDED", "No more users can be stored")
			return
		}
		h.logger.Error("Failed to register user", zap.Error(err))
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user")
		return
	}

	h.logger.Info("User registered", zap.Stringer("user_id", u.ID))
	respond(c, http.StatusCreated, u)
}

// ListUsers returns a page of users. Limits above user.MaxPageSize are capped.
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var filter user.ListFilter
	var err error

	if v := c.Query("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 0 {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
	}
	if v := c.Query("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil || filter.Offset < 0 {
			respondError(c, http.StatusBadRequest, "INVALID_OFFSET", "offset must be a non-negative integer")
			return
		}
	}

	filter, err = filter.Normalize()
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_OFFSET", "offset must be a non-negative integer")
		return
	}

	users, err := h.registry.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users")
		return
	}

	respond(c, http.StatusOK, ListUsersResponse{
		Users:  users,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// FetchUser is reserved for remote lookups and is not implemented
// @Router /users/{id}/fetch [get]
func (h *UserHandler) FetchUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	u, err := services.FetchUser(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrNotImplemented):
		respondError(c, http.StatusNotImplemented, "NOT_IMPLEMENTED", "This endpoint is not yet implemented")
	case err != nil:
		h.handleError(c, err, id)
	default:
		respond(c, http.StatusOK, u)
	}
}

func (h *UserHandler) handleError(c *gin.Context, err error, id int64) {
	if errors.Is(err, user.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "The requested user does not exist")
		return
	}

	h.logger.Error("Failed to get user", zap.Int64("user_id", id), zap.Error(err))
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get user")
}

func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_USER_ID", "User ID must be an integer")
		return 0, false
	}
	return id, true
}
