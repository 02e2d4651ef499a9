package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
	"koalitos/backend/internal/repository"
	"koalitos/backend/internal/utils"
)

// AuthHandler owns account registration and password-based session issuance.
type AuthHandler struct {
	users *repository.UserRepository
	jwt   *utils.JWT
}

func NewAuthHandler(users *repository.UserRepository, jwt *utils.JWT) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName string  `json:"displayName"`
	Handle      string  `json:"handle"`
	UserTypeID  *string `json:"userTypeId,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account with its profile and issues a token pair.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Handle = strings.ToLower(strings.TrimSpace(req.Handle))
	req.DisplayName = strings.TrimSpace(req.DisplayName)

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return badRequest(c, "A valid email is required")
	}
	if len(req.Password) < 8 {
		return badRequest(c, "Password must be at least 8 characters")
	}
	if req.DisplayName == "" {
		return badRequest(c, "Display name is required")
	}
	if req.Handle == "" {
		return badRequest(c, "Handle is required")
	}

	if req.UserTypeID != nil {
		if _, err := uuid.Parse(*req.UserTypeID); err != nil {
			return badRequest(c, "Invalid user type ID")
		}
		exists, err := h.users.UserTypeExists(c.Context(), *req.UserTypeID)
		if err != nil {
			return fail(c, err)
		}
		if !exists {
			return badRequest(c, "The given user type does not exist")
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fail(c, apperr.Wrap(apperr.CodeInternal, "failed to hash password", err))
	}

	user, err := h.users.CreateUser(c.Context(), req.Email, hash)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeAlreadyExists) {
			return fail(c, apperr.AlreadyExists("Email already registered"))
		}
		return fail(c, err)
	}

	if _, err := h.users.UpsertProfile(c.Context(), user.ID, req.Handle, req.DisplayName, req.UserTypeID); err != nil {
		if apperr.IsCode(err, apperr.CodeAlreadyExists) {
			return fail(c, apperr.AlreadyExists("Handle already taken"))
		}
		return fail(c, err)
	}

	profile, err := h.users.FindProfileWithAccess(c.Context(), user.ID)
	if err != nil {
		return fail(c, err)
	}

	return h.respondWithSession(c, fiber.StatusCreated, user, profile)
}

// Login verifies credentials and issues a token pair.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	user, err := h.users.FindUserByEmail(c.Context(), req.Email)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return fail(c, apperr.Unauthorized("Invalid credentials"))
		}
		return fail(c, err)
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return fail(c, apperr.Unauthorized("Invalid credentials"))
	}

	if err := h.users.RecordSignIn(c.Context(), user.ID); err != nil {
		return fail(c, err)
	}

	profile, err := h.users.FindProfileWithAccess(c.Context(), user.ID)
	if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
		return fail(c, err)
	}

	return h.respondWithSession(c, fiber.StatusOK, user, profile)
}

func (h *AuthHandler) respondWithSession(c *fiber.Ctx, status int, user *models.User, profile *models.ProfileAccess) error {
	handle := ""
	if profile != nil && profile.Handle != nil {
		handle = *profile.Handle
	}

	accessToken, err := h.jwt.GenerateToken(user.ID, user.Email, handle)
	if err != nil {
		return fail(c, apperr.Wrap(apperr.CodeInternal, "failed to generate token", err))
	}
	refreshToken, err := h.jwt.GenerateRefreshToken(user.ID, user.Email, handle)
	if err != nil {
		return fail(c, apperr.Wrap(apperr.CodeInternal, "failed to generate refresh token", err))
	}

	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"tokenType":    "bearer",
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"user": fiber.Map{
				"id":           user.ID,
				"email":        user.Email,
				"createdAt":    user.CreatedAt,
				"lastSignInAt": user.LastSignInAt,
			},
			"profile": profile,
		},
	})
}
