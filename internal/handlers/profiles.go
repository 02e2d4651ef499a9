package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"koalitos/backend/internal/middleware"
	"koalitos/backend/internal/repository"
)

// ProfileHandler serves the caller's own profile and the admin user-type
// assignment.
type ProfileHandler struct {
	users *repository.UserRepository
}

func NewProfileHandler(users *repository.UserRepository) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// UpdateProfileRequest represents the profile update request body
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

// UpdateUserTypeRequest represents the admin user-type assignment body
type UpdateUserTypeRequest struct {
	UserTypeID *string `json:"userTypeId"`
}

// GetMe returns the caller's profile with its access tree.
func (h *ProfileHandler) GetMe(c *fiber.Ctx) error {
	profile, err := h.users.FindProfileWithAccess(c.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, profile)
}

// UpdateMe updates the caller's display name and avatar.
func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.DisplayName == nil && req.AvatarURL == nil {
		return badRequest(c, "Nothing to update")
	}

	profile, err := h.users.UpdateProfile(c.Context(), middleware.CurrentUser(c).ID, req.DisplayName, req.AvatarURL)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, profile)
}

// SetUserType assigns (or clears) a profile's user type. Admin only.
func (h *ProfileHandler) SetUserType(c *fiber.Ctx) error {
	profileID := c.Params("profileId")
	if _, err := uuid.Parse(profileID); err != nil {
		return badRequest(c, "Invalid profile ID")
	}

	var req UpdateUserTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
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

	profile, err := h.users.SetProfileUserType(c.Context(), profileID, req.UserTypeID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, profile)
}
