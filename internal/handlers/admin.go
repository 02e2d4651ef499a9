package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"koalitos/backend/internal/repository"
)

// AdminHandler serves the role/permission CRUD: pages, user groups, user
// types, and page-role bindings. All routes sit behind the admin API key.
type AdminHandler struct {
	admin *repository.AdminRepository
}

func NewAdminHandler(admin *repository.AdminRepository) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Pages

type PageRequest struct {
	Key  *string `json:"key,omitempty"`
	Name *string `json:"name,omitempty"`
	Path *string `json:"path,omitempty"`
}

func (h *AdminHandler) CreatePage(c *fiber.Ctx) error {
	var req PageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Key == nil || req.Name == nil || req.Path == nil ||
		strings.TrimSpace(*req.Key) == "" || strings.TrimSpace(*req.Name) == "" || strings.TrimSpace(*req.Path) == "" {
		return badRequest(c, "key, name, and path are required")
	}

	page, err := h.admin.CreatePage(c.Context(), *req.Key, *req.Name, *req.Path)
	if err != nil {
		return fail(c, err)
	}
	return created(c, page)
}

func (h *AdminHandler) ListPages(c *fiber.Ctx) error {
	pages, err := h.admin.ListPages(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, pages)
}

func (h *AdminHandler) GetPage(c *fiber.Ctx) error {
	id := c.Params("pageId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid page ID")
	}
	page, err := h.admin.FindPage(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, page)
}

func (h *AdminHandler) UpdatePage(c *fiber.Ctx) error {
	id := c.Params("pageId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid page ID")
	}
	var req PageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	page, err := h.admin.UpdatePage(c.Context(), id, req.Key, req.Name, req.Path)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, page)
}

func (h *AdminHandler) DeletePage(c *fiber.Ctx) error {
	id := c.Params("pageId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid page ID")
	}
	if err := h.admin.DeletePage(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"deleted": id})
}

// User groups

type UserGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (h *AdminHandler) CreateUserGroup(c *fiber.Ctx) error {
	var req UserGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return badRequest(c, "name is required")
	}

	group, err := h.admin.CreateUserGroup(c.Context(), *req.Name, req.Description)
	if err != nil {
		return fail(c, err)
	}
	return created(c, group)
}

func (h *AdminHandler) ListUserGroups(c *fiber.Ctx) error {
	groups, err := h.admin.ListUserGroups(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, groups)
}

func (h *AdminHandler) GetUserGroup(c *fiber.Ctx) error {
	id := c.Params("groupId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid user group ID")
	}
	group, err := h.admin.FindUserGroup(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, group)
}

func (h *AdminHandler) UpdateUserGroup(c *fiber.Ctx) error {
	id := c.Params("groupId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid user group ID")
	}
	var req UserGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	group, err := h.admin.UpdateUserGroup(c.Context(), id, req.Name, req.Description)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, group)
}

func (h *AdminHandler) DeleteUserGroup(c *fiber.Ctx) error {
	id := c.Params("groupId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid user group ID")
	}
	if err := h.admin.DeleteUserGroup(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"deleted": id})
}

// User types

type UserTypeRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	UserGroupID *string `json:"userGroupId,omitempty"`
}

func (h *AdminHandler) CreateUserType(c *fiber.Ctx) error {
	var req UserTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return badRequest(c, "name is required")
	}
	if req.UserGroupID != nil {
		if _, err := uuid.Parse(*req.UserGroupID); err != nil {
			return badRequest(c, "Invalid user group ID")
		}
	}

	ut, err := h.admin.CreateUserType(c.Context(), *req.Name, req.Description, req.UserGroupID)
	if err != nil {
		return fail(c, err)
	}
	return created(c, ut)
}

func (h *AdminHandler) ListUserTypes(c *fiber.Ctx) error {
	types, err := h.admin.ListUserTypes(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, types)
}

func (h *AdminHandler) GetUserType(c *fiber.Ctx) error {
	id := c.Params("typeId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid user type ID")
	}
	ut, err := h.admin.FindUserType(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, ut)
}

func (h *AdminHandler) UpdateUserType(c *fiber.Ctx) error {
	id := c.Params("typeId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid user type ID")
	}
	var req UserTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ut, err := h.admin.UpdateUserType(c.Context(), id, req.Name, req.Description, req.IsActive, req.UserGroupID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, ut)
}

func (h *AdminHandler) DeleteUserType(c *fiber.Ctx) error {
	id := c.Params("typeId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid user type ID")
	}
	if err := h.admin.DeleteUserType(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"deleted": id})
}

// Page-role bindings

type PageRoleRequest struct {
	UserTypeID string `json:"userTypeId"`
	PageID     string `json:"pageId"`
	Role       string `json:"role"`
}

func (h *AdminHandler) CreatePageRole(c *fiber.Ctx) error {
	var req PageRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if _, err := uuid.Parse(req.UserTypeID); err != nil {
		return badRequest(c, "Invalid user type ID")
	}
	if _, err := uuid.Parse(req.PageID); err != nil {
		return badRequest(c, "Invalid page ID")
	}
	if strings.TrimSpace(req.Role) == "" {
		return badRequest(c, "role is required")
	}

	binding, err := h.admin.CreatePageRole(c.Context(), req.UserTypeID, req.PageID, req.Role)
	if err != nil {
		return fail(c, err)
	}
	return created(c, binding)
}

func (h *AdminHandler) ListPageRoles(c *fiber.Ctx) error {
	bindings, err := h.admin.ListPageRoles(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, bindings)
}

func (h *AdminHandler) DeletePageRole(c *fiber.Ctx) error {
	id := c.Params("roleId")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Invalid page role ID")
	}
	if err := h.admin.DeletePageRole(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"deleted": id})
}
