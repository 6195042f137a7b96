package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// RolesHandler administers roles.
type RolesHandler struct {
	service    *service.RoleService
	pagination Pagination
}

// NewRolesHandler constructs handler.
func NewRolesHandler(roleService *service.RoleService, pagination Pagination) *RolesHandler {
	return &RolesHandler{service: roleService, pagination: pagination}
}

// List GET /v1/roles.
func (h *RolesHandler) List(c *fiber.Ctx) error {
	params, err := h.pagination.listParams(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListRoles(c.UserContext(), params)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ROLES_RETRIEVED_SUCCESSFULLY", dto.NewList(page, roleResponse))
}

// Create POST /v1/roles.
func (h *RolesHandler) Create(c *fiber.Ctx) error {
	var req dto.RoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.service.CreateRole(c.UserContext(), req.Name, req.Permissions)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "ROLE_CREATED_SUCCESSFULLY", roleResponse(role))
}

// Show GET /v1/roles/:id.
func (h *RolesHandler) Show(c *fiber.Ctx) error {
	role, err := h.service.GetRole(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ROLE_RETRIEVED_SUCCESSFULLY", roleResponse(role))
}

// Update PUT /v1/roles/:id.
func (h *RolesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.service.UpdateRole(c.UserContext(), c.Params("id"), service.RoleUpdateInput{
		Name:        req.Name,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ROLE_UPDATED_SUCCESSFULLY", roleResponse(role))
}

// Delete DELETE /v1/roles/:id.
func (h *RolesHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteRole(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ROLE_DELETED_SUCCESSFULLY", nil)
}

// PermissionsHandler administers permission tokens.
type PermissionsHandler struct {
	service    *service.PermissionService
	pagination Pagination
}

// NewPermissionsHandler constructs handler.
func NewPermissionsHandler(permissionService *service.PermissionService, pagination Pagination) *PermissionsHandler {
	return &PermissionsHandler{service: permissionService, pagination: pagination}
}

// List GET /v1/permissions.
func (h *PermissionsHandler) List(c *fiber.Ctx) error {
	params, err := h.pagination.listParams(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListPermissions(c.UserContext(), params)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "PERMISSIONS_RETRIEVED_SUCCESSFULLY", dto.NewList(page, permissionResponse))
}

// Create POST /v1/permissions.
func (h *PermissionsHandler) Create(c *fiber.Ctx) error {
	var req dto.PermissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	perm, err := h.service.CreatePermission(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "PERMISSION_CREATED_SUCCESSFULLY", permissionResponse(perm))
}

// Show GET /v1/permissions/:id.
func (h *PermissionsHandler) Show(c *fiber.Ctx) error {
	perm, err := h.service.GetPermission(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "PERMISSION_RETRIEVED_SUCCESSFULLY", permissionResponse(perm))
}

// Update PUT /v1/permissions/:id.
func (h *PermissionsHandler) Update(c *fiber.Ctx) error {
	var req dto.PermissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	perm, err := h.service.UpdatePermission(c.UserContext(), c.Params("id"), req.Name)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "PERMISSION_UPDATED_SUCCESSFULLY", permissionResponse(perm))
}

// Delete DELETE /v1/permissions/:id.
func (h *PermissionsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeletePermission(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "PERMISSION_DELETED_SUCCESSFULLY", nil)
}
