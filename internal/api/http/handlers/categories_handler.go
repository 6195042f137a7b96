package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// CategoriesHandler serves the category tree.
type CategoriesHandler struct {
	service    *service.CategoryService
	pagination Pagination
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService, pagination Pagination) *CategoriesHandler {
	return &CategoriesHandler{service: categoryService, pagination: pagination}
}

// List GET /v1/categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	params, err := h.pagination.listParams(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListCategories(c.UserContext(), params)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "CATEGORIES_RETRIEVED_SUCCESSFULLY", dto.NewList(page, categoryResponse))
}

// Create POST /v1/categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	category, err := h.service.CreateCategory(c.UserContext(), actorID(c), service.CategoryCreateInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		IsActive:    req.IsActive,
		SortOrder:   req.SortOrder,
		Image:       req.Image,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "CATEGORY_CREATED_SUCCESSFULLY", categoryResponse(category))
}

// Show GET /v1/categories/:id.
func (h *CategoriesHandler) Show(c *fiber.Ctx) error {
	category, err := h.service.GetCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "CATEGORY_RETRIEVED_SUCCESSFULLY", categoryResponse(category))
}

// Update PUT /v1/categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateCategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	category, err := h.service.UpdateCategory(c.UserContext(), actorID(c), c.Params("id"), service.CategoryUpdateInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		IsActive:    req.IsActive,
		SortOrder:   req.SortOrder,
		Image:       req.Image,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "CATEGORY_UPDATED_SUCCESSFULLY", categoryResponse(category))
}

// Delete DELETE /v1/categories/:id.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteCategory(c.UserContext(), actorID(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "CATEGORY_DELETED_SUCCESSFULLY", nil)
}
