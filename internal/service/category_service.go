package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const maxSlugSuffix = 1000

// CategoryService manages the category tree.
type CategoryService struct {
	categories repository.CategoryRepository
	tx         TxRunner
	audit      Auditor
}

// CategoryDependencies bundles collaborators for the category service.
type CategoryDependencies struct {
	CategoryRepo repository.CategoryRepository
	Tx           TxRunner
	Auditor      Auditor
}

// CategoryCreateInput describes a new category.
type CategoryCreateInput struct {
	Name        string
	Description *string
	ParentID    *string
	IsActive    *bool
	SortOrder   *int
	Image       *string
}

// CategoryUpdateInput carries the fields present in a partial update.
type CategoryUpdateInput struct {
	Name        util.Optional[string]
	Description util.Optional[string]
	ParentID    util.Optional[string]
	IsActive    util.Optional[bool]
	SortOrder   util.Optional[int]
	Image       util.Optional[string]
}

// NewCategoryService constructs the service.
func NewCategoryService(deps CategoryDependencies) *CategoryService {
	return &CategoryService{categories: deps.CategoryRepo, tx: deps.Tx, audit: deps.Auditor}
}

// ListCategories returns a page of categories ordered by sort_order by default.
func (s *CategoryService) ListCategories(ctx context.Context, params domain.ListParams) (domain.Page[domain.Category], error) {
	params, err := listParams(params, domain.CategorySortFields, "sort_order", domain.SortAsc)
	if err != nil {
		return domain.Page[domain.Category]{}, err
	}
	page, err := s.categories.List(ctx, params)
	if err != nil {
		return domain.Page[domain.Category]{}, apperrors.NewInternalError(err)
	}
	return page, nil
}

// GetCategory loads a category with its direct children.
func (s *CategoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("category")
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err, "category")
	}
	if category.Children, err = s.categories.Children(ctx, id); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return category, nil
}

// CreateCategory adds a category with a slug derived from its name.
func (s *CategoryService) CreateCategory(ctx context.Context, actorID string, input CategoryCreateInput) (*domain.Category, error) {
	category := &domain.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: trimmedOrNil(input.Description),
		ParentID:    input.ParentID,
		IsActive:    true,
		Image:       trimmedOrNil(input.Image),
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		details := map[string]any{}
		if category.Name == "" {
			details["name"] = []string{"The name field is required."}
		}
		if err := s.checkParent(ctx, details, "", category.ParentID); err != nil {
			return err
		}
		if len(details) > 0 {
			return apperrors.NewValidationError("validation failed", details)
		}
		slug, err := s.uniqueSlug(ctx, category.Name, "")
		if err != nil {
			return err
		}
		category.Slug = slug

		if err := s.categories.Create(ctx, category); err != nil {
			return categoryConstraint(err)
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogCategory,
			Description: "Created category: " + category.Name,
			SubjectID:   category.ID,
			CauserID:    causer(actorID),
			Event:       domain.ActivityCreated,
			Properties:  map[string]any{"attributes": categoryAttributes(category)},
		})
	})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return s.GetCategory(ctx, category.ID)
}

// UpdateCategory applies a partial update; a rename re-derives the slug.
func (s *CategoryService) UpdateCategory(ctx context.Context, actorID, id string, input CategoryUpdateInput) (*domain.Category, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("category")
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.categories.GetByID(ctx, id)
		if err != nil {
			return apperrors.MapError(err, "category")
		}

		details := map[string]any{}
		next := *current
		if input.Name.Set {
			next.Name = strings.TrimSpace(input.Name.Value)
			if next.Name == "" {
				details["name"] = []string{"The name field is required."}
			}
		}
		if input.Description.Set {
			next.Description = trimmedOrNil(input.Description.Ptr())
		}
		if input.ParentID.Set {
			next.ParentID = input.ParentID.Ptr()
			if err := s.checkParent(ctx, details, id, next.ParentID); err != nil {
				return err
			}
		}
		if input.IsActive.Set && !input.IsActive.Null {
			next.IsActive = input.IsActive.Value
		}
		if input.SortOrder.Set && !input.SortOrder.Null {
			next.SortOrder = input.SortOrder.Value
		}
		if input.Image.Set {
			next.Image = trimmedOrNil(input.Image.Ptr())
		}
		if len(details) > 0 {
			return apperrors.NewValidationError("validation failed", details)
		}
		if next.Name != current.Name {
			if next.Slug, err = s.uniqueSlug(ctx, next.Name, id); err != nil {
				return err
			}
		}

		changes, attrs, old := diffCategory(current, &next)
		if len(changes) == 0 {
			return nil
		}
		if err := s.categories.Update(ctx, id, changes); err != nil {
			return apperrors.MapError(categoryConstraint(err), "category")
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogCategory,
			Description: "Updated category: " + next.Name,
			SubjectID:   id,
			CauserID:    causer(actorID),
			Event:       domain.ActivityUpdated,
			Properties:  map[string]any{"attributes": attrs, "old": old},
		})
	})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a leaf category.
func (s *CategoryService) DeleteCategory(ctx context.Context, actorID, id string) error {
	if !validID(id) {
		return apperrors.NewNotFound("category")
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		category, err := s.categories.GetByID(ctx, id)
		if err != nil {
			return apperrors.MapError(err, "category")
		}
		children, err := s.categories.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return apperrors.NewConflict(fmt.Sprintf("category has %d child categories", children))
		}
		if err := s.categories.Delete(ctx, id); err != nil {
			return apperrors.MapError(categoryConstraint(err), "category")
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogCategory,
			Description: "Deleted category: " + category.Name,
			SubjectID:   id,
			CauserID:    causer(actorID),
			Event:       domain.ActivityDeleted,
			Properties:  map[string]any{"attributes": categoryAttributes(category)},
		})
	})
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	return nil
}

// checkParent requires parentID to exist and, for an existing category, not to sit below it.
func (s *CategoryService) checkParent(ctx context.Context, details map[string]any, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		details["parent_id"] = []string{"A category cannot be its own parent."}
		return nil
	}
	if !validID(*parentID) {
		details["parent_id"] = []string{"The selected parent_id is invalid."}
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *parentID); err != nil {
		if apperrors.IsNotFound(err) {
			details["parent_id"] = []string{"The selected parent_id is invalid."}
			return nil
		}
		return err
	}
	if id == "" {
		return nil
	}
	ancestors, err := s.categories.AncestorIDs(ctx, *parentID)
	if err != nil {
		return err
	}
	if slices.Contains(ancestors, id) {
		details["parent_id"] = []string{"A category cannot be moved under one of its descendants."}
	}
	return nil
}

func (s *CategoryService) uniqueSlug(ctx context.Context, name, exceptID string) (string, error) {
	base := util.Slugify(name)
	if base == "" {
		return "", apperrors.NewFieldError("name", "The name must contain at least one letter or number.")
	}
	candidate := base
	for n := 2; n <= maxSlugSuffix; n++ {
		taken, err := s.categories.SlugTaken(ctx, candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
	return "", apperrors.NewFieldError("name", "The name has already been taken.")
}

func diffCategory(current, next *domain.Category) (changes, attrs, old map[string]any) {
	changes, attrs, old = map[string]any{}, map[string]any{}, map[string]any{}
	set := func(column string, value, audited, previous any) {
		changes[column] = value
		attrs[column] = audited
		old[column] = previous
	}
	if next.Name != current.Name {
		set(domain.CategoryFieldName, next.Name, next.Name, current.Name)
	}
	if next.Slug != current.Slug {
		set(domain.CategoryFieldSlug, next.Slug, next.Slug, current.Slug)
	}
	if !equalPtr(next.Description, current.Description) {
		set(domain.CategoryFieldDescription, next.Description, nullable(next.Description), nullable(current.Description))
	}
	if !equalPtr(next.ParentID, current.ParentID) {
		set(domain.CategoryFieldParentID, next.ParentID, nullable(next.ParentID), nullable(current.ParentID))
	}
	if next.IsActive != current.IsActive {
		set(domain.CategoryFieldIsActive, next.IsActive, next.IsActive, current.IsActive)
	}
	if next.SortOrder != current.SortOrder {
		set(domain.CategoryFieldSortOrder, next.SortOrder, next.SortOrder, current.SortOrder)
	}
	if !equalPtr(next.Image, current.Image) {
		set(domain.CategoryFieldImage, next.Image, nullable(next.Image), nullable(current.Image))
	}
	return changes, attrs, old
}

func categoryAttributes(c *domain.Category) map[string]any {
	return map[string]any{
		"name":        c.Name,
		"slug":        c.Slug,
		"description": nullable(c.Description),
		"parent_id":   nullable(c.ParentID),
		"is_active":   c.IsActive,
		"sort_order":  c.SortOrder,
		"image":       nullable(c.Image),
	}
}

func categoryConstraint(err error) error {
	switch {
	case apperrors.IsUniqueViolation(err, repository.CategorySlugConstraint):
		return apperrors.NewConflict("The slug has already been taken.")
	case apperrors.IsForeignKeyViolation(err, repository.CategoryParentConstraint):
		return apperrors.NewConflict("category parent constraint violated")
	}
	return err
}
