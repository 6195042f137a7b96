package repotest

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(_ context.Context, category *domain.Category) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCategoryLocked(category.Slug, "", category.ParentID); err != nil {
		return err
	}
	category.ID = newID()
	category.CreatedAt = s.tick()
	category.UpdatedAt = category.CreatedAt
	stored := *category
	stored.Children = nil
	s.categories[category.ID] = stored
	return nil
}

func (r *categoryRepo) Update(_ context.Context, id string, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return pgx.ErrNoRows
	}
	for k, v := range changes {
		switch k {
		case domain.CategoryFieldName:
			c.Name = v.(string)
		case domain.CategoryFieldSlug:
			c.Slug = v.(string)
		case domain.CategoryFieldDescription:
			c.Description = v.(*string)
		case domain.CategoryFieldParentID:
			c.ParentID = v.(*string)
		case domain.CategoryFieldIsActive:
			c.IsActive = v.(bool)
		case domain.CategoryFieldSortOrder:
			c.SortOrder = v.(int)
		case domain.CategoryFieldImage:
			c.Image = v.(*string)
		default:
			return fmt.Errorf("unknown category column %q", k)
		}
	}
	if err := s.checkCategoryLocked(c.Slug, id, c.ParentID); err != nil {
		return err
	}
	c.UpdatedAt = s.tick()
	s.categories[id] = c
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			return foreignKeyViolation(repository.CategoryParentConstraint)
		}
	}
	delete(s.categories, id)
	return nil
}

func (r *categoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r *categoryRepo) Children(_ context.Context, id string) ([]domain.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	children := []domain.Category{}
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			children = append(children, c)
		}
	}
	slices.SortFunc(children, func(a, b domain.Category) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return children, nil
}

func (r *categoryRepo) CountChildren(_ context.Context, id string) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (r *categoryRepo) SlugTaken(_ context.Context, slug, exceptID string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Slug == slug && c.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *categoryRepo) AncestorIDs(_ context.Context, id string) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	c, ok := s.categories[id]
	for ok && c.ParentID != nil && len(ids) < 64 {
		ids = append(ids, *c.ParentID)
		c, ok = s.categories[*c.ParentID]
	}
	return ids, nil
}

func (r *categoryRepo) List(_ context.Context, p domain.ListParams) (domain.Page[domain.Category], error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []domain.Category{}
	for _, c := range s.categories {
		description := ""
		if c.Description != nil {
			description = *c.Description
		}
		if p.Search == "" || contains(c.Name, p.Search) || contains(description, p.Search) {
			items = append(items, c)
		}
	}
	if p.SortBy == "" && p.SortOrder == "" {
		p.SortOrder = domain.SortAsc
	}
	sortBy(items, p, "sort_order", func(c domain.Category, field string) string {
		switch field {
		case "name":
			return c.Name
		case "created_at":
			return stamp(c.CreatedAt)
		case "updated_at":
			return stamp(c.UpdatedAt)
		default:
			return fmt.Sprintf("%010d|%s", c.SortOrder, c.Name)
		}
	})
	return page(items, p), nil
}

func (s *Store) checkCategoryLocked(slug, exceptID string, parentID *string) error {
	for _, c := range s.categories {
		if c.Slug == slug && c.ID != exceptID {
			return uniqueViolation(repository.CategorySlugConstraint)
		}
	}
	if parentID != nil {
		if _, ok := s.categories[*parentID]; !ok {
			return foreignKeyViolation(repository.CategoryParentConstraint)
		}
	}
	return nil
}
