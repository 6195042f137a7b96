package domain

import "time"

// Category is a node in the ticket category tree.
type Category struct {
	ID          string
	Name        string
	Slug        string
	Description *string
	ParentID    *string
	IsActive    bool
	SortOrder   int
	Image       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Children []Category
}

// Category columns that can be changed after creation.
const (
	CategoryFieldName        = "name"
	CategoryFieldSlug        = "slug"
	CategoryFieldDescription = "description"
	CategoryFieldParentID    = "parent_id"
	CategoryFieldIsActive    = "is_active"
	CategoryFieldSortOrder   = "sort_order"
	CategoryFieldImage       = "image"
)

// CategorySortFields lists the columns categories can be ordered by.
var CategorySortFields = []string{"sort_order", "name", "created_at", "updated_at"}
