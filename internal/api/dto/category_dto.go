package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order" validate:"omitempty,gte=0"`
	Image       *string `json:"image" validate:"omitempty,max=2048"`
}

// UpdateCategoryRequest is a partial update; null clears optional columns.
type UpdateCategoryRequest struct {
	Name        util.Optional[string] `json:"name" validate:"omitempty,max=255"`
	Description util.Optional[string] `json:"description"`
	ParentID    util.Optional[string] `json:"parent_id" validate:"omitempty,uuid"`
	IsActive    util.Optional[bool]   `json:"is_active"`
	SortOrder   util.Optional[int]    `json:"sort_order" validate:"omitempty,gte=0"`
	Image       util.Optional[string] `json:"image" validate:"omitempty,max=2048"`
}

// CategoryResponse describes a category and, on single reads, its direct children.
type CategoryResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Description *string            `json:"description"`
	ParentID    *string            `json:"parent_id"`
	IsActive    bool               `json:"is_active"`
	SortOrder   int                `json:"sort_order"`
	Image       *string            `json:"image"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Children    []CategoryResponse `json:"children,omitempty"`
}

// ActivityResponse is one audit log entry.
type ActivityResponse struct {
	ID          string         `json:"id"`
	LogName     string         `json:"log_name"`
	Description string         `json:"description"`
	SubjectType string         `json:"subject_type"`
	SubjectID   string         `json:"subject_id"`
	CauserID    *string        `json:"causer_id"`
	Event       string         `json:"event"`
	Properties  map[string]any `json:"properties"`
	CreatedAt   time.Time      `json:"created_at"`
}
