package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Timestamp time.Time `json:"timestamp"`
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Errors    any       `json:"errors,omitempty"`
}

// ListMeta describes the page a list response holds.
type ListMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

// List is the data payload of list endpoints.
type List[T any] struct {
	Items []T      `json:"items"`
	Meta  ListMeta `json:"meta"`
}

// NewList converts a page of domain values with conv.
func NewList[T, R any](page domain.Page[T], conv func(*T) R) List[R] {
	items := make([]R, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, conv(&page.Items[i]))
	}
	return List[R]{
		Items: items,
		Meta: ListMeta{
			CurrentPage: page.Page,
			PerPage:     page.PerPage,
			Total:       page.Total,
			LastPage:    page.LastPage(),
		},
	}
}
