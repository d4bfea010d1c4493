package queries

import (
	"errors"

	"keepwise/domain/core/valueobjects"
	pkgerrors "keepwise/pkg/errors"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
	DefaultListLimit   = 50
	MaxListLimit       = 200
)

var errOwnerRequired = errors.New("owner ID is required")

// RecentMemoriesQuery asks for the owner's most recently updated memories
type RecentMemoriesQuery struct {
	OwnerID string
	Limit   int
}

// Validate validates the RecentMemoriesQuery
func (q RecentMemoriesQuery) Validate() error {
	if q.OwnerID == "" {
		return pkgerrors.NewUnauthorizedError(errOwnerRequired.Error())
	}
	return nil
}

// EffectiveLimit applies the default and the ceiling
func (q RecentMemoriesQuery) EffectiveLimit() int {
	return clampLimit(q.Limit, DefaultRecentLimit, MaxRecentLimit)
}

// ListMemoriesQuery filters and pages the owner's memories
type ListMemoriesQuery struct {
	OwnerID  string
	Query    string
	Type     string
	Category string
	Tag      string
	Priority string
	Limit    int
	Offset   int
}

// Validate validates the ListMemoriesQuery
func (q ListMemoriesQuery) Validate() error {
	if q.OwnerID == "" {
		return pkgerrors.NewUnauthorizedError(errOwnerRequired.Error())
	}
	if q.Type != "" {
		if _, err := valueobjects.ParseMemoryKind(q.Type); err != nil {
			return err
		}
	}
	if q.Priority != "" {
		if _, err := valueobjects.ParsePriority(q.Priority); err != nil {
			return err
		}
	}
	if q.Offset < 0 {
		return pkgerrors.NewFieldValidationError("offset", "offset must be greater than or equal to 0")
	}
	return nil
}

// EffectiveLimit applies the default and the ceiling
func (q ListMemoriesQuery) EffectiveLimit() int {
	return clampLimit(q.Limit, DefaultListLimit, MaxListLimit)
}

// ListMemoriesResult is one page of matches plus the total match count
type ListMemoriesResult struct {
	Items   []MemoryView `json:"items"`
	Total   int64        `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
	HasNext bool         `json:"hasNext"`
}

// GetMemoryQuery represents a query to get a single memory
type GetMemoryQuery struct {
	OwnerID  string
	MemoryID string
}

// Validate validates the GetMemoryQuery
func (q GetMemoryQuery) Validate() error {
	if q.OwnerID == "" {
		return pkgerrors.NewUnauthorizedError(errOwnerRequired.Error())
	}
	if q.MemoryID == "" {
		return pkgerrors.NewFieldValidationError("id", "id is required")
	}
	return nil
}

// ListCategoriesQuery lists the owner's categories
type ListCategoriesQuery struct {
	OwnerID string
}

// Validate validates the ListCategoriesQuery
func (q ListCategoriesQuery) Validate() error {
	if q.OwnerID == "" {
		return pkgerrors.NewUnauthorizedError(errOwnerRequired.Error())
	}
	return nil
}

// CategoryView is a category with its memory count
type CategoryView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// ListTagsQuery lists the tags used by the owner's memories
type ListTagsQuery struct {
	OwnerID string
}

// Validate validates the ListTagsQuery
func (q ListTagsQuery) Validate() error {
	if q.OwnerID == "" {
		return pkgerrors.NewUnauthorizedError(errOwnerRequired.Error())
	}
	return nil
}

// TagView is a tag with the number of the owner's memories carrying it
type TagView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
