package handlers

import (
	"context"

	"keepwise/application/ports"
	"keepwise/application/queries"
	"keepwise/domain/core/valueobjects"
	pkgerrors "keepwise/pkg/errors"

	"go.uber.org/zap"
)

// RecentMemoriesHandler serves the recent-saves projection
type RecentMemoriesHandler struct {
	memories ports.MemoryRepository
	logger   *zap.Logger
}

// NewRecentMemoriesHandler creates a new handler instance
func NewRecentMemoriesHandler(memories ports.MemoryRepository, logger *zap.Logger) *RecentMemoriesHandler {
	return &RecentMemoriesHandler{memories: memories, logger: logger}
}

// Handle returns at most the effective limit of views, newest update first
func (h *RecentMemoriesHandler) Handle(ctx context.Context, query queries.RecentMemoriesQuery) ([]queries.MemoryView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	limit := query.EffectiveLimit()
	memories, err := h.memories.ListRecent(ctx, query.OwnerID, limit)
	if err != nil {
		return nil, err
	}

	views := queries.NewMemoryViews(memories)
	if len(views) > limit {
		views = views[:limit]
	}

	h.logger.Debug("Recent memories fetched",
		zap.String("ownerID", query.OwnerID),
		zap.Int("limit", limit),
		zap.Int("count", len(views)),
	)
	return views, nil
}

// ListMemoriesHandler serves the filterable memory table
type ListMemoriesHandler struct {
	memories ports.MemoryRepository
}

// NewListMemoriesHandler creates a new handler instance
func NewListMemoriesHandler(memories ports.MemoryRepository) *ListMemoriesHandler {
	return &ListMemoriesHandler{memories: memories}
}

// Handle executes the list memories query
func (h *ListMemoriesHandler) Handle(ctx context.Context, query queries.ListMemoriesQuery) (*queries.ListMemoriesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter := ports.MemoryFilter{
		OwnerID:  query.OwnerID,
		Query:    query.Query,
		Category: valueobjects.NormalizeCategoryName(query.Category),
		Tag:      query.Tag,
		Limit:    query.EffectiveLimit(),
		Offset:   query.Offset,
	}
	if query.Type != "" {
		filter.Kind, _ = valueobjects.ParseMemoryKind(query.Type)
	}
	if query.Priority != "" {
		filter.Priority, _ = valueobjects.ParsePriority(query.Priority)
	}

	memories, total, err := h.memories.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &queries.ListMemoriesResult{
		Items:   queries.NewMemoryViews(memories),
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		HasNext: int64(filter.Offset+filter.Limit) < total,
	}, nil
}

// GetMemoryHandler serves a single owned memory
type GetMemoryHandler struct {
	memories ports.MemoryRepository
}

// NewGetMemoryHandler creates a new handler instance
func NewGetMemoryHandler(memories ports.MemoryRepository) *GetMemoryHandler {
	return &GetMemoryHandler{memories: memories}
}

// Handle executes the get memory query. Memories of other owners are
// reported as not found.
func (h *GetMemoryHandler) Handle(ctx context.Context, query queries.GetMemoryQuery) (*queries.MemoryView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	id, err := valueobjects.NewMemoryIDFromString(query.MemoryID)
	if err != nil {
		return nil, pkgerrors.NewFieldValidationError("id", "id must be a valid UUID")
	}

	m, err := h.memories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.OwnedBy(query.OwnerID) {
		return nil, pkgerrors.NewNotFoundError("memory")
	}

	view := queries.NewMemoryView(m)
	return &view, nil
}

// ListCategoriesHandler serves the owner's categories
type ListCategoriesHandler struct {
	categories ports.CategoryRepository
}

// NewListCategoriesHandler creates a new handler instance
func NewListCategoriesHandler(categories ports.CategoryRepository) *ListCategoriesHandler {
	return &ListCategoriesHandler{categories: categories}
}

// Handle executes the list categories query
func (h *ListCategoriesHandler) Handle(ctx context.Context, query queries.ListCategoriesQuery) ([]queries.CategoryView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	counts, err := h.categories.ListByOwner(ctx, query.OwnerID)
	if err != nil {
		return nil, err
	}

	views := make([]queries.CategoryView, 0, len(counts))
	for _, c := range counts {
		views = append(views, queries.CategoryView{ID: c.Category.ID, Name: c.Category.Name, Count: c.Count})
	}
	return views, nil
}

// ListTagsHandler serves the tags in use by the owner
type ListTagsHandler struct {
	memories ports.MemoryRepository
}

// NewListTagsHandler creates a new handler instance
func NewListTagsHandler(memories ports.MemoryRepository) *ListTagsHandler {
	return &ListTagsHandler{memories: memories}
}

// Handle executes the list tags query
func (h *ListTagsHandler) Handle(ctx context.Context, query queries.ListTagsQuery) ([]queries.TagView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	counts, err := h.memories.TagUsage(ctx, query.OwnerID)
	if err != nil {
		return nil, err
	}

	views := make([]queries.TagView, 0, len(counts))
	for _, c := range counts {
		views = append(views, queries.TagView{ID: c.Tag.ID, Name: c.Tag.Name, Count: c.Count})
	}
	return views, nil
}
