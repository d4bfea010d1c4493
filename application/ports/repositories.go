package ports

import (
	"context"

	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"
	"keepwise/domain/events"
)

// MemoryRepository defines the interface for memory persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type MemoryRepository interface {
	// Create inserts the memory header, its detail row and tag links
	Create(ctx context.Context, memory *entities.Memory) error

	// Update rewrites the header, replaces tag links and updates the existing detail row
	Update(ctx context.Context, memory *entities.Memory) error

	// GetByID retrieves a memory with tags, category and detail loaded
	GetByID(ctx context.Context, id valueobjects.MemoryID) (*entities.Memory, error)

	// Delete removes the memory, its detail, files and tag links
	Delete(ctx context.Context, id valueobjects.MemoryID) error

	// ListRecent returns the owner's memories, most recently updated first
	ListRecent(ctx context.Context, ownerID string, limit int) ([]*entities.Memory, error)

	// Search returns one page of the owner's memories and the total match count
	Search(ctx context.Context, filter MemoryFilter) ([]*entities.Memory, int64, error)

	// TagUsage counts how many of the owner's memories carry each tag
	TagUsage(ctx context.Context, ownerID string) ([]TagCount, error)
}

// TagRepository reconciles free-text tag names with stored tags
type TagRepository interface {
	// Reconcile finds or creates a tag for each name, by exact name
	Reconcile(ctx context.Context, names []string) ([]entities.Tag, error)
}

// CategoryRepository resolves owner-scoped categories
type CategoryRepository interface {
	// Resolve finds or creates the (name, owner) category; an empty name yields nil
	Resolve(ctx context.Context, name, ownerID string) (*entities.Category, error)

	// ListByOwner returns the owner's categories with memory counts
	ListByOwner(ctx context.Context, ownerID string) ([]CategoryCount, error)
}

// Repositories groups the repositories bound to one transaction
type Repositories interface {
	Memories() MemoryRepository
	Tags() TagRepository
	Categories() CategoryRepository
}

// UnitOfWork defines a transaction boundary. fn runs against repositories
// bound to a single store transaction; returning an error rolls it back.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// MemoryFilter defines search parameters
type MemoryFilter struct {
	OwnerID  string
	Query    string
	Kind     valueobjects.MemoryKind
	Category string
	Tag      string
	Priority valueobjects.Priority
	Limit    int
	Offset   int
}

// CategoryCount is a category plus the number of memories filed under it
type CategoryCount struct {
	Category entities.Category
	Count    int64
}

// TagCount is a tag plus the number of the owner's memories carrying it
type TagCount struct {
	Tag   entities.Tag
	Count int64
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
