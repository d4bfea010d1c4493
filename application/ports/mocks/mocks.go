// Package mocks holds testify mocks for the application ports.
package mocks

import (
	"context"

	"keepwise/application/ports"
	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"
	"keepwise/domain/events"

	"github.com/stretchr/testify/mock"
)

type MockMemoryRepository struct {
	mock.Mock
}

func (m *MockMemoryRepository) Create(ctx context.Context, memory *entities.Memory) error {
	args := m.Called(ctx, memory)
	return args.Error(0)
}

func (m *MockMemoryRepository) Update(ctx context.Context, memory *entities.Memory) error {
	args := m.Called(ctx, memory)
	return args.Error(0)
}

func (m *MockMemoryRepository) GetByID(ctx context.Context, id valueobjects.MemoryID) (*entities.Memory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Memory), args.Error(1)
}

func (m *MockMemoryRepository) Delete(ctx context.Context, id valueobjects.MemoryID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMemoryRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]*entities.Memory, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Memory), args.Error(1)
}

func (m *MockMemoryRepository) Search(ctx context.Context, filter ports.MemoryFilter) ([]*entities.Memory, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Memory), args.Get(1).(int64), args.Error(2)
}

func (m *MockMemoryRepository) TagUsage(ctx context.Context, ownerID string) ([]ports.TagCount, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.TagCount), args.Error(1)
}

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) Reconcile(ctx context.Context, names []string) ([]entities.Tag, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Tag), args.Error(1)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Resolve(ctx context.Context, name, ownerID string) (*entities.Category, error) {
	args := m.Called(ctx, name, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]ports.CategoryCount, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.CategoryCount), args.Error(1)
}

// MockRepositories hands out the embedded mocks
type MockRepositories struct {
	MemoryRepo   *MockMemoryRepository
	TagRepo      *MockTagRepository
	CategoryRepo *MockCategoryRepository
}

// NewMockRepositories creates a set of fresh mocks
func NewMockRepositories() *MockRepositories {
	return &MockRepositories{
		MemoryRepo:   &MockMemoryRepository{},
		TagRepo:      &MockTagRepository{},
		CategoryRepo: &MockCategoryRepository{},
	}
}

func (r *MockRepositories) Memories() ports.MemoryRepository     { return r.MemoryRepo }
func (r *MockRepositories) Tags() ports.TagRepository            { return r.TagRepo }
func (r *MockRepositories) Categories() ports.CategoryRepository { return r.CategoryRepo }

// AssertExpectations checks every embedded mock
func (r *MockRepositories) AssertExpectations(t mock.TestingT) {
	r.MemoryRepo.AssertExpectations(t)
	r.TagRepo.AssertExpectations(t)
	r.CategoryRepo.AssertExpectations(t)
}

// MockUnitOfWork runs fn directly against Repos and records whether it was
// rolled back, i.e. whether fn failed.
type MockUnitOfWork struct {
	Repos      *MockRepositories
	Calls      int
	RolledBack bool
}

// NewMockUnitOfWork wraps repos in a unit of work
func NewMockUnitOfWork(repos *MockRepositories) *MockUnitOfWork {
	return &MockUnitOfWork{Repos: repos}
}

func (u *MockUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	u.Calls++
	if err := fn(ctx, u.Repos); err != nil {
		u.RolledBack = true
		return err
	}
	return nil
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

type MockMetadataExtractor struct {
	mock.Mock
}

func (m *MockMetadataExtractor) Extract(ctx context.Context, rawURL string) ports.LinkMetadata {
	args := m.Called(ctx, rawURL)
	return args.Get(0).(ports.LinkMetadata)
}
