package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"keepwise/application/commands"
	"keepwise/application/ports/mocks"
	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"
	"keepwise/domain/events"
	pkgerrors "keepwise/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingMetrics struct {
	saved   map[string]int
	deleted map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{saved: map[string]int{}, deleted: map[string]int{}}
}

func (m *countingMetrics) RecordMemorySaved(kind, operation string) { m.saved[kind+":"+operation]++ }
func (m *countingMetrics) RecordMemoryDeleted(kind string)          { m.deleted[kind]++ }

type fixture struct {
	repos     *mocks.MockRepositories
	uow       *mocks.MockUnitOfWork
	publisher *mocks.MockEventPublisher
	metrics   *countingMetrics
}

func newFixture() *fixture {
	repos := mocks.NewMockRepositories()
	return &fixture{
		repos:     repos,
		uow:       mocks.NewMockUnitOfWork(repos),
		publisher: &mocks.MockEventPublisher{},
		metrics:   newCountingMetrics(),
	}
}

func existingLink(t *testing.T, owner string) *entities.Memory {
	t.Helper()
	m, err := entities.ReconstructMemory(entities.MemorySnapshot{
		ID:       valueobjects.NewMemoryID(),
		OwnerID:  owner,
		Title:    "Old",
		Kind:     valueobjects.KindLink,
		Priority: valueobjects.PriorityLow,
		Tags:     []entities.Tag{{ID: "t1", Name: "x"}, {ID: "t2", Name: "y"}},
		Link:     &entities.LinkDetail{URL: "https://old.example.com"},
	})
	require.NoError(t, err)
	return m
}

func TestSaveLinkHandler_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	work := &entities.Category{ID: "c1", Name: "Work", OwnerID: "user-1"}
	f.repos.CategoryRepo.On("Resolve", mock.Anything, "Work", "user-1").Return(work, nil)
	f.repos.TagRepo.On("Reconcile", mock.Anything, []string{"a", "b", "c"}).
		Return([]entities.Tag{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}, {ID: "3", Name: "c"}}, nil)
	f.repos.MemoryRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Memory")).Return(nil)
	f.publisher.On("PublishBatch", mock.Anything, mock.Anything).Return(nil)

	handler := NewSaveLinkHandler(f.uow, f.publisher, f.metrics, zap.NewNop())
	m, err := handler.Handle(ctx, commands.SaveLinkCommand{
		OwnerID:  "user-1",
		Title:    "T",
		URL:      "https://x.com",
		Category: " Work ",
		Tags:     "a, b ,,c",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, m.TagNames())
	assert.Equal(t, "Work", m.Category().Name)
	assert.Equal(t, valueobjects.PriorityMedium, m.Priority())
	assert.Equal(t, 1, f.uow.Calls)
	assert.Equal(t, 1, f.metrics.saved["LINK:create"])
	assert.Empty(t, m.GetUncommittedEvents(), "events are committed after publish")

	published := f.publisher.Calls[0].Arguments.Get(1).([]events.DomainEvent)
	require.Len(t, published, 1)
	created := published[0].(events.MemoryCreated)
	assert.Equal(t, []string{"a", "b", "c"}, created.Tags)
	assert.Equal(t, "Work", created.Category)

	f.repos.AssertExpectations(t)
}

func TestSaveLinkHandler_ValidationFailsBeforeTransaction(t *testing.T) {
	f := newFixture()
	handler := NewSaveLinkHandler(f.uow, f.publisher, f.metrics, zap.NewNop())

	_, err := handler.Handle(context.Background(), commands.SaveLinkCommand{OwnerID: "user-1", URL: "nope"})
	require.Error(t, err)

	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Details, "title")
	assert.Contains(t, appErr.Details, "url")
	assert.Equal(t, 0, f.uow.Calls)

	_, err = handler.Handle(context.Background(), commands.SaveLinkCommand{
		OwnerID: "user-1", Title: "T", URL: "https://go.dev", Tags: "go," + strings.Repeat("x", 150),
	})
	appErr = pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Details, "tags")
	assert.Equal(t, 0, f.uow.Calls)
}

func TestSaveLinkHandler_UpdateReplacesTags(t *testing.T) {
	f := newFixture()
	existing := existingLink(t, "user-1")

	f.repos.MemoryRepo.On("GetByID", mock.Anything, existing.ID()).Return(existing, nil)
	f.repos.CategoryRepo.On("Resolve", mock.Anything, "", "user-1").Return(nil, nil)
	f.repos.TagRepo.On("Reconcile", mock.Anything, []string{"z"}).Return([]entities.Tag{{ID: "t3", Name: "z"}}, nil)
	f.repos.MemoryRepo.On("Update", mock.Anything, existing).Return(nil)
	f.publisher.On("PublishBatch", mock.Anything, mock.Anything).Return(errors.New("bus down"))

	handler := NewSaveLinkHandler(f.uow, f.publisher, f.metrics, zap.NewNop())
	m, err := handler.Handle(context.Background(), commands.SaveLinkCommand{
		MemoryID: existing.ID().String(),
		OwnerID:  "user-1",
		Title:    "New",
		URL:      "https://new.example.com",
		Tags:     "z",
		Priority: "HIGH",
	})
	require.NoError(t, err, "publish failures do not fail the save")

	assert.Equal(t, []string{"z"}, m.TagNames())
	assert.Equal(t, "New", m.Title())
	assert.Equal(t, "https://new.example.com", m.Link().URL)
	assert.Equal(t, valueobjects.PriorityHigh, m.Priority())
	assert.Nil(t, m.Category())
	assert.Equal(t, 1, f.metrics.saved["LINK:update"])
	f.repos.AssertExpectations(t)
}

func TestSaveLinkHandler_UpdateNotFoundOrForbidden(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, id valueobjects.MemoryID)
	}{
		{
			name: "owned by another user",
			setup: func(f *fixture, id valueobjects.MemoryID) {
				f.repos.MemoryRepo.On("GetByID", mock.Anything, id).Return(existingLink(t, "user-2"), nil)
			},
		},
		{
			name: "missing",
			setup: func(f *fixture, id valueobjects.MemoryID) {
				f.repos.MemoryRepo.On("GetByID", mock.Anything, id).Return(nil, pkgerrors.NewNotFoundError("memory"))
			},
		},
		{
			name: "wrong kind",
			setup: func(f *fixture, id valueobjects.MemoryID) {
				idea, err := entities.NewIdeaMemory("user-1", "Idea", "", entities.IdeaDetail{Content: "c"})
				require.NoError(t, err)
				f.repos.MemoryRepo.On("GetByID", mock.Anything, id).Return(idea, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			id := valueobjects.NewMemoryID()
			tt.setup(f, id)

			handler := NewSaveLinkHandler(f.uow, f.publisher, f.metrics, zap.NewNop())
			_, err := handler.Handle(context.Background(), commands.SaveLinkCommand{
				MemoryID: id.String(),
				OwnerID:  "user-1",
				Title:    "T",
				URL:      "https://x.com",
			})

			require.Error(t, err)
			assert.True(t, pkgerrors.IsNotFound(err))
			assert.False(t, pkgerrors.IsValidation(err))
			assert.True(t, f.uow.RolledBack)
			f.repos.MemoryRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			f.publisher.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
		})
	}
}

func TestSaveLinkHandler_StoreFailureRollsBack(t *testing.T) {
	f := newFixture()
	f.repos.CategoryRepo.On("Resolve", mock.Anything, "", "user-1").Return(nil, nil)
	f.repos.TagRepo.On("Reconcile", mock.Anything, []string{}).Return([]entities.Tag{}, nil)
	f.repos.MemoryRepo.On("Create", mock.Anything, mock.Anything).Return(pkgerrors.NewDatabaseError("create memory", errors.New("disk full")))

	handler := NewSaveLinkHandler(f.uow, f.publisher, f.metrics, zap.NewNop())
	_, err := handler.Handle(context.Background(), commands.SaveLinkCommand{OwnerID: "user-1", Title: "T", URL: "https://x.com"})

	assert.True(t, pkgerrors.IsDatabase(err))
	assert.True(t, f.uow.RolledBack)
	assert.Zero(t, f.metrics.saved["LINK:create"])
}

func TestSaveIdeaHandler_CreateWithAttachments(t *testing.T) {
	f := newFixture()
	f.repos.CategoryRepo.On("Resolve", mock.Anything, "", "user-1").Return(nil, nil)
	f.repos.TagRepo.On("Reconcile", mock.Anything, []string{}).Return([]entities.Tag{}, nil)
	f.repos.MemoryRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishBatch", mock.Anything, mock.Anything).Return(nil)

	handler := NewSaveIdeaHandler(f.uow, f.publisher, f.metrics, zap.NewNop())
	m, err := handler.Handle(context.Background(), commands.SaveIdeaCommand{
		OwnerID: "user-1",
		Title:   "Sketch",
		Content: "A thought",
		Attachments: []commands.AttachmentInput{
			{Name: "a.png", URL: "https://cdn.example.com/a.png", Type: "image/png", Size: 512},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, m.Idea())
	assert.Equal(t, "A thought", m.Idea().Content)
	require.Len(t, m.Idea().Attachments, 1)
	assert.Equal(t, int64(512), m.Idea().Attachments[0].Size)
	assert.Equal(t, 1, f.metrics.saved["IDEA:create"])
}

func TestDeleteMemoryHandler(t *testing.T) {
	t.Run("deletes owned memory", func(t *testing.T) {
		f := newFixture()
		existing := existingLink(t, "user-1")
		f.repos.MemoryRepo.On("GetByID", mock.Anything, existing.ID()).Return(existing, nil)
		f.repos.MemoryRepo.On("Delete", mock.Anything, existing.ID()).Return(nil)
		f.publisher.On("PublishBatch", mock.Anything, mock.MatchedBy(func(evts []events.DomainEvent) bool {
			return len(evts) == 1 && evts[0].GetEventType() == events.TypeMemoryDeleted
		})).Return(nil)

		handler := NewDeleteMemoryHandler(f.uow, f.publisher, f.metrics, zap.NewNop())
		err := handler.Handle(context.Background(), commands.DeleteMemoryCommand{
			MemoryID: existing.ID().String(),
			OwnerID:  "user-1",
			Kind:     "LINK",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, f.metrics.deleted["LINK"])
		f.publisher.AssertExpectations(t)
	})

	t.Run("foreign memory is not found", func(t *testing.T) {
		f := newFixture()
		existing := existingLink(t, "user-2")
		f.repos.MemoryRepo.On("GetByID", mock.Anything, existing.ID()).Return(existing, nil)

		handler := NewDeleteMemoryHandler(f.uow, f.publisher, f.metrics, zap.NewNop())
		err := handler.Handle(context.Background(), commands.DeleteMemoryCommand{
			MemoryID: existing.ID().String(),
			OwnerID:  "user-1",
			Kind:     "LINK",
		})
		assert.True(t, pkgerrors.IsNotFound(err))
		f.repos.MemoryRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("kind mismatch is not found", func(t *testing.T) {
		f := newFixture()
		existing := existingLink(t, "user-1")
		f.repos.MemoryRepo.On("GetByID", mock.Anything, existing.ID()).Return(existing, nil)

		handler := NewDeleteMemoryHandler(f.uow, f.publisher, f.metrics, zap.NewNop())
		err := handler.Handle(context.Background(), commands.DeleteMemoryCommand{
			MemoryID: existing.ID().String(),
			OwnerID:  "user-1",
			Kind:     "IDEA",
		})
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}
