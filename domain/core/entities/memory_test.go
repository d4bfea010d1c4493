package entities

import (
	"testing"
	"time"

	"keepwise/domain/core/valueobjects"
	"keepwise/domain/events"
	pkgerrors "keepwise/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLinkMemory(t *testing.T) {
	m, err := NewLinkMemory("user-1", "  Go blog ", "", LinkDetail{URL: "https://go.dev/blog"})
	require.NoError(t, err)

	assert.Equal(t, "Go blog", m.Title())
	assert.Equal(t, valueobjects.KindLink, m.Kind())
	assert.Equal(t, valueobjects.PriorityMedium, m.Priority())
	assert.NotNil(t, m.Link())
	assert.Nil(t, m.Idea())
	assert.Equal(t, m.CreatedAt(), m.UpdatedAt())

	evts := m.GetUncommittedEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, events.TypeMemoryCreated, evts[0].GetEventType())
}

func TestNewMemory_Validation(t *testing.T) {
	_, err := NewLinkMemory("", "T", "", LinkDetail{URL: "https://x.com"})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewLinkMemory("user-1", "   ", "", LinkDetail{URL: "https://x.com"})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewLinkMemory("user-1", "T", "", LinkDetail{})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewIdeaMemory("user-1", "", "", IdeaDetail{Content: "c"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestReplaceTags_ReplacesWholesale(t *testing.T) {
	m, err := NewIdeaMemory("user-1", "Idea", valueobjects.PriorityHigh, IdeaDetail{Content: "body"})
	require.NoError(t, err)

	m.ReplaceTags([]Tag{{ID: "1", Name: "x"}, {ID: "2", Name: "y"}})
	assert.Equal(t, []string{"x", "y"}, m.TagNames())

	m.ReplaceTags([]Tag{{ID: "3", Name: "z"}})
	assert.Equal(t, []string{"z"}, m.TagNames())

	created, ok := m.GetUncommittedEvents()[0].(events.MemoryCreated)
	require.True(t, ok)
	assert.Equal(t, []string{"z"}, created.Tags)
}

func TestAssignCategory(t *testing.T) {
	m, err := NewIdeaMemory("user-1", "Idea", "", IdeaDetail{Content: "body"})
	require.NoError(t, err)

	require.NoError(t, m.AssignCategory(&Category{ID: "c1", Name: "Work", OwnerID: "user-1"}))
	assert.Equal(t, "Work", m.Category().Name)

	err = m.AssignCategory(&Category{ID: "c2", Name: "Work", OwnerID: "user-2"})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, "c1", m.Category().ID)

	require.NoError(t, m.AssignCategory(nil))
	assert.Nil(t, m.Category())
}

func TestReviseIdea_Attachments(t *testing.T) {
	files := []Attachment{{Name: "a.png", URL: "https://cdn/a.png", Type: "image/png", Size: 10}}
	m, err := NewIdeaMemory("user-1", "Idea", "", IdeaDetail{Content: "v1", Attachments: files})
	require.NoError(t, err)
	before := m.UpdatedAt()

	require.NoError(t, m.ReviseIdea("Idea 2", valueobjects.PriorityLow, "v2", nil))
	assert.Equal(t, "v2", m.Idea().Content)
	assert.Len(t, m.Idea().Attachments, 1, "nil keeps existing files")
	assert.True(t, m.UpdatedAt().After(before))

	empty := []Attachment{}
	require.NoError(t, m.ReviseIdea("Idea 2", valueobjects.PriorityLow, "v3", &empty))
	assert.Empty(t, m.Idea().Attachments)

	last := m.GetUncommittedEvents()[len(m.GetUncommittedEvents())-1]
	updated, ok := last.(events.MemoryUpdated)
	require.True(t, ok)
	assert.Equal(t, "Idea 2", updated.NewTitle)
}

func TestRevise_WrongKind(t *testing.T) {
	m, err := NewIdeaMemory("user-1", "Idea", "", IdeaDetail{Content: "body"})
	require.NoError(t, err)

	err = m.ReviseLink("T", "", LinkDetail{URL: "https://x.com"})
	assert.Error(t, err)
	assert.Equal(t, "Idea", m.Title())
}

func TestReconstructMemory(t *testing.T) {
	id := valueobjects.NewMemoryID()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	m, err := ReconstructMemory(MemorySnapshot{
		ID:        id,
		OwnerID:   "user-1",
		Title:     "T",
		Kind:      valueobjects.KindLink,
		Link:      &LinkDetail{URL: "https://x.com"},
		Tags:      []Tag{{ID: "1", Name: "x"}},
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	require.NoError(t, err)
	assert.True(t, m.OwnedBy("user-1"))
	assert.False(t, m.OwnedBy("user-2"))
	assert.Empty(t, m.GetUncommittedEvents())
	assert.Equal(t, valueobjects.PriorityMedium, m.Priority())

	_, err = ReconstructMemory(MemorySnapshot{ID: id, OwnerID: "user-1", Kind: valueobjects.KindLink})
	assert.Error(t, err, "link without detail")

	_, err = ReconstructMemory(MemorySnapshot{
		ID:      id,
		OwnerID: "user-1",
		Kind:    valueobjects.KindIdea,
		Idea:    &IdeaDetail{},
		Link:    &LinkDetail{URL: "https://x.com"},
	})
	assert.Error(t, err, "both details")
}

func TestMarkDeleted(t *testing.T) {
	m, err := NewLinkMemory("user-1", "T", "", LinkDetail{URL: "https://x.com"})
	require.NoError(t, err)
	m.MarkEventsAsCommitted()

	m.MarkDeleted()
	evts := m.GetUncommittedEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, events.TypeMemoryDeleted, evts[0].GetEventType())
}
