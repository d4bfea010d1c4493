package queries

import (
	"encoding/json"
	"testing"
	"time"

	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryView_Link(t *testing.T) {
	m, err := entities.NewLinkMemory("user-1", "T", "", entities.LinkDetail{URL: "https://x.com", Author: "ann"})
	require.NoError(t, err)
	m.ReplaceTags([]entities.Tag{{ID: "2", Name: "y"}, {ID: "1", Name: "x"}})

	data, err := json.Marshal(NewMemoryView(m))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "LINK", decoded["type"])
	assert.Equal(t, "https://x.com", decoded["url"])
	assert.Equal(t, "ann", decoded["author"])
	assert.Equal(t, []interface{}{"x", "y"}, decoded["tags"])
	assert.NotContains(t, decoded, "category")
	assert.NotContains(t, decoded, "content")
	assert.NotContains(t, decoded, "attachments")
}

func TestNewMemoryView_Idea(t *testing.T) {
	created := time.Date(2024, 3, 9, 10, 11, 12, 345000000, time.UTC)
	m, err := entities.ReconstructMemory(entities.MemorySnapshot{
		ID:       valueobjects.NewMemoryID(),
		OwnerID:  "user-1",
		Title:    "Idea",
		Kind:     valueobjects.KindIdea,
		Priority: valueobjects.PriorityHigh,
		Category: &entities.Category{ID: "c", Name: "Work", OwnerID: "user-1"},
		Idea: &entities.IdeaDetail{
			Content:     "body",
			Attachments: []entities.Attachment{{Name: "a.png", URL: "https://cdn/a.png", Type: "image/png", Size: 3}},
		},
		CreatedAt: created,
		UpdatedAt: created,
	})
	require.NoError(t, err)

	view := NewMemoryView(m)
	require.NotNil(t, view.Category)
	assert.Equal(t, "Work", *view.Category)
	assert.Equal(t, "2024-03-09T10:11:12.345Z", view.CreatedAt)
	assert.Nil(t, view.LinkFields)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "body", decoded["content"])
	assert.Equal(t, "Work", decoded["category"])
	assert.NotContains(t, decoded, "url")
	attachments := decoded["attachments"].([]interface{})
	require.Len(t, attachments, 1)
	assert.Equal(t, "a.png", attachments[0].(map[string]interface{})["name"])
	assert.Equal(t, float64(3), attachments[0].(map[string]interface{})["size"])
}

func TestNewMemoryViews_Dedupes(t *testing.T) {
	a, err := entities.NewIdeaMemory("user-1", "A", "", entities.IdeaDetail{Content: "a"})
	require.NoError(t, err)
	b, err := entities.NewIdeaMemory("user-1", "B", "", entities.IdeaDetail{Content: "b"})
	require.NoError(t, err)

	views := NewMemoryViews([]*entities.Memory{a, b, a, nil})
	require.Len(t, views, 2)
	assert.Equal(t, "A", views[0].Title)
	assert.Equal(t, "B", views[1].Title)
	assert.NotNil(t, views[0].Attachments, "attachments always serialize as a list")
}

func TestEffectiveLimits(t *testing.T) {
	assert.Equal(t, DefaultRecentLimit, RecentMemoriesQuery{}.EffectiveLimit())
	assert.Equal(t, DefaultRecentLimit, RecentMemoriesQuery{Limit: -3}.EffectiveLimit())
	assert.Equal(t, 5, RecentMemoriesQuery{Limit: 5}.EffectiveLimit())
	assert.Equal(t, MaxListLimit, ListMemoriesQuery{Limit: 10000}.EffectiveLimit())
}
