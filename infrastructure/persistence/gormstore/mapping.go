package gormstore

import (
	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"
)

func toMemoryRecord(m *entities.Memory) *MemoryRecord {
	var categoryID *string
	if c := m.Category(); c != nil {
		id := c.ID
		categoryID = &id
	}

	return &MemoryRecord{
		ID:         m.ID().String(),
		OwnerID:    m.OwnerID(),
		Title:      m.Title(),
		Kind:       m.Kind().String(),
		Priority:   m.Priority().String(),
		CategoryID: categoryID,
		CreatedAt:  m.CreatedAt(),
		UpdatedAt:  m.UpdatedAt(),
	}
}

func toLinkRecord(memoryID string, link *entities.LinkDetail) *LinkDetailRecord {
	return &LinkDetailRecord{
		MemoryID:      memoryID,
		URL:           link.URL,
		Description:   link.Description,
		Author:        link.Author,
		Source:        link.Source,
		PersonalNotes: link.PersonalNotes,
	}
}

// categoryColumn is the category_id update value; nil clears the column
func categoryColumn(c *entities.Category) interface{} {
	if c == nil {
		return nil
	}
	return c.ID
}

func toEntity(rec *MemoryRecord) (*entities.Memory, error) {
	id, err := valueobjects.NewMemoryIDFromString(rec.ID)
	if err != nil {
		return nil, err
	}

	snapshot := entities.MemorySnapshot{
		ID:        id,
		OwnerID:   rec.OwnerID,
		Title:     rec.Title,
		Kind:      valueobjects.MemoryKind(rec.Kind),
		Priority:  valueobjects.Priority(rec.Priority),
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}

	if rec.Category != nil {
		snapshot.Category = &entities.Category{ID: rec.Category.ID, Name: rec.Category.Name, OwnerID: rec.Category.OwnerID}
	}

	snapshot.Tags = make([]entities.Tag, 0, len(rec.Tags))
	for _, t := range rec.Tags {
		snapshot.Tags = append(snapshot.Tags, entities.Tag{ID: t.ID, Name: t.Name})
	}

	if rec.Link != nil {
		snapshot.Link = &entities.LinkDetail{
			URL:           rec.Link.URL,
			Description:   rec.Link.Description,
			Author:        rec.Link.Author,
			Source:        rec.Link.Source,
			PersonalNotes: rec.Link.PersonalNotes,
		}
	}

	if rec.Idea != nil {
		attachments := make([]entities.Attachment, 0, len(rec.Idea.Files))
		for _, f := range rec.Idea.Files {
			attachments = append(attachments, entities.Attachment{Name: f.Name, URL: f.URL, Type: f.Type, Size: f.Size})
		}
		snapshot.Idea = &entities.IdeaDetail{Content: rec.Idea.Content, Attachments: attachments}
	}

	return entities.ReconstructMemory(snapshot)
}

func toEntities(recs []MemoryRecord) ([]*entities.Memory, error) {
	out := make([]*entities.Memory, 0, len(recs))
	for i := range recs {
		m, err := toEntity(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
