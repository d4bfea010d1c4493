package gormstore

import (
	"context"
	"errors"
	"strings"

	"keepwise/application/ports"
	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"
	pkgerrors "keepwise/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type memoryRepository struct {
	db *gorm.DB
}

func (r *memoryRepository) Create(ctx context.Context, m *entities.Memory) error {
	db := r.db.WithContext(ctx)

	rec := toMemoryRecord(m)
	if err := db.Omit(clause.Associations).Create(rec).Error; err != nil {
		return mapError("create memory", "memory", err)
	}

	switch m.Kind() {
	case valueobjects.KindLink:
		if err := db.Create(toLinkRecord(rec.ID, m.Link())).Error; err != nil {
			return mapError("create link detail", "memory", err)
		}
	case valueobjects.KindIdea:
		idea := m.Idea()
		detail := &IdeaDetailRecord{MemoryID: rec.ID, Content: idea.Content}
		if err := db.Omit(clause.Associations).Create(detail).Error; err != nil {
			return mapError("create idea detail", "memory", err)
		}
		if err := createFiles(db, detail.ID, idea.Attachments); err != nil {
			return err
		}
	}

	return linkTags(db, rec.ID, m.Tags())
}

// Update rewrites the header and the existing detail row, and replaces the
// tag links wholesale.
func (r *memoryRepository) Update(ctx context.Context, m *entities.Memory) error {
	db := r.db.WithContext(ctx)
	id := m.ID().String()

	res := db.Model(&MemoryRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":       m.Title(),
		"priority":    m.Priority().String(),
		"category_id": categoryColumn(m.Category()),
		"updated_at":  m.UpdatedAt(),
	})
	if res.Error != nil {
		return mapError("update memory", "memory", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewNotFoundError("memory")
	}

	switch m.Kind() {
	case valueobjects.KindLink:
		link := m.Link()
		res := db.Model(&LinkDetailRecord{}).Where("memory_id = ?", id).Updates(map[string]interface{}{
			"url":            link.URL,
			"description":    link.Description,
			"author":         link.Author,
			"source":         link.Source,
			"personal_notes": link.PersonalNotes,
		})
		if res.Error != nil {
			return mapError("update link detail", "memory", res.Error)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.NewInternalError("link memory " + id + " has no detail row")
		}
	case valueobjects.KindIdea:
		idea := m.Idea()
		var detail IdeaDetailRecord
		if err := db.Where("memory_id = ?", id).First(&detail).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NewInternalError("idea memory " + id + " has no detail row")
			}
			return mapError("load idea detail", "memory", err)
		}
		if err := db.Model(&IdeaDetailRecord{}).Where("id = ?", detail.ID).Update("content", idea.Content).Error; err != nil {
			return mapError("update idea detail", "memory", err)
		}
		if err := db.Where("idea_detail_id = ?", detail.ID).Delete(&FileRecord{}).Error; err != nil {
			return mapError("delete files", "memory", err)
		}
		if err := createFiles(db, detail.ID, idea.Attachments); err != nil {
			return err
		}
	}

	if err := db.Where("memory_id = ?", id).Delete(&MemoryTagRecord{}).Error; err != nil {
		return mapError("clear memory tags", "memory", err)
	}
	return linkTags(db, id, m.Tags())
}

func (r *memoryRepository) GetByID(ctx context.Context, id valueobjects.MemoryID) (*entities.Memory, error) {
	var rec MemoryRecord
	err := withAssociations(r.db.WithContext(ctx)).
		Where("id = ?", id.String()).
		First(&rec).Error
	if err != nil {
		return nil, mapError("get memory", "memory", err)
	}
	return toEntity(&rec)
}

// Delete removes the memory with its detail, files and tag links. Tags and
// categories are shared reference data and stay.
func (r *memoryRepository) Delete(ctx context.Context, id valueobjects.MemoryID) error {
	db := r.db.WithContext(ctx)
	memoryID := id.String()

	ideaDetails := db.Model(&IdeaDetailRecord{}).Select("id").Where("memory_id = ?", memoryID)
	if err := db.Where("idea_detail_id IN (?)", ideaDetails).Delete(&FileRecord{}).Error; err != nil {
		return mapError("delete files", "memory", err)
	}
	if err := db.Where("memory_id = ?", memoryID).Delete(&IdeaDetailRecord{}).Error; err != nil {
		return mapError("delete idea detail", "memory", err)
	}
	if err := db.Where("memory_id = ?", memoryID).Delete(&LinkDetailRecord{}).Error; err != nil {
		return mapError("delete link detail", "memory", err)
	}
	if err := db.Where("memory_id = ?", memoryID).Delete(&MemoryTagRecord{}).Error; err != nil {
		return mapError("delete memory tags", "memory", err)
	}

	res := db.Where("id = ?", memoryID).Delete(&MemoryRecord{})
	if res.Error != nil {
		return mapError("delete memory", "memory", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewNotFoundError("memory")
	}
	return nil
}

func (r *memoryRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]*entities.Memory, error) {
	var recs []MemoryRecord
	err := withAssociations(r.db.WithContext(ctx)).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, mapError("list recent memories", "memory", err)
	}
	return toEntities(recs)
}

func (r *memoryRepository) Search(ctx context.Context, f ports.MemoryFilter) ([]*entities.Memory, int64, error) {
	db := r.db.WithContext(ctx)

	q := db.Model(&MemoryRecord{}).Where("memories.owner_id = ?", f.OwnerID)
	if f.Kind != "" {
		q = q.Where("memories.kind = ?", f.Kind.String())
	}
	if f.Priority != "" {
		q = q.Where("memories.priority = ?", f.Priority.String())
	}
	if f.Category != "" {
		q = q.Where("memories.category_id IN (?)",
			db.Model(&CategoryRecord{}).Select("id").Where("owner_id = ? AND name = ?", f.OwnerID, f.Category))
	}
	if f.Tag != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM memory_tags mt JOIN tags t ON t.id = mt.tag_id
			WHERE mt.memory_id = memories.id AND t.name = ?)`, strings.TrimSpace(f.Tag))
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where(`(LOWER(memories.title) LIKE ?
			OR EXISTS (SELECT 1 FROM link_details ld WHERE ld.memory_id = memories.id
				AND (LOWER(ld.url) LIKE ? OR LOWER(ld.description) LIKE ? OR LOWER(ld.personal_notes) LIKE ?))
			OR EXISTS (SELECT 1 FROM idea_details idd WHERE idd.memory_id = memories.id AND LOWER(idd.content) LIKE ?)
			OR EXISTS (SELECT 1 FROM memory_tags mt JOIN tags t ON t.id = mt.tag_id
				WHERE mt.memory_id = memories.id AND LOWER(t.name) LIKE ?))`,
			like, like, like, like, like, like)
	}

	base := q.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, mapError("count memories", "memory", err)
	}
	if total == 0 {
		return []*entities.Memory{}, 0, nil
	}

	var recs []MemoryRecord
	err := withAssociations(base).
		Order("memories.updated_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&recs).Error
	if err != nil {
		return nil, 0, mapError("search memories", "memory", err)
	}

	memories, err := toEntities(recs)
	if err != nil {
		return nil, 0, err
	}
	return memories, total, nil
}

type tagCountRow struct {
	ID    string
	Name  string
	Count int64
}

func (r *memoryRepository) TagUsage(ctx context.Context, ownerID string) ([]ports.TagCount, error) {
	var rows []tagCountRow
	err := r.db.WithContext(ctx).
		Table("tags").
		Select("tags.id, tags.name, COUNT(*) AS count").
		Joins("JOIN memory_tags ON memory_tags.tag_id = tags.id").
		Joins("JOIN memories ON memories.id = memory_tags.memory_id").
		Where("memories.owner_id = ?", ownerID).
		Group("tags.id, tags.name").
		Order("tags.name").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError("count tag usage", "tag", err)
	}

	out := make([]ports.TagCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.TagCount{Tag: entities.Tag{ID: row.ID, Name: row.Name}, Count: row.Count})
	}
	return out, nil
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Tags").
		Preload("Link").
		Preload("Idea.Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("files.position")
		})
}

func linkTags(db *gorm.DB, memoryID string, tags []entities.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	rows := make([]MemoryTagRecord, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, MemoryTagRecord{MemoryID: memoryID, TagID: t.ID})
	}
	if err := db.Create(&rows).Error; err != nil {
		return mapError("link memory tags", "memory", err)
	}
	return nil
}

func createFiles(db *gorm.DB, ideaDetailID string, attachments []entities.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	files := make([]FileRecord, 0, len(attachments))
	for i, a := range attachments {
		files = append(files, FileRecord{
			IdeaDetailID: ideaDetailID,
			Name:         a.Name,
			URL:          a.URL,
			Type:         a.Type,
			Size:         a.Size,
			Position:     i,
		})
	}
	if err := db.Create(&files).Error; err != nil {
		return mapError("create files", "memory", err)
	}
	return nil
}
