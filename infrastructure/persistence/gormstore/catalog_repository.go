package gormstore

import (
	"context"

	"keepwise/application/ports"
	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tagRepository struct {
	db *gorm.DB
}

// Reconcile finds or creates each tag by exact name. Inserts that lose a
// race against a concurrent writer fall through to the read.
func (r *tagRepository) Reconcile(ctx context.Context, names []string) ([]entities.Tag, error) {
	names = valueobjects.NormalizeTagNames(names)
	tags := make([]entities.Tag, 0, len(names))
	if len(names) == 0 {
		return tags, nil
	}

	db := r.db.WithContext(ctx)
	for _, name := range names {
		candidate := TagRecord{Name: name}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&candidate).Error; err != nil {
			return nil, mapError("create tag", "tag", err)
		}

		var rec TagRecord
		if err := db.Where("name = ?", name).First(&rec).Error; err != nil {
			return nil, mapError("find tag", "tag", err)
		}
		tags = append(tags, entities.Tag{ID: rec.ID, Name: rec.Name})
	}

	return tags, nil
}

type categoryRepository struct {
	db *gorm.DB
}

// Resolve finds or creates the owner's category; an empty name means none
func (r *categoryRepository) Resolve(ctx context.Context, name, ownerID string) (*entities.Category, error) {
	name = valueobjects.NormalizeCategoryName(name)
	if name == "" {
		return nil, nil
	}

	db := r.db.WithContext(ctx)
	candidate := CategoryRecord{Name: name, OwnerID: ownerID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "owner_id"}},
		DoNothing: true,
	}).Create(&candidate).Error; err != nil {
		return nil, mapError("create category", "category", err)
	}

	var rec CategoryRecord
	if err := db.Where("name = ? AND owner_id = ?", name, ownerID).First(&rec).Error; err != nil {
		return nil, mapError("find category", "category", err)
	}

	return &entities.Category{ID: rec.ID, Name: rec.Name, OwnerID: rec.OwnerID}, nil
}

type categoryCountRow struct {
	ID      string
	Name    string
	OwnerID string
	Count   int64
}

// ListByOwner returns the owner's categories, including empty ones, by name
func (r *categoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]ports.CategoryCount, error) {
	var rows []categoryCountRow
	err := r.db.WithContext(ctx).
		Table("categories").
		Select("categories.id, categories.name, categories.owner_id, COUNT(memories.id) AS count").
		Joins("LEFT JOIN memories ON memories.category_id = categories.id").
		Where("categories.owner_id = ?", ownerID).
		Group("categories.id, categories.name, categories.owner_id").
		Order("categories.name").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError("list categories", "category", err)
	}

	out := make([]ports.CategoryCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.CategoryCount{
			Category: entities.Category{ID: row.ID, Name: row.Name, OwnerID: row.OwnerID},
			Count:    row.Count,
		})
	}
	return out, nil
}
