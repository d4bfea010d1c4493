package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemoryRecord is the memories row. Timestamps come from the domain entity,
// so gorm's automatic time tracking is switched off.
type MemoryRecord struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	OwnerID    string    `gorm:"not null;size:255;index:idx_memories_owner_updated,priority:1"`
	Title      string    `gorm:"not null;size:255"`
	Kind       string    `gorm:"not null;size:8"`
	Priority   string    `gorm:"not null;size:8;default:MEDIUM"`
	CategoryID *string   `gorm:"type:varchar(36);index"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime:false;index:idx_memories_owner_updated,priority:2"`

	Category *CategoryRecord   `gorm:"foreignKey:CategoryID"`
	Link     *LinkDetailRecord `gorm:"foreignKey:MemoryID"`
	Idea     *IdeaDetailRecord `gorm:"foreignKey:MemoryID"`
	Tags     []TagRecord       `gorm:"many2many:memory_tags;joinForeignKey:MemoryID;joinReferences:TagID"`
}

func (MemoryRecord) TableName() string { return "memories" }

// LinkDetailRecord is the one-to-one detail of a LINK memory
type LinkDetailRecord struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	MemoryID      string `gorm:"not null;type:varchar(36);uniqueIndex"`
	URL           string `gorm:"not null;type:text"`
	Description   string `gorm:"type:text"`
	Author        string `gorm:"size:255"`
	Source        string `gorm:"size:255"`
	PersonalNotes string `gorm:"type:text"`
}

func (LinkDetailRecord) TableName() string { return "link_details" }

func (r *LinkDetailRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// IdeaDetailRecord is the one-to-one detail of an IDEA memory
type IdeaDetailRecord struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	MemoryID string `gorm:"not null;type:varchar(36);uniqueIndex"`
	Content  string `gorm:"type:text"`

	Files []FileRecord `gorm:"foreignKey:IdeaDetailID"`
}

func (IdeaDetailRecord) TableName() string { return "idea_details" }

func (r *IdeaDetailRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// FileRecord is an attachment descriptor owned by an idea detail
type FileRecord struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	IdeaDetailID string `gorm:"not null;type:varchar(36);index"`
	Name         string `gorm:"not null;size:255"`
	URL          string `gorm:"not null;type:text"`
	Type         string `gorm:"size:255"`
	Size         int64
	Position     int
}

func (FileRecord) TableName() string { return "files" }

func (r *FileRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// TagRecord is a globally unique tag
type TagRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"not null;size:100;uniqueIndex"`
	CreatedAt time.Time
}

func (TagRecord) TableName() string { return "tags" }

func (r *TagRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// CategoryRecord is unique per (name, owner)
type CategoryRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"not null;size:100;uniqueIndex:uidx_category_name_owner"`
	OwnerID   string `gorm:"not null;size:255;uniqueIndex:uidx_category_name_owner"`
	CreatedAt time.Time
}

func (CategoryRecord) TableName() string { return "categories" }

func (r *CategoryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// MemoryTagRecord is the memory/tag join row
type MemoryTagRecord struct {
	MemoryID string `gorm:"primaryKey;type:varchar(36)"`
	TagID    string `gorm:"primaryKey;type:varchar(36);index"`
}

func (MemoryTagRecord) TableName() string { return "memory_tags" }

func allModels() []interface{} {
	return []interface{}{
		&CategoryRecord{},
		&TagRecord{},
		&MemoryRecord{},
		&LinkDetailRecord{},
		&IdeaDetailRecord{},
		&FileRecord{},
		&MemoryTagRecord{},
	}
}
