package commands

import (
	"keepwise/domain/core/entities"
	"keepwise/pkg/utils"
)

// SaveLinkCommand creates a link when MemoryID is empty and updates it otherwise
type SaveLinkCommand struct {
	MemoryID      string `json:"memoryId" validate:"omitempty,uuid"`
	OwnerID       string `json:"ownerId" validate:"required"`
	Title         string `json:"title" validate:"required,min=1,max=255"`
	URL           string `json:"url" validate:"required,url"`
	Description   string `json:"description" validate:"max=5000"`
	Category      string `json:"category" validate:"max=100"`
	Tags          string `json:"tags" validate:"max=1000,tagnames=100"`
	Author        string `json:"author" validate:"max=255"`
	Source        string `json:"source" validate:"max=255"`
	PersonalNotes string `json:"personalNotes" validate:"max=10000"`
	Priority      string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
}

// Validate validates the SaveLinkCommand
func (c SaveLinkCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// IsUpdate reports whether the command targets an existing memory
func (c SaveLinkCommand) IsUpdate() bool {
	return c.MemoryID != ""
}

// Detail builds the link detail carried by the command
func (c SaveLinkCommand) Detail() entities.LinkDetail {
	return entities.LinkDetail{
		URL:           c.URL,
		Description:   c.Description,
		Author:        c.Author,
		Source:        c.Source,
		PersonalNotes: c.PersonalNotes,
	}
}

// AttachmentInput describes one uploaded file
type AttachmentInput struct {
	Name string `json:"name" validate:"required,max=255"`
	URL  string `json:"url" validate:"required,url"`
	Type string `json:"type" validate:"max=255"`
	Size int64  `json:"size" validate:"gte=0"`
}

// SaveIdeaCommand creates an idea when MemoryID is empty and updates it
// otherwise. A nil Attachments slice on update keeps the existing files.
type SaveIdeaCommand struct {
	MemoryID    string            `json:"memoryId" validate:"omitempty,uuid"`
	OwnerID     string            `json:"ownerId" validate:"required"`
	Title       string            `json:"title" validate:"required,min=1,max=255"`
	Content     string            `json:"content" validate:"required,max=50000"`
	Category    string            `json:"category" validate:"max=100"`
	Tags        string            `json:"tags" validate:"max=1000,tagnames=100"`
	Priority    string            `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Attachments []AttachmentInput `json:"attachments" validate:"max=20,dive"`
}

// Validate validates the SaveIdeaCommand
func (c SaveIdeaCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// IsUpdate reports whether the command targets an existing memory
func (c SaveIdeaCommand) IsUpdate() bool {
	return c.MemoryID != ""
}

// AttachmentList converts the inputs; nil stays nil
func (c SaveIdeaCommand) AttachmentList() *[]entities.Attachment {
	if c.Attachments == nil {
		return nil
	}
	out := make([]entities.Attachment, 0, len(c.Attachments))
	for _, a := range c.Attachments {
		out = append(out, entities.Attachment{Name: a.Name, URL: a.URL, Type: a.Type, Size: a.Size})
	}
	return &out
}
