package queries

import (
	"sort"
	"time"

	"keepwise/domain/core/entities"
)

// timestampLayout renders UTC instants with millisecond precision
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// MemoryView is the flat client-facing shape of a memory. Exactly one of the
// embedded field groups is set, so its fields appear at the top level.
type MemoryView struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Priority  string   `json:"priority"`
	Tags      []string `json:"tags"`
	Category  *string  `json:"category,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`

	*LinkFields
	*IdeaFields
}

// LinkFields are spread into a LINK view
type LinkFields struct {
	URL           string `json:"url"`
	Description   string `json:"description"`
	Author        string `json:"author"`
	Source        string `json:"source"`
	PersonalNotes string `json:"personalNotes"`
}

// IdeaFields are spread into an IDEA view
type IdeaFields struct {
	Content     string           `json:"content"`
	Attachments []AttachmentView `json:"attachments"`
}

// AttachmentView describes one file of an idea
type AttachmentView struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// NewMemoryView projects a memory into its flat view
func NewMemoryView(m *entities.Memory) MemoryView {
	tags := m.TagNames()
	sort.Strings(tags)

	view := MemoryView{
		ID:        m.ID().String(),
		Title:     m.Title(),
		Type:      m.Kind().String(),
		Priority:  m.Priority().String(),
		Tags:      tags,
		CreatedAt: formatTime(m.CreatedAt()),
		UpdatedAt: formatTime(m.UpdatedAt()),
	}

	if c := m.Category(); c != nil {
		name := c.Name
		view.Category = &name
	}

	if link := m.Link(); link != nil {
		view.LinkFields = &LinkFields{
			URL:           link.URL,
			Description:   link.Description,
			Author:        link.Author,
			Source:        link.Source,
			PersonalNotes: link.PersonalNotes,
		}
	}

	if idea := m.Idea(); idea != nil {
		attachments := make([]AttachmentView, 0, len(idea.Attachments))
		for _, a := range idea.Attachments {
			attachments = append(attachments, AttachmentView{Name: a.Name, URL: a.URL, Type: a.Type, Size: a.Size})
		}
		view.IdeaFields = &IdeaFields{Content: idea.Content, Attachments: attachments}
	}

	return view
}

// NewMemoryViews projects memories in order, dropping repeated ids
func NewMemoryViews(memories []*entities.Memory) []MemoryView {
	views := make([]MemoryView, 0, len(memories))
	seen := make(map[string]struct{}, len(memories))
	for _, m := range memories {
		if m == nil {
			continue
		}
		id := m.ID().String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		views = append(views, NewMemoryView(m))
	}
	return views
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}
