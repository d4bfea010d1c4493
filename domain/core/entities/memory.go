package entities

import (
	"strings"
	"time"

	"keepwise/domain/core/valueobjects"
	"keepwise/domain/events"
	pkgerrors "keepwise/pkg/errors"
)

// Tag is global reference data shared by every owner
type Tag struct {
	ID   string
	Name string
}

// Category groups memories for a single owner
type Category struct {
	ID      string
	Name    string
	OwnerID string
}

// Attachment describes a file stored elsewhere and attached to an idea
type Attachment struct {
	Name string
	URL  string
	Type string
	Size int64
}

// LinkDetail is the detail record of a LINK memory
type LinkDetail struct {
	URL           string
	Description   string
	Author        string
	Source        string
	PersonalNotes string
}

// IdeaDetail is the detail record of an IDEA memory
type IdeaDetail struct {
	Content     string
	Attachments []Attachment
}

// Memory is the saved-item envelope. Exactly one of link and idea is set and
// it always matches kind; kind never changes after creation.
type Memory struct {
	id        valueobjects.MemoryID
	ownerID   string
	title     string
	kind      valueobjects.MemoryKind
	priority  valueobjects.Priority
	category  *Category
	tags      []Tag
	link      *LinkDetail
	idea      *IdeaDetail
	createdAt time.Time
	updatedAt time.Time

	events []events.DomainEvent
}

// NewLinkMemory creates a LINK memory for ownerID
func NewLinkMemory(ownerID, title string, priority valueobjects.Priority, link LinkDetail) (*Memory, error) {
	m, err := newMemory(ownerID, title, valueobjects.KindLink, priority)
	if err != nil {
		return nil, err
	}
	if err := validateLink(link); err != nil {
		return nil, err
	}

	m.link = &link
	m.recordCreated()
	return m, nil
}

// NewIdeaMemory creates an IDEA memory for ownerID
func NewIdeaMemory(ownerID, title string, priority valueobjects.Priority, idea IdeaDetail) (*Memory, error) {
	m, err := newMemory(ownerID, title, valueobjects.KindIdea, priority)
	if err != nil {
		return nil, err
	}

	idea.Attachments = cloneAttachments(idea.Attachments)
	m.idea = &idea
	m.recordCreated()
	return m, nil
}

func newMemory(ownerID, title string, kind valueobjects.MemoryKind, priority valueobjects.Priority) (*Memory, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.NewFieldValidationError("title", "title is required")
	}
	if priority == "" {
		priority = valueobjects.DefaultPriority
	}

	now := time.Now().UTC()
	return &Memory{
		id:        valueobjects.NewMemoryID(),
		ownerID:   ownerID,
		title:     title,
		kind:      kind,
		priority:  priority,
		tags:      []Tag{},
		createdAt: now,
		updatedAt: now,
		events:    []events.DomainEvent{},
	}, nil
}

func validateLink(link LinkDetail) error {
	if strings.TrimSpace(link.URL) == "" {
		return pkgerrors.NewFieldValidationError("url", "url is required")
	}
	return nil
}

// MemorySnapshot carries persisted state back into the domain
type MemorySnapshot struct {
	ID        valueobjects.MemoryID
	OwnerID   string
	Title     string
	Kind      valueobjects.MemoryKind
	Priority  valueobjects.Priority
	Category  *Category
	Tags      []Tag
	Link      *LinkDetail
	Idea      *IdeaDetail
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReconstructMemory rebuilds a memory from storage, enforcing the one-detail rule
func ReconstructMemory(s MemorySnapshot) (*Memory, error) {
	if s.ID.IsZero() {
		return nil, pkgerrors.NewValidationError("memory ID cannot be empty")
	}
	if s.OwnerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}

	switch s.Kind {
	case valueobjects.KindLink:
		if s.Link == nil || s.Idea != nil {
			return nil, pkgerrors.NewInternalError("link memory " + s.ID.String() + " has no link detail")
		}
	case valueobjects.KindIdea:
		if s.Idea == nil || s.Link != nil {
			return nil, pkgerrors.NewInternalError("idea memory " + s.ID.String() + " has no idea detail")
		}
	default:
		return nil, pkgerrors.NewInternalError("memory " + s.ID.String() + " has unknown kind " + string(s.Kind))
	}

	tags := make([]Tag, len(s.Tags))
	copy(tags, s.Tags)

	m := &Memory{
		id:        s.ID,
		ownerID:   s.OwnerID,
		title:     s.Title,
		kind:      s.Kind,
		priority:  s.Priority,
		category:  s.Category,
		tags:      tags,
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
		events:    []events.DomainEvent{},
	}
	if s.Link != nil {
		link := *s.Link
		m.link = &link
	}
	if s.Idea != nil {
		idea := IdeaDetail{Content: s.Idea.Content, Attachments: cloneAttachments(s.Idea.Attachments)}
		m.idea = &idea
	}
	if m.priority == "" {
		m.priority = valueobjects.DefaultPriority
	}

	return m, nil
}

func (m *Memory) ID() valueobjects.MemoryID       { return m.id }
func (m *Memory) OwnerID() string                 { return m.ownerID }
func (m *Memory) Title() string                   { return m.title }
func (m *Memory) Kind() valueobjects.MemoryKind   { return m.kind }
func (m *Memory) Priority() valueobjects.Priority { return m.priority }
func (m *Memory) CreatedAt() time.Time            { return m.createdAt }
func (m *Memory) UpdatedAt() time.Time            { return m.updatedAt }

// Category returns the assigned category or nil
func (m *Memory) Category() *Category {
	return m.category
}

// Tags returns a copy of the associated tags
func (m *Memory) Tags() []Tag {
	out := make([]Tag, len(m.tags))
	copy(out, m.tags)
	return out
}

// TagNames returns the associated tag names
func (m *Memory) TagNames() []string {
	names := make([]string, 0, len(m.tags))
	for _, t := range m.tags {
		names = append(names, t.Name)
	}
	return names
}

// Link returns the link detail; nil for ideas
func (m *Memory) Link() *LinkDetail {
	if m.link == nil {
		return nil
	}
	link := *m.link
	return &link
}

// Idea returns the idea detail; nil for links
func (m *Memory) Idea() *IdeaDetail {
	if m.idea == nil {
		return nil
	}
	return &IdeaDetail{Content: m.idea.Content, Attachments: cloneAttachments(m.idea.Attachments)}
}

// OwnedBy reports whether ownerID controls this memory
func (m *Memory) OwnedBy(ownerID string) bool {
	return ownerID != "" && m.ownerID == ownerID
}

// ReviseLink replaces the scalar fields of a LINK memory
func (m *Memory) ReviseLink(title string, priority valueobjects.Priority, link LinkDetail) error {
	if m.kind != valueobjects.KindLink {
		return pkgerrors.NewValidationError("memory is not a link")
	}
	if err := validateLink(link); err != nil {
		return err
	}
	oldTitle, err := m.revise(title, priority)
	if err != nil {
		return err
	}

	m.link = &link
	m.recordUpdated(oldTitle)
	return nil
}

// ReviseIdea replaces the scalar fields of an IDEA memory. A nil attachments
// pointer keeps the current files; a non-nil one replaces them wholesale.
func (m *Memory) ReviseIdea(title string, priority valueobjects.Priority, content string, attachments *[]Attachment) error {
	if m.kind != valueobjects.KindIdea {
		return pkgerrors.NewValidationError("memory is not an idea")
	}
	oldTitle, err := m.revise(title, priority)
	if err != nil {
		return err
	}

	files := m.idea.Attachments
	if attachments != nil {
		files = cloneAttachments(*attachments)
	}
	m.idea = &IdeaDetail{Content: content, Attachments: files}
	m.recordUpdated(oldTitle)
	return nil
}

func (m *Memory) revise(title string, priority valueobjects.Priority) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", pkgerrors.NewFieldValidationError("title", "title is required")
	}
	if priority == "" {
		priority = valueobjects.DefaultPriority
	}

	oldTitle := m.title
	m.title = title
	m.priority = priority
	m.touch()
	return oldTitle, nil
}

// AssignCategory sets the category; nil clears it
func (m *Memory) AssignCategory(c *Category) error {
	if c != nil && c.OwnerID != m.ownerID {
		return pkgerrors.NewValidationError("category belongs to another owner")
	}
	m.category = c
	m.refreshCreated()
	return nil
}

// ReplaceTags swaps the whole tag set for tags
func (m *Memory) ReplaceTags(tags []Tag) {
	m.tags = make([]Tag, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, dup := seen[t.Name]; dup {
			continue
		}
		seen[t.Name] = struct{}{}
		m.tags = append(m.tags, t)
	}
	m.refreshCreated()
}

// MarkDeleted records the deletion event; the repository removes the rows
func (m *Memory) MarkDeleted() {
	m.addEvent(events.NewMemoryDeleted(m.id, m.ownerID, m.kind, time.Now().UTC()))
}

// GetUncommittedEvents returns events raised since the last commit
func (m *Memory) GetUncommittedEvents() []events.DomainEvent {
	return m.events
}

// MarkEventsAsCommitted clears pending events after publication
func (m *Memory) MarkEventsAsCommitted() {
	m.events = []events.DomainEvent{}
}

func (m *Memory) touch() {
	now := time.Now().UTC()
	if !now.After(m.updatedAt) {
		now = m.updatedAt.Add(time.Microsecond)
	}
	m.updatedAt = now
}

func (m *Memory) addEvent(e events.DomainEvent) {
	m.events = append(m.events, e)
}

func (m *Memory) recordCreated() {
	m.addEvent(events.NewMemoryCreated(m.id, m.ownerID, m.kind, m.title, m.createdAt))
}

func (m *Memory) recordUpdated(oldTitle string) {
	m.addEvent(events.NewMemoryUpdated(m.id, m.ownerID, m.kind, oldTitle, m.title, m.updatedAt))
}

// refreshCreated keeps a pending created event in step with tags and category
// assigned after construction.
func (m *Memory) refreshCreated() {
	for i, e := range m.events {
		created, ok := e.(events.MemoryCreated)
		if !ok {
			continue
		}
		created.Tags = m.TagNames()
		created.Category = ""
		if m.category != nil {
			created.Category = m.category.Name
		}
		m.events[i] = created
	}
}

func cloneAttachments(in []Attachment) []Attachment {
	out := make([]Attachment, len(in))
	copy(out, in)
	return out
}
