package events

import (
	"time"

	"keepwise/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeMemoryCreated = "memory.created"
	TypeMemoryUpdated = "memory.updated"
	TypeMemoryDeleted = "memory.deleted"
)

// MemoryCreated is raised when a link or idea is first saved
type MemoryCreated struct {
	BaseEvent
	MemoryID valueobjects.MemoryID   `json:"memory_id"`
	OwnerID  string                  `json:"owner_id"`
	Kind     valueobjects.MemoryKind `json:"kind"`
	Title    string                  `json:"title"`
	Tags     []string                `json:"tags"`
	Category string                  `json:"category,omitempty"`
}

// NewMemoryCreated creates a MemoryCreated event
func NewMemoryCreated(id valueobjects.MemoryID, ownerID string, kind valueobjects.MemoryKind, title string, timestamp time.Time) MemoryCreated {
	return MemoryCreated{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   TypeMemoryCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		MemoryID: id,
		OwnerID:  ownerID,
		Kind:     kind,
		Title:    title,
		Tags:     []string{},
	}
}

// MemoryUpdated is raised when an existing memory is revised
type MemoryUpdated struct {
	BaseEvent
	MemoryID valueobjects.MemoryID   `json:"memory_id"`
	OwnerID  string                  `json:"owner_id"`
	Kind     valueobjects.MemoryKind `json:"kind"`
	OldTitle string                  `json:"old_title"`
	NewTitle string                  `json:"new_title"`
}

// NewMemoryUpdated creates a MemoryUpdated event
func NewMemoryUpdated(id valueobjects.MemoryID, ownerID string, kind valueobjects.MemoryKind, oldTitle, newTitle string, timestamp time.Time) MemoryUpdated {
	return MemoryUpdated{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   TypeMemoryUpdated,
			Timestamp:   timestamp,
			Version:     1,
		},
		MemoryID: id,
		OwnerID:  ownerID,
		Kind:     kind,
		OldTitle: oldTitle,
		NewTitle: newTitle,
	}
}

// MemoryDeleted is raised when a memory and its detail are removed
type MemoryDeleted struct {
	BaseEvent
	MemoryID valueobjects.MemoryID   `json:"memory_id"`
	OwnerID  string                  `json:"owner_id"`
	Kind     valueobjects.MemoryKind `json:"kind"`
}

// NewMemoryDeleted creates a MemoryDeleted event
func NewMemoryDeleted(id valueobjects.MemoryID, ownerID string, kind valueobjects.MemoryKind, timestamp time.Time) MemoryDeleted {
	return MemoryDeleted{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   TypeMemoryDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		MemoryID: id,
		OwnerID:  ownerID,
		Kind:     kind,
	}
}
