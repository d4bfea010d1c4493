package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// MemoryID is a value object representing a unique memory identifier
type MemoryID struct {
	value string
}

// NewMemoryID creates a new random MemoryID
func NewMemoryID() MemoryID {
	return MemoryID{value: uuid.New().String()}
}

// NewMemoryIDFromString creates a MemoryID from an existing string
func NewMemoryIDFromString(id string) (MemoryID, error) {
	if id == "" {
		return MemoryID{}, errors.New("memory ID cannot be empty")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return MemoryID{}, errors.New("memory ID must be a valid UUID")
	}
	return MemoryID{value: parsed.String()}, nil
}

// String returns the string representation of the MemoryID
func (id MemoryID) String() string {
	return id.value
}

// Equals checks if two MemoryIDs are equal
func (id MemoryID) Equals(other MemoryID) bool {
	return id.value == other.value
}

// IsZero checks if the MemoryID is the zero value
func (id MemoryID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id MemoryID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *MemoryID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("MemoryID must be a string")
	}
	parsed, err := NewMemoryIDFromString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
