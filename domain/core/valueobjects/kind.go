package valueobjects

import (
	"strings"

	pkgerrors "keepwise/pkg/errors"
)

// MemoryKind discriminates the detail record attached to a memory
type MemoryKind string

const (
	KindLink MemoryKind = "LINK"
	KindIdea MemoryKind = "IDEA"
)

// ParseMemoryKind accepts the kind in any letter case
func ParseMemoryKind(raw string) (MemoryKind, error) {
	switch MemoryKind(strings.ToUpper(strings.TrimSpace(raw))) {
	case KindLink:
		return KindLink, nil
	case KindIdea:
		return KindIdea, nil
	default:
		return "", pkgerrors.NewFieldValidationError("type", "type must be one of: LINK IDEA")
	}
}

// String returns the kind's wire name
func (k MemoryKind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind
func (k MemoryKind) IsValid() bool {
	return k == KindLink || k == KindIdea
}

// Priority is how often the owner expects to come back to a memory
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// DefaultPriority is applied when the caller does not choose one
const DefaultPriority = PriorityMedium

// ParsePriority maps an empty value to DefaultPriority
func ParsePriority(raw string) (Priority, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultPriority, nil
	}

	switch p := Priority(raw); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", pkgerrors.NewFieldValidationError("priority", "priority must be one of: LOW MEDIUM HIGH")
	}
}

// String returns the priority's wire name
func (p Priority) String() string {
	return string(p)
}
