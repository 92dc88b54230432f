package domain

import "time"

// ChangeType represents the type of file change seen by the folder watcher.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed or renamed-away file.
	ChangeDeleted
)

// String returns the change name.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange is one settled change to a watched file.
type FileChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the absolute file path.
	Path string

	// At is when the change settled.
	At time.Time
}
