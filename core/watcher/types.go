package watcher

import "time"

// Operation is the kind of change observed for a path.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
	OpRename
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is a debounced change to a watched source file.
type Event struct {
	Path      string
	Operation Operation
	Time      time.Time
}

// Removed reports whether the path no longer holds the file.
func (e Event) Removed() bool {
	return e.Operation == OpDelete || e.Operation == OpRename
}
