package activity

import (
	"strings"
	"time"
)

// ObjectTypeState is the object type of every store event.
const ObjectTypeState = "state"

// StateEventInput describes one recorded store mutation.
type StateEventInput struct {
	// Op is the store operation (set, merge, batch, undo, reset, init, hydrate).
	Op string
	// Paths lists the written paths in first-touch order. Whole-tree
	// operations use "*".
	Paths      []string
	HistoryLen int
	Version    int
	Channel    string
	ActorID    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStateEvent maps a store mutation onto an activity Event with verb
// "state.<op>". The object id is the single written path, or "*" when the
// operation touched several paths or the whole tree.
func BuildStateEvent(input StateEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	paths := make([]string, 0, len(input.Paths))
	for _, path := range input.Paths {
		if path = strings.TrimSpace(path); path != "" {
			paths = append(paths, path)
		}
	}
	metadata["paths"] = paths
	metadata["history_len"] = input.HistoryLen
	if input.Version != 0 {
		metadata["version"] = input.Version
	}

	objectID := "*"
	if len(paths) == 1 {
		objectID = paths[0]
	}

	return Event{
		Verb:       "state." + strings.TrimSpace(input.Op),
		ActorID:    strings.TrimSpace(input.ActorID),
		ObjectType: ObjectTypeState,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
