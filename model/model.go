package model

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Status is the completion state of an item.
type Status string

const (
	StatusActive Status = "active"
	StatusDone   Status = "done"
)

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusDone {
		return StatusActive
	}
	return StatusDone
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusDone
}

const (
	// ListsKey holds the snapshot document with every list.
	ListsKey = "todoList"
	// ActiveKey holds the bare JSON id of the active list.
	ActiveKey = "todoList_active"

	MaxTitleLen = 40

	BootstrapTitle = "New to-do list"
	FallbackTitle  = "To-do list"

	SnapshotVersion = 1
)

// NewListTitle is the default title of the n-th list.
func NewListTitle(n int) string {
	return fmt.Sprintf("%s %d", BootstrapTitle, n)
}

// ClampTitle cuts a title to MaxTitleLen runes.
func ClampTitle(title string) string {
	if utf8.RuneCountInString(title) <= MaxTitleLen {
		return title
	}
	r := []rune(title)
	return string(r[:MaxTitleLen])
}

// Item is a single to-do entry.
type Item struct {
	ID     string `json:"id,omitempty"`
	Text   string `json:"text"`
	Status Status `json:"status"`
}

// Done reports whether the item is completed.
func (i Item) Done() bool {
	return i.Status == StatusDone
}

// List is a named, ordered collection of items.
type List struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// UnmarshalJSON also accepts the older "todos" field name.
func (l *List) UnmarshalJSON(data []byte) error {
	type plain List
	var aux struct {
		plain
		Todos []Item `json:"todos"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*l = List(aux.plain)
	if l.Items == nil && aux.Todos != nil {
		l.Items = aux.Todos
	}
	return nil
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	out := l
	out.Items = make([]Item, len(l.Items))
	copy(out.Items, l.Items)
	return out
}

// Counts returns the number of done and pending items.
func (l List) Counts() (done, pending int) {
	for _, it := range l.Items {
		if it.Done() {
			done++
		} else {
			pending++
		}
	}
	return done, pending
}

// Snapshot is the persisted document stored under ListsKey.
type Snapshot struct {
	Version int    `json:"version"`
	Lists   []List `json:"lists"`
}

// NewSnapshot returns an empty snapshot at the current version.
func NewSnapshot() Snapshot {
	return Snapshot{Version: SnapshotVersion, Lists: []List{}}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Version: s.Version, Lists: make([]List, len(s.Lists))}
	for i, l := range s.Lists {
		out.Lists[i] = l.Clone()
	}
	return out
}
