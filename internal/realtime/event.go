package realtime

import "fmt"

// Action is the kind of row change an event describes
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Tables with change feeds
const (
	TableMessages      = "messages"
	TableNotifications = "notifications"
	TableStories       = "stories"
)

// Event is a row-level change on a table. Row carries the full changed
// row, not a diff.
type Event struct {
	Table  string                 `json:"table"`
	Action Action                 `json:"action"`
	Row    map[string]interface{} `json:"row"`
}

// Filter is a set of equality predicates on row fields. An empty filter
// matches every row of the table.
type Filter map[string]string

// Matches reports whether the event's row satisfies every predicate.
// Values are compared by their string form so numeric IDs match their
// decimal representation.
func (f Filter) Matches(ev Event) bool {
	for column, want := range f {
		got, ok := ev.Row[column]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}
