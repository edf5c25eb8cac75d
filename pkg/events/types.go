// Package events defines event types and publisher interfaces for object
// lifecycle events emitted by the inspection host.
package events

// Object lifecycle actions.
const (
	ActionRegistered = "registered"
	ActionReleased   = "released"
)

// ObjectEvent is emitted when the host's object table changes. External
// lifecycle collaborators consume these; the binding layer never does.
type ObjectEvent struct {
	Action      string `json:"action"`
	HandleID    string `json:"handleId"`
	RuntimeType string `json:"runtimeType"`
	Timestamp   string `json:"timestamp"`
}
