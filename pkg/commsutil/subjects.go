package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectInspector   = "inspect.host.v1"
	SubjectObjectEvent = "inspect.objects.changed"
)

// BuildHostSubject builds the request subject for a named inspected process.
func BuildHostSubject(process string) string {
	safe := strings.ReplaceAll(process, ".", "_")
	return fmt.Sprintf("inspect.host.%s.v1", safe)
}

// BuildObjectEventSubject builds a granular object lifecycle event subject.
func BuildObjectEventSubject(runtimeType string) string {
	safe := strings.ReplaceAll(runtimeType, ".", "_")
	return fmt.Sprintf("inspect.objects.changed.%s", safe)
}
