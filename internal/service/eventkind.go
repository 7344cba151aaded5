// internal/service/eventkind.go
package service

import (
	"strings"

	"github.com/unclebandit/linkpulse-backend/internal/model"
)

// MapEventKind maps the automation tool's raw event-kind string onto the
// closed internal enum. Total: every input lands on one of the four
// kinds, with EventUnknown as the explicit fallback.
func MapEventKind(raw string) model.EventKind {
	s := strings.ToLower(raw)

	switch {
	case strings.Contains(s, "repl"):
		return model.EventReplyReceived
	case strings.Contains(s, "new_contact"),
		strings.Contains(s, "connection") && strings.Contains(s, "accept"):
		return model.EventConnectionAccepted
	case strings.Contains(s, "connection") && strings.Contains(s, "sent"):
		return model.EventInviteSent
	default:
		return model.EventUnknown
	}
}
