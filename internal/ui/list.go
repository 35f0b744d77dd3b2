package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/loopback/internal/capture"
)

var _ list.Item = eventItem{}

// eventItem wraps [capture.Event] to implement [list.Item].
type eventItem struct {
	event capture.Event
}

func (i eventItem) FilterValue() string { return i.event.Kind.String() }

func (i eventItem) Title() string {
	switch i.event.Kind {
	case capture.EventCaptured:
		return fmt.Sprintf("✓ captured on :%d", i.event.Port)
	case capture.EventInvalid:
		return fmt.Sprintf("✗ invalid on :%d", i.event.Port)
	default:
		return fmt.Sprintf("! listener lost on :%d", i.event.Port)
	}
}

func (i eventItem) Description() string {
	switch i.event.Kind {
	case capture.EventCaptured:
		return i.event.Redirect.RawURL
	case capture.EventInvalid:
		return fmt.Sprintf("%s • %s", i.event.Invalid.Reason, i.event.Invalid.Snippet)
	default:
		return i.event.Err.Error()
	}
}
