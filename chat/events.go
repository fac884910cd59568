package chat

import "kodiak/model"

// EventType identifies a controller event.
type EventType string

const (
	// EventTurnStarted fires after the user message and the assistant
	// placeholder have been persisted, before streaming begins.
	EventTurnStarted EventType = "turn_started"

	// EventMessageUpdated fires for each cumulative snapshot of the assistant
	// message and once for the persisted user message.
	EventMessageUpdated EventType = "message_updated"

	// EventTurnCompleted fires after the final assistant content is persisted.
	EventTurnCompleted EventType = "turn_completed"

	// EventTurnFailed fires when streaming errors or is canceled. Any partial
	// text has already been persisted into the assistant message.
	EventTurnFailed EventType = "turn_failed"

	// EventTitleUpdated fires when the automatic title replaces the
	// placeholder title.
	EventTitleUpdated EventType = "title_updated"
)

// Event is a controller notification. Message is set for message-scoped
// events, Title for EventTitleUpdated, Err for EventTurnFailed.
type Event struct {
	Type           EventType
	ConversationID string
	Message        *model.Message
	Title          string
	Err            error
}

// Subscribe registers a listener for controller events. Listeners are called
// synchronously on the turn's goroutine and must not call back into the
// controller.
func (c *Controller) Subscribe(fn func(Event)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) emit(ev Event) {
	c.listenersMu.Lock()
	listeners := make([]func(Event), len(c.listeners))
	copy(listeners, c.listeners)
	c.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
