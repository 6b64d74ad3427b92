package engine

// EventType identifies session events.
type EventType int

const (
	// EventSuggestionChanged fires when the rings or the current index change.
	EventSuggestionChanged EventType = iota
	// EventLabelsChanged fires after a commit, undo or NO_DATA fill.
	EventLabelsChanged
	// EventClassifierTrained carries the *classifier.Result of a successful training run.
	EventClassifierTrained
	// EventStrokesChanged fires when the stroke mask is painted or cleared.
	EventStrokesChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
