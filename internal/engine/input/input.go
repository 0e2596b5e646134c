// Package input holds platform-neutral input events for the viewer.
package input

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Key is a platform-neutral key code.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyF12
	KeyR
)

// MouseButton is a pointer button.
type MouseButton uint8

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Event represents a processed input event.
type Event struct {
	Type EventType
	Key  Key

	// Window resize, logical pixels
	Width      int
	Height     int
	PixelRatio float32

	// Pointer
	MouseX  int
	MouseY  int
	DeltaX  float32
	DeltaY  float32
	Button  MouseButton
	Dragged MouseButton // button held during a move
	WheelY  float32     // positive away from the user
}

// Input buffers the events of one poll.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Reset clears the buffered events.
func (i *Input) Reset() {
	i.events = i.events[:0]
}

// Push appends an event.
func (i *Input) Push(e Event) {
	i.events = append(i.events, e)
}

// Events returns the events since the last Reset.
func (i *Input) Events() []Event {
	return i.events
}

// QuitRequested reports whether a quit event or Escape arrived.
func (i *Input) QuitRequested() bool {
	for _, e := range i.events {
		if e.Type == EventQuit || (e.Type == EventKeyDown && e.Key == KeyEscape) {
			return true
		}
	}
	return false
}

// IsKeyPressed checks if a specific key was pressed since the last Reset.
func (i *Input) IsKeyPressed(key Key) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == key {
			return true
		}
	}
	return false
}
