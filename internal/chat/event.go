package chat

import "fmt"

// Event is something the session reacts to: an inbound frame or a submit
// signal from the renderer.
type Event interface {
	isEvent()
}

// FrameReceived carries one raw text frame from the transport.
type FrameReceived struct {
	Frame string
}

// InputEdited replaces the input buffer. Renderers that feed the event
// loop use it instead of Input.Set so edits stay ordered with submits.
type InputEdited struct {
	Text string
}

// SubmitRequested asks the session to send the current input buffer.
type SubmitRequested struct{}

func (FrameReceived) isEvent()   {}
func (InputEdited) isEvent()     {}
func (SubmitRequested) isEvent() {}

func eventName(ev Event) string {
	return fmt.Sprintf("%T", ev)
}
