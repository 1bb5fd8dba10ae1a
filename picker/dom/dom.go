// Package dom defines the view of an embedded browsing context that the
// picking engine works against. Two implementations exist: a Chrome-backed
// one driven over CDP and an in-memory one built on parsed HTML.
//
// Implementations must return an untyped nil for absent values so callers
// can compare against nil directly. Element values must be comparable and
// identical for the same underlying node.
package dom

// Event types used by the picking engine.
const (
	EventMouseMove = "mousemove"
	EventClick     = "click"
	EventScroll    = "scroll"
	EventResize    = "resize"
	EventMessage   = "message"
)

// Rect is a box in viewport coordinates, CSS pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is a DOM element owned by the embedded document. Holding one does
// not keep the node attached; check IsConnected before acting on it.
type Element interface {
	// TagName returns the tag as the DOM reports it (upper-case for HTML).
	TagName() string
	// Attribute returns the attribute value, or "" when absent.
	Attribute(name string) string
	TextContent() string
	ParentElement() Element
	PreviousElementSibling() Element
	OwnerDocument() Document
	IsConnected() bool
	// BoundingClientRect returns the viewport-relative box. Detached
	// elements report a zero Rect.
	BoundingClientRect() Rect
	SetStyles(styles map[string]string) error
	// Remove detaches the element. Removing a detached element is a no-op.
	Remove() error
}

// Document is the embedded document.
type Document interface {
	Body() Element
	DocumentElement() Element
	CreateElement(tag string) (Element, error)
	AppendToBody(el Element) error
	AddEventListener(typ string, fn Listener, opts ListenerOptions) (remove func())
}

// Window is the embedded browsing context's global object.
type Window interface {
	AddEventListener(typ string, fn Listener, opts ListenerOptions) (remove func())
	// PostMessage delivers data, serialised as JSON, to the window's
	// message listeners.
	PostMessage(data any, targetOrigin string) error
}

// Frame is the host-side handle of an embedded context. Both accessors
// return nil until the content has loaded.
type Frame interface {
	ContentWindow() Window
	ContentDocument() Document
}

// Event is a dispatched DOM event.
type Event interface {
	Type() string
	// Target is nil when the event did not originate at an element.
	Target() Element
	// Data carries the JSON payload of message events.
	Data() []byte
}

// Listener handles one event. It runs to completion before the next event
// of the same context is delivered.
type Listener func(Event)

// ListenerOptions controls listener registration.
type ListenerOptions struct {
	// Capture registers the listener for the capture phase.
	Capture bool
	// Intercept cancels the event's default action and stops its
	// propagation before any page handler runs. Implementations whose
	// listeners live outside the page apply it in-page, synchronously.
	Intercept bool
}
