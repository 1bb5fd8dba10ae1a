// Package picker lets a host overlay and pick DOM elements inside an
// embedded frame. It highlights the element under the pointer, selects one
// on click and reports a structural descriptor of it back to the host.
//
// The engine works against the dom interfaces, so the same session code
// drives a Chrome frame over CDP or an in-memory document. Picker is the
// daemon-side orchestrator that owns Chrome, host tabs and sinks.
package picker

import (
	"log/slog"

	"github.com/hazyhaar/dompick/picker/descriptor"
	"github.com/hazyhaar/dompick/picker/dom"
	"github.com/hazyhaar/dompick/picker/editmode"
	"github.com/hazyhaar/dompick/picker/session"
)

// Descriptor is the structural summary of a picked element.
type Descriptor = descriptor.Descriptor

// InitVisualEditor starts picking in frame. onSelected receives a
// descriptor for each selection and nil when the selection is cleared.
// The returned function tears the session down and may be called more than
// once. A frame that is not loaded yields a no-op cleanup.
func InitVisualEditor(frame dom.Frame, onSelected func(*Descriptor)) func() {
	return session.Start(frame, onSelected).Close
}

// EnableEditMode signals the frame's context to start picking.
func EnableEditMode(frame dom.Frame) {
	editmode.Enable(frame, slog.Default())
}

// DisableEditMode signals the frame's context to stop picking.
func DisableEditMode(frame dom.Frame) {
	editmode.Disable(frame, slog.Default())
}
