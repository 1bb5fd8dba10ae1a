// Package selection defines the events a picker emits to its sinks. These
// types are the public contract for consumers of picked elements.
package selection

import (
	"encoding/json"
	"time"

	"github.com/hazyhaar/dompick/picker/descriptor"
)

// Event is one selection change on one page.
type Event struct {
	ID         string                 `json:"id"` // UUIDv7
	PageID     string                 `json:"page_id"`
	PageURL    string                 `json:"page_url"`
	Descriptor *descriptor.Descriptor `json:"descriptor,omitempty"`
	Cleared    bool                   `json:"cleared"`   // true when the selection was removed
	Timestamp  int64                  `json:"timestamp"` // epoch milliseconds
}

// New builds an Event for d; a nil d records a cleared selection.
func New(id, pageID, pageURL string, d *descriptor.Descriptor) Event {
	return Event{
		ID:         id,
		PageID:     pageID,
		PageURL:    pageURL,
		Descriptor: d,
		Cleared:    d == nil,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// Marshal encodes an Event as JSON.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes an Event.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
