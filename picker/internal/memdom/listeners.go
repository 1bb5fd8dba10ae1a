package memdom

import "github.com/hazyhaar/dompick/picker/dom"

type phase int

const (
	phaseCapture phase = iota
	phaseTarget
	phaseBubble
)

type listener struct {
	id   int
	typ  string
	fn   dom.Listener
	opts dom.ListenerOptions
}

type listenerSet struct {
	next  int
	items []listener
}

func (s *listenerSet) add(typ string, fn dom.Listener, opts dom.ListenerOptions) func() {
	s.next++
	id := s.next
	s.items = append(s.items, listener{id: id, typ: typ, fn: fn, opts: opts})
	return func() {
		for i, l := range s.items {
			if l.id == id {
				s.items = append(s.items[:i:i], s.items[i+1:]...)
				return
			}
		}
	}
}

func (s *listenerSet) has(id int) bool {
	for _, l := range s.items {
		if l.id == id {
			return true
		}
	}
	return false
}

// Len reports the number of registered listeners.
func (s *listenerSet) Len() int { return len(s.items) }

// fire runs the listeners matching ev and ph, and reports whether
// propagation was stopped. Listeners added during dispatch wait for the next
// event; listeners removed during dispatch are skipped.
func (s *listenerSet) fire(ev *event, ph phase) bool {
	snapshot := append([]listener(nil), s.items...)
	for _, l := range snapshot {
		if l.typ != ev.typ || !s.has(l.id) {
			continue
		}
		switch ph {
		case phaseCapture:
			if !l.opts.Capture {
				continue
			}
		case phaseBubble:
			if l.opts.Capture {
				continue
			}
		}
		if l.opts.Intercept {
			ev.prevented = true
			ev.stopped = true
		}
		l.fn(ev)
	}
	return ev.stopped
}
