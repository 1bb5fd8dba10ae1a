// Package session runs the interactive picking state machine inside an
// embedded frame: it tracks the hovered and the selected element, keeps
// their overlays in place, and reports selections to the host.
//
// A Controller is Idle (nothing hovered or selected), Hovering, or Selected
// with hover set or clear. Hover and selection may be the same node, in
// which case both overlays render. Close is the only terminal transition.
package session

import (
	"log/slog"
	"sync"

	"github.com/hazyhaar/dompick/picker/descriptor"
	"github.com/hazyhaar/dompick/picker/dom"
	"github.com/hazyhaar/dompick/picker/overlay"
)

// SelectFunc receives the descriptor of a new selection, or nil when the
// selection was cleared.
type SelectFunc func(d *descriptor.Descriptor)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStyles overrides the overlay styles.
func WithStyles(hover, selection overlay.Style) Option {
	return func(c *Controller) {
		c.hoverStyle = hover
		c.selStyle = selection
	}
}

// WithOnHover reports every hover change: a descriptor for the new target,
// or nil when hover was cleared.
func WithOnHover(fn SelectFunc) Option {
	return func(c *Controller) { c.onHover = fn }
}

// Controller owns the picking state of one frame.
type Controller struct {
	mu         sync.Mutex
	doc        dom.Document
	win        dom.Window
	onSelected SelectFunc
	onHover    SelectFunc
	logger     *slog.Logger
	hoverStyle overlay.Style
	selStyle   overlay.Style

	hovered  dom.Element
	selected dom.Element
	hoverBox *overlay.Overlay
	selBox   *overlay.Overlay

	removers []func()
	closed   bool
}

// Start attaches a picking session to frame. If the frame content is not
// loaded yet, Start logs a warning and returns an inert Controller; the
// caller may retry once the frame has loaded.
func Start(frame dom.Frame, onSelected SelectFunc, opts ...Option) *Controller {
	c := &Controller{
		onSelected: onSelected,
		logger:     slog.Default(),
		hoverStyle: overlay.HoverStyle,
		selStyle:   overlay.SelectionStyle,
	}
	for _, o := range opts {
		o(c)
	}

	if frame != nil {
		c.win = frame.ContentWindow()
		c.doc = frame.ContentDocument()
	}
	if c.win == nil || c.doc == nil {
		c.logger.Warn("session: frame content not loaded, picking disabled")
		c.closed = true
		return c
	}

	c.removers = []func(){
		c.doc.AddEventListener(dom.EventMouseMove, c.handleMouseMove, dom.ListenerOptions{}),
		c.doc.AddEventListener(dom.EventClick, c.handleClick, dom.ListenerOptions{Capture: true, Intercept: true}),
		c.win.AddEventListener(dom.EventScroll, c.handleViewport, dom.ListenerOptions{Capture: true}),
		c.win.AddEventListener(dom.EventResize, c.handleViewport, dom.ListenerOptions{}),
	}
	c.logger.Debug("session: started")
	return c
}

// Close removes both overlays, clears the state and detaches every
// listener. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.clearHover()
	c.clearSelection()
	for _, remove := range c.removers {
		remove()
	}
	c.removers = nil
	c.logger.Debug("session: closed")
}

// Active reports whether the session is attached and not closed.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Hovered returns the element under the pointer, or nil.
func (c *Controller) Hovered() dom.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered
}

// Selected returns the selected element, or nil.
func (c *Controller) Selected() dom.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Controller) handleMouseMove(ev dom.Event) {
	c.mu.Lock()
	notify, changed := c.hover(ev.Target())
	c.mu.Unlock()

	if changed && c.onHover != nil {
		c.onHover(notify)
	}
}

func (c *Controller) hover(target dom.Element) (*descriptor.Descriptor, bool) {
	if c.closed || target == nil || target == c.hovered || target == c.selected || c.isOverlay(target) {
		return nil, false
	}
	if c.isRoot(target) {
		had := c.hovered != nil
		c.clearHover()
		return nil, had
	}

	if c.hoverBox == nil {
		box, err := overlay.Create(c.doc, c.hoverStyle)
		if err != nil {
			c.logger.Warn("session: hover overlay", "error", err)
			return nil, false
		}
		c.hoverBox = box
	}
	if err := c.hoverBox.Update(target); err != nil {
		c.logger.Debug("session: hover update", "error", err)
	}
	c.hovered = target

	if c.onHover == nil {
		return nil, false
	}
	d := descriptor.Synthesize(target)
	return &d, true
}

func (c *Controller) handleClick(ev dom.Event) {
	c.mu.Lock()
	notify, changed := c.click(ev.Target())
	c.mu.Unlock()

	if changed && c.onSelected != nil {
		c.onSelected(notify)
	}
}

func (c *Controller) click(target dom.Element) (*descriptor.Descriptor, bool) {
	if c.closed || target == nil || c.isRoot(target) || c.isOverlay(target) {
		return nil, false
	}

	if target == c.selected {
		c.clearSelection()
		return nil, true
	}

	had := c.selected != nil
	c.clearSelection()

	box, err := overlay.Create(c.doc, c.selStyle)
	if err != nil {
		c.logger.Warn("session: selection overlay", "error", err)
		return nil, had
	}
	if err := box.Update(target); err != nil {
		c.logger.Debug("session: selection update", "error", err)
	}
	c.selBox = box
	c.selected = target

	d := descriptor.Synthesize(target)
	c.logger.Debug("session: selected", "selector", d.Selector, "xpath", d.XPath)
	return &d, true
}

func (c *Controller) handleViewport(dom.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.hovered != nil && c.hoverBox != nil {
		if err := c.hoverBox.Update(c.hovered); err != nil {
			c.logger.Debug("session: hover update", "error", err)
		}
	}
	if c.selected != nil && c.selBox != nil {
		if err := c.selBox.Update(c.selected); err != nil {
			c.logger.Debug("session: selection update", "error", err)
		}
	}
}

func (c *Controller) clearHover() {
	if c.hoverBox != nil {
		if err := c.hoverBox.Remove(); err != nil {
			c.logger.Debug("session: remove hover overlay", "error", err)
		}
		c.hoverBox = nil
	}
	c.hovered = nil
}

func (c *Controller) clearSelection() {
	if c.selBox != nil {
		if err := c.selBox.Remove(); err != nil {
			c.logger.Debug("session: remove selection overlay", "error", err)
		}
		c.selBox = nil
	}
	c.selected = nil
}

func (c *Controller) isRoot(el dom.Element) bool {
	return el == c.doc.Body() || el == c.doc.DocumentElement()
}

func (c *Controller) isOverlay(el dom.Element) bool {
	return (c.hoverBox != nil && el == c.hoverBox.Element()) ||
		(c.selBox != nil && el == c.selBox.Element())
}
