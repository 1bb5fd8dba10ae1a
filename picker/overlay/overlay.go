// Package overlay draws the boxes that mark the hovered and the selected
// element. Boxes are fixed-positioned, so their geometry is in viewport
// coordinates and must be refreshed after every scroll, resize or target
// change.
package overlay

import (
	"fmt"
	"strconv"

	"github.com/hazyhaar/dompick/picker/dom"
)

// Style is the visual identity of an overlay.
type Style struct {
	Name   string
	Color  string
	ZIndex int
}

var (
	// HoverStyle marks the element under the pointer.
	HoverStyle = Style{Name: "hover", Color: "#1890ff", ZIndex: 999998}
	// SelectionStyle marks the picked element. It stacks above hover.
	SelectionStyle = Style{Name: "selection", Color: "#52c41a", ZIndex: 999999}
)

// Overlay is one box rendered into the embedded document.
type Overlay struct {
	style   Style
	el      dom.Element
	removed bool
}

// Create appends a new, non-interactive box to doc's body.
func Create(doc dom.Document, style Style) (*Overlay, error) {
	el, err := doc.CreateElement("div")
	if err != nil {
		return nil, fmt.Errorf("overlay: create %s: %w", style.Name, err)
	}
	err = el.SetStyles(map[string]string{
		"position":       "fixed",
		"pointer-events": "none",
		"border":         "2px solid " + style.Color,
		"border-radius":  "2px",
		"z-index":        strconv.Itoa(style.ZIndex),
		"transition":     "all 0.1s ease",
		"box-sizing":     "border-box",
		"margin":         "0",
		"padding":        "0",
	})
	if err != nil {
		return nil, fmt.Errorf("overlay: style %s: %w", style.Name, err)
	}
	if err := doc.AppendToBody(el); err != nil {
		return nil, fmt.Errorf("overlay: append %s: %w", style.Name, err)
	}
	return &Overlay{style: style, el: el}, nil
}

// Element returns the box's node.
func (o *Overlay) Element() dom.Element { return o.el }

// Style returns the overlay's style.
func (o *Overlay) Style() Style { return o.style }

// Update moves the box over target's current viewport rectangle. A target
// that has left the document collapses the box to zero size.
func (o *Overlay) Update(target dom.Element) error {
	if o.removed {
		return nil
	}
	var r dom.Rect
	if target != nil && target.IsConnected() {
		r = target.BoundingClientRect()
	}
	err := o.el.SetStyles(map[string]string{
		"left":   px(r.Left),
		"top":    px(r.Top),
		"width":  px(r.Width),
		"height": px(r.Height),
	})
	if err != nil {
		return fmt.Errorf("overlay: update %s: %w", o.style.Name, err)
	}
	return nil
}

// Remove detaches the box. Further calls are no-ops.
func (o *Overlay) Remove() error {
	if o.removed {
		return nil
	}
	o.removed = true
	if err := o.el.Remove(); err != nil {
		return fmt.Errorf("overlay: remove %s: %w", o.style.Name, err)
	}
	return nil
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
