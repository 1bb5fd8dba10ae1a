// Package descriptor builds the structural summary of a picked element.
package descriptor

import (
	"strconv"
	"strings"

	"github.com/hazyhaar/dompick/picker/dom"
)

// MaxTextLen is the maximum length, in runes, of Descriptor.TextContent.
const MaxTextLen = 50

// Descriptor is the structural summary of an element at the time it was
// picked. A fresh value is produced for every selection.
type Descriptor struct {
	TagName     string `json:"tagName"`
	ID          string `json:"id,omitempty"`
	ClassName   string `json:"className,omitempty"`
	TextContent string `json:"textContent,omitempty"`
	XPath       string `json:"xpath"`
	Selector    string `json:"selector"`
}

// Synthesize describes el from its current attributes and ancestor chain.
// The selector and locator are best effort; neither is guaranteed to
// resolve to el alone.
func Synthesize(el dom.Element) Descriptor {
	tag := strings.ToLower(el.TagName())
	id := el.Attribute("id")
	class := el.Attribute("class")

	return Descriptor{
		TagName:     tag,
		ID:          id,
		ClassName:   class,
		TextContent: snippet(el.TextContent()),
		XPath:       XPath(el),
		Selector:    selector(tag, id, class),
	}
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) > MaxTextLen {
		return string(r[:MaxTextLen])
	}
	return text
}

func selector(tag, id, class string) string {
	if id != "" {
		return "#" + id
	}
	if classes := strings.Fields(class); len(classes) > 0 {
		return tag + "." + classes[0]
	}
	return tag
}

// XPath returns the positional locator of el. Elements with an id get the
// short form //*[@id="..."]. Otherwise each step below the document body is
// tag[n], where n counts el's preceding siblings that share its tag, 1-based.
// The body itself yields "/".
func XPath(el dom.Element) string {
	if id := el.Attribute("id"); id != "" {
		return `//*[@id="` + id + `"]`
	}

	var body dom.Element
	if doc := el.OwnerDocument(); doc != nil {
		body = doc.Body()
	}

	var steps []string
	for cur := el; cur != nil && cur != body; cur = cur.ParentElement() {
		tag := cur.TagName()
		idx := 1
		for sib := cur.PreviousElementSibling(); sib != nil; sib = sib.PreviousElementSibling() {
			if sib.TagName() == tag {
				idx++
			}
		}
		steps = append(steps, strings.ToLower(tag)+"["+strconv.Itoa(idx)+"]")
	}

	// Collected leaf first.
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return "/" + strings.Join(steps, "/")
}
