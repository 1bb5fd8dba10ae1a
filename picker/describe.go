package picker

import (
	"fmt"
	"io"

	"github.com/hazyhaar/dompick/picker/descriptor"
	"github.com/hazyhaar/dompick/picker/internal/memdom"
)

// Description is the offline result of describing an element of an HTML
// snapshot.
type Description struct {
	Descriptor Descriptor `json:"descriptor"`
	// Matches counts the nodes the descriptor's XPath resolves to in the
	// snapshot. Resolves reports whether the described element is one of
	// them.
	Matches  int  `json:"matches"`
	Resolves bool `json:"resolves"`
}

// Describe parses an HTML snapshot, finds the first element matching sel
// ("#id", "tag", ".class" or "tag.class") and synthesises its descriptor as
// if it had been picked.
func Describe(r io.Reader, sel string) (*Description, error) {
	doc, err := memdom.Parse(r)
	if err != nil {
		return nil, err
	}
	el := doc.Find(sel)
	if el == nil {
		return nil, fmt.Errorf("picker: describe: no element matches %q", sel)
	}

	d := descriptor.Synthesize(el)
	nodes := descriptor.Resolve(doc.Root(), d.XPath)
	out := &Description{Descriptor: d, Matches: len(nodes)}
	for _, n := range nodes {
		if n == el.Node() {
			out.Resolves = true
			break
		}
	}
	return out, nil
}
