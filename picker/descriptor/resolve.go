package descriptor

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Resolve evaluates a locator produced by XPath against a parsed document
// and returns the matching elements. Positional paths are anchored at
// <body>, except paths whose first step is html[1], which were produced for
// elements outside the body and are anchored at the document root.
//
// Structurally identical elements are indistinguishable by id locators, so
// Resolve may return more than one node.
func Resolve(doc *html.Node, xpath string) []*html.Node {
	xpath = strings.TrimSpace(xpath)
	if id, ok := idLocator(xpath); ok {
		var found []*html.Node
		walkElements(doc, func(n *html.Node) {
			if attr(n, "id") == id {
				found = append(found, n)
			}
		})
		return found
	}
	if !strings.HasPrefix(xpath, "/") {
		return nil
	}

	steps := strings.Split(strings.Trim(xpath, "/"), "/")
	if len(steps) == 1 && steps[0] == "" {
		steps = nil
	}

	var cur *html.Node
	if len(steps) > 0 && strings.HasPrefix(steps[0], "html[") {
		cur = doc
	} else {
		cur = findBody(doc)
	}
	if cur == nil {
		return nil
	}

	for _, step := range steps {
		tag, pos, ok := parseStep(step)
		if !ok {
			return nil
		}
		cur = nthChild(cur, tag, pos)
		if cur == nil {
			return nil
		}
	}
	return []*html.Node{cur}
}

func idLocator(xpath string) (string, bool) {
	const prefix, suffix = `//*[@id="`, `"]`
	if !strings.HasPrefix(xpath, prefix) || !strings.HasSuffix(xpath, suffix) {
		return "", false
	}
	return xpath[len(prefix) : len(xpath)-len(suffix)], true
}

// parseStep parses "div[2]".
func parseStep(step string) (string, int, bool) {
	open := strings.IndexByte(step, '[')
	if open <= 0 || !strings.HasSuffix(step, "]") {
		return "", 0, false
	}
	n, err := strconv.Atoi(step[open+1 : len(step)-1])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return step[:open], n, true
}

func nthChild(parent *html.Node, tag string, pos int) *html.Node {
	seen := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			seen++
			if seen == pos {
				return c
			}
		}
	}
	return nil
}

func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	walkElements(doc, func(n *html.Node) {
		if body == nil && n.Data == "body" {
			body = n
		}
	})
	return body
}

func walkElements(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, fn)
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
