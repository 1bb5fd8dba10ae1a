package browser

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// FrameSelector locates the content iframe inside a host document.
const FrameSelector = "#dompick-frame"

const hostDocument = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>dompick · %s</title>
<style>
html, body { margin: 0; height: 100%%; }
iframe { border: 0; width: 100%%; height: 100%%; display: block; }
</style>
</head>
<body>
<iframe id="dompick-frame" src="%s"></iframe>
</body>
</html>`

// HostTab is a browser tab whose document embeds the page being picked in
// an iframe.
type HostTab struct {
	Page    *rod.Page
	PageURL string
	PageID  string
}

// OpenHost creates a stealth tab, writes the host document around pageURL
// and waits for the iframe to load. It takes the browser explicitly so it
// can run from a recycle callback.
func OpenHost(ctx context.Context, b *rod.Browser, pageURL, pageID string) (*HostTab, error) {
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	// The host document is ours; the embedded page's CSP must not stop the
	// injected runtime.
	if err := (proto.PageSetBypassCSP{Enabled: true}).Call(page); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: bypass CSP: %w", err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(loadCtx).SetDocumentContent(hostHTML(pageURL, pageID)); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: write host document: %w", err)
	}

	iframe, err := page.Context(loadCtx).Element(FrameSelector)
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: find frame: %w", err)
	}
	frame, err := iframe.Frame()
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: frame page: %w", err)
	}
	if err := frame.Context(loadCtx).WaitLoad(); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: wait frame load %s: %w", pageURL, err)
	}

	return &HostTab{Page: page, PageURL: pageURL, PageID: pageID}, nil
}

// hostHTML renders the host document embedding pageURL.
func hostHTML(pageURL, pageID string) string {
	return fmt.Sprintf(hostDocument, html.EscapeString(pageID), html.EscapeString(pageURL))
}

// Close closes the tab.
func (t *HostTab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
