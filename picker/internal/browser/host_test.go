package browser

import (
	"strings"
	"testing"
)

func TestHostHTML_EmbedsFrame(t *testing.T) {
	doc := hostHTML("https://example.com/a?b=1&c=2", "page-1")

	if !strings.Contains(doc, `<iframe id="dompick-frame" src="https://example.com/a?b=1&amp;c=2">`) {
		t.Errorf("iframe src not escaped or missing:\n%s", doc)
	}
	if !strings.Contains(doc, "<title>dompick · page-1</title>") {
		t.Errorf("title missing page id:\n%s", doc)
	}
	if !strings.Contains(doc, "height: 100%;") {
		t.Errorf("style percent not rendered:\n%s", doc)
	}
}

func TestHostHTML_EscapesQuotes(t *testing.T) {
	doc := hostHTML(`https://x/"><script>`, "p")
	if strings.Contains(doc, `"><script>`) {
		t.Errorf("page URL breaks out of the src attribute:\n%s", doc)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.defaults()
	if cfg.MemoryLimit != 1<<30 {
		t.Errorf("MemoryLimit: got %d, want %d", cfg.MemoryLimit, 1<<30)
	}
	if cfg.RecycleInterval <= 0 {
		t.Errorf("RecycleInterval: got %v, want > 0", cfg.RecycleInterval)
	}
	if cfg.Logger == nil {
		t.Error("Logger: got nil")
	}
}
