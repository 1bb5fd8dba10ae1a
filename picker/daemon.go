package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/dompick/idgen"
	"github.com/hazyhaar/dompick/picker/dom"
	"github.com/hazyhaar/dompick/picker/editmode"
	"github.com/hazyhaar/dompick/picker/internal/browser"
	"github.com/hazyhaar/dompick/picker/internal/cdpframe"
	"github.com/hazyhaar/dompick/picker/internal/config"
	"github.com/hazyhaar/dompick/picker/internal/sink"
	"github.com/hazyhaar/dompick/picker/selection"
)

var (
	// ErrUnknownPage is returned for a page ID the picker does not host.
	ErrUnknownPage = errors.New("picker: unknown page")
	// ErrNotAttached is returned when a page's frame is not attached, for
	// example while Chrome is recycling.
	ErrNotAttached = errors.New("picker: page not attached")
)

// PageInfo describes one hosted page.
type PageInfo struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Attached bool   `json:"attached"`
	EditMode bool   `json:"edit_mode"`
	Selected bool   `json:"selected"`
}

// Picker is the daemon-side orchestrator. It owns the browser, one host tab
// per page, the agents picking inside them and the sinks selections go to.
type Picker struct {
	cfg    *config.Config
	mgr    *browser.Manager
	sinks  *sink.Queue
	newID  idgen.Generator
	logger *slog.Logger

	mu    sync.Mutex
	ctx   context.Context
	pages map[string]*hostedPage
	order []string
}

// hostedPage is the state kept for one page across recycles.
type hostedPage struct {
	cfg config.PageConfig

	// Set while attached.
	frame dom.Frame
	agent *Agent
	close func()

	mu   sync.Mutex
	last *selection.Event
}

// New creates a Picker from configuration. Call Start to launch Chrome and
// open the configured pages.
func New(cfg *config.Config, logger *slog.Logger, sinks ...sink.Sink) *Picker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.ApplyDefaults()

	mgr := browser.NewManager(browser.Config{
		RemoteURL:       cfg.Browser.Remote,
		Headless:        cfg.Browser.Headless,
		XvfbDisplay:     cfg.Browser.XvfbDisplay,
		MemoryLimit:     cfg.Browser.MemoryLimit,
		RecycleInterval: cfg.Browser.RecycleInterval,
		Logger:          logger,
	})

	return &Picker{
		cfg:    cfg,
		mgr:    mgr,
		sinks:  sink.NewQueue(sink.NewRouter(logger, sinks...), sink.DefaultQueueSize, logger),
		newID:  idgen.Default,
		logger: logger,
		ctx:    context.Background(),
		pages:  make(map[string]*hostedPage),
	}
}

// Start launches the browser and opens every configured page. A page that
// fails to open is logged and left detached.
func (p *Picker) Start(ctx context.Context) error {
	b, err := p.mgr.Start(ctx)
	if err != nil {
		return fmt.Errorf("picker: start browser: %w", err)
	}

	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	p.mgr.SetRecycleCallback(&browser.RecycleCallback{
		BeforeRecycle: p.detachAll,
		AfterRecycle:  func(b *rod.Browser) { p.reattachAll(ctx, b) },
	})

	for _, pc := range p.cfg.Pages {
		if err := p.openPage(ctx, b, pc); err != nil {
			p.logger.Error("picker: failed to open page", "url", pc.URL, "id", pc.ID, "error", err)
		}
	}
	return nil
}

// AddPage hosts one more page in the running browser.
func (p *Picker) AddPage(ctx context.Context, pc config.PageConfig) error {
	if pc.URL == "" {
		return fmt.Errorf("picker: page has no url")
	}
	if pc.ID == "" {
		pc.ID = p.newID()
	}
	return p.openPage(ctx, p.mgr.Browser(), pc)
}

// Pages lists hosted pages in the order they were added.
func (p *Picker) Pages() []PageInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PageInfo, 0, len(p.order))
	for _, id := range p.order {
		hp := p.pages[id]
		info := PageInfo{ID: id, URL: hp.cfg.URL, Attached: hp.frame != nil}
		if hp.agent != nil {
			info.EditMode = hp.agent.Active()
		}
		hp.mu.Lock()
		info.Selected = hp.last != nil && !hp.last.Cleared
		hp.mu.Unlock()
		out = append(out, info)
	}
	return out
}

// Enable signals pageID's frame to start picking.
func (p *Picker) Enable(pageID string) error {
	frame, err := p.attachedFrame(pageID)
	if err != nil {
		return err
	}
	editmode.Enable(frame, p.logger)
	return nil
}

// Disable signals pageID's frame to stop picking.
func (p *Picker) Disable(pageID string) error {
	frame, err := p.attachedFrame(pageID)
	if err != nil {
		return err
	}
	editmode.Disable(frame, p.logger)
	return nil
}

// Selection returns the last selection event of pageID. ok is false when
// nothing was picked on the page yet.
func (p *Picker) Selection(pageID string) (ev selection.Event, ok bool, err error) {
	p.mu.Lock()
	hp, found := p.pages[pageID]
	p.mu.Unlock()
	if !found {
		return selection.Event{}, false, fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}

	hp.mu.Lock()
	defer hp.mu.Unlock()
	if hp.last == nil {
		return selection.Event{}, false, nil
	}
	return *hp.last, true, nil
}

// Stop detaches every page, flushes queued selections, closes the sinks and
// shuts Chrome down.
func (p *Picker) Stop() {
	p.detachAll()
	if err := p.sinks.Close(); err != nil {
		p.logger.Warn("picker: close sinks", "error", err)
	}
	p.mgr.Close()
}

func (p *Picker) attachedFrame(pageID string) (dom.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hp, ok := p.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}
	if hp.frame == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAttached, pageID)
	}
	return hp.frame, nil
}

// openPage opens a host tab for pc in b and attaches to its frame.
func (p *Picker) openPage(ctx context.Context, b *rod.Browser, pc config.PageConfig) error {
	tab, err := browser.OpenHost(ctx, b, pc.URL, pc.ID)
	if err != nil {
		p.register(pc)
		return err
	}
	frame, err := cdpframe.Attach(ctx, cdpframe.Config{
		Host:        tab.Page,
		Selector:    browser.FrameSelector,
		CallTimeout: p.cfg.Browser.CallTimeout,
		Logger:      p.logger,
	})
	if err != nil {
		tab.Close()
		p.register(pc)
		return fmt.Errorf("picker: attach %s: %w", pc.ID, err)
	}

	p.attach(pc, frame, func() {
		if err := frame.Close(); err != nil {
			p.logger.Debug("picker: close frame", "id", pc.ID, "error", err)
		}
		if err := tab.Close(); err != nil {
			p.logger.Debug("picker: close tab", "id", pc.ID, "error", err)
		}
	})
	p.logger.Info("picker: hosting page", "url", pc.URL, "id", pc.ID)
	return nil
}

// register records pc without a frame so it stays listed and is retried
// after a recycle.
func (p *Picker) register(pc config.PageConfig) *hostedPage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registerLocked(pc)
}

func (p *Picker) registerLocked(pc config.PageConfig) *hostedPage {
	hp, ok := p.pages[pc.ID]
	if !ok {
		hp = &hostedPage{cfg: pc}
		p.pages[pc.ID] = hp
		p.order = append(p.order, pc.ID)
	}
	return hp
}

// attach wires an agent into frame and routes its selections to the sinks.
// closeFn releases whatever backs the frame.
func (p *Picker) attach(pc config.PageConfig, frame dom.Frame, closeFn func()) {
	p.mu.Lock()
	hp := p.registerLocked(pc)
	p.detachLocked(hp)
	hp.cfg = pc
	hp.frame = frame
	hp.close = closeFn
	hp.agent = NewAgent(frame, p.selectionHandler(hp), p.logger)
	p.mu.Unlock()

	if pc.AutoEnable {
		editmode.Enable(frame, p.logger)
	}
}

func (p *Picker) selectionHandler(hp *hostedPage) func(*Descriptor) {
	return func(d *Descriptor) {
		p.mu.Lock()
		ctx, pc := p.ctx, hp.cfg
		p.mu.Unlock()

		ev := selection.New(p.newID(), pc.ID, pc.URL, d)

		hp.mu.Lock()
		hp.last = &ev
		hp.mu.Unlock()

		// Runs on the frame's event goroutine; delivery happens on the queue.
		if err := p.sinks.SendSelection(ctx, ev); err != nil {
			p.logger.Warn("picker: selection not queued", "page_id", pc.ID, "error", err)
		}
	}
}

func (p *Picker) detachAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, hp := range p.pages {
		p.detachLocked(hp)
	}
}

func (p *Picker) detachLocked(hp *hostedPage) {
	if hp.agent != nil {
		hp.agent.Close()
		hp.agent = nil
	}
	if hp.close != nil {
		hp.close()
		hp.close = nil
	}
	hp.frame = nil
}

// reattachAll reopens every page in the fresh browser b. It runs inside the
// manager's recycle, so it must not call back into the manager.
func (p *Picker) reattachAll(ctx context.Context, b *rod.Browser) {
	p.mu.Lock()
	pcs := make([]config.PageConfig, 0, len(p.order))
	for _, id := range p.order {
		pcs = append(pcs, p.pages[id].cfg)
	}
	p.mu.Unlock()

	for _, pc := range pcs {
		if err := p.openPage(ctx, b, pc); err != nil {
			p.logger.Error("picker: reattach page failed", "url", pc.URL, "id", pc.ID, "error", err)
		}
	}
}
