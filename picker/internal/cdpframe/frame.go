// Package cdpframe implements the dom interfaces for an iframe inside a
// Chrome page driven by go-rod.
//
// An injected runtime keeps a registry of element handles in the frame and
// forwards listener events to Go through a CDP binding. Element values are
// registry ids; the Go side keeps one wrapper per id so equal handles
// compare equal. Listener options are applied in-page, so Intercept cancels
// the event before the page's own handlers see it.
package cdpframe

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/dompick/picker/dom"
)

//go:embed runtime.js
var runtimeJS string

// BindingName is the CDP binding the runtime reports events through.
const BindingName = "__dompick_binding"

// Config for attaching to a frame.
type Config struct {
	// Host is the page that embeds the iframe.
	Host *rod.Page
	// Selector locates the iframe element in Host.
	Selector string
	// CallTimeout bounds every DOM call. Default: 5s.
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// Frame is a Chrome iframe seen through the dom interfaces.
type Frame struct {
	host     *rod.Page
	page     *rod.Page
	selector string
	timeout  time.Duration
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	doc *document
	win *window

	mu        sync.Mutex
	elems     map[int]*element
	sweepAt   int
	listeners map[int]dom.Listener
	nextLID   int
	closed    bool
}

// Attach injects the runtime into the iframe and starts the event pump.
// The iframe must have finished loading.
func Attach(ctx context.Context, cfg Config) (*Frame, error) {
	if cfg.Host == nil {
		return nil, fmt.Errorf("cdpframe: nil host page")
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	host := cfg.Host.Context(ctx)
	iframe, err := host.Element(cfg.Selector)
	if err != nil {
		return nil, fmt.Errorf("cdpframe: find iframe %s: %w", cfg.Selector, err)
	}
	page, err := iframe.Frame()
	if err != nil {
		return nil, fmt.Errorf("cdpframe: frame page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("cdpframe: wait frame load: %w", err)
	}

	if err := (proto.RuntimeAddBinding{Name: BindingName}).Call(cfg.Host); err != nil {
		cfg.Logger.Warn("cdpframe: addBinding failed (may already exist)", "error", err)
	}
	if _, err := page.Eval(runtimeJS); err != nil {
		return nil, fmt.Errorf("cdpframe: inject runtime: %w", err)
	}

	pumpCtx, cancel := context.WithCancel(ctx)
	f := &Frame{
		host:      cfg.Host,
		page:      page,
		selector:  cfg.Selector,
		timeout:   cfg.CallTimeout,
		logger:    cfg.Logger,
		ctx:       pumpCtx,
		cancel:    cancel,
		elems:     make(map[int]*element),
		sweepAt:   minSweep,
		listeners: make(map[int]dom.Listener),
	}
	f.doc = &document{f: f}
	f.win = &window{f: f}

	go f.pump()

	cfg.Logger.Debug("cdpframe: attached", "selector", cfg.Selector)
	return f, nil
}

// ContentWindow returns nil once the frame is closed.
func (f *Frame) ContentWindow() dom.Window {
	if f.isClosed() {
		return nil
	}
	return f.win
}

// ContentDocument returns nil once the frame is closed.
func (f *Frame) ContentDocument() dom.Document {
	if f.isClosed() {
		return nil
	}
	return f.doc
}

// Close stops the event pump and clears the in-page runtime state.
func (f *Frame) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.listeners = make(map[int]dom.Listener)
	f.elems = make(map[int]*element)
	f.mu.Unlock()

	_, err := f.eval(`() => window.__dompick && window.__dompick.reset()`)
	f.cancel()
	return err
}

func (f *Frame) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// bindingEvent is the payload the runtime sends for each event.
type bindingEvent struct {
	Listener int     `json:"listener"`
	Type     string  `json:"type"`
	Target   int     `json:"target"`
	Data     *string `json:"data"`
}

// pump delivers binding calls to listeners, one at a time, in the order
// Chrome reports them.
func (f *Frame) pump() {
	f.host.Context(f.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != BindingName {
			return
		}
		var be bindingEvent
		if err := json.Unmarshal([]byte(e.Payload), &be); err != nil {
			f.logger.Warn("cdpframe: parse binding payload", "error", err)
			return
		}

		f.mu.Lock()
		fn, ok := f.listeners[be.Listener]
		closed := f.closed
		f.mu.Unlock()
		if !ok || closed {
			return
		}

		ev := &event{typ: be.Type}
		if be.Target != 0 {
			ev.target = f.element(be.Target)
		}
		if be.Data != nil {
			ev.data = []byte(*be.Data)
		}
		fn(ev)
		f.sweep()
	})()
}

// minSweep is the wrapper count that triggers the first sweep.
const minSweep = 512

// sweep drops wrappers whose node the page has collected. It runs on the
// pump goroutine once the wrapper count doubles since the last sweep.
func (f *Frame) sweep() {
	ids := f.sweepCandidates()
	if ids == nil {
		return
	}
	res, err := f.eval(`(ids) => ids.filter((id) => !window.__dompick.get(id))`, ids)
	if err != nil {
		f.logger.Debug("cdpframe: sweep", "error", err)
		f.evict(nil)
		return
	}
	var dead []int
	if err := res.Value.Unmarshal(&dead); err != nil {
		f.logger.Debug("cdpframe: sweep result", "error", err)
	}
	f.evict(dead)
}

// sweepCandidates returns every wrapped id when a sweep is due, nil otherwise.
func (f *Frame) sweepCandidates() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || len(f.elems) < f.sweepAt {
		return nil
	}
	ids := make([]int, 0, len(f.elems))
	for id := range f.elems {
		ids = append(ids, id)
	}
	return ids
}

// evict removes dead ids and sets the next sweep threshold.
func (f *Frame) evict(dead []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range dead {
		delete(f.elems, id)
	}
	f.sweepAt = max(minSweep, 2*len(f.elems))
}

func (f *Frame) addListener(scope, typ string, fn dom.Listener, opts dom.ListenerOptions) func() {
	f.mu.Lock()
	f.nextLID++
	lid := f.nextLID
	f.listeners[lid] = fn
	f.mu.Unlock()

	_, err := f.eval(`(lid, scope, type, capture, intercept) =>
		window.__dompick.listen(lid, scope, type, capture, intercept)`,
		lid, scope, typ, opts.Capture, opts.Intercept)
	if err != nil {
		f.logger.Warn("cdpframe: add listener", "type", typ, "error", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, lid)
			f.mu.Unlock()
			if _, err := f.eval(`(lid) => window.__dompick && window.__dompick.unlisten(lid)`, lid); err != nil {
				f.logger.Debug("cdpframe: remove listener", "type", typ, "error", err)
			}
		})
	}
}

// element returns the wrapper for a registry id, or nil for id 0.
func (f *Frame) element(id int) dom.Element {
	if id == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if el, ok := f.elems[id]; ok {
		return el
	}
	el := &element{f: f, id: id}
	f.elems[id] = el
	return el
}

func (f *Frame) eval(js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	return f.page.Context(f.ctx).Timeout(f.timeout).Eval(js, args...)
}

// evalID runs js and maps the registry id it returns to an element.
func (f *Frame) evalID(js string, args ...any) dom.Element {
	res, err := f.eval(js, args...)
	if err != nil {
		f.logger.Debug("cdpframe: eval", "error", err)
		return nil
	}
	return f.element(res.Value.Int())
}

type event struct {
	typ    string
	target dom.Element
	data   []byte
}

func (e *event) Type() string        { return e.typ }
func (e *event) Target() dom.Element { return e.target }
func (e *event) Data() []byte        { return e.data }
