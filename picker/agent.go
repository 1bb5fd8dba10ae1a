package picker

import (
	"log/slog"
	"sync"

	"github.com/hazyhaar/dompick/picker/dom"
	"github.com/hazyhaar/dompick/picker/editmode"
	"github.com/hazyhaar/dompick/picker/session"
)

// Agent is the embedded side of the edit-mode channel. It listens for
// editmode messages on the frame's window and starts or stops a picking
// session accordingly.
type Agent struct {
	mu         sync.Mutex
	frame      dom.Frame
	onSelected session.SelectFunc
	opts       []session.Option
	logger     *slog.Logger
	sess       *session.Controller
	remove     func()
}

// NewAgent attaches an Agent to frame. Session options are applied to every
// session the agent starts. If the frame has no window yet the agent is
// inert and the caller should retry after load.
func NewAgent(frame dom.Frame, onSelected session.SelectFunc, logger *slog.Logger, opts ...session.Option) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{
		frame:      frame,
		onSelected: onSelected,
		opts:       append([]session.Option{session.WithLogger(logger)}, opts...),
		logger:     logger,
	}

	var win dom.Window
	if frame != nil {
		win = frame.ContentWindow()
	}
	if win == nil {
		logger.Warn("picker: agent frame not loaded")
		return a
	}
	a.remove = win.AddEventListener(dom.EventMessage, a.handleMessage, dom.ListenerOptions{})
	return a
}

// Active reports whether a picking session is running.
func (a *Agent) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess != nil && a.sess.Active()
}

// Close detaches the message listener and stops any running session.
func (a *Agent) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.remove != nil {
		a.remove()
		a.remove = nil
	}
	a.stopLocked()
}

func (a *Agent) handleMessage(ev dom.Event) {
	msg, err := editmode.Decode(ev.Data())
	if err != nil {
		a.logger.Debug("picker: ignoring message", "error", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch msg.Type {
	case editmode.TypeEnable:
		if a.sess != nil && a.sess.Active() {
			return
		}
		a.sess = session.Start(a.frame, a.onSelected, a.opts...)
		a.logger.Info("picker: edit mode enabled", "active", a.sess.Active())
	case editmode.TypeDisable:
		if a.sess == nil {
			return
		}
		a.stopLocked()
		a.logger.Info("picker: edit mode disabled")
	}
}

func (a *Agent) stopLocked() {
	if a.sess != nil {
		a.sess.Close()
		a.sess = nil
	}
}
