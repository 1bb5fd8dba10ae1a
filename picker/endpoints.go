package picker

import (
	"context"
	"fmt"

	"github.com/hazyhaar/dompick/kit"
	"github.com/hazyhaar/dompick/picker/selection"
)

// Endpoints shared by the HTTP API and the MCP tools.

type editModeRequest struct {
	PageID  string `json:"page_id"`
	Enabled bool   `json:"enabled"`
}

type editModeResponse struct {
	PageID  string `json:"page_id"`
	Enabled bool   `json:"enabled"`
}

type selectionRequest struct {
	PageID string `json:"page_id"`
}

type selectionResponse struct {
	PageID   string           `json:"page_id"`
	Selected bool             `json:"selected"`
	Event    *selection.Event `json:"event,omitempty"`
}

func (p *Picker) listPagesEndpoint() kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return p.Pages(), nil
	}
}

func (p *Picker) editModeEndpoint() kit.Endpoint {
	return func(_ context.Context, req any) (any, error) {
		r := req.(*editModeRequest)
		if r.PageID == "" {
			return nil, fmt.Errorf("picker: page_id is required")
		}
		var err error
		if r.Enabled {
			err = p.Enable(r.PageID)
		} else {
			err = p.Disable(r.PageID)
		}
		if err != nil {
			return nil, err
		}
		return editModeResponse{PageID: r.PageID, Enabled: r.Enabled}, nil
	}
}

func (p *Picker) selectionEndpoint() kit.Endpoint {
	return func(_ context.Context, req any) (any, error) {
		r := req.(*selectionRequest)
		ev, ok, err := p.Selection(r.PageID)
		if err != nil {
			return nil, err
		}
		resp := selectionResponse{PageID: r.PageID}
		if ok {
			resp.Event = &ev
			resp.Selected = !ev.Cleared
		}
		return resp, nil
	}
}

// endpoint wraps ep with the logging middleware.
func (p *Picker) endpoint(name string, ep kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Logging(p.logger, name))(ep)
}
