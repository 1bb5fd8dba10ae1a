package picker

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/dompick/kit"
)

// RegisterMCP registers the picker tools on an MCP server.
func (p *Picker) RegisterMCP(srv *mcp.Server) {
	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "dompick_list_pages",
		Description: "List hosted pages with their attachment, edit mode and selection state.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, p.endpoint("dompick_list_pages", p.listPagesEndpoint()), kit.DecodeArgs[struct{}])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "dompick_edit_mode",
		Description: "Turn element picking on or off in a hosted page.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Hosted page ID"},
			"enabled": map[string]any{"type": "boolean", "description": "true to start picking, false to stop"},
		}, []string{"page_id", "enabled"}),
	}, p.endpoint("dompick_edit_mode", p.editModeEndpoint()), kit.DecodeArgs[editModeRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "dompick_selection",
		Description: "Return the element last picked in a hosted page: tag, id, class, text, XPath and CSS selector.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Hosted page ID"},
		}, []string{"page_id"}),
	}, p.endpoint("dompick_selection", p.selectionEndpoint()), kit.DecodeArgs[selectionRequest])
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
