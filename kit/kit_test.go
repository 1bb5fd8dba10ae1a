package kit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	resp, err := Chain(mw("a"), mw("b"))(base)(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "endpoint", "b_after", "a_after"}
	if strings.Join(order, ",") != strings.Join(expected, ",") {
		t.Fatalf("order: got %v, want %v", order, expected)
	}
}

func TestLogging_Failure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	errFail := errors.New("fail")

	ep := Logging(logger, "dompick_selection")(func(context.Context, any) (any, error) {
		return nil, errFail
	})
	ctx := WithRequestID(WithTransport(context.Background(), "mcp"), "req_1")
	if _, err := ep(ctx, nil); !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}

	out := buf.String()
	for _, want := range []string{`"kit: call failed"`, `"endpoint":"dompick_selection"`, `"transport":"mcp"`, `"request_id":"req_1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s: %s", want, out)
		}
	}
}

func TestContext_Defaults(t *testing.T) {
	ctx := context.Background()
	if v := GetTransport(ctx); v != "http" {
		t.Fatalf("default transport: got %q, want 'http'", v)
	}
	if v := GetRequestID(ctx); v != "" {
		t.Fatalf("request_id default: got %q", v)
	}
}

var testImpl = &mcp.Implementation{Name: "kit-test", Version: "0.1.0"}

type echoRequest struct {
	Text string `json:"text"`
}

func mcpSession(t *testing.T, srv *mcp.Server) *mcp.ClientSession {
	t.Helper()
	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() {
		_ = srv.Run(ctx, serverT)
	}()
	session, err := mcp.NewClient(testImpl, nil).Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestRegisterMCPTool(t *testing.T) {
	srv := mcp.NewServer(testImpl, nil)
	tool := &mcp.Tool{
		Name: "echo",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
		},
	}
	RegisterMCPTool(srv, tool, func(ctx context.Context, req any) (any, error) {
		r := req.(*echoRequest)
		if r.Text == "boom" {
			return nil, errors.New("boom")
		}
		return map[string]string{"text": r.Text, "transport": GetTransport(ctx), "request_id": GetRequestID(ctx)}, nil
	}, DecodeArgs[echoRequest])

	session := mcpSession(t, srv)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "echo",
		Arguments: map[string]any{"text": "hi"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(res.Content[0].(*mcp.TextContent).Text), &got); err != nil {
		t.Fatal(err)
	}
	if got["text"] != "hi" || got["transport"] != "mcp" {
		t.Errorf("response: got %v", got)
	}
	if len(got["request_id"]) != 36 {
		t.Errorf("request_id: got %q, want a UUID", got["request_id"])
	}

	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "echo",
		Arguments: map[string]any{"text": "boom"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected tool error")
	}
}
