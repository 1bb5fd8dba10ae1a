package picker

import (
	"testing"
)

func TestBuildSinks(t *testing.T) {
	sinks, stream, err := BuildSinks([]SinkConfig{
		{Type: "stdout"},
		{Type: "webhook", URL: "http://127.0.0.1:1/hook"},
		{Type: "stream"},
		{Type: "stream"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sinks) != 3 {
		t.Fatalf("sinks: got %d, want 3", len(sinks))
	}
	if stream == nil {
		t.Fatal("stream sink not returned")
	}

	if _, _, err := BuildSinks([]SinkConfig{{Type: "kafka"}}, nil); err == nil {
		t.Fatal("expected error for unknown sink type")
	}
}
