package sse

import (
	"testing"
)

func TestEventEncode(t *testing.T) {
	ev := Event{Name: "test", ID: "7", Data: map[string]any{"message": "hi"}}
	frame, err := ev.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "event: test\nid: 7\ndata: {\"message\":\"hi\"}\n\n"
	if string(frame) != want {
		t.Errorf("frame = %q, want %q", frame, want)
	}
}

func TestEventEncodeWithoutID(t *testing.T) {
	frame, err := Event{Name: "ping", Data: map[string]any{}}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "event: ping\ndata: {}\n\n"
	if string(frame) != want {
		t.Errorf("frame = %q, want %q", frame, want)
	}
}
