package notify

import (
	"bytes"
	"testing"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriter(&buf)
	Success(n, "saved")
	Error(n, "failed")
	Info(n, "hello")
	want := "✓ saved\n✗ failed\n• hello\n"
	if buf.String() != want {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	if r.Last() != (Message{}) {
		t.Fatalf("expected empty last message")
	}
	Error(&r, "boom")
	Success(&r, "ok")
	msgs := r.Messages()
	if len(msgs) != 2 || msgs[0].Level != LevelError || r.Last().Text != "ok" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}
