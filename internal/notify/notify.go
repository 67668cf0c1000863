// Package notify delivers short user-facing messages (success, error, prompts)
// from the client state layer to whatever surface is showing them.
package notify

import (
	"fmt"
	"io"
	"sync"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Message struct {
	Level Level
	Text  string
}

type Notifier interface {
	Notify(level Level, text string)
}

func Success(n Notifier, text string) { n.Notify(LevelSuccess, text) }
func Error(n Notifier, text string)   { n.Notify(LevelError, text) }
func Info(n Notifier, text string)    { n.Notify(LevelInfo, text) }

// Writer prints each message on its own line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) Notify(level Level, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	prefix := "•"
	switch level {
	case LevelSuccess:
		prefix = "✓"
	case LevelError:
		prefix = "✗"
	}
	fmt.Fprintf(n.w, "%s %s\n", prefix, text)
}

// Recorder keeps every message in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Notify(level Level, text string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, Message{Level: level, Text: text})
	r.mu.Unlock()
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Last returns the most recent message, or the zero Message.
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return Message{}
	}
	return r.msgs[len(r.msgs)-1]
}

type nop struct{}

func (nop) Notify(Level, string) {}

// Nop discards everything.
var Nop Notifier = nop{}
