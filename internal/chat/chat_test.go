// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/tasks"
)

// gatedTransport blocks every SendChat until release is closed.
type gatedTransport struct {
	calls   atomic.Int32
	release chan struct{}
	reply   *backend.ChatReply
	err     error

	mu   sync.Mutex
	reqs []backend.ChatRequest
}

func newGated(reply *backend.ChatReply, err error) *gatedTransport {
	return &gatedTransport{release: make(chan struct{}), reply: reply, err: err}
}

func (g *gatedTransport) SendChat(ctx context.Context, req backend.ChatRequest) (*backend.ChatReply, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	g.mu.Unlock()
	<-g.release
	return g.reply, g.err
}

func waitTask(t *testing.T, task *tasks.Task[Message]) (Message, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return task.Wait(ctx)
}

func TestSend_OptimisticOrdering(t *testing.T) {
	tr := newGated(&backend.ChatReply{Reply: "Acknowledged, operator."}, nil)
	s := NewSession(tr, func() (string, string) { return "alice", "operator" }, nil)

	task, ok := s.Send(context.Background(), "hello")
	if !ok {
		t.Fatal("Send refused")
	}

	h := s.History()
	if len(h) != 1 {
		t.Fatalf("history = %d, want 1", len(h))
	}
	if h[0].Text != "hello" || h[0].Sender != SenderUser || !h[0].Pending {
		t.Errorf("optimistic message = %+v", h[0])
	}
	if !s.Sending() {
		t.Error("Sending() = false while in flight")
	}

	close(tr.release)
	reply, err := waitTask(t, task)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.Text != "Acknowledged, operator." {
		t.Errorf("reply = %q", reply.Text)
	}

	h = s.History()
	if len(h) != 2 {
		t.Fatalf("history = %d, want 2", len(h))
	}
	if h[0].Text != "hello" || h[0].Sender != SenderUser || h[0].Pending {
		t.Errorf("user message = %+v", h[0])
	}
	if h[1].Sender != SenderBank || h[1].Text != "Acknowledged, operator." {
		t.Errorf("bank message = %+v", h[1])
	}
	if s.Sending() {
		t.Error("Sending() = true after reply")
	}
}

func TestSend_Payload(t *testing.T) {
	tr := newGated(&backend.ChatReply{Reply: "ok"}, nil)
	close(tr.release)
	s := NewSession(tr, func() (string, string) { return "alice", "viewer" }, nil)
	fixed := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	task, ok := s.Send(context.Background(), "  status report  ")
	if !ok {
		t.Fatal("Send refused")
	}
	if _, err := waitTask(t, task); err != nil {
		t.Fatalf("reply: %v", err)
	}

	if len(tr.reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(tr.reqs))
	}
	want := backend.ChatRequest{
		Event:     "MESSAGE_SENT",
		User:      "alice",
		Role:      "viewer",
		Message:   "  status report  ",
		Timestamp: "2025-06-01T12:30:00.000Z",
	}
	if tr.reqs[0] != want {
		t.Errorf("request = %+v, want %+v", tr.reqs[0], want)
	}
}

func TestSend_DefaultIdentity(t *testing.T) {
	tr := newGated(nil, nil)
	close(tr.release)
	s := NewSession(tr, nil, nil)

	task, _ := s.Send(context.Background(), "hi")
	if _, err := waitTask(t, task); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if tr.reqs[0].User != "Unknown" || tr.reqs[0].Role != "operator" {
		t.Errorf("identity = %q/%q, want Unknown/operator", tr.reqs[0].User, tr.reqs[0].Role)
	}
}

func TestSend_DefaultReplyWhenMissing(t *testing.T) {
	for name, reply := range map[string]*backend.ChatReply{
		"nil reply":   nil,
		"empty reply": {Reply: ""},
		"blank reply": {Reply: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			tr := newGated(reply, nil)
			close(tr.release)
			s := NewSession(tr, nil, nil)
			task, _ := s.Send(context.Background(), "ping")
			msg, err := waitTask(t, task)
			if err != nil {
				t.Fatalf("reply: %v", err)
			}
			if msg.Text != DefaultReply {
				t.Errorf("reply = %q, want %q", msg.Text, DefaultReply)
			}
		})
	}
}

func TestSend_FailureAppendsFallback(t *testing.T) {
	tr := newGated(nil, &backend.NetworkError{Op: "send chat", Err: errors.New("timeout")})
	close(tr.release)
	s := NewSession(tr, nil, nil)

	task, ok := s.Send(context.Background(), "anyone there?")
	if !ok {
		t.Fatal("Send refused")
	}
	_, err := waitTask(t, task)

	var se *SendError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SendError", err)
	}
	if !errors.Is(err, backend.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
	if se.Fallback.Text != FallbackReply {
		t.Errorf("fallback = %q", se.Fallback.Text)
	}

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("history = %d, want 2", len(h))
	}
	if h[0].Text != "anyone there?" {
		t.Errorf("first = %q", h[0].Text)
	}
	if h[1].Text != FallbackReply || h[1].Sender != SenderBank {
		t.Errorf("second = %+v, want bank fallback", h[1])
	}
	if s.Sending() {
		t.Error("Sending() = true after failure")
	}
}

func TestSend_RejectsBlank(t *testing.T) {
	tr := newGated(nil, nil)
	s := NewSession(tr, nil, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		if task, ok := s.Send(context.Background(), text); ok || task != nil {
			t.Errorf("Send(%q) = %v, %v; want nil, false", text, task, ok)
		}
	}
	if n := len(s.History()); n != 0 {
		t.Errorf("history = %d, want 0", n)
	}
	if n := tr.calls.Load(); n != 0 {
		t.Errorf("transport calls = %d, want 0", n)
	}
}

func TestSend_SingleFlight(t *testing.T) {
	tr := newGated(&backend.ChatReply{Reply: "r"}, nil)
	s := NewSession(tr, nil, nil)

	first, ok := s.Send(context.Background(), "one")
	if !ok {
		t.Fatal("first Send refused")
	}
	if second, ok := s.Send(context.Background(), "two"); ok || second != nil {
		t.Error("second Send accepted while the first is in flight")
	}

	close(tr.release)
	if _, err := waitTask(t, first); err != nil {
		t.Fatalf("reply: %v", err)
	}

	if n := tr.calls.Load(); n != 1 {
		t.Errorf("transport calls = %d, want 1", n)
	}
	h := s.History()
	if len(h) != 2 || h[0].Text != "one" {
		t.Errorf("history = %+v", h)
	}
}

func TestDraft(t *testing.T) {
	tr := newGated(&backend.ChatReply{Reply: "r"}, nil)
	s := NewSession(tr, nil, nil)

	s.SetDraft("   ")
	if _, ok := s.SendDraft(context.Background()); ok {
		t.Error("blank draft sent")
	}
	if d := s.Draft(); d != "   " {
		t.Errorf("draft = %q, want it kept after a refused send", d)
	}

	s.SetDraft("deploy countermeasures")
	task, ok := s.SendDraft(context.Background())
	if !ok {
		t.Fatal("SendDraft refused")
	}
	if d := s.Draft(); d != "" {
		t.Errorf("draft = %q, want cleared", d)
	}

	close(tr.release)
	if _, err := waitTask(t, task); err != nil {
		t.Fatalf("reply: %v", err)
	}
}

func TestChangedSignal(t *testing.T) {
	tr := newGated(&backend.ChatReply{Reply: "r"}, nil)
	s := NewSession(tr, nil, nil)

	task, _ := s.Send(context.Background(), "hi")
	select {
	case <-s.Changed():
	case <-time.After(time.Second):
		t.Fatal("no change signal after optimistic append")
	}

	close(tr.release)
	if _, err := waitTask(t, task); err != nil {
		t.Fatalf("reply: %v", err)
	}
	select {
	case <-s.Changed():
	case <-time.After(time.Second):
		t.Fatal("no change signal after reply")
	}
}

func TestReset_DiscardsLateReply(t *testing.T) {
	tr := newGated(&backend.ChatReply{Reply: "late"}, nil)
	s := NewSession(tr, nil, nil)

	task, ok := s.Send(context.Background(), "before logout")
	if !ok {
		t.Fatal("Send refused")
	}
	s.Reset()
	if n := len(s.History()); n != 0 {
		t.Errorf("history = %d after Reset", n)
	}
	if s.Sending() {
		t.Error("Sending() = true after Reset")
	}

	close(tr.release)
	if _, err := waitTask(t, task); !errors.Is(err, tasks.ErrStale) {
		t.Errorf("err = %v, want ErrStale", err)
	}
	if n := len(s.History()); n != 0 {
		t.Errorf("late reply applied: history = %d", n)
	}

	// a new send works after reset
	tr2 := newGated(&backend.ChatReply{Reply: "fresh"}, nil)
	close(tr2.release)
	s.transport = tr2
	next, ok := s.Send(context.Background(), "after")
	if !ok {
		t.Fatal("Send after Reset refused")
	}
	msg, err := waitTask(t, next)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if msg.Text != "fresh" {
		t.Errorf("reply = %q, want fresh", msg.Text)
	}
}
