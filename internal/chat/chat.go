// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the secure chat pane's message history.
//
// Sends are optimistic: the operator's message is appended immediately and
// the Command Center's reply, or a fallback notice when the call fails, is
// appended when the call settles. Only one send may be outstanding.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/logging"
	"github.com/nyawara2025/dubaibankcases/internal/tasks"
)

// Reply texts.
const (
	DefaultReply  = "Directive received. Processing..."
	FallbackReply = "Connection lost. Command Center unreachable."
)

// Payload defaults.
const (
	EventMessageSent = "MESSAGE_SENT"
	DefaultName      = "Unknown"
	DefaultRole      = "operator"
)

// isoMillis matches the timestamp layout the webhook flows expect.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBank Sender = "bank"
)

// Message is one chat history entry.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time

	// Pending is set on the operator's message until the reply arrives.
	Pending bool
}

// Transport is the part of the backend the chat needs.
type Transport interface {
	SendChat(ctx context.Context, req backend.ChatRequest) (*backend.ChatReply, error)
}

// IdentityFunc returns the current operator's name and role.
type IdentityFunc func() (name, role string)

// SendError is a failed send. Fallback is the notice appended to history.
type SendError struct {
	Err      error
	Fallback Message
}

func (e *SendError) Error() string {
	return fmt.Sprintf("chat send failed: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Session holds the chat history, the draft buffer and the single-flight
// send guard.
type Session struct {
	transport Transport
	identity  IdentityFunc
	log       *slog.Logger
	now       func() time.Time

	epoch tasks.Epoch

	mu      sync.Mutex
	history []Message
	draft   string
	sending bool

	changed chan struct{}
}

// NewSession creates an empty chat session. identity may be nil.
func NewSession(transport Transport, identity IdentityFunc, log *slog.Logger) *Session {
	return &Session{
		transport: transport,
		identity:  identity,
		log:       logging.OrDiscard(log).With("component", "chat"),
		now:       time.Now,
		changed:   make(chan struct{}, 1),
	}
}

// Send appends text as the operator's message and asks the Command Center
// for a reply. It is a no-op returning (nil, false) when text is blank or a
// send is already outstanding.
//
// The returned task completes with the appended reply. On a network failure
// it fails with a *SendError whose Fallback is the appended notice. A reply
// arriving after Reset is discarded.
func (s *Session) Send(ctx context.Context, text string) (*tasks.Task[Message], bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, false
	}

	sent := Message{
		ID:        uuid.New().String(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: s.now(),
		Pending:   true,
	}
	s.history = append(s.history, sent)
	s.draft = ""
	s.sending = true
	t := tasks.New[Message]("chat send", s.epoch.Current())
	s.mu.Unlock()
	s.notify()

	name, role := s.currentIdentity()
	req := backend.ChatRequest{
		Event:     EventMessageSent,
		User:      name,
		Message:   text,
		Role:      role,
		Timestamp: sent.Timestamp.UTC().Format(isoMillis),
	}

	go s.await(ctx, t, sent.ID, req)
	return t, true
}

func (s *Session) await(ctx context.Context, t *tasks.Task[Message], sentID string, req backend.ChatRequest) {
	reply, err := s.transport.SendChat(ctx, req)

	s.mu.Lock()
	if !s.epoch.IsCurrent(t.Epoch) {
		s.mu.Unlock()
		s.log.Debug("discarding chat reply from previous session", "task", t.ID)
		t.Discard()
		return
	}

	text := FallbackReply
	switch {
	case err != nil:
		s.log.Warn("chat send failed", "task", t.ID, "error", err)
	case reply == nil || strings.TrimSpace(reply.Reply) == "":
		text = DefaultReply
	default:
		text = reply.Reply
	}

	for i := range s.history {
		if s.history[i].ID == sentID {
			s.history[i].Pending = false
			break
		}
	}
	msg := Message{ID: uuid.New().String(), Text: text, Sender: SenderBank, Timestamp: s.now()}
	s.history = append(s.history, msg)
	s.sending = false
	s.mu.Unlock()
	s.notify()

	if err != nil {
		t.Fail(&SendError{Err: err, Fallback: msg})
		return
	}
	t.Complete(msg)
}

func (s *Session) currentIdentity() (string, string) {
	var name, role string
	if s.identity != nil {
		name, role = s.identity()
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	if strings.TrimSpace(role) == "" {
		role = DefaultRole
	}
	return name, role
}

// SetDraft replaces the input buffer.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// Draft returns the input buffer.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SendDraft sends the input buffer. The buffer is kept when the send is
// refused.
func (s *Session) SendDraft(ctx context.Context) (*tasks.Task[Message], bool) {
	return s.Send(ctx, s.Draft())
}

// History returns a copy of the messages in insertion order.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Sending reports whether a send is outstanding.
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Changed receives a value after the history changes. Bursts of changes
// coalesce into one notification.
func (s *Session) Changed() <-chan struct{} {
	return s.changed
}

// Reset tears the session down: history and draft are cleared and any
// outstanding reply will be discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	s.epoch.Advance()
	s.history = nil
	s.draft = ""
	s.sending = false
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
