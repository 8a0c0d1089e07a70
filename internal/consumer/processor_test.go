package consumer

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestProcessorCommitsOnSuccess(t *testing.T) {
	msg := kafka.Message{
		Topic:     "issue_events",
		Partition: 0,
		Offset:    7,
		Time:      time.Now(),
		Headers:   []kafka.Header{{Key: "event_type", Value: []byte("issue.created")}},
		Value:     []byte(`{"issue_id":"i-1"}`),
	}
	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{}

	proc := NewProcessor(reader, handler, WithLogger(log.New(discard{}, "", 0)))
	err := proc.Run(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}

	if len(handler.seen) != 1 {
		t.Fatalf("expected 1 handled message, got %d", len(handler.seen))
	}
	if handler.seen[0].EventType != "issue.created" {
		t.Fatalf("unexpected event type %q", handler.seen[0].EventType)
	}
	if reader.commits != 1 {
		t.Fatalf("expected 1 commit, got %d", reader.commits)
	}
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	msg := kafka.Message{
		Topic:   "issue_events",
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("issue.created")}},
		Value:   []byte(`{}`),
	}
	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{err: errors.New("boom")}

	proc := NewProcessor(reader, handler, WithLogger(log.New(discard{}, "", 0)))
	_ = proc.Run(context.Background())

	if reader.commits != 0 {
		t.Fatalf("expected no commits, got %d", reader.commits)
	}
}

func TestProcessorCommitsMalformedMessages(t *testing.T) {
	msg := kafka.Message{
		Topic: "issue_events",
		Value: []byte("not json"),
	}
	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{}

	proc := NewProcessor(reader, handler, WithLogger(log.New(discard{}, "", 0)))
	_ = proc.Run(context.Background())

	if len(handler.seen) != 0 {
		t.Fatalf("handler should not see malformed messages")
	}
	if reader.commits != 1 {
		t.Fatalf("malformed message should be committed, got %d commits", reader.commits)
	}
}

type stubReader struct {
	messages []kafka.Message
	commits  int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commits++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	seen []Message
	err  error
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	if h.err != nil {
		return h.err
	}
	h.seen = append(h.seen, msg)
	return nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
