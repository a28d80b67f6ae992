package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func TestConversationRunMigrationsExecutesSchema(t *testing.T) {
	pool := &stubPool{}
	repo := NewConversationRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != len(conversationSchema) {
		t.Fatalf("expected %d statements, got %d", len(conversationSchema), len(pool.execSQL))
	}
	if !strings.Contains(pool.execSQL[0], "conversation_messages") {
		t.Fatalf("unexpected schema statement: %s", pool.execSQL[0])
	}
}

func TestConversationRunMigrationsWrapsError(t *testing.T) {
	boom := errors.New("boom")
	pool := &stubPool{execErr: boom}
	repo := NewConversationRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.RunMigrations(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestConversationAppendMessageExecsInsert(t *testing.T) {
	pool := &stubPool{}
	repo := NewConversationRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.AppendMessage(context.Background(), 123, "user", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 {
		t.Fatalf("expected 1 exec call, got %d", len(pool.execSQL))
	}
	args := pool.execArgs[0]
	if args[0] != int64(123) || args[1] != "user" || args[2] != "hello" {
		t.Fatalf("unexpected insert args: %v", args)
	}
}

func TestConversationRecentMessagesReturnsChronological(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 1, 1, 10, 1, 0, 0, time.UTC)
	t3 := time.Date(2025, 1, 1, 10, 2, 0, 0, time.UTC)
	// Rows come back newest-first from the query
	pool := &stubPool{rowsData: [][]any{
		{"user", "and eth?", t3},
		{"assistant", "hi there", t2},
		{"user", "hello", t1},
	}}
	repo := NewConversationRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	messages, err := repo.RecentMessages(context.Background(), 123, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Content != "hello" || messages[1].Content != "hi there" || messages[2].Content != "and eth?" {
		t.Fatalf("expected oldest first, got %+v", messages)
	}
	if pool.queryArgs[1] != 10 {
		t.Fatalf("expected limit arg 10, got %v", pool.queryArgs[1])
	}
}

func TestConversationRecentMessagesDefaultsLimit(t *testing.T) {
	pool := &stubPool{}
	repo := NewConversationRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	messages, err := repo.RecentMessages(context.Background(), 999, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected 0 messages, got %d", len(messages))
	}
	if pool.queryArgs[1] != 20 {
		t.Fatalf("expected default limit 20, got %v", pool.queryArgs[1])
	}
}
