package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type mockCounter struct {
	key    string
	limit  int
	window time.Duration
	ok     bool
	err    error
}

func (m *mockCounter) AdmitWindow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.key, m.limit, m.window = key, limit, window
	return m.ok, m.err
}

func TestShared_Admitted(t *testing.T) {
	c := &mockCounter{ok: true}
	s := NewShared(c, 10, time.Minute, zap.NewNop())

	if !s.Admit(context.Background(), "1.2.3.4") {
		t.Fatal("expected admission")
	}
	if c.key != "aegis:rate_limit:1.2.3.4" {
		t.Fatalf("key = %q", c.key)
	}
	if c.limit != 10 || c.window != time.Minute {
		t.Fatalf("limit=%d window=%v", c.limit, c.window)
	}
}

func TestShared_Denied(t *testing.T) {
	s := NewShared(&mockCounter{ok: false}, 10, time.Minute, zap.NewNop())
	if s.Admit(context.Background(), "1.2.3.4") {
		t.Fatal("expected denial")
	}
}

func TestShared_FailOpen(t *testing.T) {
	s := NewShared(&mockCounter{err: errors.New("connection refused")}, 10, time.Minute, zap.NewNop())
	if !s.Admit(context.Background(), "1.2.3.4") {
		t.Fatal("store error must admit")
	}
}

func TestShared_Defaults(t *testing.T) {
	c := &mockCounter{ok: true}
	s := NewShared(c, -1, 0, zap.NewNop())
	s.Admit(context.Background(), "x")
	if c.limit != DefaultLimit || c.window != DefaultWindow {
		t.Fatalf("limit=%d window=%v", c.limit, c.window)
	}
}
