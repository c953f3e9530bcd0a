package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/sweeney/letterbox-robot/internal/gpio"
	"github.com/sweeney/letterbox-robot/internal/logic"
)

func init() {
	color.NoColor = true
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("output missing %q:\n%s", want, buf.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	cb := printer(&buf)
	cb(logic.DoorOpen, 0)
	cb(logic.DoorClosed, 3500*time.Millisecond)

	want := "door OPEN\ndoor CLOSED; elapsed:  3.50 sec.\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWatchPrintsUntilCancelled(t *testing.T) {
	w := gpio.NewFakeWatcher()
	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan error, 1)
	go func() { done <- watch(ctx, w, 7, 300*time.Millisecond, &out, logger) }()

	var sub *gpio.FakeSubscription
	deadline := time.Now().Add(2 * time.Second)
	for sub = w.Subscription(7); sub == nil; sub = w.Subscription(7) {
		if time.Now().After(deadline) {
			t.Fatal("watch never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sub.Emit(gpio.Edge{High: true, Time: base})
	waitFor(t, &out, "door OPEN")
	sub.Emit(gpio.Edge{High: false, Time: base.Add(2 * time.Second)})
	waitFor(t, &out, "elapsed:  2.00 sec.")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
	if !sub.Closed() {
		t.Error("subscription should be released")
	}
	if !strings.Contains(out.String(), "exiting") {
		t.Error("expected exit message")
	}
}
