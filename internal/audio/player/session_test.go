package player

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/uiguuna/uiguuna/internal/audio/sources"
)

type fakeConn struct {
	channelID string

	mu           sync.Mutex
	disconnected bool
	ch           chan []byte
}

func newFakeConn(channelID string) *fakeConn {
	return &fakeConn{channelID: channelID, ch: make(chan []byte, 256)}
}

func (c *fakeConn) Speaking(bool) error     { return nil }
func (c *fakeConn) OpusSend() chan<- []byte { return c.ch }
func (c *fakeConn) ChannelID() string       { return c.channelID }

func (c *fakeConn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

func (c *fakeConn) isDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  bool
}

func (d *fakeDialer) Dial(_, channelID string) (Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, errors.New("gateway refused")
	}
	c := newFakeConn(channelID)
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

// fakePipeline records item lifecycles. When block is non-nil every Play
// waits for one token (or cancellation).
type fakePipeline struct {
	block chan struct{}

	mu        sync.Mutex
	started   []string
	finished  []string
	active    int
	maxActive int
	errFor    map[string]error
}

func (p *fakePipeline) Play(ctx context.Context, req sources.Request, _ Connection) error {
	p.mu.Lock()
	p.started = append(p.started, req.Payload)
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	block := p.block
	p.mu.Unlock()

	var err error
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	p.mu.Lock()
	p.active--
	p.finished = append(p.finished, req.Payload)
	if e, ok := p.errFor[req.Payload]; ok && err == nil {
		err = e
	}
	p.mu.Unlock()
	return err
}

func (p *fakePipeline) startedItems() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.started)
}

func (p *fakePipeline) finishedItems() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.finished)
}

func (p *fakePipeline) peakActive() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxActive
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestSession(t *testing.T, pipe Pipeline) (*Session, *fakeDialer) {
	t.Helper()
	d := &fakeDialer{}
	s := newSession("guild-1", d, pipe, 16, zerolog.Nop())
	return s, d
}

func directReq(payload string) sources.Request {
	return sources.Request{GuildID: "guild-1", Kind: sources.KindDirect, Payload: payload}
}

func TestEnqueueRejectedWhenNotConnected(t *testing.T) {
	s, _ := newTestSession(t, &fakePipeline{})
	if err := s.Enqueue(directReq("clip1")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Enqueue() error = %v, want ErrNotConnected", err)
	}
}

func TestJoinSameChannelIsNoOp(t *testing.T) {
	s, d := newTestSession(t, &fakePipeline{})

	if err := s.Join("chan-a"); err != nil {
		t.Fatalf("Join() returned error: %v", err)
	}
	if err := s.Join("chan-a"); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("second Join() error = %v, want ErrAlreadyConnected", err)
	}
	if d.dialCount() != 1 {
		t.Errorf("dialed %d times, want 1 (no reconnect on same channel)", d.dialCount())
	}
}

func TestJoinDifferentChannelSwapsConnection(t *testing.T) {
	s, d := newTestSession(t, &fakePipeline{})

	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Join("chan-b"); err != nil {
		t.Fatal(err)
	}

	if d.dialCount() != 2 {
		t.Fatalf("dialed %d times, want 2", d.dialCount())
	}
	if !d.conn(0).isDisconnected() {
		t.Error("old connection was not released after the swap")
	}
	if d.conn(1).isDisconnected() {
		t.Error("new connection must stay up")
	}
	if got := s.ChannelID(); got != "chan-b" {
		t.Errorf("ChannelID() = %q, want chan-b", got)
	}
}

func TestJoinFailureKeepsPriorState(t *testing.T) {
	s, d := newTestSession(t, &fakePipeline{})

	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}

	d.mu.Lock()
	d.fail = true
	d.mu.Unlock()

	if err := s.Join("chan-b"); err == nil {
		t.Fatal("Join() succeeded despite dial failure")
	}
	if got := s.ChannelID(); got != "chan-a" {
		t.Errorf("ChannelID() = %q after failed join, want chan-a", got)
	}
	if d.conn(0).isDisconnected() {
		t.Error("existing connection released on failed join")
	}
}

func TestEnqueueOrderPreserved(t *testing.T) {
	pipe := &fakePipeline{}
	s, _ := newTestSession(t, pipe)
	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}

	want := []string{"one", "two", "three", "four", "five"}
	for _, p := range want {
		if err := s.Enqueue(directReq(p)); err != nil {
			t.Fatalf("Enqueue(%q) returned error: %v", p, err)
		}
	}

	waitFor(t, "all items to finish", func() bool { return len(pipe.finishedItems()) == len(want) })

	if got := pipe.finishedItems(); !slices.Equal(got, want) {
		t.Errorf("play order = %v, want %v", got, want)
	}
	if pipe.peakActive() != 1 {
		t.Errorf("peak concurrent playbacks = %d, want 1", pipe.peakActive())
	}
}

func TestSkipCancelsOnlyCurrentItem(t *testing.T) {
	pipe := &fakePipeline{block: make(chan struct{})}
	s, _ := newTestSession(t, pipe)
	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}

	if err := s.Enqueue(directReq("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Enqueue(directReq("second")); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "first item to start", func() bool {
		return slices.Contains(pipe.startedItems(), "first")
	})

	if !s.Skip() {
		t.Fatal("Skip() = false while an item was streaming")
	}

	// The same worker must pick up the second item after the abort unwinds.
	waitFor(t, "second item to start", func() bool {
		return slices.Contains(pipe.startedItems(), "second")
	})
	pipe.block <- struct{}{} // let the second item run to completion

	waitFor(t, "both items to finish", func() bool { return len(pipe.finishedItems()) == 2 })
	if got := pipe.finishedItems(); !slices.Equal(got, []string{"first", "second"}) {
		t.Errorf("finish order = %v, want [first second]", got)
	}
}

func TestSkipWithNothingPlaying(t *testing.T) {
	s, _ := newTestSession(t, &fakePipeline{})
	if s.Skip() {
		t.Error("Skip() = true on an idle session, want false")
	}

	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}
	if s.Skip() {
		t.Error("Skip() = true on an idle connected session, want false")
	}
}

func TestWorkerRestartsAfterIdle(t *testing.T) {
	pipe := &fakePipeline{}
	s, _ := newTestSession(t, pipe)
	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}

	if err := s.Enqueue(directReq("one")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "first item to finish", func() bool { return len(pipe.finishedItems()) == 1 })
	waitFor(t, "worker to exit", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.working
	})

	// An enqueue on an idle queue must spawn a fresh worker.
	if err := s.Enqueue(directReq("two")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "second item to finish", func() bool { return len(pipe.finishedItems()) == 2 })
}

func TestSkipWhileResolvingLeavesQueueEmpty(t *testing.T) {
	pipe := &fakePipeline{block: make(chan struct{})}
	s, _ := newTestSession(t, pipe)
	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}

	if err := s.Enqueue(directReq("hi")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "item to start", func() bool { return len(pipe.startedItems()) == 1 })

	if !s.Skip() {
		t.Fatal("Skip() = false while item in flight")
	}

	waitFor(t, "item to unwind", func() bool { return len(pipe.finishedItems()) == 1 })
	waitFor(t, "worker to exit cleanly", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.working && len(s.items) == 0
	})
}

func TestPipelineErrorDoesNotStopQueue(t *testing.T) {
	pipe := &fakePipeline{errFor: map[string]error{"bad": errors.New("boom")}}
	s, _ := newTestSession(t, pipe)
	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"bad", "good"} {
		if err := s.Enqueue(directReq(p)); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, "both items to finish", func() bool { return len(pipe.finishedItems()) == 2 })
	if got := pipe.finishedItems(); !slices.Equal(got, []string{"bad", "good"}) {
		t.Errorf("finish order = %v, want [bad good]", got)
	}
}

func TestLeaveDropsPendingAndCancelsCurrent(t *testing.T) {
	pipe := &fakePipeline{block: make(chan struct{})}
	s, d := newTestSession(t, pipe)
	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"a", "b", "c"} {
		if err := s.Enqueue(directReq(p)); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, "first item to start", func() bool { return len(pipe.startedItems()) == 1 })

	if err := s.Leave(); err != nil {
		t.Fatalf("Leave() returned error: %v", err)
	}

	if !d.conn(0).isDisconnected() {
		t.Error("connection not released on Leave")
	}
	if err := s.Enqueue(directReq("late")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Enqueue() after Leave error = %v, want ErrNotConnected", err)
	}

	// Only the cancelled first item may ever reach the pipeline.
	waitFor(t, "worker to drain", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.working
	})
	if got := pipe.startedItems(); len(got) != 1 {
		t.Errorf("started items = %v, want only the first", got)
	}
}

func TestLeaveWhenNotConnected(t *testing.T) {
	s, _ := newTestSession(t, &fakePipeline{})
	if err := s.Leave(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Leave() error = %v, want ErrNotConnected", err)
	}
}

func TestQueueFull(t *testing.T) {
	pipe := &fakePipeline{block: make(chan struct{})}
	t.Cleanup(func() { close(pipe.block) })
	d := &fakeDialer{}
	s := newSession("guild-1", d, pipe, 2, zerolog.Nop())
	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}

	// First item starts streaming, two more fill the channel.
	if err := s.Enqueue(directReq("playing")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "first item to start", func() bool { return len(pipe.startedItems()) == 1 })
	for _, p := range []string{"q1", "q2"} {
		if err := s.Enqueue(directReq(p)); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Enqueue(directReq("overflow")); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue() error = %v, want ErrQueueFull", err)
	}
}
