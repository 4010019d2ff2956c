package player

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newTestRegistry() (*Registry, *fakeDialer, *fakePipeline) {
	d := &fakeDialer{}
	pipe := &fakePipeline{block: make(chan struct{})}
	return NewRegistry(d, pipe, 16, zerolog.Nop()), d, pipe
}

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	r, _, _ := newTestRegistry()

	a := r.GetOrCreate("guild-1")
	b := r.GetOrCreate("guild-1")
	if a != b {
		t.Error("GetOrCreate returned distinct sessions for the same guild")
	}
	if c := r.GetOrCreate("guild-2"); c == a {
		t.Error("distinct guilds share a session")
	}
}

func TestGetAbsent(t *testing.T) {
	r, _, _ := newTestRegistry()
	if _, ok := r.Get("guild-1"); ok {
		t.Error("Get() reported a session that was never created")
	}

	r.GetOrCreate("guild-1")
	if _, ok := r.Get("guild-1"); !ok {
		t.Error("Get() missed an existing session")
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	r, _, _ := newTestRegistry()

	const workers = 16
	sessions := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessions[i] = r.GetOrCreate("guild-1")
		}()
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent GetOrCreate produced more than one session")
		}
	}
}

func TestRemoveDisconnectsSession(t *testing.T) {
	r, d, _ := newTestRegistry()

	s := r.GetOrCreate("guild-1")
	if err := s.Join("chan-a"); err != nil {
		t.Fatal(err)
	}

	r.Remove("guild-1")

	if !d.conn(0).isDisconnected() {
		t.Error("Remove did not release the voice connection")
	}
	if _, ok := r.Get("guild-1"); ok {
		t.Error("session still registered after Remove")
	}
	if err := s.Enqueue(directReq("late")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Enqueue() after Remove error = %v, want ErrNotConnected", err)
	}
}

func TestShutdownDisconnectsAll(t *testing.T) {
	r, d, _ := newTestRegistry()

	for _, g := range []string{"guild-1", "guild-2"} {
		s := r.GetOrCreate(g)
		if err := s.Join("chan-" + g); err != nil {
			t.Fatal(err)
		}
	}

	r.Shutdown()

	if d.dialCount() != 2 {
		t.Fatalf("dialed %d times, want 2", d.dialCount())
	}
	for i := 0; i < 2; i++ {
		if !d.conn(i).isDisconnected() {
			t.Errorf("connection %d not released on Shutdown", i)
		}
	}
	if _, ok := r.Get("guild-1"); ok {
		t.Error("sessions survived Shutdown")
	}
}

func TestGuildsPlayIndependently(t *testing.T) {
	r, _, pipe := newTestRegistry()

	for _, g := range []string{"g1", "g2"} {
		s := r.GetOrCreate(g)
		if err := s.Join("chan-" + g); err != nil {
			t.Fatal(err)
		}
		if err := s.Enqueue(directReq("clip-" + g)); err != nil {
			t.Fatal(err)
		}
	}

	// Both guild workers must stream at the same time.
	waitFor(t, "both guilds to start streaming", func() bool { return pipe.peakActive() == 2 })
	close(pipe.block)
	waitFor(t, "both items to finish", func() bool { return len(pipe.finishedItems()) == 2 })
}
