package replication

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-synonyms/pkg/cluster"
	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/metrics"
	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
	dto "github.com/prometheus/client_model/go"
)

var errUnreachable = errors.New("connection refused")

type delivery struct {
	Peer     string
	Word     string
	Synonyms []string
}

// fakeTransport records calls and fails for peers marked down.
type fakeTransport struct {
	mu         sync.Mutex
	down       map[string]bool
	deliveries []delivery
	imports    map[string][]synonyms.Entry
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{down: make(map[string]bool), imports: make(map[string][]synonyms.Entry)}
}

func (f *fakeTransport) setDown(peer string, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down[peer] = down
}

func (f *fakeTransport) Deliver(ctx context.Context, peer, word string, syns []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down[peer] {
		return errUnreachable
	}
	f.deliveries = append(f.deliveries, delivery{Peer: peer, Word: word, Synonyms: syns})
	return nil
}

func (f *fakeTransport) Import(ctx context.Context, peer string, entries []synonyms.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down[peer] {
		return errUnreachable
	}
	f.imports[peer] = entries
	return nil
}

func (f *fakeTransport) deliveredTo(peer string) []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []delivery
	for _, d := range f.deliveries {
		if d.Peer == peer {
			out = append(out, d)
		}
	}
	return out
}

func (f *fakeTransport) importedTo(peer string) ([]synonyms.Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.imports[peer]
	return e, ok
}

// gatedTransport holds every delivery until release is closed.
type gatedTransport struct {
	*fakeTransport
	entered chan string
	release chan struct{}
}

func newGatedTransport(inner *fakeTransport) *gatedTransport {
	return &gatedTransport{fakeTransport: inner, entered: make(chan string, 16), release: make(chan struct{})}
}

func (g *gatedTransport) Deliver(ctx context.Context, peer, word string, syns []string) error {
	g.entered <- peer
	<-g.release
	return g.fakeTransport.Deliver(ctx, peer, word, syns)
}

// prunedTransport records the peer lists passed to Retain.
type prunedTransport struct {
	*fakeTransport
	mu       sync.Mutex
	retained [][]string
}

func (p *prunedTransport) Retain(peers []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retained = append(p.retained, peers)
}

func newTestSync(t *testing.T, members ...string) (*Synchronizer, *cluster.Registry, *synonyms.Store, *fakeTransport) {
	t.Helper()
	reg := cluster.NewRegistry(nil)
	require.NoError(t, reg.SetMembers(members[0], members))
	store := synonyms.NewStore()
	tr := newFakeTransport()
	cfg := DefaultConfig()
	cfg.Interval = 20 * time.Millisecond
	return NewSynchronizer(cfg, store, reg, tr, logging.NewNopLogger(), nil), reg, store, tr
}

func TestPropagate_DeliversToAllPeers(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1", "c:1")

	s.Propagate(context.Background(), "big", []string{"large"})

	for _, p := range []string{"b:1", "c:1"} {
		assert.Equal(t, []delivery{{Peer: p, Word: "big", Synonyms: []string{"large"}}}, tr.deliveredTo(p))
	}
	assert.Empty(t, tr.deliveredTo("self:1"))
	assert.Equal(t, 0, s.PendingCount())
}

func TestPropagate_NoPeers(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1")

	s.Propagate(context.Background(), "big", []string{"large"})

	assert.Empty(t, tr.deliveries)
	assert.Equal(t, 0, s.PendingCount())
}

func TestPropagate_FailedPeersAreQueued(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1", "c:1", "d:1")
	tr.setDown("b:1", true)
	tr.setDown("d:1", true)

	s.Propagate(context.Background(), "big", []string{"large"})

	assert.Equal(t, 1, s.PendingCount())
	assert.Equal(t, map[string]int{"b:1": 1, "d:1": 1}, s.PendingTargets())
	assert.Len(t, tr.deliveredTo("c:1"), 1)
}

func TestPropagate_CopiesSynonyms(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1")
	tr.setDown("b:1", true)
	syns := []string{"large"}

	s.Propagate(context.Background(), "big", syns)
	syns[0] = "mutated"
	tr.setDown("b:1", false)
	s.RunOnce(context.Background())

	require.Len(t, tr.deliveredTo("b:1"), 1)
	assert.Equal(t, []string{"large"}, tr.deliveredTo("b:1")[0].Synonyms)
}

func TestPropagate_IgnoresCallerCancellation(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Propagate(ctx, "big", []string{"large"})

	assert.Len(t, tr.deliveredTo("b:1"), 1)
}

func TestRunOnce_RetriesUntilDelivered(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1")
	tr.setDown("b:1", true)
	s.Propagate(context.Background(), "a", []string{"b"})

	s.RunOnce(context.Background())
	assert.Equal(t, 1, s.PendingCount(), "still unreachable, batch must stay queued")

	tr.setDown("b:1", false)
	s.RunOnce(context.Background())

	assert.Equal(t, 0, s.PendingCount())
	assert.Equal(t, []delivery{{Peer: "b:1", Word: "a", Synonyms: []string{"b"}}}, tr.deliveredTo("b:1"))
}

func TestRunOnce_BacklogCountedWhileRetryInFlight(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1")
	tr.setDown("b:1", true)
	s.Propagate(context.Background(), "a", []string{"b"})
	require.Equal(t, 1, s.PendingCount())

	gate := newGatedTransport(tr)
	s.transport = gate
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunOnce(context.Background())
	}()

	<-gate.entered
	assert.Equal(t, 1, s.PendingCount(), "a batch being retried is still pending")
	assert.Equal(t, map[string]int{"b:1": 1}, s.PendingTargets())

	close(gate.release)
	<-done
	assert.Equal(t, 1, s.PendingCount(), "b:1 is still down")

	tr.setDown("b:1", false)
	s.transport = tr
	s.RunOnce(context.Background())
	assert.Equal(t, 0, s.PendingCount())
}

func TestRunOnce_WritesDuringRetryKeepOrder(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1")
	tr.setDown("b:1", true)
	s.Propagate(context.Background(), "first", []string{"x"})

	gate := newGatedTransport(tr)
	s.transport = gate
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunOnce(context.Background())
	}()
	<-gate.entered

	s.transport = tr
	s.Propagate(context.Background(), "second", []string{"y"})
	assert.Equal(t, 2, s.PendingCount())

	close(gate.release)
	<-done

	batches := s.pending.drain()
	s.pending.settle(batches)
	require.Len(t, batches, 2)
	assert.Equal(t, "first", batches[0].word)
	assert.Equal(t, "second", batches[1].word)
	assert.Equal(t, 2, batches[0].attempts)
}

func TestTrigger_CoalescesWhileCycleRuns(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1")
	tr.setDown("b:1", true)
	s.Propagate(context.Background(), "a", []string{"b"})

	gate := newGatedTransport(tr)
	s.transport = gate

	require.True(t, s.Trigger(context.Background()))
	<-gate.entered
	assert.False(t, s.Trigger(context.Background()), "a cycle is already in progress")

	close(gate.release)
	s.Stop()
	assert.Equal(t, 1, s.PendingCount())
	assert.True(t, s.Trigger(context.Background()))
	s.Stop()
}

func TestRunOnce_PrunesTransportToCurrentPeers(t *testing.T) {
	s, members, _, tr := newTestSync(t, "self:1", "b:1", "c:1")
	pt := &prunedTransport{fakeTransport: tr}
	s.transport = pt

	s.RunOnce(context.Background())
	require.NoError(t, members.SetMembers("self:1", []string{"self:1", "c:1"}))
	s.RunOnce(context.Background())

	pt.mu.Lock()
	defer pt.mu.Unlock()
	require.Len(t, pt.retained, 2)
	assert.ElementsMatch(t, []string{"b:1", "c:1"}, pt.retained[0])
	assert.Equal(t, []string{"c:1"}, pt.retained[1])
}

func TestRunOnce_RetryOnlyFailedSubset(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1", "c:1")
	tr.setDown("b:1", true)
	s.Propagate(context.Background(), "a", []string{"b"})
	tr.setDown("b:1", false)

	s.RunOnce(context.Background())

	assert.Len(t, tr.deliveredTo("b:1"), 1)
	assert.Len(t, tr.deliveredTo("c:1"), 1, "c:1 already had the write and must not receive it twice")
}

func TestRunOnce_DropsRemovedPeers(t *testing.T) {
	reg := metrics.NewRegistry()
	s, members, _, tr := newTestSync(t, "self:1", "b:1", "c:1")
	s.metrics = reg
	tr.setDown("b:1", true)
	tr.setDown("c:1", true)
	s.Propagate(context.Background(), "a", []string{"b"})

	require.NoError(t, members.SetMembers("self:1", []string{"self:1", "c:1"}))
	tr.setDown("c:1", false)
	s.RunOnce(context.Background())

	assert.Equal(t, 0, s.PendingCount())
	assert.Empty(t, tr.deliveredTo("b:1"))
	assert.Len(t, tr.deliveredTo("c:1"), 1)

	var m dto.Metric
	require.NoError(t, reg.ReplicationDroppedTargets.Write(&m))
	assert.Equal(t, float64(1), m.Counter.GetValue())
}

func TestRunOnce_BatchDiscardedWhenAllTargetsLeft(t *testing.T) {
	s, members, _, tr := newTestSync(t, "self:1", "b:1")
	tr.setDown("b:1", true)
	s.Propagate(context.Background(), "a", []string{"b"})

	require.NoError(t, members.SetMembers("self:1", []string{"self:1"}))
	s.RunOnce(context.Background())

	assert.Equal(t, 0, s.PendingCount())
}

func TestRunOnce_BootstrapsNewPeers(t *testing.T) {
	s, members, store, tr := newTestSync(t, "self:1", "b:1")
	require.NoError(t, store.AddSynonyms("a", []string{"b", "c"}))
	require.NoError(t, store.AddSynonyms("x", []string{"y"}))

	// b:1 was part of the first definition and is not flagged
	s.RunOnce(context.Background())
	_, imported := tr.importedTo("b:1")
	assert.False(t, imported)

	require.NoError(t, members.SetMembers("self:1", []string{"self:1", "b:1", "new:1"}))
	s.RunOnce(context.Background())

	entries, ok := tr.importedTo("new:1")
	require.True(t, ok)
	assert.ElementsMatch(t, store.Entries(), entries)
	assert.Empty(t, members.GetPeersNeedingSync())
}

func TestRunOnce_BootstrapFailureKeepsFlag(t *testing.T) {
	s, members, _, tr := newTestSync(t, "self:1")
	require.NoError(t, members.SetMembers("self:1", []string{"self:1", "new:1"}))
	tr.setDown("new:1", true)

	s.RunOnce(context.Background())
	assert.Equal(t, []string{"new:1"}, members.GetPeersNeedingSync())

	tr.setDown("new:1", false)
	s.RunOnce(context.Background())
	assert.Empty(t, members.GetPeersNeedingSync())
}

func TestStartStop(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1")
	tr.setDown("b:1", true)
	s.Propagate(context.Background(), "a", []string{"b"})
	tr.setDown("b:1", false)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return s.PendingCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())

	// restartable after stop
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestStart_ContextCancelStopsLoop(t *testing.T) {
	s, _, _, _ := newTestSync(t, "self:1")
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestStart_RunsFirstCycleImmediately(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1")
	s.config.Interval = time.Hour
	tr.setDown("b:1", true)
	s.Propagate(context.Background(), "a", []string{"b"})
	tr.setDown("b:1", false)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return len(tr.deliveredTo("b:1")) == 1 }, time.Second, 5*time.Millisecond)
}

func TestStop_WaitsForCycleAfterContextCancel(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1")
	tr.setDown("b:1", true)
	s.Propagate(context.Background(), "a", []string{"b"})

	gate := newGatedTransport(tr)
	s.transport = gate
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	<-gate.entered
	cancel()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was still delivering")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop never returned")
	}
	assert.False(t, s.IsRunning())
}

func TestPropagate_ConcurrentWithCycles(t *testing.T) {
	s, _, _, tr := newTestSync(t, "self:1", "b:1", "c:1")
	tr.setDown("c:1", true)
	require.NoError(t, s.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Propagate(context.Background(), "w", []string{string(rune('a' + i))})
		}(i)
	}
	wg.Wait()
	tr.setDown("c:1", false)

	assert.Eventually(t, func() bool { return s.PendingCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()

	words := func(ds []delivery) []string {
		var out []string
		for _, d := range ds {
			out = append(out, d.Synonyms[0])
		}
		sort.Strings(out)
		return out
	}
	assert.Equal(t, words(tr.deliveredTo("b:1")), words(tr.deliveredTo("c:1")))
	assert.Len(t, tr.deliveredTo("c:1"), 20)
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultConfig(), Config{
		Interval:                cfg.Interval,
		RequestTimeout:          cfg.RequestTimeout,
		ImportTimeout:           cfg.ImportTimeout,
		MaxConcurrentDeliveries: cfg.MaxConcurrentDeliveries,
		CompressImports:         true,
		BacklogWarning:          cfg.BacklogWarning,
	})
	assert.Equal(t, 10*time.Second, cfg.Interval)
	require.NoError(t, cfg.Validate())

	cfg.MaxConcurrentDeliveries = 0
	assert.Error(t, cfg.Validate())
}
