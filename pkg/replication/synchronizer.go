package replication

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/metrics"
)

var (
	ErrAlreadyRunning = errors.New("synchronizer already running")
)

// Synchronizer fans local writes out to peers and runs the background
// bootstrap and retry cycle.
type Synchronizer struct {
	config    Config
	source    EntrySource
	peers     PeerDirectory
	transport Transport
	logger    logging.Logger
	metrics   *metrics.Registry

	pending pendingQueue

	// cycleMu serialises background cycles with manually triggered ones.
	cycleMu sync.Mutex

	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	runningMu sync.Mutex
}

// NewSynchronizer creates a synchronizer. The background cycle does not run
// until Start is called. reg may be nil.
func NewSynchronizer(cfg Config, source EntrySource, peers PeerDirectory, transport Transport,
	logger logging.Logger, reg *metrics.Registry) *Synchronizer {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Synchronizer{
		config:    cfg,
		source:    source,
		peers:     peers,
		transport: transport,
		logger:    logger.With(logging.Component("replication")),
		metrics:   reg,
	}
}

// Start launches the background cycle. It stops when Stop is called or ctx
// is done.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go s.loop(ctx, s.stopCh)

	s.logger.Info("synchronizer started", logging.Duration("interval", s.config.Interval))
	return nil
}

// Stop interrupts the wait between cycles and blocks until the loop has
// exited and no cycle is in progress, including one started by Trigger or
// one the loop was running when its context ended. Calling Stop more than
// once is safe.
func (s *Synchronizer) Stop() {
	s.runningMu.Lock()
	wasRunning := s.running
	if wasRunning {
		close(s.stopCh)
		s.running = false
	}
	s.runningMu.Unlock()

	s.wg.Wait()
	// a triggered cycle holds cycleMu until it returns
	s.cycleMu.Lock()
	s.cycleMu.Unlock()
	if wasRunning {
		s.logger.Info("synchronizer stopped", logging.Count(s.pending.len()))
	}
}

// IsRunning reports whether the background cycle is active.
func (s *Synchronizer) IsRunning() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	return s.running
}

// loop runs a cycle straight away and then one per interval. Leaving the
// loop for any reason clears running; only Stop closes stopCh.
func (s *Synchronizer) loop(ctx context.Context, stopCh chan struct{}) {
	defer s.wg.Done()
	defer func() {
		s.runningMu.Lock()
		if s.stopCh == stopCh {
			s.running = false
		}
		s.runningMu.Unlock()
	}()

	s.RunOnce(context.WithoutCancel(ctx))

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			s.logger.Info("synchronizer context done", logging.Count(s.pending.len()))
			return
		case <-ticker.C:
			// a cycle in progress finishes even if Stop arrives meanwhile
			s.RunOnce(context.WithoutCancel(ctx))
		}
	}
}

// PendingCount returns the number of writes waiting for a retry.
func (s *Synchronizer) PendingCount() int {
	return s.pending.len()
}

// PendingTargets returns, per peer, the number of writes it is missing.
func (s *Synchronizer) PendingTargets() map[string]int {
	return s.pending.targetCounts()
}

func (s *Synchronizer) recordDelivery(kind string, err error) {
	if s.metrics != nil {
		s.metrics.RecordDelivery(kind, err)
	}
}

func (s *Synchronizer) updatePendingGauge() {
	if s.metrics != nil {
		s.metrics.ReplicationPendingBatches.Set(float64(s.pending.len()))
	}
}
