package replication

import (
	"context"
	"time"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/metrics"
	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
)

// RunOnce performs one cycle synchronously: full transfers to new peers
// first, then a retry of every buffered write. It waits for a cycle already
// in progress.
func (s *Synchronizer) RunOnce(ctx context.Context) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	s.runCycle(ctx)
}

// Trigger starts one cycle in the background and reports true, or reports
// false without doing anything when a cycle is already in progress.
func (s *Synchronizer) Trigger(ctx context.Context) bool {
	if !s.cycleMu.TryLock() {
		return false
	}
	go func() {
		defer s.cycleMu.Unlock()
		s.runCycle(ctx)
	}()
	return true
}

// runCycle expects cycleMu to be held.
func (s *Synchronizer) runCycle(ctx context.Context) {
	if p, ok := s.transport.(peerPruner); ok {
		p.Retain(s.peers.GetPeers())
	}

	start := time.Now()
	s.bootstrapPeers(ctx)
	s.retryPending(ctx)

	if s.metrics != nil {
		s.metrics.RecordReplicationCycle(time.Since(start), s.pending.len())
	}
}

// bootstrapPeers sends the whole store to every peer flagged as needing a
// full sync. A peer stays flagged until a transfer succeeds.
func (s *Synchronizer) bootstrapPeers(ctx context.Context) {
	targets := s.peers.GetPeersNeedingSync()
	if len(targets) == 0 {
		return
	}

	var entries []synonyms.Entry
	for _, peer := range targets {
		if entries == nil {
			entries = s.source.Entries()
		}

		timer := logging.StartTimer(s.logger, "full sync", logging.Peer(peer), logging.Count(len(entries)))
		callCtx, cancel := context.WithTimeout(ctx, s.config.ImportTimeout)
		err := s.transport.Import(callCtx, peer, entries)
		cancel()

		s.recordDelivery(metrics.DeliveryBootstrap, err)
		if s.metrics != nil {
			s.metrics.RecordFullSync(err)
		}
		if err != nil {
			timer.Fail(err)
			continue
		}
		timer.Done()
		s.peers.MarkSynced(peer)
		s.logger.Info("peer synchronized", logging.Peer(peer), logging.Count(len(entries)))
	}
}

// retryPending drains the retry buffer and retries each write against the
// peers that are still members and still missing it.
func (s *Synchronizer) retryPending(ctx context.Context) {
	batches := s.pending.drain()
	if len(batches) == 0 {
		return
	}

	current := make(map[string]struct{})
	for _, p := range s.peers.GetPeers() {
		current[p] = struct{}{}
	}

	var remaining []*batch
	for _, b := range batches {
		targets := b.targets[:0:0]
		for _, t := range b.targets {
			if _, ok := current[t]; ok {
				targets = append(targets, t)
			}
		}
		if dropped := len(b.targets) - len(targets); dropped > 0 && s.metrics != nil {
			s.metrics.ReplicationDroppedTargets.Add(float64(dropped))
		}
		if len(targets) == 0 {
			continue
		}

		failed := s.deliverAll(ctx, metrics.DeliveryRetry, b.word, b.synonyms, targets)
		if len(failed) == 0 {
			s.logger.Debug("queued write delivered",
				logging.BatchID(b.id), logging.Word(b.word), logging.Int("attempts", b.attempts+1))
			continue
		}
		next := *b
		next.targets = failed
		next.attempts++
		remaining = append(remaining, &next)
	}

	s.pending.settle(remaining)
	if len(remaining) > 0 {
		s.logger.Warn("writes still undelivered",
			logging.Count(len(remaining)), logging.Int("pending", s.pending.len()))
	}
	s.updatePendingGauge()
}
