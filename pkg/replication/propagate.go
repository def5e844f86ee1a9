package replication

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/metrics"
)

// Propagate sends one local write to every current peer. Peers that cannot
// be reached are queued for the next cycle. Delivery failures are never
// returned to the caller, and cancelling ctx does not abort deliveries
// already under way.
func (s *Synchronizer) Propagate(ctx context.Context, word string, syns []string) {
	peers := s.peers.GetPeers()
	if len(peers) == 0 {
		return
	}

	cp := make([]string, len(syns))
	copy(cp, syns)

	failed := s.deliverAll(context.WithoutCancel(ctx), metrics.DeliveryPropagate, word, cp, peers)
	if len(failed) == 0 {
		return
	}

	b := newBatch(word, cp, failed)
	s.pending.push(b)
	s.updatePendingGauge()
	s.logger.Warn("write queued for retry",
		logging.Word(word), logging.Peers(failed), logging.BatchID(b.id))
}

// deliverAll calls every target concurrently and returns the ones that
// failed, in target order.
func (s *Synchronizer) deliverAll(ctx context.Context, kind, word string, syns, targets []string) []string {
	results := make([]error, len(targets))

	var g errgroup.Group
	g.SetLimit(s.config.MaxConcurrentDeliveries)
	for i, peer := range targets {
		i, peer := i, peer
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
			defer cancel()

			err := s.transport.Deliver(callCtx, peer, word, syns)
			s.recordDelivery(kind, err)
			if err != nil {
				s.logger.Debug("delivery failed",
					logging.String("kind", kind), logging.Peer(peer), logging.Word(word), logging.Error(err))
			}
			results[i] = err
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, err := range results {
		if err != nil {
			failed = append(failed, targets[i])
		}
	}
	return failed
}
