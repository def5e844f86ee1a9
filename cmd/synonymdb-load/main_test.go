package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	var lat []time.Duration
	for i := 100; i >= 1; i-- {
		lat = append(lat, time.Duration(i)*time.Millisecond)
	}

	s := summarize(lat, 2*time.Second)

	assert.Equal(t, 100, s.Requests)
	assert.Equal(t, 50*time.Millisecond, s.P50)
	assert.Equal(t, 95*time.Millisecond, s.P95)
	assert.Equal(t, 99*time.Millisecond, s.P99)
	assert.InDelta(t, 50.0, s.Throughput, 0.001)
}

func TestSummarize_Empty(t *testing.T) {
	s := summarize(nil, time.Second)
	assert.Zero(t, s.Requests)
	assert.Zero(t, s.P99)
}

func TestRunPhase_CountsErrors(t *testing.T) {
	var inFlight, peak atomic.Int32
	s := runPhase(context.Background(), 3, 20, func(ctx context.Context, i int) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		if i%5 == 0 {
			return errors.New("boom")
		}
		return nil
	})

	assert.Equal(t, 20, s.Requests)
	assert.Equal(t, 4, s.Errors)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestMakeWords(t *testing.T) {
	w := makeWords(3)
	assert.Equal(t, []string{"word-000000", "word-000001", "word-000002"}, w)
}
