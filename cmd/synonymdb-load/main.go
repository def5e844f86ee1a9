package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-synonyms/pkg/client"
)

func main() {
	addr := flag.String("url", getEnvOrDefault("SYNONYMDB_URL", "http://localhost:8080"), "Node URL")
	numWords := flag.Int("words", 1000, "Number of distinct words")
	groupSize := flag.Int("group", 4, "Synonyms added per write")
	numQueries := flag.Int("queries", 5000, "Number of queries")
	concurrency := flag.Int("concurrency", 16, "Concurrent requests")
	limit := flag.Int("limit", 10, "Page size for queries")
	distribute := flag.Bool("distribute", true, "Replicate writes to the rest of the cluster")
	compress := flag.Bool("compress", false, "Send write bodies snappy-compressed")
	flag.Parse()

	if *groupSize < 2 || *groupSize > *numWords {
		log.Fatalf("--group must be between 2 and --words")
	}

	fmt.Printf("Synonym Store Load Test\n")
	fmt.Printf("=======================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Target:      %s\n", *addr)
	fmt.Printf("  Words:       %d\n", *numWords)
	fmt.Printf("  Group size:  %d\n", *groupSize)
	fmt.Printf("  Queries:     %d\n", *numQueries)
	fmt.Printf("  Concurrency: %d\n\n", *concurrency)

	c := client.New(*addr, client.WithCompression(*compress))
	ctx := context.Background()

	st, err := c.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to reach node: %v", err)
	}
	if !st.Ready {
		fmt.Fprintln(os.Stderr, "Cluster is not defined on the target node; run synonymdb-admin define-cluster first")
		os.Exit(1)
	}

	words := makeWords(*numWords)

	fmt.Printf("Writing synonym groups...\n")
	writes := runPhase(ctx, *concurrency, *numWords/ *groupSize, func(ctx context.Context, i int) error {
		base := i * *groupSize
		return c.AddSynonyms(ctx, words[base], words[base+1:base+*groupSize], *distribute)
	})
	writes.print()

	fmt.Printf("Querying...\n")
	reads := runPhase(ctx, *concurrency, *numQueries, func(ctx context.Context, _ int) error {
		_, err := c.GetSynonyms(ctx, words[rand.Intn(len(words))], *limit)
		return err
	})
	reads.print()

	if st, err := c.Status(ctx); err == nil {
		fmt.Printf("Node state:\n")
		fmt.Printf("  Words:           %d\n", st.Store.Words)
		fmt.Printf("  Groups:          %d\n", st.Store.Groups)
		fmt.Printf("  Pending batches: %d\n", st.PendingBatches)
	}

	if writes.Errors > 0 || reads.Errors > 0 {
		os.Exit(1)
	}
}

type PhaseStats struct {
	Requests   int
	Errors     int
	Duration   time.Duration
	Throughput float64
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
}

func (s PhaseStats) print() {
	fmt.Printf("   Requests:    %d (%d errors)\n", s.Requests, s.Errors)
	fmt.Printf("   Duration:    %s\n", s.Duration)
	fmt.Printf("   Throughput:  %.0f req/sec\n", s.Throughput)
	fmt.Printf("   Latency:     p50=%s p95=%s p99=%s\n\n", s.P50, s.P95, s.P99)
}

// runPhase issues n requests with at most concurrency in flight. Failures are
// counted, not fatal.
func runPhase(ctx context.Context, concurrency, n int, op func(context.Context, int) error) PhaseStats {
	var (
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, n)
		errCount  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	start := time.Now()
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			t := time.Now()
			err := op(gctx, i)
			elapsed := time.Since(t)

			mu.Lock()
			latencies = append(latencies, elapsed)
			if err != nil {
				errCount++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	stats := summarize(latencies, time.Since(start))
	stats.Errors = errCount
	return stats
}

func summarize(latencies []time.Duration, total time.Duration) PhaseStats {
	stats := PhaseStats{Requests: len(latencies), Duration: total}
	if len(latencies) == 0 {
		return stats
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	stats.P50 = percentile(latencies, 0.50)
	stats.P95 = percentile(latencies, 0.95)
	stats.P99 = percentile(latencies, 0.99)
	if total > 0 {
		stats.Throughput = float64(len(latencies)) / total.Seconds()
	}
	return stats
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func makeWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word-%06d", i)
	}
	return words
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
