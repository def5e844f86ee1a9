package replication

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dd0wney/cluso-synonyms/pkg/client"
	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
)

// HTTPTransport delivers writes through the peers' public HTTP API.
// One http.Client is shared by all peers so connections are pooled.
type HTTPTransport struct {
	httpClient *http.Client
	compress   bool
	scheme     string

	mu      sync.Mutex
	clients map[string]*client.Client
}

// NewHTTPTransport creates a transport. Per-call deadlines come from the
// context, so the shared client carries no timeout of its own.
func NewHTTPTransport(cfg Config) *HTTPTransport {
	return &HTTPTransport{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: cfg.MaxConcurrentDeliveries,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		compress: cfg.CompressImports,
		scheme:   "http://",
		clients:  make(map[string]*client.Client),
	}
}

// UseTLS switches peer connections to HTTPS. Members listed without a scheme
// are dialed as https://. Call it before the first delivery.
func (t *HTTPTransport) UseTLS(cfg *tls.Config) {
	if cfg == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.httpClient.Transport.(*http.Transport).TLSClientConfig = cfg
	t.scheme = "https://"
	t.clients = make(map[string]*client.Client)
}

func (t *HTTPTransport) client(peer string) *client.Client {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clients[peer]
	if !ok {
		addr := peer
		if !strings.Contains(addr, "://") {
			addr = t.scheme + addr
		}
		c = client.New(addr, client.WithHTTPClient(t.httpClient), client.WithCompression(t.compress))
		t.clients[peer] = c
	}
	return c
}

// Retain drops the cached clients of addresses that are no longer peers.
func (t *HTTPTransport) Retain(peers []string) {
	keep := make(map[string]struct{}, len(peers))
	for _, p := range peers {
		keep[p] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for addr := range t.clients {
		if _, ok := keep[addr]; !ok {
			delete(t.clients, addr)
		}
	}
}

// Deliver posts the write with distribution disabled so the peer does not
// forward it again.
func (t *HTTPTransport) Deliver(ctx context.Context, peer, word string, syns []string) error {
	return t.client(peer).AddSynonyms(ctx, word, syns, false)
}

// Import posts a full transfer to the peer's synchronization endpoint.
func (t *HTTPTransport) Import(ctx context.Context, peer string, entries []synonyms.Entry) error {
	return t.client(peer).Import(ctx, entries)
}
