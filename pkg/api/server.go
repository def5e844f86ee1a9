// Package api serves the synonym node HTTP API: cluster definition, synonym
// writes and queries, bulk synchronization imports, status and health.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dd0wney/cluso-synonyms/pkg/api/middleware"
	"github.com/dd0wney/cluso-synonyms/pkg/cluster"
	"github.com/dd0wney/cluso-synonyms/pkg/health"
	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/metrics"
	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
)

const (
	defaultMaxBodyBytes   = 10 << 20
	defaultBacklogWarning = 1000

	// snappy bodies may expand to this multiple of the wire limit
	maxDecodedFactor = 16
)

// Server represents the HTTP API server
type Server struct {
	store           *synonyms.Store
	registry        *cluster.Registry
	replicator      Replicator
	logger          logging.Logger
	metricsRegistry *metrics.Registry
	healthChecker   *health.HealthChecker
	corsConfig      *middleware.CORSConfig
	maxBodyBytes    int64
	backlogWarning  int
}

// NewServer creates the API server. reg may be nil to disable /metrics.
func NewServer(store *synonyms.Store, registry *cluster.Registry, replicator Replicator,
	logger logging.Logger, reg *metrics.Registry) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		store:           store,
		registry:        registry,
		replicator:      replicator,
		logger:          logger.With(logging.Component("api")),
		metricsRegistry: reg,
		corsConfig:      middleware.NewCORSConfig([]string{"*"}),
		maxBodyBytes:    defaultMaxBodyBytes,
		backlogWarning:  defaultBacklogWarning,
	}
	s.healthChecker = s.newHealthChecker()
	return s
}

// SetCORSOrigins replaces the allowed cross-origin callers.
func (s *Server) SetCORSOrigins(origins []string) {
	s.corsConfig = middleware.NewCORSConfig(origins)
}

// SetMaxBodyBytes bounds request bodies.
func (s *Server) SetMaxBodyBytes(n int64) {
	if n > 0 {
		s.maxBodyBytes = n
	}
}

// SetBacklogWarning sets the retry backlog at which health turns degraded.
func (s *Server) SetBacklogWarning(n int) {
	if n > 0 {
		s.backlogWarning = n
		s.healthChecker = s.newHealthChecker()
	}
}

// Health exposes the checker so callers can register extra checks.
func (s *Server) Health() *health.HealthChecker {
	return s.healthChecker
}

// Handler builds the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	router := s.routes()
	return middleware.Chain(router,
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.Metrics(s.recorder(), routeTemplate(router)),
		middleware.CORS(s.corsConfig),
		middleware.BodySizeLimit(s.maxBodyBytes),
	)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/cluster", s.handleDefineCluster).Methods(http.MethodPost)
	api.HandleFunc("/cluster", s.handleGetCluster).Methods(http.MethodGet)
	api.HandleFunc("/synonyms", s.handleAddSynonyms).Methods(http.MethodPost)
	api.HandleFunc("/synonyms", s.handleGetSynonyms).Methods(http.MethodGet)
	api.HandleFunc("/synchronization", s.handleImport).Methods(http.MethodPost)
	api.HandleFunc("/synchronization/run", s.handleRunSync).Methods(http.MethodPost)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	r.HandleFunc("/health", s.healthChecker.HTTPHandler()).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.healthChecker.ReadinessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/health/live", s.healthChecker.LivenessHandler()).Methods(http.MethodGet)
	if s.metricsRegistry != nil {
		r.Handle("/metrics", s.metricsRegistry.Handler()).Methods(http.MethodGet)
	}

	// a subrouter answers for its whole prefix, so it needs its own copies
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "No route for "+r.URL.Path)
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path)
	})
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = notAllowed
	}
	return r
}

// routeTemplate labels metrics with the matched path template.
func routeTemplate(router *mux.Router) middleware.RouteFunc {
	return func(r *http.Request) string {
		var match mux.RouteMatch
		if router.Match(r, &match) && match.Route != nil {
			if tpl, err := match.Route.GetPathTemplate(); err == nil {
				return tpl
			}
		}
		return "unmatched"
	}
}

func (s *Server) recorder() middleware.MetricsRecorder {
	if s.metricsRegistry == nil {
		return nil
	}
	return s.metricsRegistry
}

func (s *Server) newHealthChecker() *health.HealthChecker {
	hc := health.NewHealthChecker()
	hc.Register("cluster", health.ClusterCheck(func() (bool, int, int) {
		return s.registry.IsReady(), len(s.registry.GetMembers()), len(s.registry.GetPeersNeedingSync())
	}), health.Readiness)
	hc.Register("replication", health.ReplicationCheck(func() (bool, int) {
		return s.replicator.IsRunning(), s.replicator.PendingCount()
	}, s.backlogWarning))
	hc.Register("store", health.StoreCheck(func() (int, int) {
		st := s.store.Stats()
		return st.Words, st.Groups
	}), health.Liveness)
	return hc
}
